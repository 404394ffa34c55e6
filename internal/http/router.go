package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/teledermato/intake-service/internal/auth"
	"github.com/teledermato/intake-service/internal/session"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// SetupRouter initializes all routes for the application
func SetupRouter(sessionService session.ServiceInterface, verifier *auth.Verifier, perms map[string][]string) *mux.Router {
	sessionHandler := session.NewHandler(sessionService)

	r := mux.NewRouter()
	r.Use(otelmux.Middleware("intake-service"))

	// Public health endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"intake-service"}`))
	}).Methods("GET")

	// Session lifecycle routes
	r.Handle("/intake/sessions",
		auth.Middleware(verifier)(
			auth.RequirePermission("intake:create", perms)(
				http.HandlerFunc(sessionHandler.CreateSession),
			),
		),
	).Methods("POST")

	r.Handle("/intake/sessions",
		auth.Middleware(verifier)(
			auth.RequirePermission("intake:view", perms)(
				http.HandlerFunc(sessionHandler.ListSessions),
			),
		),
	).Methods("GET")

	r.Handle("/intake/sessions/{id}",
		auth.Middleware(verifier)(
			auth.RequirePermission("intake:view", perms)(
				http.HandlerFunc(sessionHandler.GetSession),
			),
		),
	).Methods("GET")

	r.Handle("/intake/sessions/{id}",
		auth.Middleware(verifier)(
			auth.RequirePermission("intake:delete", perms)(
				http.HandlerFunc(sessionHandler.DeleteSession),
			),
		),
	).Methods("DELETE")

	// Patient identification routes
	r.Handle("/intake/sessions/{id}/patient",
		auth.Middleware(verifier)(
			auth.RequirePermission("intake:update", perms)(
				http.HandlerFunc(sessionHandler.UpdatePatient),
			),
		),
	).Methods("PUT")

	r.Handle("/intake/sessions/{id}/patient/register",
		auth.Middleware(verifier)(
			auth.RequirePermission("intake:update", perms)(
				http.HandlerFunc(sessionHandler.RegisterPatient),
			),
		),
	).Methods("POST")

	// Consent routes
	r.Handle("/intake/sessions/{id}/consent",
		auth.Middleware(verifier)(
			auth.RequirePermission("intake:update", perms)(
				http.HandlerFunc(sessionHandler.UpdateConsent),
			),
		),
	).Methods("PUT")

	r.Handle("/intake/sessions/{id}/consent/photo",
		auth.Middleware(verifier)(
			auth.RequirePermission("intake:update", perms)(
				http.HandlerFunc(sessionHandler.RemoveConsentPhoto),
			),
		),
	).Methods("DELETE")

	// Anamnesis wizard routes
	r.Handle("/intake/sessions/{id}/anamnesis/{section}",
		auth.Middleware(verifier)(
			auth.RequirePermission("intake:update", perms)(
				http.HandlerFunc(sessionHandler.SaveAnamnesisSection),
			),
		),
	).Methods("PUT")

	r.Handle("/intake/sessions/{id}/anamnesis/advance",
		auth.Middleware(verifier)(
			auth.RequirePermission("intake:update", perms)(
				http.HandlerFunc(sessionHandler.AdvanceAnamnesis),
			),
		),
	).Methods("POST")

	r.Handle("/intake/sessions/{id}/anamnesis/retreat",
		auth.Middleware(verifier)(
			auth.RequirePermission("intake:update", perms)(
				http.HandlerFunc(sessionHandler.RetreatAnamnesis),
			),
		),
	).Methods("POST")

	r.Handle("/intake/sessions/{id}/anamnesis/reset",
		auth.Middleware(verifier)(
			auth.RequirePermission("intake:update", perms)(
				http.HandlerFunc(sessionHandler.ResetAnamnesis),
			),
		),
	).Methods("POST")

	// Injury routes
	r.Handle("/intake/sessions/{id}/injuries",
		auth.Middleware(verifier)(
			auth.RequirePermission("intake:update", perms)(
				http.HandlerFunc(sessionHandler.AddInjury),
			),
		),
	).Methods("POST")

	r.Handle("/intake/sessions/{id}/injuries/{index}",
		auth.Middleware(verifier)(
			auth.RequirePermission("intake:update", perms)(
				http.HandlerFunc(sessionHandler.RemoveInjury),
			),
		),
	).Methods("DELETE")

	// Readiness and submission routes
	r.Handle("/intake/sessions/{id}/readiness",
		auth.Middleware(verifier)(
			auth.RequirePermission("intake:view", perms)(
				http.HandlerFunc(sessionHandler.GetReadiness),
			),
		),
	).Methods("GET")

	r.Handle("/intake/sessions/{id}/submit",
		auth.Middleware(verifier)(
			auth.RequirePermission("intake:submit", perms)(
				http.HandlerFunc(sessionHandler.Submit),
			),
		),
	).Methods("POST")

	r.Handle("/intake/sessions/{id}/submission",
		auth.Middleware(verifier)(
			auth.RequirePermission("intake:view", perms)(
				http.HandlerFunc(sessionHandler.GetSubmission),
			),
		),
	).Methods("GET")

	return r
}
