package e2e

import (
	"net/http"
	"testing"
	"time"

	"github.com/teledermato/intake-service/internal/anamnesis"
	"github.com/teledermato/intake-service/internal/backend"
	"github.com/teledermato/intake-service/internal/session"
	"github.com/teledermato/intake-service/internal/submission"
	"github.com/teledermato/intake-service/internal/testutil"
)

// createDraftSession creates a session and returns its id
func createDraftSession(t *testing.T, client *testutil.HTTPTestClient) string {
	t.Helper()

	resp := client.POST(t, "/intake/sessions", map[string]interface{}{})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var created session.SuccessResponse
	testutil.DecodeJSON(t, resp, &created)
	if created.Session == nil || created.Session.ID == "" {
		t.Fatal("Expected created session with an id")
	}
	return created.Session.ID
}

// completeAnamnesis saves a section and advances the wizard to the end
func completeAnamnesis(t *testing.T, client *testutil.HTTPTestClient, sessionID string) {
	t.Helper()

	resp := client.PUT(t, "/intake/sessions/"+sessionID+"/anamnesis/general-health", map[string]string{
		"chronic_disease": "não",
		"uses_medication": "não",
		"has_allergies":   "sim",
		"allergy_details": "dipirona",
	})
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	resp.Body.Close()

	for i := 0; i < anamnesis.TotalSteps; i++ {
		resp := client.POST(t, "/intake/sessions/"+sessionID+"/anamnesis/advance", map[string]interface{}{})
		testutil.AssertStatusCode(t, resp, http.StatusOK)
		resp.Body.Close()
	}
}

// registerPatient fills the identification section and registers upstream
func registerPatient(t *testing.T, client *testutil.HTTPTestClient, sessionID string) {
	t.Helper()

	resp := client.PUT(t, "/intake/sessions/"+sessionID+"/patient", map[string]string{
		"identifier": "123.456.789-01",
		"name":       "Maria da Silva",
		"birth_date": "1980-05-12",
		"sex":        "female",
	})
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = client.POST(t, "/intake/sessions/"+sessionID+"/patient/register", map[string]interface{}{})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)
	resp.Body.Close()
}

func TestE2E_SessionLifecycle(t *testing.T) {
	ts := SetupE2ETest(t)
	defer ts.Cleanup(t)

	client := ts.NewClient(ts.GenerateNurseToken(t))

	sessionID := createDraftSession(t, client)

	// Retrieve it
	resp := client.GET(t, "/intake/sessions/"+sessionID)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var fetched session.SuccessResponse
	testutil.DecodeJSON(t, resp, &fetched)
	if fetched.Session.Status != session.StatusDraft {
		t.Errorf("Expected draft status, got '%s'", fetched.Session.Status)
	}
	if fetched.Session.CreatedBy != "nurse-123" {
		t.Errorf("Expected creator 'nurse-123', got '%s'", fetched.Session.CreatedBy)
	}

	// It shows up in the listing
	resp = client.GET(t, "/intake/sessions?created_by=nurse-123")
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var listing session.PaginatedListResponse
	testutil.DecodeJSON(t, resp, &listing)
	if listing.Pagination.TotalRecords != 1 {
		t.Errorf("Expected 1 session in listing, got %d", listing.Pagination.TotalRecords)
	}

	// Delete it
	resp = client.DELETE(t, "/intake/sessions/"+sessionID)
	testutil.AssertStatusCode(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = client.GET(t, "/intake/sessions/"+sessionID)
	testutil.AssertStatusCode(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestE2E_PermissionEnforcement(t *testing.T) {
	ts := SetupE2ETest(t)
	defer ts.Cleanup(t)

	nurse := ts.NewClient(ts.GenerateNurseToken(t))
	agent := ts.NewClient(ts.GenerateCommunityAgentToken(t))

	sessionID := createDraftSession(t, nurse)

	// Community agents collect intake data but cannot submit or delete
	resp := agent.POST(t, "/intake/sessions/"+sessionID+"/submit", map[string]interface{}{})
	testutil.AssertStatusCode(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp = agent.DELETE(t, "/intake/sessions/"+sessionID)
	testutil.AssertStatusCode(t, resp, http.StatusForbidden)
	resp.Body.Close()

	// They can still edit
	resp = agent.PUT(t, "/intake/sessions/"+sessionID+"/patient", map[string]string{
		"name": "Maria da Silva",
	})
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	resp.Body.Close()

	// No token at all is rejected before any handler runs
	anonymous := ts.NewClient("")
	resp = anonymous.GET(t, "/intake/sessions")
	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestE2E_FullSubmissionFlow(t *testing.T) {
	ts := SetupE2ETest(t)
	defer ts.Cleanup(t)

	client := ts.NewClient(ts.GenerateNurseToken(t))

	sessionID := createDraftSession(t, client)
	registerPatient(t, client, sessionID)

	// Consent: signature photo plus agreement in one update
	agreed := true
	photo := "photos/signature.jpg"
	resp := client.PUT(t, "/intake/sessions/"+sessionID+"/consent", session.ConsentUpdateRequest{
		SignaturePhoto: &photo,
		Agreed:         &agreed,
	})
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	resp.Body.Close()

	completeAnamnesis(t, client, sessionID)

	// Report one lesion
	resp = client.POST(t, "/intake/sessions/"+sessionID+"/injuries", session.InjuryRequest{
		Location:    "left forearm",
		Description: "irregular brown spot",
		Photos:      []string{"photos/lesion-1.jpg"},
	})
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	resp.Body.Close()

	// Readiness reports no blocks
	resp = client.GET(t, "/intake/sessions/"+sessionID+"/readiness")
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var readiness session.ReadinessResponse
	testutil.DecodeJSON(t, resp, &readiness)
	if !readiness.Readiness.Ready {
		t.Fatalf("Expected ready session, got blocks %v", readiness.Readiness.Errors)
	}

	// Submit
	resp = client.POST(t, "/intake/sessions/"+sessionID+"/submit", map[string]interface{}{})
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var submitted session.SubmitResponse
	testutil.DecodeJSON(t, resp, &submitted)
	if submitted.Result == nil || submitted.Result.AttendanceID == "" {
		t.Fatal("Expected submit result with an attendance id")
	}
	if len(submitted.Result.Lesions) != 1 {
		t.Errorf("Expected 1 lesion result, got %d", len(submitted.Result.Lesions))
	}

	// Everything reached the upstream gateway
	if len(ts.Gateway.Attendances) != 1 {
		t.Errorf("Expected 1 attendance registered upstream, got %d", len(ts.Gateway.Attendances))
	}
	if len(ts.Gateway.Consents) != 1 {
		t.Errorf("Expected 1 consent uploaded upstream, got %d", len(ts.Gateway.Consents))
	}
	if len(ts.Gateway.Anamneses) != 1 {
		t.Errorf("Expected 1 anamnesis submitted upstream, got %d", len(ts.Gateway.Anamneses))
	}
	if len(ts.Gateway.Lesions) != 1 {
		t.Errorf("Expected 1 lesion registered upstream, got %d", len(ts.Gateway.Lesions))
	}

	// Session is marked submitted
	resp = client.GET(t, "/intake/sessions/"+sessionID)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var fetched session.SuccessResponse
	testutil.DecodeJSON(t, resp, &fetched)
	if fetched.Session.Status != session.StatusSubmitted {
		t.Errorf("Expected submitted status, got '%s'", fetched.Session.Status)
	}
	if fetched.Session.LastSubmittedAt == nil {
		t.Error("Expected last submitted timestamp to be recorded")
	}

	// Submission view shows the finished saga
	resp = client.GET(t, "/intake/sessions/"+sessionID+"/submission")
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var status session.SubmissionStatusResponse
	testutil.DecodeJSON(t, resp, &status)
	if status.Submission.Status != submission.StatusSucceeded {
		t.Errorf("Expected succeeded submission, got '%s'", status.Submission.Status)
	}
}

func TestE2E_SubmitBlockedWithoutConsent(t *testing.T) {
	ts := SetupE2ETest(t)
	defer ts.Cleanup(t)

	client := ts.NewClient(ts.GenerateNurseToken(t))

	sessionID := createDraftSession(t, client)
	registerPatient(t, client, sessionID)
	completeAnamnesis(t, client, sessionID)

	// Readiness names the consent term as the blocking section
	resp := client.GET(t, "/intake/sessions/"+sessionID+"/readiness")
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var readiness session.ReadinessResponse
	testutil.DecodeJSON(t, resp, &readiness)
	if readiness.Readiness.Ready {
		t.Fatal("Expected session to be blocked without consent")
	}
	if _, ok := readiness.Readiness.Errors["consentTerm"]; !ok {
		t.Errorf("Expected consentTerm block, got %v", readiness.Readiness.Errors)
	}

	// Submission refuses to start
	resp = client.POST(t, "/intake/sessions/"+sessionID+"/submit", map[string]interface{}{})
	testutil.AssertStatusCode(t, resp, http.StatusUnprocessableEntity)
	var errResp session.ErrorResponse
	testutil.DecodeJSON(t, resp, &errResp)
	if errResp.Error != "precondition_failed" {
		t.Errorf("Expected 'precondition_failed' error, got '%s'", errResp.Error)
	}

	// Nothing reached the upstream gateway
	if len(ts.Gateway.Attendances) != 0 {
		t.Errorf("Expected no attendance registered, got %d", len(ts.Gateway.Attendances))
	}
}

func TestE2E_LookupMatchesSeededPatient(t *testing.T) {
	ts := SetupE2ETest(t)
	defer ts.Cleanup(t)

	ts.Gateway.SeedPatient(backend.PatientRecord{
		ServerID:   "srv-seeded",
		Identifier: "52998224725",
		Name:       "João Carlos",
		BirthDate:  "1975-01-30",
		Sex:        "male",
	})

	client := ts.NewClient(ts.GenerateNurseToken(t))
	sessionID := createDraftSession(t, client)

	resp := client.PUT(t, "/intake/sessions/"+sessionID+"/patient", map[string]string{
		"identifier": "529.982.247-25",
	})
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	resp.Body.Close()

	// The lookup fires after the debounce window; poll with an edit
	// that does not touch the identifier until the match lands
	deadline := time.Now().Add(3 * time.Second)
	var state session.StateResponse
	for {
		resp := client.PUT(t, "/intake/sessions/"+sessionID+"/patient", map[string]string{
			"phone": "+55 11 98888-0000",
		})
		testutil.AssertStatusCode(t, resp, http.StatusOK)
		testutil.DecodeJSON(t, resp, &state)

		if state.State.Patient.Matched {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for the debounced lookup to match")
		}
		time.Sleep(100 * time.Millisecond)
	}

	if state.State.Patient.ServerID != "srv-seeded" {
		t.Errorf("Expected upstream record 'srv-seeded', got '%s'", state.State.Patient.ServerID)
	}
	if state.State.Patient.Name != "João Carlos" {
		t.Errorf("Expected auto-populated name, got '%s'", state.State.Patient.Name)
	}
}
