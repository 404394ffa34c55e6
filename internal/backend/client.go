package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/teledermato/intake-service/internal/anamnesis"
)

var (
	ErrGatewayRequest  = errors.New("ehr gateway request failed")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrInvalidResponse = errors.New("invalid response from ehr gateway")
)

// Gateway is the opaque EHR collaborator the submission saga and the
// patient lookup talk to. The bearer credential of the signed-in
// operator is passed per call.
type Gateway interface {
	RegisterAttendance(ctx context.Context, patientServerID, credential string) (string, error)
	UploadConsent(ctx context.Context, attendanceID, signaturePhoto, credential string) error
	SubmitAnamnesis(ctx context.Context, attendanceID string, payload anamnesis.Payload, credential string) error
	RegisterLesion(ctx context.Context, attendanceID string, lesion LesionRequest, credential string) (string, error)
	LookupPatientByIdentifier(ctx context.Context, identifier, credential string) (*PatientRecord, error)
	RegisterPatient(ctx context.Context, req RegisterPatientRequest, credential string) (*PatientRecord, error)
}

// Client talks to the EHR gateway over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Gateway = (*Client)(nil)

// NewClient creates a gateway client from environment configuration.
func NewClient() (*Client, error) {
	baseURL := os.Getenv("EHR_GATEWAY_BASE_URL")
	if baseURL == "" {
		return nil, errors.New("missing required EHR_GATEWAY_BASE_URL configuration")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// RegisterAttendance opens a new encounter for the patient and returns
// its server-assigned id.
func (c *Client) RegisterAttendance(ctx context.Context, patientServerID, credential string) (string, error) {
	body := map[string]string{"patient_id": patientServerID}

	var result struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/attendances", credential, body, &result); err != nil {
		return "", fmt.Errorf("failed to register attendance: %w", err)
	}
	if result.ID == "" {
		return "", ErrInvalidResponse
	}
	return result.ID, nil
}

// UploadConsent attaches the signed consent term to an attendance.
func (c *Client) UploadConsent(ctx context.Context, attendanceID, signaturePhoto, credential string) error {
	body := map[string]string{"signature_photo": signaturePhoto}

	path := fmt.Sprintf("/attendances/%s/consent", url.PathEscape(attendanceID))
	if err := c.doJSON(ctx, http.MethodPost, path, credential, body, nil); err != nil {
		return fmt.Errorf("failed to upload consent: %w", err)
	}
	return nil
}

// SubmitAnamnesis sends the mapped questionnaire payload.
func (c *Client) SubmitAnamnesis(ctx context.Context, attendanceID string, payload anamnesis.Payload, credential string) error {
	path := fmt.Sprintf("/attendances/%s/anamnesis", url.PathEscape(attendanceID))
	if err := c.doJSON(ctx, http.MethodPost, path, credential, payload, nil); err != nil {
		return fmt.Errorf("failed to submit anamnesis: %w", err)
	}
	return nil
}

// RegisterLesion submits one lesion and returns its server-assigned id.
func (c *Client) RegisterLesion(ctx context.Context, attendanceID string, lesion LesionRequest, credential string) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	path := fmt.Sprintf("/attendances/%s/lesions", url.PathEscape(attendanceID))
	if err := c.doJSON(ctx, http.MethodPost, path, credential, lesion, &result); err != nil {
		return "", fmt.Errorf("failed to register lesion: %w", err)
	}
	return result.ID, nil
}

// LookupPatientByIdentifier returns the upstream patient for a national
// identifier, or ErrNotFound.
func (c *Client) LookupPatientByIdentifier(ctx context.Context, identifier, credential string) (*PatientRecord, error) {
	var record PatientRecord
	path := "/patients?identifier=" + url.QueryEscape(identifier)
	if err := c.doJSON(ctx, http.MethodGet, path, credential, nil, &record); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up patient: %w", err)
	}
	if record.ServerID == "" {
		return nil, ErrInvalidResponse
	}
	return &record, nil
}

// RegisterPatient creates a new upstream patient record.
func (c *Client) RegisterPatient(ctx context.Context, req RegisterPatientRequest, credential string) (*PatientRecord, error) {
	var record PatientRecord
	if err := c.doJSON(ctx, http.MethodPost, "/patients", credential, req, &record); err != nil {
		return nil, fmt.Errorf("failed to register patient: %w", err)
	}
	if record.ServerID == "" {
		return nil, ErrInvalidResponse
	}
	return &record, nil
}

// doJSON performs an authenticated JSON request and decodes the
// response into out (when out is non-nil).
func (c *Client) doJSON(ctx context.Context, method, path, credential string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		raw, _ := io.ReadAll(resp.Body)
		log.Printf("EHR gateway returned %d for %s %s: %s", resp.StatusCode, method, path, string(raw))
		return fmt.Errorf("%w: status %d", ErrGatewayRequest, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
