package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"uvocollab/config"
	"uvocollab/models"
)

// ESignClient talks to the e-signature provider's REST API. One
// envelope is created per collaboration, at payment capture.
type ESignClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewESignClient() *ESignClient {
	return &ESignClient{
		BaseURL: config.AppConfig.ESignBaseURL,
		APIKey:  config.AppConfig.ESignAPIKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type envelopeRecipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type envelopeRequest struct {
	ClientReference string              `json:"client_reference"`
	Subject         string              `json:"subject"`
	ServiceTitle    string              `json:"service_title"`
	AmountCents     int64               `json:"amount_cents"`
	Currency        string              `json:"currency"`
	Recipients      []envelopeRecipient `json:"recipients"`
	CallbackURL     string              `json:"callback_url,omitempty"`
}

type envelopeResponse struct {
	EnvelopeID  string `json:"envelope_id"`
	DocumentURL string `json:"document_url"`
	Status      string `json:"status"`
}

// CreateEnvelope generates the collaboration agreement and dispatches
// it to both parties for signature. Satisfies lifecycle.ContractService.
func (e *ESignClient) CreateEnvelope(collab *models.Collaboration, buyer, payee *models.User) (string, string, error) {
	req := envelopeRequest{
		ClientReference: uuid.NewString(),
		Subject:         fmt.Sprintf("UvoCollab agreement: %s", collab.Title),
		ServiceTitle:    collab.Title,
		AmountCents:     collab.PriceCents,
		Currency:        collab.Currency,
		Recipients: []envelopeRecipient{
			{Name: displayName(buyer), Email: buyer.Email, Role: "buyer"},
			{Name: displayName(payee), Email: payee.Email, Role: "payee"},
		},
	}

	var resp envelopeResponse
	if err := e.post("/v2/envelopes", req, &resp); err != nil {
		return "", "", err
	}
	if resp.EnvelopeID == "" {
		return "", "", fmt.Errorf("provider returned an empty envelope id")
	}
	return resp.EnvelopeID, resp.DocumentURL, nil
}

// EnvelopeStatus is what the polling worker cares about.
type EnvelopeStatus struct {
	EnvelopeID string `json:"envelope_id"`
	Status     string `json:"status"` // sent, partially_signed, completed, voided
}

// GetEnvelope fetches the current signature status of an envelope.
func (e *ESignClient) GetEnvelope(envelopeID string) (*EnvelopeStatus, error) {
	httpReq, err := http.NewRequest(http.MethodGet, e.BaseURL+"/v2/envelopes/"+envelopeID, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach e-signature provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("envelope lookup failed (%d): %s", resp.StatusCode, string(body))
	}

	var status EnvelopeStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode envelope status: %w", err)
	}
	return &status, nil
}

func (e *ESignClient) post(path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequest(http.MethodPost, e.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.HTTP.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to reach e-signature provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("envelope request failed (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func displayName(user *models.User) string {
	if user.Name != nil && *user.Name != "" {
		return *user.Name
	}
	return user.Email
}
