// Package chainclient talks to the prescription ledger through its HTTP
// gateway facade. It implements validation.Ledger for the gate plus the
// submit side (issue, dispense) used by issuing and dispensing clients.
package chainclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medledger/prescription-chain/models"
	"github.com/medledger/prescription-chain/utils"
)

// Client is an HTTP client for the ledger gateway
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// IssueRequest carries the parameters of an issue transaction
type IssueRequest struct {
	ID                  string `json:"id"`
	PatientIdentityHash string `json:"patientIdentityHash"`
	MedicationHash      string `json:"medicationHash"`
	Quantity            int    `json:"quantity"`
	ExpiryDate          int64  `json:"expiryDate"`
	MaxUsage            int    `json:"maxUsage"`
}

// New creates a ledger client for the configured gateway endpoint
func New(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.RPCURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     logger,
	}
}

// Ping probes the gateway's health endpoint
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %v", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ledger endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ledger endpoint unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// GetPrescription fetches the ledger record for an identifier. A gateway
// 404 is mapped to the sentinel record, matching the contract's read
// accessor semantics.
func (c *Client) GetPrescription(ctx context.Context, id string) (*models.Prescription, error) {
	var record models.Prescription
	err := c.doJSON(ctx, http.MethodGet, "/prescriptions/"+id, nil, &record)
	if err != nil {
		var httpErr *statusError
		if errors.As(err, &httpErr) && httpErr.code == http.StatusNotFound {
			return &models.Prescription{ID: utils.SentinelID, Status: models.StatusCreated}, nil
		}
		return nil, err
	}
	return &record, nil
}

// IssuePrescription submits an issue transaction
func (c *Client) IssuePrescription(ctx context.Context, req IssueRequest) (*models.Prescription, error) {
	var record models.Prescription
	if err := c.doJSON(ctx, http.MethodPost, "/prescriptions", req, &record); err != nil {
		return nil, err
	}
	c.log.Info().Str("prescriptionId", req.ID).Msg("prescription issued on ledger")
	return &record, nil
}

// DispensePrescription submits a dispense transaction
func (c *Client) DispensePrescription(ctx context.Context, id string) (*models.DispenseReceipt, error) {
	var receipt models.DispenseReceipt
	if err := c.doJSON(ctx, http.MethodPost, "/prescriptions/"+id+"/dispense", nil, &receipt); err != nil {
		return nil, err
	}
	c.log.Info().
		Str("prescriptionId", id).
		Bool("dispensed", receipt.Dispensed).
		Str("status", receipt.Status).
		Msg("dispense transaction submitted")
	return &receipt, nil
}

// statusError reports a non-2xx gateway response
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ledger gateway returned status %d: %s", e.code, e.body)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ledger request failed: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("ledger gateway call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode ledger response: %v", err)
	}
	return nil
}
