package chainclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medledger/prescription-chain/models"
	"github.com/medledger/prescription-chain/utils"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{RPCURL: srv.URL, Timeout: time.Second}, zerolog.Nop())
}

func TestPing(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	require.NoError(t, client.Ping(context.Background()))
}

func TestPingUnhealthy(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	err := client.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unhealthy")
}

func TestPingUnreachable(t *testing.T) {
	client := New(Config{RPCURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond}, zerolog.Nop())
	err := client.Ping(context.Background())
	require.Error(t, err)
}

func TestGetPrescription(t *testing.T) {
	id, _ := utils.EncodeID("RX01")
	want := &models.Prescription{
		ID:         id,
		Issuer:     "x509::dr-house",
		Status:     models.StatusActive,
		MaxUsage:   1,
		ExpiryDate: 1800000000,
	}

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prescriptions/"+id, r.URL.Path)
		json.NewEncoder(w).Encode(want)
	}))

	got, err := client.GetPrescription(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetPrescriptionNotFoundYieldsSentinel(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such prescription", http.StatusNotFound)
	}))

	got, err := client.GetPrescription(context.Background(), utils.SentinelID)
	require.NoError(t, err)
	assert.Equal(t, utils.SentinelID, got.ID)
	assert.Equal(t, models.StatusCreated, got.Status)
}

func TestDispensePrescription(t *testing.T) {
	id, _ := utils.EncodeID("RX01")
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/prescriptions/"+id+"/dispense", r.URL.Path)
		json.NewEncoder(w).Encode(models.DispenseReceipt{
			ID: id, Dispensed: true, Status: models.StatusUsed, UsageCount: 1, MaxUsage: 1,
		})
	}))

	receipt, err := client.DispensePrescription(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, receipt.Dispensed)
	assert.Equal(t, models.StatusUsed, receipt.Status)
}

func TestIssuePrescriptionPostsBody(t *testing.T) {
	id, _ := utils.EncodeID("RX01")
	req := IssueRequest{
		ID:                  id,
		PatientIdentityHash: "0x1f2e3d4c5b6a79880997a6b5c4d3e2f1a0b9c8d7e6f5a4b3c2d1e0f9a8b7c6d5",
		MedicationHash:      "0xaabbccddeeff00112233445566778899aabbccddeeff001122334455667788aa",
		Quantity:            21,
		ExpiryDate:          1800000000,
		MaxUsage:            2,
	}

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var got IssueRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, req, got)
		json.NewEncoder(w).Encode(models.NewPrescription(got.ID, "x509::dr-house",
			got.PatientIdentityHash, got.MedicationHash, got.Quantity, got.MaxUsage, got.ExpiryDate, 1700000000))
	}))

	record, err := client.IssuePrescription(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, id, record.ID)
	assert.Equal(t, models.StatusActive, record.Status)
}

func TestGatewayErrorSurfacesBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "caller is not a registered PHARMACY", http.StatusForbidden)
	}))

	_, err := client.DispensePrescription(context.Background(), utils.SentinelID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "not a registered PHARMACY")
}

func TestLoadConfigDefaults(t *testing.T) {
	os.Unsetenv(EnvRPCURL)
	os.Unsetenv(EnvTimeout)

	cfg := LoadConfig()
	assert.Equal(t, DefaultRPCURL, cfg.RPCURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}

func TestLoadConfigFromEnv(t *testing.T) {
	os.Setenv(EnvRPCURL, "http://ledger.internal:7051")
	os.Setenv(EnvTimeout, "2s")
	defer os.Unsetenv(EnvRPCURL)
	defer os.Unsetenv(EnvTimeout)

	cfg := LoadConfig()
	assert.Equal(t, "http://ledger.internal:7051", cfg.RPCURL)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
}
