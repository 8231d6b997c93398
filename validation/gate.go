// Package validation implements the gate every state-changing off-chain
// operation must pass before it may touch the ledger or mutate the
// off-chain store. The gate is strict: if the ledger cannot be reached the
// operation fails, never falling back to off-chain-only trust. The gate
// performs no mutation itself; a valid result is a necessary, not
// sufficient, precondition, and the ledger's own transition remains the
// authoritative double-dispense guard.
package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/medledger/prescription-chain/canonical"
	"github.com/medledger/prescription-chain/models"
	"github.com/medledger/prescription-chain/utils"
)

// DefaultTimeout bounds the connectivity probe and the record fetch
const DefaultTimeout = 5 * time.Second

// Config carries the gate's explicit dependencies: no ambient environment
// lookups, so tests can inject a clock and a fake ledger.
type Config struct {
	// Timeout bounds each blocking ledger call. Zero means DefaultTimeout.
	Timeout time.Duration

	// Clock supplies current time for the expiry check. Nil means time.Now.
	Clock func() time.Time

	// Logger receives one structured audit line per failure.
	Logger zerolog.Logger
}

// Result is a successful validation outcome: the fetched ledger record plus
// confirmation that both commitment hashes matched the current snapshot.
type Result struct {
	Valid               bool                 `json:"valid"`
	Record              *models.Prescription `json:"record"`
	PatientHashMatch    bool                 `json:"patientHashMatch"`
	MedicationHashMatch bool                 `json:"medicationHashMatch"`
}

// Gate runs the ordered validation sequence against an injected ledger
type Gate struct {
	ledger  Ledger
	timeout time.Duration
	clock   func() time.Time
	log     zerolog.Logger
}

// NewGate creates a validation gate over the given ledger
func NewGate(ledger Ledger, cfg Config) *Gate {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Gate{
		ledger:  ledger,
		timeout: cfg.Timeout,
		clock:   cfg.Clock,
		log:     cfg.Logger,
	}
}

// Validate runs the ordered checks for one prescription and short-circuits
// on the first failure: connectivity, existence, status, usage, expiry,
// hash integrity. On failure the returned error is a *Failure; a malformed
// snapshot surfaces as a plain error instead, since it is a producer bug
// rather than one of the gate's rejection modes.
func (g *Gate) Validate(ctx context.Context, id string, snap canonical.Input) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	// 1. Connectivity
	if err := g.ledger.Ping(ctx); err != nil {
		return nil, g.reject(newFailure(CodeChainUnreachable,
			"ledger endpoint is unreachable",
			map[string]interface{}{"prescriptionId": id},
			err))
	}

	// 2. Existence
	record, err := g.ledger.GetPrescription(ctx, id)
	if err != nil {
		return nil, g.reject(newFailure(CodeChainUnreachable,
			"failed to fetch prescription from ledger",
			map[string]interface{}{"prescriptionId": id},
			err))
	}
	if record == nil || utils.IsSentinelID(record.ID) {
		return nil, g.reject(newFailure(CodeNotFoundOnChain,
			"prescription does not exist on the ledger",
			map[string]interface{}{"prescriptionId": id},
			nil))
	}

	// 3. Status
	if record.Status != models.StatusActive {
		return nil, g.reject(newFailure(CodeStatusMismatch,
			fmt.Sprintf("prescription is not active (status %s)", record.Status),
			map[string]interface{}{
				"prescriptionId": id,
				"expectedStatus": models.StatusActive,
				"actualStatus":   record.Status,
			},
			nil))
	}

	// 4. Usage
	if record.UsageCount >= record.MaxUsage {
		return nil, g.reject(newFailure(CodeUsageExhausted,
			"prescription usage is exhausted",
			map[string]interface{}{
				"prescriptionId": id,
				"usageCount":     record.UsageCount,
				"maxUsage":       record.MaxUsage,
			},
			nil))
	}

	// 5. Expiry
	now := g.clock()
	if record.IsExpiredAt(now.Unix()) {
		return nil, g.reject(newFailure(CodeExpiredOnChain,
			"prescription has expired",
			map[string]interface{}{
				"prescriptionId": id,
				"expiryDate":     time.Unix(record.ExpiryDate, 0).UTC().Format(time.RFC3339),
				"checkedAt":      now.UTC().Format(time.RFC3339),
			},
			nil))
	}

	// 6. Hash integrity
	computed, err := canonical.Build(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize snapshot for %s: %w", id, err)
	}
	patientMatch := computed.PatientIdentityHash == record.PatientIdentityHash
	medMatch := computed.MedicationHash == record.MedicationHash
	if !patientMatch || !medMatch {
		return nil, g.reject(newFailure(CodeHashMismatch,
			"off-chain snapshot does not match on-ledger commitment",
			map[string]interface{}{
				"prescriptionId":      id,
				"patientMatch":        patientMatch,
				"medMatch":            medMatch,
				"computedPatientHash": computed.PatientIdentityHash,
				"ledgerPatientHash":   record.PatientIdentityHash,
				"computedMedHash":     computed.MedicationHash,
				"ledgerMedHash":       record.MedicationHash,
			},
			nil))
	}

	return &Result{
		Valid:               true,
		Record:              record,
		PatientHashMatch:    true,
		MedicationHashMatch: true,
	}, nil
}

// reject writes one structured audit line for the failure and returns it.
// Hash mismatches signal tampering or drift and are logged as security
// events rather than ordinary validation noise.
func (g *Gate) reject(f *Failure) *Failure {
	evt := g.log.Warn()
	if f.Code == CodeHashMismatch {
		evt = g.log.Error().Str("event", "security")
	}
	evt.Str("code", string(f.Code)).
		Bool("retryable", f.Retryable()).
		Fields(f.Context).
		Msg(f.Message)
	return f
}
