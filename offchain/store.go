// Package offchain coordinates the mutable off-chain prescription store
// with the ledger. The store owns every non-canonical field; its mutations
// are gated on a successful validation plus a successful ledger dispense
// receipt, in that order.
package offchain

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/medledger/prescription-chain/canonical"
	"github.com/medledger/prescription-chain/models"
	"github.com/medledger/prescription-chain/validation"
)

// Store is the narrow interface the syncer needs from the off-chain
// prescription store.
type Store interface {
	// Snapshot returns the current snapshot fields for an identifier.
	Snapshot(ctx context.Context, id string) (canonical.Input, error)

	// MarkDispensed records a successful ledger dispense against the
	// off-chain record.
	MarkDispensed(ctx context.Context, id string, receipt *models.DispenseReceipt) error
}

// Dispenser is the ledger submit interface for dispense transactions
type Dispenser interface {
	DispensePrescription(ctx context.Context, id string) (*models.DispenseReceipt, error)
}

// Syncer applies the authoritative ordering for a dispense: validation gate
// first, then the ledger transaction, and only after the ledger reports
// success the off-chain mutation. A valid gate result alone never mutates
// anything.
type Syncer struct {
	store  Store
	gate   *validation.Gate
	ledger Dispenser
	log    zerolog.Logger
}

// NewSyncer creates a dispense syncer
func NewSyncer(store Store, gate *validation.Gate, ledger Dispenser, logger zerolog.Logger) *Syncer {
	return &Syncer{store: store, gate: gate, ledger: ledger, log: logger}
}

// Dispense validates and dispenses one prescription end to end. The
// returned receipt reports whether the ledger actually dispensed; a refusal
// committed by the ledger (expiry on touch) comes back with Dispensed false
// and no off-chain mutation.
func (s *Syncer) Dispense(ctx context.Context, id string) (*models.DispenseReceipt, error) {
	snap, err := s.store.Snapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read off-chain snapshot for %s: %w", id, err)
	}

	if _, err := s.gate.Validate(ctx, id, snap); err != nil {
		return nil, err
	}

	receipt, err := s.ledger.DispensePrescription(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ledger dispense failed for %s: %w", id, err)
	}
	if !receipt.Dispensed {
		s.log.Warn().
			Str("prescriptionId", id).
			Str("status", receipt.Status).
			Str("reason", receipt.Reason).
			Msg("ledger refused dispense after valid gate result")
		return receipt, nil
	}

	if err := s.store.MarkDispensed(ctx, id, receipt); err != nil {
		// The ledger transition is committed; the off-chain record is now
		// behind and must be reconciled by the caller.
		return receipt, fmt.Errorf("ledger dispensed %s but off-chain mark failed: %w", id, err)
	}

	s.log.Info().
		Str("prescriptionId", id).
		Int("usageCount", receipt.UsageCount).
		Int("maxUsage", receipt.MaxUsage).
		Str("status", receipt.Status).
		Msg("prescription dispensed and synced")
	return receipt, nil
}
