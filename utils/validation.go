package utils

import (
	"fmt"
	"regexp"

	"github.com/medledger/prescription-chain/models"
)

var hashRegex = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

// IsCommitmentHash reports whether s is a well-formed commitment hash
// (0x-prefixed lowercase hex, 32 bytes).
func IsCommitmentHash(s string) bool {
	return hashRegex.MatchString(s)
}

// ValidatePrescription validates a prescription record before it is written
// to the world state.
func ValidatePrescription(p *models.Prescription) error {
	if err := ValidateToken(p.ID); err != nil {
		return err
	}
	if p.Issuer == "" {
		return fmt.Errorf("issuer is required")
	}
	if !IsCommitmentHash(p.PatientIdentityHash) {
		return fmt.Errorf("invalid patient identity hash: %q", p.PatientIdentityHash)
	}
	if !IsCommitmentHash(p.MedicationHash) {
		return fmt.Errorf("invalid medication hash: %q", p.MedicationHash)
	}
	if p.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	if p.MaxUsage < 1 {
		return fmt.Errorf("max usage must be at least 1")
	}
	if p.UsageCount < 0 || p.UsageCount > p.MaxUsage {
		return fmt.Errorf("usage count %d out of range [0,%d]", p.UsageCount, p.MaxUsage)
	}
	if p.ExpiryDate <= 0 {
		return fmt.Errorf("expiry date is required")
	}

	validStatuses := []string{
		models.StatusCreated,
		models.StatusActive,
		models.StatusUsed,
		models.StatusExpired,
	}
	if !contains(validStatuses, p.Status) {
		return fmt.Errorf("invalid status: %s", p.Status)
	}

	return nil
}

// contains checks if a string is in a slice
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
