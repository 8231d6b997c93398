package utils

import (
	"testing"

	"github.com/medledger/prescription-chain/models"
)

func validRecord() *models.Prescription {
	id, _ := EncodeID("RX01")
	return models.NewPrescription(
		id,
		"x509::dr-house",
		"0x1f2e3d4c5b6a79880997a6b5c4d3e2f1a0b9c8d7e6f5a4b3c2d1e0f9a8b7c6d5",
		"0xaabbccddeeff00112233445566778899aabbccddeeff001122334455667788aa",
		21, 1, 1800000000, 1700000000,
	)
}

func TestValidatePrescriptionAcceptsValidRecord(t *testing.T) {
	if err := ValidatePrescription(validRecord()); err != nil {
		t.Errorf("expected valid record, got error: %v", err)
	}
}

func TestValidatePrescriptionRejections(t *testing.T) {
	cases := map[string]func(*models.Prescription){
		"sentinel id":       func(p *models.Prescription) { p.ID = SentinelID },
		"empty issuer":      func(p *models.Prescription) { p.Issuer = "" },
		"bad patient hash":  func(p *models.Prescription) { p.PatientIdentityHash = "deadbeef" },
		"bad med hash":      func(p *models.Prescription) { p.MedicationHash = "0xZZ" },
		"negative quantity": func(p *models.Prescription) { p.Quantity = -1 },
		"zero max usage":    func(p *models.Prescription) { p.MaxUsage = 0 },
		"usage over max":    func(p *models.Prescription) { p.UsageCount = 2 },
		"no expiry":         func(p *models.Prescription) { p.ExpiryDate = 0 },
		"unknown status":    func(p *models.Prescription) { p.Status = "PENDING" },
	}
	for name, mutate := range cases {
		rec := validRecord()
		mutate(rec)
		if err := ValidatePrescription(rec); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
