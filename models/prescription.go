package models

// Prescription represents the authoritative prescription record on the ledger
type Prescription struct {
	ID                  string `json:"id"`
	Issuer              string `json:"issuer"`
	Status              string `json:"status"`
	Quantity            int    `json:"quantity"`
	UsageCount          int    `json:"usageCount"`
	MaxUsage            int    `json:"maxUsage"`
	ExpiryDate          int64  `json:"expiryDate"`
	PatientIdentityHash string `json:"patientIdentityHash"`
	MedicationHash      string `json:"medicationHash"`
	IssuedAt            int64  `json:"issuedAt"`
	ObjectType          string `json:"objectType"`
}

// Prescription lifecycle status constants. StatusCreated is the transient
// zero value carried by the sentinel record; every issued prescription
// starts out StatusActive. StatusUsed and StatusExpired are terminal.
const (
	StatusCreated = "CREATED"
	StatusActive  = "ACTIVE"
	StatusUsed    = "USED"
	StatusExpired = "EXPIRED"
)

// Role constants for ledger entry-point gating
const (
	RoleDoctor   = "DOCTOR"
	RolePharmacy = "PHARMACY"
)

// IsExpiredAt reports whether the prescription is logically expired at the
// given unix time, regardless of the stored status.
func (p *Prescription) IsExpiredAt(now int64) bool {
	return p.ExpiryDate <= now
}

// NewPrescription creates a new prescription record in the active state
func NewPrescription(id, issuer, patientHash, medHash string, quantity, maxUsage int, expiry, issuedAt int64) *Prescription {
	return &Prescription{
		ID:                  id,
		Issuer:              issuer,
		Status:              StatusActive,
		Quantity:            quantity,
		UsageCount:          0,
		MaxUsage:            maxUsage,
		ExpiryDate:          expiry,
		PatientIdentityHash: patientHash,
		MedicationHash:      medHash,
		IssuedAt:            issuedAt,
		ObjectType:          "prescription",
	}
}
