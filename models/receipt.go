package models

// DispenseReceipt reports the outcome of a dispense transaction.
//
// Dispensed is false when the ledger refused the dispense but still
// committed a state transition (expiry observed on touch). A refusal by
// error (unknown id, wrong role, non-active status) carries no receipt.
type DispenseReceipt struct {
	ID         string `json:"id"`
	Dispensed  bool   `json:"dispensed"`
	Status     string `json:"status"`
	UsageCount int    `json:"usageCount"`
	MaxUsage   int    `json:"maxUsage"`
	Reason     string `json:"reason,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}
