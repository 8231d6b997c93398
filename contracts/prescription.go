package contracts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/medledger/prescription-chain/models"
	"github.com/medledger/prescription-chain/utils"
)

// PrescriptionContract manages the authoritative prescription lifecycle
type PrescriptionContract struct {
	contractapi.Contract
}

// IssuePrescription creates a new prescription record in the active state.
// Callable only by a registered doctor; fails if the identifier already
// exists. The commitment hashes bind the record to the off-chain snapshot
// it was issued from.
func (pc *PrescriptionContract) IssuePrescription(
	ctx contractapi.TransactionContextInterface,
	id string,
	patientHash string,
	medHash string,
	quantity int,
	expiry int64,
	maxUsage int,
) error {
	issuer, err := pc.requireRole(ctx, models.RoleDoctor)
	if err != nil {
		return err
	}

	if err := utils.ValidateToken(id); err != nil {
		return fmt.Errorf("invalid prescription id: %v", err)
	}

	recordKey := utils.CreatePrescriptionKey(id)
	existing, err := ctx.GetStub().GetState(recordKey)
	if err != nil {
		return fmt.Errorf("failed to read world state: %v", err)
	}
	if existing != nil {
		return fmt.Errorf("prescription already exists: %s", id)
	}

	now, err := txTime(ctx)
	if err != nil {
		return err
	}
	if expiry <= now.Unix() {
		return fmt.Errorf("expiry date %d is not in the future", expiry)
	}

	record := models.NewPrescription(id, issuer, patientHash, medHash, quantity, maxUsage, expiry, now.Unix())
	if err := utils.ValidatePrescription(record); err != nil {
		return fmt.Errorf("validation failed: %v", err)
	}

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal prescription: %v", err)
	}
	if err := ctx.GetStub().PutState(recordKey, recordJSON); err != nil {
		return fmt.Errorf("failed to put prescription to world state: %v", err)
	}

	event := map[string]interface{}{
		"eventType":      "PRESCRIPTION_ISSUED",
		"id":             id,
		"issuer":         issuer,
		"medicationHash": medHash,
		"timestamp":      now.Format(time.RFC3339),
	}
	eventJSON, _ := json.Marshal(event)
	if err := ctx.GetStub().SetEvent("PrescriptionIssued", eventJSON); err != nil {
		return fmt.Errorf("failed to emit event: %v", err)
	}

	return nil
}

// DispensePrescription advances the lifecycle of an active prescription.
// Callable only by a registered pharmacy. A prescription whose expiry has
// passed transitions to EXPIRED on touch and the dispense is refused via
// the receipt rather than an error, so the transition still commits.
// Otherwise the usage counter is incremented and the record flips to USED
// when the counter reaches its maximum.
func (pc *PrescriptionContract) DispensePrescription(
	ctx contractapi.TransactionContextInterface,
	id string,
) (*models.DispenseReceipt, error) {
	if _, err := pc.requireRole(ctx, models.RolePharmacy); err != nil {
		return nil, err
	}

	recordKey := utils.CreatePrescriptionKey(id)
	recordJSON, err := ctx.GetStub().GetState(recordKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read world state: %v", err)
	}
	if recordJSON == nil {
		return nil, fmt.Errorf("prescription not found: %s", id)
	}

	var record models.Prescription
	if err := json.Unmarshal(recordJSON, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prescription: %v", err)
	}

	if record.Status != models.StatusActive {
		return nil, fmt.Errorf("prescription %s is not active (status %s)", id, record.Status)
	}

	now, err := txTime(ctx)
	if err != nil {
		return nil, err
	}

	if record.IsExpiredAt(now.Unix()) {
		record.Status = models.StatusExpired
		if err := pc.putRecord(ctx, recordKey, &record); err != nil {
			return nil, err
		}

		event := map[string]interface{}{
			"eventType":  "PRESCRIPTION_EXPIRED",
			"id":         id,
			"expiryDate": record.ExpiryDate,
			"timestamp":  now.Format(time.RFC3339),
		}
		eventJSON, _ := json.Marshal(event)
		if err := ctx.GetStub().SetEvent("PrescriptionExpired", eventJSON); err != nil {
			return nil, fmt.Errorf("failed to emit event: %v", err)
		}

		return &models.DispenseReceipt{
			ID:         id,
			Dispensed:  false,
			Status:     record.Status,
			UsageCount: record.UsageCount,
			MaxUsage:   record.MaxUsage,
			Reason:     "prescription expired",
			Timestamp:  now.Unix(),
		}, nil
	}

	record.UsageCount++
	if record.UsageCount == record.MaxUsage {
		record.Status = models.StatusUsed
	}
	if err := pc.putRecord(ctx, recordKey, &record); err != nil {
		return nil, err
	}

	event := map[string]interface{}{
		"eventType":  "PRESCRIPTION_DISPENSED",
		"id":         id,
		"usageCount": record.UsageCount,
		"maxUsage":   record.MaxUsage,
		"status":     record.Status,
		"timestamp":  now.Format(time.RFC3339),
	}
	eventJSON, _ := json.Marshal(event)
	if err := ctx.GetStub().SetEvent("PrescriptionDispensed", eventJSON); err != nil {
		return nil, fmt.Errorf("failed to emit event: %v", err)
	}

	return &models.DispenseReceipt{
		ID:         id,
		Dispensed:  true,
		Status:     record.Status,
		UsageCount: record.UsageCount,
		MaxUsage:   record.MaxUsage,
		Timestamp:  now.Unix(),
	}, nil
}

// GetPrescription reads a prescription record from the ledger. An unknown
// identifier yields the sentinel record (all-zero id), never an error, so
// callers can distinguish "not found" from a read failure.
func (pc *PrescriptionContract) GetPrescription(
	ctx contractapi.TransactionContextInterface,
	id string,
) (*models.Prescription, error) {
	recordKey := utils.CreatePrescriptionKey(id)
	recordJSON, err := ctx.GetStub().GetState(recordKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read world state: %v", err)
	}
	if recordJSON == nil {
		return &models.Prescription{
			ID:     utils.SentinelID,
			Status: models.StatusCreated,
		}, nil
	}

	var record models.Prescription
	if err := json.Unmarshal(recordJSON, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prescription: %v", err)
	}
	return &record, nil
}

// putRecord marshals and stores a prescription record
func (pc *PrescriptionContract) putRecord(
	ctx contractapi.TransactionContextInterface,
	key string,
	record *models.Prescription,
) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal prescription: %v", err)
	}
	if err := ctx.GetStub().PutState(key, recordJSON); err != nil {
		return fmt.Errorf("failed to update prescription: %v", err)
	}
	return nil
}

// txTime returns the transaction timestamp as UTC time. Using the tx
// timestamp rather than wall clock keeps the contract deterministic across
// endorsing peers.
func txTime(ctx contractapi.TransactionContextInterface) (time.Time, error) {
	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get transaction timestamp: %v", err)
	}
	return time.Unix(ts.Seconds, int64(ts.Nanos)).UTC(), nil
}
