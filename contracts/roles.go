package contracts

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/medledger/prescription-chain/models"
	"github.com/medledger/prescription-chain/utils"
)

// InitLedger records the bootstrap owner identity. Role grants are gated on
// this identity. Calling it again from the same identity is a no-op; any
// other caller is rejected.
func (pc *PrescriptionContract) InitLedger(ctx contractapi.TransactionContextInterface) error {
	caller, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return fmt.Errorf("failed to get caller identity: %v", err)
	}

	existing, err := ctx.GetStub().GetState(utils.KeyOwner)
	if err != nil {
		return fmt.Errorf("failed to read world state: %v", err)
	}
	if existing != nil {
		if string(existing) != caller {
			return fmt.Errorf("ledger already initialized by another identity")
		}
		return nil
	}

	if err := ctx.GetStub().PutState(utils.KeyOwner, []byte(caller)); err != nil {
		return fmt.Errorf("failed to store owner identity: %v", err)
	}
	return nil
}

// RegisterDoctor grants the doctor role to an identity. Owner-gated and
// idempotent: a second registration of the same identity changes nothing.
func (pc *PrescriptionContract) RegisterDoctor(ctx contractapi.TransactionContextInterface, identity string) error {
	return pc.registerRole(ctx, models.RoleDoctor, identity)
}

// RegisterPharmacy grants the pharmacy role to an identity. Owner-gated and
// idempotent.
func (pc *PrescriptionContract) RegisterPharmacy(ctx contractapi.TransactionContextInterface, identity string) error {
	return pc.registerRole(ctx, models.RolePharmacy, identity)
}

// IsDoctor reports whether an identity holds the doctor role
func (pc *PrescriptionContract) IsDoctor(ctx contractapi.TransactionContextInterface, identity string) (bool, error) {
	return pc.hasRole(ctx, models.RoleDoctor, identity)
}

// IsPharmacy reports whether an identity holds the pharmacy role
func (pc *PrescriptionContract) IsPharmacy(ctx contractapi.TransactionContextInterface, identity string) (bool, error) {
	return pc.hasRole(ctx, models.RolePharmacy, identity)
}

func (pc *PrescriptionContract) registerRole(ctx contractapi.TransactionContextInterface, role, identity string) error {
	caller, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return fmt.Errorf("failed to get caller identity: %v", err)
	}

	owner, err := ctx.GetStub().GetState(utils.KeyOwner)
	if err != nil {
		return fmt.Errorf("failed to read world state: %v", err)
	}
	if owner == nil {
		return fmt.Errorf("ledger not initialized")
	}
	if string(owner) != caller {
		return fmt.Errorf("caller is not the ledger owner")
	}

	if identity == "" {
		return fmt.Errorf("identity is required")
	}

	roleKey := utils.CreateRoleKey(role, identity)
	existing, err := ctx.GetStub().GetState(roleKey)
	if err != nil {
		return fmt.Errorf("failed to read world state: %v", err)
	}
	if existing != nil {
		// Already a member; no duplicate side effects.
		return nil
	}

	now, err := txTime(ctx)
	if err != nil {
		return err
	}

	grant := models.NewRoleGrant(identity, role, caller, now.Unix())
	grantJSON, err := json.Marshal(grant)
	if err != nil {
		return fmt.Errorf("failed to marshal role grant: %v", err)
	}
	if err := ctx.GetStub().PutState(roleKey, grantJSON); err != nil {
		return fmt.Errorf("failed to store role grant: %v", err)
	}

	event := map[string]interface{}{
		"eventType": "ROLE_GRANTED",
		"role":      role,
		"identity":  identity,
		"grantedBy": caller,
	}
	eventJSON, _ := json.Marshal(event)
	if err := ctx.GetStub().SetEvent("RoleGranted", eventJSON); err != nil {
		return fmt.Errorf("failed to emit event: %v", err)
	}

	return nil
}

func (pc *PrescriptionContract) hasRole(ctx contractapi.TransactionContextInterface, role, identity string) (bool, error) {
	grant, err := ctx.GetStub().GetState(utils.CreateRoleKey(role, identity))
	if err != nil {
		return false, fmt.Errorf("failed to read world state: %v", err)
	}
	return grant != nil, nil
}

// requireRole resolves the caller identity and checks its role membership
func (pc *PrescriptionContract) requireRole(ctx contractapi.TransactionContextInterface, role string) (string, error) {
	caller, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return "", fmt.Errorf("failed to get caller identity: %v", err)
	}
	ok, err := pc.hasRole(ctx, role, caller)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("caller %s is not a registered %s", caller, role)
	}
	return caller, nil
}
