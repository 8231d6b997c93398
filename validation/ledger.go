package validation

import (
	"context"

	"github.com/medledger/prescription-chain/models"
)

// Ledger is the narrow read interface the gate needs from the ledger. The
// production implementation is chainclient.Client; tests inject an
// in-memory fake.
type Ledger interface {
	// Ping probes liveness of the ledger query endpoint.
	Ping(ctx context.Context) error

	// GetPrescription fetches the record for an identifier. Unknown
	// identifiers yield the sentinel record, not an error; an error means
	// the ledger could not be queried.
	GetPrescription(ctx context.Context, id string) (*models.Prescription, error)
}
