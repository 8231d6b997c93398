package offchain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/medledger/prescription-chain/canonical"
	"github.com/medledger/prescription-chain/models"
)

// Record is one off-chain prescription entry. Instructions are stored
// sealed when the store has a sealing key; they never participate in the
// canonical snapshot.
type Record struct {
	Input       canonical.Input
	Dispensed   bool
	DispensedAt time.Time
	Receipt     *models.DispenseReceipt
}

// MemoryStore is an in-memory Store implementation used for composition
// roots without a database and for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	sealKey []byte
}

// NewMemoryStore creates an empty store. A non-nil 32-byte key enables
// AES-GCM sealing of medicine instructions at rest.
func NewMemoryStore(sealKey []byte) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		sealKey: sealKey,
	}
}

// Put stores or replaces the snapshot fields for an identifier
func (m *MemoryStore) Put(id string, in canonical.Input) error {
	meds := make([]canonical.Medicine, len(in.Medicines))
	copy(meds, in.Medicines)
	if m.sealKey != nil {
		for i, med := range meds {
			if med.Instructions == "" {
				continue
			}
			sealed, err := SealInstructions([]byte(med.Instructions), m.sealKey)
			if err != nil {
				return fmt.Errorf("failed to seal instructions: %v", err)
			}
			meds[i].Instructions = sealed
		}
	}
	in.Medicines = meds

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[id] = &Record{Input: in}
	return nil
}

// Snapshot implements Store
func (m *MemoryStore) Snapshot(_ context.Context, id string) (canonical.Input, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return canonical.Input{}, fmt.Errorf("no off-chain record for %s", id)
	}
	return rec.Input, nil
}

// MarkDispensed implements Store
func (m *MemoryStore) MarkDispensed(_ context.Context, id string, receipt *models.DispenseReceipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return fmt.Errorf("no off-chain record for %s", id)
	}
	rec.Dispensed = true
	rec.DispensedAt = time.Unix(receipt.Timestamp, 0).UTC()
	rec.Receipt = receipt
	return nil
}

// Get returns the stored record for inspection
func (m *MemoryStore) Get(id string) (*Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	return rec, ok
}

// OpenRecordInstructions decrypts the sealed instructions of a stored
// record for display.
func (m *MemoryStore) OpenRecordInstructions(id string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("no off-chain record for %s", id)
	}

	out := make([]string, 0, len(rec.Input.Medicines))
	for _, med := range rec.Input.Medicines {
		if med.Instructions == "" || m.sealKey == nil {
			out = append(out, med.Instructions)
			continue
		}
		plain, err := OpenInstructions(med.Instructions, m.sealKey)
		if err != nil {
			return nil, fmt.Errorf("failed to open instructions: %v", err)
		}
		out = append(out, string(plain))
	}
	return out, nil
}
