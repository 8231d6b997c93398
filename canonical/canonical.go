// Package canonical implements the deterministic snapshot canonicalization
// protocol that binds an off-chain prescription to its on-ledger commitment
// hashes. Every producer of a commitment, whether the issuing client or the
// validation-time verifier, must run this exact algorithm: the field set,
// trim and coercion rules, sort order, serialization byte form and digest
// function together form one frozen contract.
package canonical

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Version identifies the canonicalization protocol. It changes only when
// any part of the frozen contract changes.
const Version = "1"

// Medicine carries the raw off-chain fields of one medicine entry. Only
// Name, Dosage and Quantity participate in canonicalization; Instructions
// may be encrypted or edited after issuance without affecting the
// prescription's clinical identity, so it is deliberately excluded.
type Medicine struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Quantity     any    `json:"quantity"`
	Instructions string `json:"instructions,omitempty"`
}

// Patient carries the raw identity-bearing patient fields. Age may arrive
// as a number or a string depending on the off-chain store.
type Patient struct {
	Name string `json:"name"`
	Age  any    `json:"age"`
}

// Input is a prescription snapshot as read from the off-chain store.
type Input struct {
	Patient   Patient    `json:"patient"`
	Medicines []Medicine `json:"medicines"`
}

// Snapshot holds the two commitment hashes derived from an Input.
type Snapshot struct {
	PatientIdentityHash string `json:"patientIdentityHash"`
	MedicationHash      string `json:"medicationHash"`
}

// canonicalMedicine is the exact serialized form: field order and JSON tags
// are part of the frozen contract.
type canonicalMedicine struct {
	Name     string `json:"name"`
	Dosage   string `json:"dosage"`
	Quantity int    `json:"quantity"`
}

// Build derives the commitment hashes for a snapshot. It is pure: the same
// input always yields the same hashes. Missing patient or medicine names
// are errors, not defaults; only quantity and age follow the coercion rules
// below.
func Build(in Input) (Snapshot, error) {
	name := strings.TrimSpace(in.Patient.Name)
	if name == "" {
		return Snapshot{}, fmt.Errorf("patient name is required")
	}
	age := strings.TrimSpace(coerceString(in.Patient.Age))
	if len(in.Medicines) == 0 {
		return Snapshot{}, fmt.Errorf("at least one medicine is required")
	}

	entries := make([]canonicalMedicine, 0, len(in.Medicines))
	for i, med := range in.Medicines {
		if strings.TrimSpace(med.Name) == "" {
			return Snapshot{}, fmt.Errorf("medicine %d has no name", i)
		}
		entries = append(entries, canonicalMedicine{
			Name:     med.Name,
			Dosage:   med.Dosage,
			Quantity: CoerceQuantity(med.Quantity),
		})
	}

	// Ordinal sort by name, ascending, before hashing: two snapshots with
	// the same multiset of medicines in different input order hash equal.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	serialized, err := json.Marshal(entries)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to serialize canonical medicines: %v", err)
	}

	return Snapshot{
		PatientIdentityHash: digest([]byte(name), []byte(age)),
		MedicationHash:      digest(serialized),
	}, nil
}

// CoerceQuantity converts a raw quantity value to a non-negative integer:
// the floor of its numeric parse, with non-numeric and negative values
// coerced to 0. Zero-quantity entries are accepted into the hash.
func CoerceQuantity(v any) int {
	var f float64
	switch q := v.(type) {
	case nil:
		return 0
	case int:
		f = float64(q)
	case int64:
		f = float64(q)
	case float64:
		f = q
	case float32:
		f = float64(q)
	case json.Number:
		parsed, err := q.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(q), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	return int(math.Floor(f))
}

// coerceString renders a raw field as the string form used for hashing.
// Numeric values use the minimal decimal rendering ("30", not "30.0").
func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case json.Number:
		return s.String()
	default:
		return fmt.Sprintf("%v", s)
	}
}

// digest computes the Keccak-256 hash of the concatenated parts, rendered
// as 0x-prefixed lowercase hex to match the on-ledger bytes32 form.
func digest(parts ...[]byte) string {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
