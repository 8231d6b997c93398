// Package analytics scores prescription issuance patterns for fraud risk.
// It keeps a sliding one-hour window of issuance timestamps per patient
// identity hash and flags unusually high frequencies.
package analytics

import (
	"fmt"
	"sync"
	"time"
)

// Window is the period over which issuance frequency is evaluated
const Window = time.Hour

// Risk thresholds: more than three issuances per window is high risk, more
// than one is moderate.
const (
	highRiskCount = 3
	highRiskScore = 0.8

	moderateCount = 1
	moderateScore = 0.3
)

// Assessment is the risk verdict for one issuance
type Assessment struct {
	RiskScore     float64 `json:"riskScore"`
	Reason        string  `json:"reason"`
	CountLastHour int     `json:"countLastHour"`
}

// Monitor tracks issuance history in memory
type Monitor struct {
	mu       sync.Mutex
	clock    func() time.Time
	patients map[string][]time.Time
	doctors  map[string][]time.Time
}

// NewMonitor creates a monitor. A nil clock means time.Now.
func NewMonitor(clock func() time.Time) *Monitor {
	if clock == nil {
		clock = time.Now
	}
	return &Monitor{
		clock:    clock,
		patients: make(map[string][]time.Time),
		doctors:  make(map[string][]time.Time),
	}
}

// RecordIssuance registers one issuance event and returns the risk
// assessment for the patient's recent frequency. Doctor history is
// recorded for audit but not scored.
func (m *Monitor) RecordIssuance(patientHash, doctorID string) Assessment {
	now := m.clock()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.patients[patientHash] = appendAndPrune(m.patients[patientHash], now)
	if doctorID != "" {
		m.doctors[doctorID] = appendAndPrune(m.doctors[doctorID], now)
	}

	count := len(m.patients[patientHash])
	switch {
	case count > highRiskCount:
		return Assessment{
			RiskScore:     highRiskScore,
			Reason:        fmt.Sprintf("High frequency: %d prescriptions in last hour.", count),
			CountLastHour: count,
		}
	case count > moderateCount:
		return Assessment{
			RiskScore:     moderateScore,
			Reason:        "Moderate frequency.",
			CountLastHour: count,
		}
	default:
		return Assessment{
			Reason:        "Normal usage pattern.",
			CountLastHour: count,
		}
	}
}

// PatientCount returns the number of issuances recorded for a patient in
// the current window.
func (m *Monitor) PatientCount(patientHash string) int {
	now := m.clock()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[patientHash] = prune(m.patients[patientHash], now)
	return len(m.patients[patientHash])
}

func appendAndPrune(events []time.Time, now time.Time) []time.Time {
	return prune(append(events, now), now)
}

func prune(events []time.Time, now time.Time) []time.Time {
	kept := events[:0]
	for _, t := range events {
		if now.Sub(t) < Window {
			kept = append(kept, t)
		}
	}
	return kept
}
