package utils

import (
	"fmt"
	"strings"
)

// Key prefixes for different object types
const (
	PrefixPrescription = "RX"
	PrefixRole         = "ROLE"
	KeyOwner           = "OWNER"
)

// CreatePrescriptionKey creates a world-state key for a prescription record
func CreatePrescriptionKey(id string) string {
	return fmt.Sprintf("%s~%s", PrefixPrescription, id)
}

// CreateRoleKey creates a world-state key for a role grant
func CreateRoleKey(role, identity string) string {
	return fmt.Sprintf("%s~%s~%s", PrefixRole, role, identity)
}

// ParsePrescriptionKey parses a prescription world-state key
func ParsePrescriptionKey(key string) (id string, err error) {
	parts := strings.Split(key, "~")
	if len(parts) != 2 || parts[0] != PrefixPrescription {
		return "", fmt.Errorf("invalid prescription key format: %s", key)
	}
	return parts[1], nil
}

// ParseRoleKey parses a role grant world-state key
func ParseRoleKey(key string) (role, identity string, err error) {
	parts := strings.Split(key, "~")
	if len(parts) != 3 || parts[0] != PrefixRole {
		return "", "", fmt.Errorf("invalid role key format: %s", key)
	}
	return parts[1], parts[2], nil
}
