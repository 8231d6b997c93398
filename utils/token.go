package utils

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Prescription identifiers on the ledger are fixed-width 32-byte tokens
// derived from a short uppercase alphanumeric code: the code's ASCII bytes
// right-padded with zeros, rendered as 0x-prefixed lowercase hex. The
// all-zero token is the sentinel identifier carried by the record returned
// for an unknown id.
const (
	TokenBytes = 32

	// SentinelID is the identifier of the zero record
	SentinelID = "0x0000000000000000000000000000000000000000000000000000000000000000"
)

var (
	codeRegex  = regexp.MustCompile(`^[A-Z0-9]{1,31}$`)
	tokenRegex = regexp.MustCompile(`^0x[0-9a-f]{64}$`)
)

// EncodeID encodes a short prescription code into its fixed-width ledger token
func EncodeID(code string) (string, error) {
	if !codeRegex.MatchString(code) {
		return "", fmt.Errorf("invalid prescription code: %q (want 1-31 uppercase alphanumeric characters)", code)
	}
	var buf [TokenBytes]byte
	copy(buf[:], code)
	return "0x" + hex.EncodeToString(buf[:]), nil
}

// DecodeID decodes a ledger token back to the short code it was derived from
func DecodeID(token string) (string, error) {
	if !tokenRegex.MatchString(token) {
		return "", fmt.Errorf("invalid prescription token: %q", token)
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(token, "0x"))
	if err != nil {
		return "", fmt.Errorf("failed to decode token: %v", err)
	}
	code := strings.TrimRight(string(raw), "\x00")
	if !codeRegex.MatchString(code) {
		return "", fmt.Errorf("token %s does not decode to a valid code", token)
	}
	return code, nil
}

// IsSentinelID reports whether the token is the sentinel identifier
func IsSentinelID(token string) bool {
	return token == SentinelID
}

// ValidateToken checks that an identifier is a well-formed, non-sentinel token
func ValidateToken(token string) error {
	if !tokenRegex.MatchString(token) {
		return fmt.Errorf("invalid prescription token: %q", token)
	}
	if IsSentinelID(token) {
		return fmt.Errorf("sentinel token is not a valid prescription identifier")
	}
	return nil
}
