package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// validateUUID checks that value parses as a UUID and returns its canonical
// lowercase form.
func validateUUID(field, value string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("%s: invalid uuid %q: %w", field, value, err)
	}
	return id.String(), nil
}

// validateHexDigest normalizes and checks a hex digest value.
// Digests are stored lowercase with an even number of hex characters.
func validateHexDigest(field, value string) (string, error) {
	digest := strings.ToLower(strings.TrimSpace(value))
	if digest == "" {
		return "", fmt.Errorf("%s: hex digest cannot be empty", field)
	}
	if len(digest)%2 != 0 {
		return "", fmt.Errorf("%s: hex digest length must be even, got %d", field, len(digest))
	}
	for _, ch := range digest {
		if !strings.ContainsRune("0123456789abcdef", ch) {
			return "", fmt.Errorf("%s: hex digest contains non-hex character %q", field, ch)
		}
	}
	return digest, nil
}

// validateNonEmpty rejects strings that are empty after trimming whitespace.
func validateNonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	return nil
}

// validateTimestamp rejects zero timestamps. Stored timestamps always carry
// an explicit offset; the zero value is how a missing one shows up in Go.
func validateTimestamp(field string, ts time.Time) error {
	if ts.IsZero() {
		return fmt.Errorf("%s must be set with an explicit timezone offset", field)
	}
	return nil
}
