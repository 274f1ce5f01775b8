// Package format generates the human-readable invoice numbers and the
// opaque share tokens used for public links.
package format

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// FormatInvoiceNumber builds a number like INV-202608-4821: the
// configured prefix, the issue year and month, and a random four-digit
// suffix. The suffix is random rather than sequential so numbers are
// not guessable from public share pages; the caller retries on a
// unique-constraint collision.
func FormatInvoiceNumber(prefix string, issuedAt time.Time) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("invoice number prefix is empty")
	}

	n, err := rand.Int(rand.Reader, big.NewInt(10_000))
	if err != nil {
		return "", fmt.Errorf("invoice number suffix: %w", err)
	}

	return fmt.Sprintf("%s-%s-%04d", prefix, issuedAt.UTC().Format("200601"), n.Int64()), nil
}

// GenerateShareToken returns a 32-character hex token (16 random
// bytes) identifying an invoice on its public URL.
func GenerateShareToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("share token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
