package bookings

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateReference builds a human-presentable booking reference:
// prefix + compact date + 6 random uppercase alphanumerics, e.g.
// BK-20260831-K7Q2ZD. The generator does not guarantee uniqueness; the
// unique index on booking_reference does, and inserts retry with a fresh
// suffix on collision.
func GenerateReference(prefix string) (string, error) {
	timestamp := time.Now().UTC().Format("20060102")

	suffix := make([]byte, 6)
	for i := range suffix {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(referenceAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking reference: %w", err)
		}
		suffix[i] = referenceAlphabet[num.Int64()]
	}

	return fmt.Sprintf("%s-%s-%s", prefix, timestamp, string(suffix)), nil
}
