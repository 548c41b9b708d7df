package bookings

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorm.io/gorm"
)

func TestRetryOnReferenceCollision_RetriesWithFreshReference(t *testing.T) {
	var seen []string
	err := retryOnReferenceCollision("BK", 3, func(reference string) error {
		seen = append(seen, reference)
		if len(seen) == 1 {
			return gorm.ErrDuplicatedKey
		}
		return nil
	})

	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.NotEqual(t, seen[0], seen[1], "the replay must not reuse the colliding reference")
	for _, reference := range seen {
		assert.Regexp(t, `^BK-\d{8}-[A-Z0-9]{6}$`, reference)
	}
}

func TestRetryOnReferenceCollision_ExhaustionFailsTheCaller(t *testing.T) {
	attempts := 0
	err := retryOnReferenceCollision("BK", 2, func(reference string) error {
		attempts++
		return gorm.ErrDuplicatedKey
	})

	assert.ErrorIs(t, err, ErrReferenceCollision)
	assert.Equal(t, 3, attempts, "one initial attempt plus two replays")
}

func TestRetryOnReferenceCollision_OtherErrorsAreNotRetried(t *testing.T) {
	boom := errors.New("insert failed")
	attempts := 0
	err := retryOnReferenceCollision("BK", 5, func(reference string) error {
		attempts++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}
