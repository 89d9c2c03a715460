package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestSubjectFilter(t *testing.T) {
	t.Run("booking only", func(t *testing.T) {
		filter, ok := subjectFilter("bk-1", "")
		require.True(t, ok)
		assert.Equal(t, bson.M{"$or": []bson.M{{"booking_id": "bk-1"}}}, filter)
	})

	t.Run("either subject matches", func(t *testing.T) {
		filter, ok := subjectFilter("bk-1", "ext-1")
		require.True(t, ok)
		assert.Equal(t, bson.M{"$or": []bson.M{{"booking_id": "bk-1"}, {"extension_id": "ext-1"}}}, filter)
	})

	t.Run("no subject matches nothing", func(t *testing.T) {
		// Without this guard the filter would degenerate to bson.M{} and a
		// subject-less payout would be blocked by any in-progress payout.
		_, ok := subjectFilter("", "")
		assert.False(t, ok)
	})
}
