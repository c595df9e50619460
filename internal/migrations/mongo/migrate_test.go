package mongo

import (
	"testing"

	"carbroker/internal/reservations/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestLocksCollectionDefined(t *testing.T) {
	def, ok := Collections[cache.LocksCollection]
	require.True(t, ok)
	assert.NotEmpty(t, def.Indexes)

	schema := def.Validator["$jsonSchema"].(bson.M)
	required := schema["required"].([]string)
	props := schema["properties"].(bson.M)
	for _, field := range required {
		assert.Contains(t, props, field, "required field %s has no schema", field)
	}
}

func TestVehicleRangeIndexIsUnique(t *testing.T) {
	idx := ReservationLocksIndexes[0]
	require.NotNil(t, idx.Options)
	require.NotNil(t, idx.Options.Unique)
	assert.True(t, *idx.Options.Unique)

	keys := idx.Keys.(bson.D)
	assert.Equal(t, "rez_id", keys[0].Key)
	assert.Equal(t, "dropoff", keys[len(keys)-1].Key)
}
