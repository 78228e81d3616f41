package uid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflake(t *testing.T) {
	// Arrange
	gen, err := NewSnowflake(1)
	require.NoError(t, err)

	// Act
	seen := make(map[int64]struct{}, 1000)
	var last int64
	for range 1000 {
		id := gen.Generate()
		require.Greater(t, id, last)
		last = id
		seen[id] = struct{}{}
	}

	// Assert
	assert.Len(t, seen, 1000)
}

func TestSnowflake_InvalidNode(t *testing.T) {
	_, err := NewSnowflake(4096)
	require.Error(t, err)
}

func TestUUID(t *testing.T) {
	var gen StringID = NewUUID()

	id, err := uuid.Parse(gen.Generate())

	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.NotEqual(t, gen.Generate(), gen.Generate())
}
