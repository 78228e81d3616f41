package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeClocker_NowIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, New().Now().Location())
}

func TestFrozen(t *testing.T) {
	// Arrange
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewFrozen(start)

	// Act
	c.Advance(time.Microsecond)

	// Assert
	assert.Equal(t, start.Add(time.Microsecond), c.Now())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}
