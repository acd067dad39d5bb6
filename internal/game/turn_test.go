// internal/game/turn_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextSeat(t *testing.T) {
	// Four seats, clockwise: plain advance and skip.
	assert.Equal(t, 1, nextSeat(0, 4, 0, Clockwise))
	assert.Equal(t, 2, nextSeat(0, 4, 1, Clockwise))
	assert.Equal(t, 0, nextSeat(3, 4, 0, Clockwise), "wraps around")

	// Counter-clockwise stays non-negative through the wrap.
	assert.Equal(t, 3, nextSeat(0, 4, 0, CounterClockwise))
	assert.Equal(t, 2, nextSeat(0, 4, 1, CounterClockwise))
	assert.Equal(t, 0, nextSeat(1, 4, 0, CounterClockwise))
}

func TestDirectionFlipAndSign(t *testing.T) {
	assert.Equal(t, CounterClockwise, Clockwise.Flip())
	assert.Equal(t, Clockwise, CounterClockwise.Flip())
	assert.Equal(t, 1, Clockwise.Sign())
	assert.Equal(t, -1, CounterClockwise.Sign())
}
