// internal/game/turn.go
package game

// Direction of play around the table.
type Direction string

const (
	Clockwise        Direction = "clockwise"
	CounterClockwise Direction = "counterClockwise"
)

// Sign is the seat-index step for one turn in this direction.
func (d Direction) Sign() int {
	if d == CounterClockwise {
		return -1
	}
	return 1
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == CounterClockwise {
		return Clockwise
	}
	return CounterClockwise
}

// nextSeat computes the seat that acts after current, stepping over skipCount
// seats in the given direction. The extra seatCount term keeps the modulo
// non-negative for counter-clockwise play.
func nextSeat(current, seatCount, skipCount int, dir Direction) int {
	step := dir.Sign() * (1 + skipCount)
	return ((current+step)%seatCount + seatCount) % seatCount
}
