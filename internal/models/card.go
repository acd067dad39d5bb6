// internal/models/card.go
package models

import "github.com/google/uuid"

// CardColor is the printed color of a card. Wild-type cards carry the
// pseudo-color ColorWild until a player nominates a real color for them.
type CardColor string

const (
	ColorRed    CardColor = "red"
	ColorBlue   CardColor = "blue"
	ColorGreen  CardColor = "green"
	ColorYellow CardColor = "yellow"
	ColorWild   CardColor = "wild"
)

// PlayableColors are the colors a player may nominate for a wild card.
var PlayableColors = []CardColor{ColorRed, ColorBlue, ColorGreen, ColorYellow}

// CardType identifies a card's rule behavior.
type CardType string

const (
	TypeNumber       CardType = "number"
	TypeSkip         CardType = "skip"
	TypeReverse      CardType = "reverse"
	TypeDrawTwo      CardType = "drawTwo"
	TypeWild         CardType = "wild"
	TypeWildDrawFour CardType = "wildDrawFour"
	TypeBlankWild    CardType = "blankWild"
)

// Card is a single physical card. Number is meaningful only when
// Type == TypeNumber; PointValue is the score charged to a losing hand
// still holding the card at round end.
type Card struct {
	ID         uuid.UUID `json:"id"`
	Color      CardColor `json:"color"`
	Type       CardType  `json:"type"`
	Number     int       `json:"number,omitempty"`
	PointValue int       `json:"pointValue"`
}

// IsWild reports whether the card's printed color is the wild pseudo-color.
func (c *Card) IsWild() bool {
	return c.Color == ColorWild
}

// IsDrawPenalty reports whether playing the card adds to the pending draw
// count of the next player.
func (c *Card) IsDrawPenalty() bool {
	return c.Type == TypeDrawTwo || c.Type == TypeWildDrawFour
}
