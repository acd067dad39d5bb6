// internal/models/player.go
package models

import (
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Player is one seat in a game. Hand order carries no rule meaning; cards are
// looked up by ID.
type Player struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username,omitempty"`
	Hand         []*Card   `json:"hand"`
	HasCalledUno bool      `json:"hasCalledUno"`
	IsOnline     bool      `json:"isOnline"`
	LastActive   time.Time `json:"lastActive"`

	Conn *websocket.Conn `json:"-"`
}

// HoldsCard returns the card with the given ID from the player's hand, or nil.
func (p *Player) HoldsCard(cardID uuid.UUID) *Card {
	for _, c := range p.Hand {
		if c.ID == cardID {
			return c
		}
	}
	return nil
}
