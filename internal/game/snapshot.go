// internal/game/snapshot.go
package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/playdeck/uno/internal/models"
)

// PlayerSnapshot is the full, unobfuscated projection of one seat.
type PlayerSnapshot struct {
	ID           uuid.UUID      `json:"id"`
	Username     string         `json:"username,omitempty"`
	Hand         []*models.Card `json:"hand"`
	HasCalledUno bool           `json:"hasCalledUno"`
	IsOnline     bool           `json:"isOnline"`
	LastActive   time.Time      `json:"lastActive"`
}

// Snapshot is the complete serializable projection of a game's state, used
// for persistence and as the source for per-player views. It deep-copies the
// piles and hands so later transitions cannot mutate it.
type Snapshot struct {
	ID                 uuid.UUID         `json:"id"`
	Status             GameStatus        `json:"status"`
	Players            []PlayerSnapshot  `json:"players"`
	CurrentPlayerIndex int               `json:"currentPlayerIndex"`
	Direction          Direction         `json:"direction"`
	DrawPile           []*models.Card    `json:"drawPile"`
	DiscardPile        []DiscardEntry    `json:"discardPile"`
	CurrentWildColor   models.CardColor  `json:"currentWildColor,omitempty"`
	CardsToDraw        int               `json:"cardsToDraw"`
	IsStackingActive   bool              `json:"isStackingActive"`
	HouseRules         HouseRules        `json:"houseRules"`
	ScoreMode          ScoreMode         `json:"scoreMode"`
	PlayerScores       map[string]int    `json:"playerScores"`
	WinnerID           uuid.UUID         `json:"winnerId,omitempty"`
	StartedAt          time.Time         `json:"startedAt"`
	EndedAt            time.Time         `json:"endedAt,omitempty"`
}

// snapshotLocked builds a Snapshot from the live state. Assumes lock held.
func (g *UnoGame) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:                 g.ID,
		Status:             g.Status,
		Players:            make([]PlayerSnapshot, len(g.Players)),
		CurrentPlayerIndex: g.CurrentPlayerIndex,
		Direction:          g.Direction,
		DrawPile:           make([]*models.Card, len(g.DrawPile)),
		DiscardPile:        make([]DiscardEntry, len(g.DiscardPile)),
		CurrentWildColor:   g.CurrentWildColor,
		CardsToDraw:        g.CardsToDraw,
		IsStackingActive:   g.IsStackingActive,
		HouseRules:         g.HouseRules,
		ScoreMode:          g.ScoreMode,
		PlayerScores:       make(map[string]int, len(g.PlayerScores)),
		WinnerID:           g.WinnerID,
		StartedAt:          g.StartedAt,
		EndedAt:            g.EndedAt,
	}
	copy(snap.DrawPile, g.DrawPile)
	copy(snap.DiscardPile, g.DiscardPile)
	for i, p := range g.Players {
		hand := make([]*models.Card, len(p.Hand))
		copy(hand, p.Hand)
		snap.Players[i] = PlayerSnapshot{
			ID:           p.ID,
			Username:     p.Username,
			Hand:         hand,
			HasCalledUno: p.HasCalledUno,
			IsOnline:     p.IsOnline,
			LastActive:   p.LastActive,
		}
	}
	for id, s := range g.PlayerScores {
		snap.PlayerScores[id.String()] = s
	}
	return snap
}

// ViewPlayer is one seat as seen by a requesting player: hand contents only
// for the requester themselves, a count for everyone else.
type ViewPlayer struct {
	PlayerID      uuid.UUID      `json:"player_id"`
	Username      string         `json:"username,omitempty"`
	HandSize      int            `json:"hand_size"`
	HasCalledUno  bool           `json:"hasCalledUno"`
	IsOnline      bool           `json:"isOnline"`
	IsCurrentTurn bool           `json:"isCurrentTurn"`
	Hand          []*models.Card `json:"hand,omitempty"`
}

// PlayerView is the obfuscated state sync sent to a single player. Pile
// contents collapse to sizes plus the visible discard top.
type PlayerView struct {
	GameID           uuid.UUID        `json:"game_id"`
	Status           GameStatus       `json:"status"`
	CurrentPlayerID  uuid.UUID        `json:"currentPlayerId"`
	Direction        Direction        `json:"direction"`
	DrawPileSize     int              `json:"drawPileSize"`
	DiscardSize      int              `json:"discardSize"`
	DiscardTop       *models.Card     `json:"discardTop,omitempty"`
	CurrentWildColor models.CardColor `json:"currentWildColor,omitempty"`
	CardsToDraw      int              `json:"cardsToDraw"`
	IsStackingActive bool             `json:"isStackingActive"`
	Players          []ViewPlayer     `json:"players"`
	PlayerScores     map[string]int   `json:"playerScores"`
	WinnerID         uuid.UUID        `json:"winnerId,omitempty"`
}

// ViewFor derives the obfuscated view of the snapshot for one player. Pure,
// so it can run off the session lock.
func (s *Snapshot) ViewFor(forPlayer uuid.UUID) PlayerView {
	view := PlayerView{
		GameID:           s.ID,
		Status:           s.Status,
		Direction:        s.Direction,
		DrawPileSize:     len(s.DrawPile),
		DiscardSize:      len(s.DiscardPile),
		CurrentWildColor: s.CurrentWildColor,
		CardsToDraw:      s.CardsToDraw,
		IsStackingActive: s.IsStackingActive,
		Players:          make([]ViewPlayer, len(s.Players)),
		PlayerScores:     s.PlayerScores,
		WinnerID:         s.WinnerID,
	}
	if len(s.Players) > 0 && s.CurrentPlayerIndex >= 0 && s.CurrentPlayerIndex < len(s.Players) {
		view.CurrentPlayerID = s.Players[s.CurrentPlayerIndex].ID
	}
	if len(s.DiscardPile) > 0 {
		view.DiscardTop = s.DiscardPile[len(s.DiscardPile)-1].Card
	}
	for i, p := range s.Players {
		vp := ViewPlayer{
			PlayerID:      p.ID,
			Username:      p.Username,
			HandSize:      len(p.Hand),
			HasCalledUno:  p.HasCalledUno,
			IsOnline:      p.IsOnline,
			IsCurrentTurn: i == s.CurrentPlayerIndex,
		}
		if p.ID == forPlayer {
			vp.Hand = p.Hand
		}
		view.Players[i] = vp
	}
	return view
}
