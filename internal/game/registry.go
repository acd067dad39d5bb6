// internal/game/registry.go
package game

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playdeck/uno/internal/models"
)

// GameStore maps game IDs to their owning sessions. Lookup-or-create briefly
// serializes first accesses to a new ID; beyond that, sessions for different
// games never contend with each other.
type GameStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]*UnoGame
}

// NewGameStore returns an empty in-memory registry.
func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[uuid.UUID]*UnoGame),
	}
}

// CreateGame deals a new session for the seat-ordered players and registers
// it. The rng is injectable for deterministic games; nil gets a time-seeded
// source.
func (s *GameStore) CreateGame(players []*models.Player, rules HouseRules, mode ScoreMode, r *rand.Rand) (*UnoGame, error) {
	g, err := NewUnoGame(players, rules, mode, r)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.games[g.ID] = g
	s.mu.Unlock()
	return g, nil
}

// AddGame registers an existing session.
func (s *GameStore) AddGame(g *UnoGame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = g
}

// GetGame retrieves a session if it exists.
func (s *GameStore) GetGame(id uuid.UUID) (*UnoGame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	return g, ok
}

// DeleteGame removes a session from the registry.
func (s *GameStore) DeleteGame(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
}

// Submit routes one player action to the owning session and returns the
// resulting snapshot or the rejection. The session serializes the call
// against every other action on the same game.
func (s *GameStore) Submit(gameID, playerID uuid.UUID, action models.GameAction) (Snapshot, error) {
	g, ok := s.GetGame(gameID)
	if !ok {
		return Snapshot{}, ErrGameNotFound
	}

	switch action.ActionType {
	case models.ActionPlayCard:
		cardID, err := payloadUUID(action.Payload, "cardId")
		if err != nil {
			return Snapshot{}, ErrCardNotOwned
		}
		color := models.CardColor(payloadString(action.Payload, "color"))
		return g.PlayCard(playerID, cardID, color)
	case models.ActionDrawCard:
		return g.DrawCard(playerID)
	case models.ActionCallUno:
		return g.CallUno(playerID)
	case models.ActionCatchUno:
		targetID, err := payloadUUID(action.Payload, "targetId")
		if err != nil {
			return Snapshot{}, ErrPlayerNotFound
		}
		return g.CatchUnoFailure(playerID, targetID)
	case models.ActionChallenge:
		isChallenging, _ := action.Payload["isChallenging"].(bool)
		return g.ChallengeWildDrawFour(playerID, isChallenging)
	default:
		return Snapshot{}, ErrUnknownAction
	}
}

// EvictStale removes finished sessions older than finishedGrace and live
// sessions idle longer than maxIdle. Returns how many were evicted.
func (s *GameStore) EvictStale(maxIdle, finishedGrace time.Duration) int {
	s.mu.Lock()
	candidates := make([]*UnoGame, 0, len(s.games))
	for _, g := range s.games {
		candidates = append(candidates, g)
	}
	s.mu.Unlock()

	now := time.Now()
	evicted := 0
	for _, g := range candidates {
		finished, endedAt := g.Finished()
		stale := false
		if finished {
			stale = now.Sub(endedAt) >= finishedGrace
		} else {
			stale = now.Sub(g.LastActivity()) >= maxIdle
		}
		if stale {
			s.DeleteGame(g.ID)
			evicted++
			log.Printf("Registry: evicted game %s (finished=%v)", g.ID, finished)
		}
	}
	return evicted
}

// StartEvictionLoop sweeps the registry on the given interval until the
// context is done.
func (s *GameStore) StartEvictionLoop(ctx context.Context, interval, maxIdle, finishedGrace time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.EvictStale(maxIdle, finishedGrace)
			}
		}
	}()
}

func payloadString(payload map[string]interface{}, key string) string {
	if payload == nil {
		return ""
	}
	v, _ := payload[key].(string)
	return v
}

func payloadUUID(payload map[string]interface{}, key string) (uuid.UUID, error) {
	return uuid.Parse(payloadString(payload, key))
}
