// internal/game/game.go
package game

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/playdeck/uno/internal/cache"
	"github.com/playdeck/uno/internal/models"
)

// GameStatus is the lifecycle state of a session.
type GameStatus string

const (
	StatusPlaying  GameStatus = "playing"
	StatusFinished GameStatus = "finished"
)

// ScoreMode selects how a round ending translates into a game ending.
type ScoreMode string

const (
	ScoreCumulative  ScoreMode = "cumulative"
	ScoreSingleRound ScoreMode = "singleRound"
)

// GameEventType labels events broadcast to clients.
type GameEventType string

const (
	EventGameUpdate    GameEventType = "game_update"
	EventUnoCalled     GameEventType = "uno_called"
	EventUnoCaught     GameEventType = "uno_caught"
	EventChallengeMade GameEventType = "challenge_made"
	EventPlayerJoined  GameEventType = "player_joined"
	EventPlayerLeft    GameEventType = "player_left"
	EventPrivateSync   GameEventType = "private_sync_state"
	EventGameEnd       GameEventType = "game_end"
)

// EventUser identifies a player inside an event payload.
type EventUser struct {
	ID uuid.UUID `json:"id"`
}

// GameEvent is the envelope broadcast to clients over the transport.
type GameEvent struct {
	Type    GameEventType          `json:"type"`
	User    *EventUser             `json:"user,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	View    *PlayerView            `json:"view,omitempty"`
}

// DiscardEntry is one card on the discard pile together with the seat that
// played it and the color that was in effect before the play. PlayedBy is -1
// for the dealer's opening card. PriorColor is what a wild-draw-four
// challenge re-checks against.
type DiscardEntry struct {
	Card       *models.Card     `json:"card"`
	PlayedBy   int              `json:"playedBy"`
	PriorColor models.CardColor `json:"priorColor,omitempty"`
}

// UnoGame holds the entire state for a single game instance in memory. It is
// the sole authority over that state: every operation acquires Mu, so
// concurrent actions from different players serialize in arrival order and
// either fully apply or fail with no partial mutation.
type UnoGame struct {
	ID                 uuid.UUID
	Status             GameStatus
	Players            []*models.Player // fixed seat order
	CurrentPlayerIndex int
	Direction          Direction
	DrawPile           []*models.Card // front is the next draw
	DiscardPile        []DiscardEntry // last is the top
	CurrentWildColor   models.CardColor
	CardsToDraw        int
	IsStackingActive   bool
	HouseRules         HouseRules
	ScoreMode          ScoreMode
	PlayerScores       map[uuid.UUID]int
	WinnerID           uuid.UUID
	StartedAt          time.Time
	EndedAt            time.Time

	Mu sync.Mutex

	// BroadcastFn sends an event to every connected player. Nil disables
	// broadcast (tests, headless use).
	BroadcastFn func(ev GameEvent)

	// BroadcastToPlayerFn sends an event to one specific player.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)

	// PersistFn receives the snapshot after every successful transition. It is
	// invoked off the lock on its own goroutine: persistence is a best-effort
	// projection and must never stall another player's turn.
	PersistFn func(snap Snapshot)

	rand         *rand.Rand
	nowFn        func() time.Time
	actionIndex  int
	lastActivity time.Time
}

// NewUnoGame shuffles a fresh deck with the provided source, deals the
// opening hands round-robin, selects the initial discard, and applies the
// first-card effect. The rng is retained for reshuffles, so a seeded game is
// fully reproducible.
func NewUnoGame(players []*models.Player, rules HouseRules, mode ScoreMode, r *rand.Rand) (*UnoGame, error) {
	if len(players) < 2 {
		return nil, ErrTooFewPlayers
	}
	if len(players)*CardsPerHand >= DeckSize {
		return nil, ErrTooManyPlayers
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if mode == "" {
		mode = ScoreCumulative
	}

	deck := NewDeck()
	ShuffleDeck(deck, r)

	hands, deck := Deal(deck, len(players), CardsPerHand)
	now := time.Now()
	for i, p := range players {
		p.Hand = hands[i]
		p.HasCalledUno = false
		p.LastActive = now
	}

	first, deck := PopInitialDiscard(deck)

	g := &UnoGame{
		ID:                 uuid.New(),
		Status:             StatusPlaying,
		Players:            players,
		CurrentPlayerIndex: 0,
		Direction:          Clockwise,
		DrawPile:           deck,
		DiscardPile:        []DiscardEntry{{Card: first, PlayedBy: -1}},
		HouseRules:         rules,
		ScoreMode:          mode,
		PlayerScores:       make(map[uuid.UUID]int),
		StartedAt:          now,
		rand:               r,
		nowFn:              time.Now,
		lastActivity:       now,
	}

	// Opening adjustment for a special first card. A first drawTwo sets the
	// pending count without touching the seat or the stacking flag; that gap
	// is carried from the original ruleset on purpose.
	switch first.Type {
	case models.TypeSkip:
		g.CurrentPlayerIndex = 1 % len(players)
	case models.TypeReverse:
		g.Direction = CounterClockwise
	case models.TypeDrawTwo:
		g.CardsToDraw = 2
	}

	log.Printf("Game %s: dealt %d players, first discard %s (%s)", g.ID, len(players), first.ID, first.Type)
	return g, nil
}

// PlayCard validates and applies a card play for the given player. On success
// the new snapshot is returned and projected to collaborators; on failure the
// state is untouched.
func (g *UnoGame) PlayCard(playerID, cardID uuid.UUID, selectedColor models.CardColor) (Snapshot, error) {
	g.Mu.Lock()
	finishedBefore := g.Status == StatusFinished
	if err := g.playCardLocked(playerID, cardID, selectedColor); err != nil {
		g.Mu.Unlock()
		return Snapshot{}, err
	}
	g.touchLocked(playerID)
	g.logAction(playerID, models.ActionPlayCard, map[string]interface{}{
		"cardId": cardID, "color": selectedColor,
	})
	snap := g.snapshotLocked()
	ended := !finishedBefore && g.Status == StatusFinished
	g.Mu.Unlock()

	var extra []GameEvent
	if ended {
		extra = append(extra, g.gameEndEvent(snap))
	}
	g.afterTransition(snap, extra...)
	return snap, nil
}

// DrawCard resolves a draw for the acting player: the pending penalty count
// or a single card, reshuffling the discard pile under the top card whenever
// the draw pile runs dry. The turn always advances exactly one seat.
func (g *UnoGame) DrawCard(playerID uuid.UUID) (Snapshot, error) {
	g.Mu.Lock()
	if err := g.drawCardLocked(playerID); err != nil {
		g.Mu.Unlock()
		return Snapshot{}, err
	}
	g.touchLocked(playerID)
	g.logAction(playerID, models.ActionDrawCard, nil)
	snap := g.snapshotLocked()
	g.Mu.Unlock()

	g.afterTransition(snap)
	return snap, nil
}

// CallUno marks the player as having called UNO. Legal only with exactly one
// card in hand.
func (g *UnoGame) CallUno(playerID uuid.UUID) (Snapshot, error) {
	g.Mu.Lock()
	if err := g.callUnoLocked(playerID); err != nil {
		g.Mu.Unlock()
		return Snapshot{}, err
	}
	g.touchLocked(playerID)
	g.logAction(playerID, models.ActionCallUno, nil)
	snap := g.snapshotLocked()
	g.Mu.Unlock()

	g.afterTransition(snap, GameEvent{Type: EventUnoCalled, User: &EventUser{ID: playerID}})
	return snap, nil
}

// CatchUnoFailure penalizes a target who reached one card without calling
// UNO: up to two cards come straight off the draw pile. This path never
// reshuffles, an asymmetry carried from the original ruleset.
func (g *UnoGame) CatchUnoFailure(catcherID, targetID uuid.UUID) (Snapshot, error) {
	g.Mu.Lock()
	if err := g.catchUnoFailureLocked(catcherID, targetID); err != nil {
		g.Mu.Unlock()
		return Snapshot{}, err
	}
	g.touchLocked(catcherID)
	g.logAction(catcherID, models.ActionCatchUno, map[string]interface{}{"targetId": targetID})
	snap := g.snapshotLocked()
	g.Mu.Unlock()

	g.afterTransition(snap, GameEvent{
		Type: EventUnoCaught,
		User: &EventUser{ID: catcherID},
		Payload: map[string]interface{}{
			"catcherId": catcherID.String(),
			"targetId":  targetID.String(),
		},
	})
	return snap, nil
}

// ChallengeWildDrawFour resolves a challenge against the most recent wild
// draw four on the discard pile. Declining (isChallenging=false) accepts the
// penalty; challenging re-checks the play against the color that was in
// effect when it was made and penalizes the offender on success, the
// challenger otherwise.
func (g *UnoGame) ChallengeWildDrawFour(challengerID uuid.UUID, isChallenging bool) (Snapshot, error) {
	g.Mu.Lock()
	if err := g.challengeLocked(challengerID, isChallenging); err != nil {
		g.Mu.Unlock()
		return Snapshot{}, err
	}
	g.touchLocked(challengerID)
	g.logAction(challengerID, models.ActionChallenge, map[string]interface{}{"isChallenging": isChallenging})
	snap := g.snapshotLocked()
	g.Mu.Unlock()

	g.afterTransition(snap, GameEvent{
		Type:    EventChallengeMade,
		User:    &EventUser{ID: challengerID},
		Payload: map[string]interface{}{"isChallenging": isChallenging},
	})
	return snap, nil
}

// Snapshot returns the full serializable projection of the current state.
// Finished games stay queryable until the registry evicts them.
func (g *UnoGame) Snapshot() Snapshot {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.snapshotLocked()
}

// HandleReconnect attaches a connection to a seat, marks the player online,
// and sends them a private state sync.
func (g *UnoGame) HandleReconnect(playerID uuid.UUID, conn *websocket.Conn) {
	g.Mu.Lock()
	seat := g.seatOf(playerID)
	if seat < 0 {
		g.Mu.Unlock()
		log.Printf("Game %s: reconnecting player %s not found", g.ID, playerID)
		if conn != nil {
			conn.Close(websocket.StatusPolicyViolation, "You are not a player in this game.")
		}
		return
	}
	p := g.Players[seat]
	p.Conn = conn
	p.IsOnline = true
	p.LastActive = g.now()
	g.touchLocked(playerID)
	g.logAction(playerID, "player_reconnect", nil)
	snap := g.snapshotLocked()
	g.Mu.Unlock()

	if g.BroadcastToPlayerFn != nil {
		view := snap.ViewFor(playerID)
		g.BroadcastToPlayerFn(playerID, GameEvent{Type: EventPrivateSync, View: &view})
	}
	if g.BroadcastFn != nil {
		g.BroadcastFn(GameEvent{Type: EventPlayerJoined, User: &EventUser{ID: playerID}})
	}
}

// HandleDisconnect marks a player offline. The game keeps their seat and
// hand; the session stays live so they can reconnect.
func (g *UnoGame) HandleDisconnect(playerID uuid.UUID) {
	g.Mu.Lock()
	seat := g.seatOf(playerID)
	if seat < 0 {
		g.Mu.Unlock()
		return
	}
	p := g.Players[seat]
	if !p.IsOnline {
		g.Mu.Unlock()
		return
	}
	p.IsOnline = false
	p.Conn = nil
	p.LastActive = g.now()
	g.logAction(playerID, "player_disconnect", nil)
	g.Mu.Unlock()

	if g.BroadcastFn != nil {
		g.BroadcastFn(GameEvent{Type: EventPlayerLeft, User: &EventUser{ID: playerID}})
	}
}

// LastActivity reports when the session last processed an accepted action,
// for the registry's idle-eviction sweep.
func (g *UnoGame) LastActivity() time.Time {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.lastActivity
}

// Finished reports whether the session is terminal, and since when.
func (g *UnoGame) Finished() (bool, time.Time) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.Status == StatusFinished, g.EndedAt
}

// afterTransition projects a successful transition to collaborators: the
// snapshot goes to persistence on its own goroutine, every player gets a
// private obfuscated sync, and any extra public events go out last. Runs off
// the session lock; a slow store or socket cannot block the next action.
func (g *UnoGame) afterTransition(snap Snapshot, extra ...GameEvent) {
	if g.PersistFn != nil {
		go g.PersistFn(snap)
	}
	if g.BroadcastToPlayerFn != nil {
		for _, p := range snap.Players {
			view := snap.ViewFor(p.ID)
			g.BroadcastToPlayerFn(p.ID, GameEvent{Type: EventPrivateSync, View: &view})
		}
	}
	if g.BroadcastFn != nil {
		g.BroadcastFn(GameEvent{Type: EventGameUpdate})
		for _, ev := range extra {
			g.BroadcastFn(ev)
		}
	}
}

func (g *UnoGame) gameEndEvent(snap Snapshot) GameEvent {
	scores := make(map[string]int, len(snap.PlayerScores))
	for id, s := range snap.PlayerScores {
		scores[id] = s
	}
	return GameEvent{
		Type: EventGameEnd,
		Payload: map[string]interface{}{
			"winner": snap.WinnerID.String(),
			"scores": scores,
		},
	}
}

// seatOf returns the seat index for a player ID, or -1. Assumes lock held.
func (g *UnoGame) seatOf(playerID uuid.UUID) int {
	for i, p := range g.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (g *UnoGame) now() time.Time {
	if g.nowFn != nil {
		return g.nowFn()
	}
	return time.Now()
}

// touchLocked records activity for the idle-eviction policy. Assumes lock held.
func (g *UnoGame) touchLocked(playerID uuid.UUID) {
	now := g.now()
	g.lastActivity = now
	if seat := g.seatOf(playerID); seat >= 0 {
		g.Players[seat].LastActive = now
	}
}

// logAction publishes the action record to the historian queue. Assumes lock
// held; the Redis push itself happens asynchronously.
func (g *UnoGame) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.GameActionRecord{
		GameID:        g.ID,
		ActionIndex:   g.actionIndex,
		ActorUserID:   actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     g.now().UnixMilli(),
	}
	go func(rec cache.GameActionRecord) {
		if cache.Rdb == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishGameAction(ctx, rec); err != nil {
			log.Printf("Game %s: publishing action %d failed: %v", rec.GameID, rec.ActionIndex, err)
		}
	}(record)
}
