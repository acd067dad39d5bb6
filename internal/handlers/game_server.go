// internal/handlers/game_server.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/playdeck/uno/internal/auth"
	"github.com/playdeck/uno/internal/database"
	"github.com/playdeck/uno/internal/game"
	"github.com/playdeck/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// GameServer holds the session registry and serves the HTTP surface for
// creating games and fetching state. WebSocket play goes through GameWSHandler.
type GameServer struct {
	Store  *game.GameStore
	Logger *logrus.Logger
}

func NewGameServer(logger *logrus.Logger) *GameServer {
	return &GameServer{
		Store:  game.NewGameStore(),
		Logger: logger,
	}
}

// createGameRequest is the POST /game/create body. Players may be named
// explicitly; otherwise numPlayers anonymous seats are generated.
type createGameRequest struct {
	Players []struct {
		ID       string `json:"id,omitempty"`
		Username string `json:"username,omitempty"`
	} `json:"players,omitempty"`
	NumPlayers int                    `json:"numPlayers,omitempty"`
	HouseRules map[string]interface{} `json:"houseRules,omitempty"`
	ScoreMode  string                 `json:"scoreMode,omitempty"`
}

type createGameResponse struct {
	GameID uuid.UUID         `json:"game_id"`
	Tokens map[string]string `json:"tokens"`
}

// CreateGameHandler deals a new game and returns its ID plus one signed seat
// token per player. Persistence is wired in when a database pool is available.
func (gs *GameServer) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	players, err := buildPlayers(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rules, err := game.ParseRules(req.HouseRules, game.DefaultHouseRules())
	if err != nil {
		http.Error(w, "Invalid house rules: "+err.Error(), http.StatusBadRequest)
		return
	}

	mode := game.ScoreMode(req.ScoreMode)
	switch mode {
	case "", game.ScoreCumulative, game.ScoreSingleRound:
	default:
		http.Error(w, "Invalid scoreMode", http.StatusBadRequest)
		return
	}

	g, err := gs.Store.CreateGame(players, rules, mode, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	gs.wirePersistence(g)

	tokens := make(map[string]string, len(players))
	for _, p := range players {
		token, err := auth.CreateJWT(p.ID.String())
		if err != nil {
			gs.Logger.Errorf("Failed to sign seat token for player %s in game %s: %v", p.ID, g.ID, err)
			http.Error(w, "Failed to issue seat tokens", http.StatusInternalServerError)
			return
		}
		tokens[p.ID.String()] = token
	}

	gs.Logger.Infof("Created game %s with %d players", g.ID, len(players))
	writeJSON(w, http.StatusOK, createGameResponse{GameID: g.ID, Tokens: tokens})
}

// buildPlayers resolves the request into seated players. Explicit player
// entries win; numPlayers alone seats anonymous players with fresh IDs.
func buildPlayers(req createGameRequest) ([]*models.Player, error) {
	now := time.Now()
	if len(req.Players) > 0 {
		players := make([]*models.Player, 0, len(req.Players))
		for _, entry := range req.Players {
			id := uuid.New()
			if entry.ID != "" {
				parsed, err := uuid.Parse(entry.ID)
				if err != nil {
					return nil, errInvalidPlayerID
				}
				id = parsed
			}
			players = append(players, &models.Player{
				ID:         id,
				Username:   entry.Username,
				Hand:       []*models.Card{},
				LastActive: now,
			})
		}
		return players, nil
	}

	players := make([]*models.Player, 0, req.NumPlayers)
	for i := 0; i < req.NumPlayers; i++ {
		players = append(players, &models.Player{
			ID:         uuid.New(),
			Hand:       []*models.Card{},
			LastActive: now,
		})
	}
	return players, nil
}

// wirePersistence attaches the snapshot projection when Postgres is connected.
// The hook runs on its own goroutine after each transition, so a slow or down
// database never blocks play.
func (gs *GameServer) wirePersistence(g *game.UnoGame) {
	if database.DB == nil {
		return
	}
	gameID := g.ID
	g.PersistFn = func(snap game.Snapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.SaveGameSnapshot(ctx, gameID, string(snap.Status), snap); err != nil {
			gs.Logger.Warnf("Failed to persist snapshot for game %s: %v", gameID, err)
		}
	}
}

// GameStateHandler serves GET /game/state/{game_id}. The caller must present a
// seat token for the game; the response is their obfuscated view.
func (gs *GameServer) GameStateHandler(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/game/state/")
	gameID, err := uuid.Parse(strings.TrimSuffix(idStr, "/"))
	if err != nil {
		http.Error(w, "Invalid game_id format", http.StatusBadRequest)
		return
	}

	g, ok := gs.Store.GetGame(gameID)
	if !ok {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	playerID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "Authentication failed", http.StatusUnauthorized)
		return
	}

	snap := g.Snapshot()
	if !snapshotHasPlayer(snap, playerID) {
		http.Error(w, "You are not a player in this game", http.StatusForbidden)
		return
	}

	view := snap.ViewFor(playerID)
	writeJSON(w, http.StatusOK, view)
}

// HealthHandler reports liveness.
func (gs *GameServer) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authenticateRequest resolves the requesting player from the seat token.
func authenticateRequest(r *http.Request) (uuid.UUID, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return uuid.Nil, errMissingToken
	}
	sub, err := auth.AuthenticateJWT(token)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", errInvalidPlayerID, err)
	}
	return id, nil
}

func snapshotHasPlayer(snap game.Snapshot, playerID uuid.UUID) bool {
	for _, p := range snap.Players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
