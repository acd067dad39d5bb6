// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/playdeck/uno/internal/game"
	"github.com/playdeck/uno/internal/middleware"
	"github.com/playdeck/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// GameMessage is the envelope for incoming WebSocket messages during play.
type GameMessage struct {
	Type string `json:"type"`

	// CardID and Color accompany play_card; Color is required when the
	// played card is wild.
	CardID string `json:"cardId,omitempty"`
	Color  string `json:"color,omitempty"`

	// TargetID names the accused player for catch_uno.
	TargetID string `json:"targetId,omitempty"`

	// IsChallenging distinguishes challenging from accepting the penalty
	// for challenge_wild.
	IsChallenging bool `json:"isChallenging,omitempty"`

	// Payload is a generic container for any additional data; explicit
	// fields above take precedence.
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// GameWSHandler upgrades the HTTP connection to WebSocket for a specific game
// instance. It authenticates the seat token, verifies the player belongs to
// the game, registers the connection, and runs the read loop.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Extract game ID from URL path: /game/ws/{game_id}
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/game/ws/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "Missing game_id in path (/game/ws/{game_id})", http.StatusBadRequest)
			return
		}
		gameID, err := uuid.Parse(pathParts[0])
		if err != nil {
			http.Error(w, "Invalid game_id format", http.StatusBadRequest)
			return
		}

		g, ok := gs.Store.GetGame(gameID)
		if !ok {
			http.Error(w, "Game not found", http.StatusNotFound)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for game %s: %v", gameID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		if c.Subprotocol() != "game" {
			logger.Warnf("Client for game %s connected with invalid subprotocol: %s", gameID, c.Subprotocol())
			c.Close(BadSubprotocolError, "Client must use the 'game' subprotocol.")
			return
		}

		playerID, err := authenticateRequest(r)
		if err != nil {
			logger.Warnf("Seat token authentication failed for game %s: %v", gameID, err)
			if errors.Is(err, errInvalidPlayerID) {
				c.Close(InvalidUserIDError, "Malformed player id in token.")
			} else {
				c.Close(InvalidAuthTokenError, "Authentication failed.")
			}
			return
		}
		logger.Infof("Player %s authenticated for game %s", playerID, gameID)

		// Verify the authenticated player holds a seat in this game.
		isPlayerInGame := false
		g.Mu.Lock()
		for _, p := range g.Players {
			if p.ID == playerID {
				isPlayerInGame = true
				break
			}
		}
		g.Mu.Unlock()
		if !isPlayerInGame {
			logger.Warnf("Player %s is not seated in game %s. Closing connection.", playerID, gameID)
			c.Close(NotSeatedError, "You are not a player in this game.")
			return
		}

		// Register broadcast functions once per game instance. They hand events
		// off to goroutines so game logic never blocks on a slow socket.
		g.Mu.Lock()
		if g.BroadcastFn == nil {
			g.BroadcastFn = createBroadcastFunc(g, logger)
		}
		if g.BroadcastToPlayerFn == nil {
			g.BroadcastToPlayerFn = createBroadcastToPlayerFunc(g, logger)
		}
		g.Mu.Unlock()

		// Mark the seat online and send the initial private sync state.
		g.HandleReconnect(playerID, c)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		readGameMessages(ctx, c, gs, g, playerID, logger)

		logger.Infof("Player %s WebSocket read loop exited for game %s.", playerID, gameID)
		g.HandleDisconnect(playerID)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, nil)
	}
}

// createBroadcastFunc returns a function suitable for UnoGame.BroadcastFn.
// It marshals the event and sends it asynchronously to all connected players.
func createBroadcastFunc(g *game.UnoGame, logger *logrus.Logger) func(ev game.GameEvent) {
	return func(ev game.GameEvent) {
		// Called after the game lock is released. Acquire it briefly to collect
		// current connections, then write off the lock.
		playersToSend := []*models.Player{}
		g.Mu.Lock()
		for _, p := range g.Players {
			if p.IsOnline && p.Conn != nil {
				playersToSend = append(playersToSend, p)
			}
		}
		g.Mu.Unlock()

		msgBytes, err := json.Marshal(ev)
		if err != nil {
			logger.Errorf("Failed to marshal broadcast event (%s) for game %s: %v", ev.Type, g.ID, err)
			return
		}

		go func(players []*models.Player, data []byte, gameID uuid.UUID) {
			for _, pl := range players {
				if pl.Conn != nil {
					ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
					err := pl.Conn.Write(ctx, websocket.MessageText, data)
					cancel()
					if err != nil {
						logger.Warnf("Failed to write broadcast message to player %s in game %s: %v", pl.ID, gameID, err)
					}
				}
			}
		}(playersToSend, msgBytes, g.ID)
	}
}

// createBroadcastToPlayerFunc returns a function suitable for
// UnoGame.BroadcastToPlayerFn. It finds the target seat and sends the event
// asynchronously.
func createBroadcastToPlayerFunc(g *game.UnoGame, logger *logrus.Logger) func(targetPlayerID uuid.UUID, ev game.GameEvent) {
	return func(targetPlayerID uuid.UUID, ev game.GameEvent) {
		var targetConn *websocket.Conn
		g.Mu.Lock()
		for _, pl := range g.Players {
			if pl.ID == targetPlayerID {
				if pl.IsOnline && pl.Conn != nil {
					targetConn = pl.Conn
				}
				break
			}
		}
		g.Mu.Unlock()
		if targetConn == nil {
			return
		}

		msgBytes, err := json.Marshal(ev)
		if err != nil {
			logger.Errorf("Failed to marshal private event (%s) for player %s in game %s: %v", ev.Type, targetPlayerID, g.ID, err)
			return
		}
		go func(conn *websocket.Conn, data []byte, playerID, gameID uuid.UUID) {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Failed to write private message to player %s in game %s: %v", playerID, gameID, err)
			}
		}(targetConn, msgBytes, targetPlayerID, g.ID)
	}
}

// readGameMessages continuously reads messages from a client's WebSocket
// connection, unmarshals them, and routes actions through the registry. Each
// action locks the game internally; validation failures are reported back to
// the sender without disturbing anyone else.
func readGameMessages(ctx context.Context, c *websocket.Conn, gs *GameServer, g *game.UnoGame, playerID uuid.UUID, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for player %s in game %s.", playerID, g.ID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for player %s in game %s.", playerID, g.ID)
			} else {
				logger.Warnf("Error reading from WebSocket for player %s in game %s: %v (Status: %d)", playerID, g.ID, err, status)
			}
			return
		}

		if msgType != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from player %s in game %s. Ignoring.", msgType, playerID, g.ID)
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON received from player %s in game %s: %v. Data: %s", playerID, g.ID, err, string(data))
			sendWsError(ctx, c, "Invalid JSON format.")
			continue
		}

		logger.Debugf("Received action '%s' from player %s in game %s.", msg.Type, playerID, g.ID)

		switch msg.Type {
		case models.ActionPlayCard, models.ActionDrawCard, models.ActionCallUno,
			models.ActionCatchUno, models.ActionChallenge:
			action := models.GameAction{
				ActionType: msg.Type,
				Payload:    actionPayload(msg),
			}
			if _, err := gs.Store.Submit(g.ID, playerID, action); err != nil {
				logger.Debugf("Action '%s' from player %s rejected in game %s: %v", msg.Type, playerID, g.ID, err)
				sendWsError(ctx, c, err.Error())
			}

		case "ping":
			logger.Tracef("Received ping from player %s, sending pong.", playerID)
			sendWsMessage(ctx, c, map[string]string{"type": "pong"})

		default:
			logger.Warnf("Unknown action type '%s' from player %s in game %s.", msg.Type, playerID, g.ID)
			sendWsError(ctx, c, fmt.Sprintf("Unknown action type: %s", msg.Type))
		}

		select {
		case <-ctx.Done():
			logger.Infof("Context canceled after processing message for player %s in game %s.", playerID, g.ID)
			return
		default:
		}
	}
}

// actionPayload merges the explicit message fields over the generic payload.
func actionPayload(msg GameMessage) map[string]interface{} {
	payload := make(map[string]interface{}, len(msg.Payload)+4)
	for k, v := range msg.Payload {
		payload[k] = v
	}
	if msg.CardID != "" {
		payload["cardId"] = msg.CardID
	}
	if msg.Color != "" {
		payload["color"] = msg.Color
	}
	if msg.TargetID != "" {
		payload["targetId"] = msg.TargetID
	}
	if msg.Type == models.ActionChallenge {
		payload["isChallenging"] = msg.IsChallenging
	}
	return payload
}

// sendWsMessage marshals a message and sends it to the WebSocket client.
func sendWsMessage(ctx context.Context, c *websocket.Conn, message interface{}) {
	if c == nil {
		log.Println("Error: Attempted to send WebSocket message on nil connection.")
		return
	}
	msgBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling WebSocket message: %v", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = c.Write(writeCtx, websocket.MessageText, msgBytes)
	if err != nil {
		status := websocket.CloseStatus(err)
		if strings.Contains(err.Error(), "context deadline exceeded") {
			log.Printf("Timeout writing WebSocket message: %v", err)
		} else if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			log.Printf("Error writing WebSocket message: %v (Status: %d)", err, status)
		}
	}
}

// sendWsError sends a structured error message to the client.
func sendWsError(ctx context.Context, c *websocket.Conn, errorMsg string) {
	sendWsMessage(ctx, c, map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}
