// internal/models/action.go
package models

// Action kinds accepted by the game registry's Submit entry point. The names
// double as the WebSocket message types.
const (
	ActionPlayCard  = "play_card"
	ActionDrawCard  = "draw_card"
	ActionCallUno   = "call_uno"
	ActionCatchUno  = "catch_uno"
	ActionChallenge = "challenge_wild"
)

// GameAction captures a player's in-game move as delivered by the transport.
type GameAction struct {
	ActionType string                 `json:"action_type"`
	Payload    map[string]interface{} `json:"payload"`
}
