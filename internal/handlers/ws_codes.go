// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the game handlers. These provide more
// specific reasons for closure than standard codes.
const (
	BadSubprotocolError   websocket.StatusCode = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError websocket.StatusCode = 3001 // Provided seat token was invalid or expired.
	InvalidUserIDError    websocket.StatusCode = 3002 // Player ID derived from token was malformed.
	NotSeatedError        websocket.StatusCode = 3003 // Authenticated player holds no seat in the target game.
)
