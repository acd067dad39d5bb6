package handlers

import (
	"errors"
	"net/http"
	"strings"
)

var (
	errInvalidPlayerID = errors.New("invalid player id")
	errMissingToken    = errors.New("missing seat token")
)

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// tokenFromRequest pulls a seat token from the "game_token" cookie, falling
// back to a "token" query parameter for clients that cannot set cookies on
// WebSocket upgrades.
func tokenFromRequest(r *http.Request) string {
	if token := extractCookieToken(r.Header.Get("Cookie"), "game_token"); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}
