package utils

import (
	"net/http"
)

// Context keys - should match the ones in middleware.go
type contextKey string

const (
	UsernameKey  contextKey = "username"
	RoleKey      contextKey = "role"
	SessionIDKey contextKey = "session_id"
	CSRFTokenKey contextKey = "csrf_token"
)

// GetUsername extracts the logged-in username from request context
func GetUsername(r *http.Request) (string, bool) {
	username, ok := r.Context().Value(UsernameKey).(string)
	return username, ok && username != ""
}

// GetRole extracts the session role from request context
func GetRole(r *http.Request) (string, bool) {
	role, ok := r.Context().Value(RoleKey).(string)
	return role, ok && role != ""
}

// GetSessionID extracts the session ID from request context
func GetSessionID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(SessionIDKey).(string)
	return id, ok && id != ""
}

// GetCSRFToken extracts CSRF token from request context
func GetCSRFToken(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(CSRFTokenKey).(string)
	return token, ok && token != ""
}
