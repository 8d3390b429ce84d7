package session

import "time"

// Roles understood by the portal. Anything else is treated as "no access".
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Session is a logged-in user with a fixed lifetime. The expiry is set once at
// creation and never refreshed.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Valid reports whether the session is usable at the given instant: the expiry
// must be set and in the future, and the role must be non-empty. A session
// created at T with TTL D is valid strictly before T+D and invalid from T+D on.
func (s Session) Valid(now time.Time) bool {
	return s.Role != "" && !s.ExpiresAt.IsZero() && now.Before(s.ExpiresAt)
}

// Remaining returns how much lifetime the session has left (zero when expired).
func (s Session) Remaining(now time.Time) time.Duration {
	d := s.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
