package sessions

import "time"

// defaultSessionTTL applies when a repository is handed a session without an
// expiry.
const defaultSessionTTL = 7 * 24 * time.Hour

// Session binds an opaque refresh token to the identity-provider subject that
// signed in. The auth handler exchanges it for a fresh access token on
// /auth/refresh and drops it on /auth/logout.
type Session struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	RefreshToken string    `bson:"refreshToken" json:"refreshToken"`
	Sub          string    `bson:"sub" json:"sub"`
	ExpiresAt    time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// Expired reports whether the refresh token can no longer be exchanged at now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// remaining is the lifetime left at now, never below one second. Stores with
// native expiry use it as the key TTL.
func (s *Session) remaining(now time.Time) time.Duration {
	if d := s.ExpiresAt.Sub(now); d > time.Second {
		return d
	}
	return time.Second
}

// stamp fills CreatedAt and ExpiresAt when the caller left them zero.
func (s *Session) stamp(now time.Time) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = now.Add(defaultSessionTTL)
	}
}
