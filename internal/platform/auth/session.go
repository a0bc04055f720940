package auth

import "context"

// Session is the authenticated identity attached to each request. Handlers
// and services receive it through the request context rather than reading a
// process-wide current user.
type Session struct {
	UserID  string
	Subject string
	Roles   []Role
}

// HasRole reports whether the session carries the given role. Admin sessions
// satisfy every role check.
func (s *Session) HasRole(role Role) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Roles {
		if r == role || r == RoleAdmin {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the session carries at least one of the roles.
func (s *Session) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if s.HasRole(r) {
			return true
		}
	}
	return false
}

type contextKey string

const sessionKey contextKey = "auth_session"

// WithSession returns a context carrying the session.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext retrieves the session, or nil when unauthenticated.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}
