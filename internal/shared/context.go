package shared

import "context"

// Scope identifies the acting user and its tenant. Every service call takes
// the scope explicitly; nothing is read from ambient globals.
type Scope struct {
	UserID    int64
	CompanyID int64
	Role      string
}

// IsAdmin reports whether the scope belongs to a company administrator.
func (s Scope) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// Roles assignable to a profile.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type sessionContextKey struct{}

type scopeContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithScope stores the resolved tenant scope in context.
func ContextWithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// ScopeFromContext extracts the tenant scope placed by the auth middleware.
func ScopeFromContext(ctx context.Context) (Scope, bool) {
	scope, ok := ctx.Value(scopeContextKey{}).(Scope)
	return scope, ok
}
