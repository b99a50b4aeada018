package api

import (
	"context"
	"time"

	"github.com/virtudoc/virtudoc-engine/models"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

type contextKey string

const (
	principalIDKey   contextKey = "principalID"
	principalRoleKey contextKey = "principalRole"
)

// WithPrincipal stamps the authenticated user id and role onto the context
func WithPrincipal(parent context.Context, userID string, role models.Role) context.Context {
	ctx := context.WithValue(parent, principalIDKey, userID)
	return context.WithValue(ctx, principalRoleKey, role)
}

// PrincipalFromContext returns the authenticated user id and role set by the
// auth middleware, reporting false on unauthenticated contexts.
func PrincipalFromContext(ctx context.Context) (string, models.Role, bool) {
	userID, ok := ctx.Value(principalIDKey).(string)
	if !ok {
		return "", "", false
	}
	role, _ := ctx.Value(principalRoleKey).(models.Role)
	return userID, role, true
}
