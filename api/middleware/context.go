package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/davronbekov/taxipark-backend/internal/audit"
	"github.com/davronbekov/taxipark-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxRole     contextKey = "actor_role"
	ctxUserName contextKey = "user_name"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) enums.AdminRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return enums.AdminRole(v)
	}
	return ""
}

func UserNameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserName).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext assembles the audit actor seeded by the auth middleware.
func ActorFromContext(ctx context.Context) audit.Actor {
	actor := audit.Actor{Name: UserNameFromContext(ctx)}
	if id, err := uuid.Parse(UserIDFromContext(ctx)); err == nil {
		actor.UserID = id
	}
	return actor
}

// WithIdentity seeds the request context with the authenticated identity.
func WithIdentity(ctx context.Context, userID, role, name string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxRole, role)
	return context.WithValue(ctx, ctxUserName, name)
}
