package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxUserID        contextKey = "user_id"
	ctxRole          contextKey = "actor_role"
	ctxTenantID      contextKey = "tenant_id"
	ctxTokenTenantID contextKey = "token_tenant_id"
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

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func TenantIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxTenantID).(string); ok {
		return v
	}
	return ""
}

func tokenTenantFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxTokenTenantID).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext returns the authenticated user id, or nil for anonymous requests.
func ActorFromContext(ctx context.Context) *uuid.UUID {
	raw := UserIDFromContext(ctx)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithTenantID injects the resolved tenant for downstream handlers.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTenantID, tenantID)
}
