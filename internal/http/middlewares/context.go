package middlewares

import (
	"context"

	"github.com/maticastro/authgate/internal/domain/repository"
)

type ctxKey string

const (
	ctxUserKey      ctxKey = "user"
	ctxRequestIDKey ctxKey = "request_id"
)

// WithUser injects the authenticated user into the context.
func WithUser(ctx context.Context, u *repository.User) context.Context {
	return context.WithValue(ctx, ctxUserKey, u)
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetUser returns the authenticated user, or nil when the guard did not run.
func GetUser(ctx context.Context) *repository.User {
	if v := ctx.Value(ctxUserKey); v != nil {
		if u, ok := v.(*repository.User); ok {
			return u
		}
	}
	return nil
}

// GetRequestID returns the request ID, or "" when not set.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
