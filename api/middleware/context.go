package middleware

import (
	"context"

	"github.com/TetyanaPavlyuk/library-api-service/pkg/auth"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// PrincipalFromContext returns the authenticated identity, if any.
func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	if ctx == nil {
		return auth.Principal{}, false
	}
	p, ok := ctx.Value(ctxPrincipal).(auth.Principal)
	return p, ok
}

// WithPrincipal injects the identity into the context.
func WithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}
