// Package requestctx resolves the acting principal and URL identifiers for
// controllers.
package requestctx

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/TetyanaPavlyuk/library-api-service/api/middleware"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/auth"
	pkgerrors "github.com/TetyanaPavlyuk/library-api-service/pkg/errors"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/logger"
)

// ResolvePrincipal returns the authenticated identity or an unauthorized error.
func ResolvePrincipal(r *http.Request) (auth.Principal, error) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return auth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication credentials were not provided.")
	}
	return principal, nil
}

// PathUUID parses a chi URL parameter as a uuid.
func PathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, key+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "Not found.")
	}
	return id, nil
}

// WithBorrowingID tags the request log context with the borrowing being handled.
func WithBorrowingID(r *http.Request, logg *logger.Logger, id uuid.UUID) *http.Request {
	if logg == nil || id == uuid.Nil {
		return r
	}
	return r.WithContext(logg.WithBorrowingID(r.Context(), id.String()))
}

// WithPaymentID tags the request log context with the payment being handled.
func WithPaymentID(r *http.Request, logg *logger.Logger, id uuid.UUID) *http.Request {
	if logg == nil || id == uuid.Nil {
		return r
	}
	return r.WithContext(logg.WithPaymentID(r.Context(), id.String()))
}
