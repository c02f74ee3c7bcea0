package payments

import (
	"net/http"

	"github.com/TetyanaPavlyuk/library-api-service/api/controllers/requestctx"
	"github.com/TetyanaPavlyuk/library-api-service/api/responses"
	"github.com/TetyanaPavlyuk/library-api-service/api/validators"
	internalpayments "github.com/TetyanaPavlyuk/library-api-service/internal/payments"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/auth"
	pkgerrors "github.com/TetyanaPavlyuk/library-api-service/pkg/errors"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/logger"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/pagination"
)

type messageResponse struct {
	Message string `json:"message"`
}

type requestFunc func(svc internalpayments.Service, r *http.Request, actor auth.Principal, input internalpayments.RequestInput) (*internalpayments.SessionResult, error)

// CreatePayment opens a rental checkout session for a borrowing.
func CreatePayment(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return openSession(svc, logg, func(svc internalpayments.Service, r *http.Request, actor auth.Principal, input internalpayments.RequestInput) (*internalpayments.SessionResult, error) {
		return svc.RequestPayment(r.Context(), actor, input.BorrowingID)
	})
}

// CreateFine opens a fine checkout session for an overdue borrowing.
func CreateFine(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return openSession(svc, logg, func(svc internalpayments.Service, r *http.Request, actor auth.Principal, input internalpayments.RequestInput) (*internalpayments.SessionResult, error) {
		return svc.RequestFine(r.Context(), actor, input.BorrowingID)
	})
}

func openSession(svc internalpayments.Service, logg *logger.Logger, request requestFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		actor, err := requestctx.ResolvePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input internalpayments.RequestInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		r = requestctx.WithBorrowingID(r, logg, input.BorrowingID)

		result, err := request(svc, r, actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// Success is the processor's return target. It is public and safe to replay.
func Success(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		sessionID := validators.SanitizeString(r.URL.Query().Get("session_id"), 255)

		result, err := svc.ConfirmPayment(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !result.Paid {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, result.Message))
			return
		}
		responses.WriteSuccess(w, messageResponse{Message: result.Message})
	}
}

// Cancel is the processor's cancel target.
func Cancel() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		responses.WriteSuccess(w, messageResponse{Message: internalpayments.CancelMessage})
	}
}

// List pages through payments visible to the caller.
func List(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		actor, err := requestctx.ResolvePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), actor, pagination.ParseQuery(r.URL.Query()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Detail returns one payment with its borrowing context.
func Detail(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		actor, err := requestctx.ResolvePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := requestctx.PathUUID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		r = requestctx.WithPaymentID(r, logg, id)
		detail, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// Forbidden answers edits and deletes. Payment rows change only through
// the processor confirmation.
func Forbidden(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w,
			pkgerrors.New(pkgerrors.CodeForbidden, "Payments can't be edited or deleted."))
	}
}
