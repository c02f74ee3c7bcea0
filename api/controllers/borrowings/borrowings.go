package borrowings

import (
	"net/http"
	"strings"

	"github.com/TetyanaPavlyuk/library-api-service/api/controllers/requestctx"
	"github.com/TetyanaPavlyuk/library-api-service/api/responses"
	"github.com/TetyanaPavlyuk/library-api-service/api/validators"
	internalborrowings "github.com/TetyanaPavlyuk/library-api-service/internal/borrowings"
	"github.com/TetyanaPavlyuk/library-api-service/internal/payments"
	pkgerrors "github.com/TetyanaPavlyuk/library-api-service/pkg/errors"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/logger"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/pagination"
)

type returnResponse struct {
	Detail  string `json:"detail"`
	FineURL string `json:"fine_url,omitempty"`
}

// Create lends books and redirects the borrower to the payment endpoint.
func Create(svc internalborrowings.Service, publicBaseURL string, logg *logger.Logger) http.HandlerFunc {
	paymentURL := strings.TrimRight(publicBaseURL, "/") + payments.CreatePaymentPath
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "borrowing service unavailable"))
			return
		}
		actor, err := requestctx.ResolvePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input internalborrowings.CreateBorrowingInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		borrowing, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view := internalborrowings.NewDetailView(*borrowing, internalborrowings.AudienceFor(actor), nil)
		responses.WriteRedirect(w, paymentURL, view)
	}
}

// List pages through borrowings visible to the caller.
func List(svc internalborrowings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "borrowing service unavailable"))
			return
		}
		actor, err := requestctx.ResolvePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		isActive, err := validators.ParseQueryBool(r, "is_active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userIDs, err := validators.ParseQueryUUIDs(r, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<20)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pageSize, err := validators.ParseQueryInt(r, "page_size", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), actor, internalborrowings.ListFilter{
			IsActive: isActive,
			UserIDs:  userIDs,
			Params:   pagination.Params{Page: page, Limit: pageSize},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Detail returns one borrowing with its rental amount.
func Detail(svc internalborrowings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "borrowing service unavailable"))
			return
		}
		actor, err := requestctx.ResolvePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := requestctx.PathUUID(r, "borrowingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		r = requestctx.WithBorrowingID(r, logg, id)
		view, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Return closes a borrowing and points at the fine checkout when it is late.
func Return(svc internalborrowings.Service, publicBaseURL string, logg *logger.Logger) http.HandlerFunc {
	fineURL := strings.TrimRight(publicBaseURL, "/") + payments.CreateFinePath
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "borrowing service unavailable"))
			return
		}
		actor, err := requestctx.ResolvePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := requestctx.PathUUID(r, "borrowingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		r = requestctx.WithBorrowingID(r, logg, id)

		result, err := svc.Return(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := returnResponse{Detail: result.Detail()}
		if result.Overdue {
			resp.FineURL = fineURL
		}
		responses.WriteSuccess(w, resp)
	}
}

// MethodNotAllowed answers writes other than create and return. Borrowings
// change only through those two operations.
func MethodNotAllowed(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", "GET, POST")
		responses.WriteError(r.Context(), logg, w,
			pkgerrors.New(pkgerrors.CodeNotAllowed, `Method "`+r.Method+`" not allowed.`))
	}
}
