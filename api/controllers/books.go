package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TetyanaPavlyuk/library-api-service/api/controllers/requestctx"
	"github.com/TetyanaPavlyuk/library-api-service/api/responses"
	"github.com/TetyanaPavlyuk/library-api-service/api/validators"
	"github.com/TetyanaPavlyuk/library-api-service/internal/books"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/db/models"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/enums"
	pkgerrors "github.com/TetyanaPavlyuk/library-api-service/pkg/errors"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/logger"
)

type bookResponse struct {
	ID        uuid.UUID        `json:"id"`
	Title     string           `json:"title"`
	Author    string           `json:"author"`
	Cover     *enums.BookCover `json:"cover"`
	Inventory int              `json:"inventory"`
	DailyFee  decimal.Decimal  `json:"daily_fee"`
}

func newBookResponse(b models.Book) bookResponse {
	return bookResponse{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Cover:     b.Cover,
		Inventory: b.Inventory,
		DailyFee:  b.DailyFee.Round(2),
	}
}

// BookList returns the catalog. Guests may browse.
func BookList(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "book service unavailable"))
			return
		}
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]bookResponse, 0, len(list))
		for _, b := range list {
			out = append(out, newBookResponse(b))
		}
		responses.WriteSuccess(w, out)
	}
}

// BookDetail returns one catalog entry.
func BookDetail(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "book service unavailable"))
			return
		}
		id, err := requestctx.PathUUID(r, "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		book, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBookResponse(*book))
	}
}

// BookCreate adds a book. Staff only.
func BookCreate(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "book service unavailable"))
			return
		}
		var input books.CreateBookInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		book, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newBookResponse(*book))
	}
}

// BookUpdate applies a partial update. Staff only.
func BookUpdate(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "book service unavailable"))
			return
		}
		id, err := requestctx.PathUUID(r, "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input books.UpdateBookInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		book, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBookResponse(*book))
	}
}

// BookDelete removes a book that was never borrowed. Staff only.
func BookDelete(svc books.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "book service unavailable"))
			return
		}
		id, err := requestctx.PathUUID(r, "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
