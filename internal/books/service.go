package books

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/TetyanaPavlyuk/library-api-service/pkg/db"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/db/models"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/enums"
	pkgerrors "github.com/TetyanaPavlyuk/library-api-service/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var maxDailyFee = decimal.RequireFromString("999.99")

// Service exposes the book catalog.
type Service interface {
	List(ctx context.Context) ([]models.Book, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Book, error)
	Create(ctx context.Context, input CreateBookInput) (*models.Book, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*models.Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateBookInput is the payload for adding a book to the catalog.
type CreateBookInput struct {
	Title     string          `json:"title" validate:"required,max=100"`
	Author    string          `json:"author" validate:"required,max=100"`
	Cover     *string         `json:"cover,omitempty"`
	Inventory *int            `json:"inventory,omitempty" validate:"omitempty,gte=0"`
	DailyFee  decimal.Decimal `json:"daily_fee"`
}

// UpdateBookInput applies only the fields that are set.
type UpdateBookInput struct {
	Title     *string          `json:"title,omitempty" validate:"omitempty,min=1,max=100"`
	Author    *string          `json:"author,omitempty" validate:"omitempty,min=1,max=100"`
	Cover     *string          `json:"cover,omitempty"`
	Inventory *int             `json:"inventory,omitempty" validate:"omitempty,gte=0"`
	DailyFee  *decimal.Decimal `json:"daily_fee,omitempty"`
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("books repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.Book, error) {
	books, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list books")
	}
	return books, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return book, nil
}

func (s *service) Create(ctx context.Context, input CreateBookInput) (*models.Book, error) {
	cover, err := parseCover(input.Cover)
	if err != nil {
		return nil, err
	}
	if err := validateDailyFee(input.DailyFee); err != nil {
		return nil, err
	}
	inventory := 1
	if input.Inventory != nil {
		inventory = *input.Inventory
	}
	if inventory < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory must be non-negative")
	}

	book := &models.Book{
		Title:     strings.TrimSpace(input.Title),
		Author:    strings.TrimSpace(input.Author),
		Cover:     cover,
		DailyFee:  input.DailyFee.Round(2),
		Inventory: inventory,
	}
	created, err := s.repo.Create(ctx, book)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create book")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*models.Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}

	if input.Title != nil {
		book.Title = strings.TrimSpace(*input.Title)
	}
	if input.Author != nil {
		book.Author = strings.TrimSpace(*input.Author)
	}
	if input.Cover != nil {
		cover, err := parseCover(input.Cover)
		if err != nil {
			return nil, err
		}
		book.Cover = cover
	}
	if input.Inventory != nil {
		if *input.Inventory < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory must be non-negative")
		}
		book.Inventory = *input.Inventory
	}
	if input.DailyFee != nil {
		if err := validateDailyFee(*input.DailyFee); err != nil {
			return nil, err
		}
		book.DailyFee = input.DailyFee.Round(2)
	}

	updated, err := s.repo.Save(ctx, book)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update book")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "book is referenced by borrowings")
		}
		return mapLookupError(err)
	}
	return nil
}

func parseCover(raw *string) (*enums.BookCover, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	cover, err := enums.ParseBookCover(*raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cover").
			WithDetails(map[string]string{"cover": "must be hard or soft"})
	}
	return &cover, nil
}

func validateDailyFee(fee decimal.Decimal) error {
	if fee.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "daily fee must be non-negative").
			WithDetails(map[string]string{"daily_fee": "must be >= 0"})
	}
	if fee.GreaterThan(maxDailyFee) {
		return pkgerrors.New(pkgerrors.CodeValidation, "daily fee is too large").
			WithDetails(map[string]string{"daily_fee": "must be <= 999.99"})
	}
	return nil
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
}
