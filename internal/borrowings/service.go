package borrowings

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/TetyanaPavlyuk/library-api-service/internal/books"
	"github.com/TetyanaPavlyuk/library-api-service/internal/notifications"
	"github.com/TetyanaPavlyuk/library-api-service/internal/users"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/auth"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/db/models"
	pkgerrors "github.com/TetyanaPavlyuk/library-api-service/pkg/errors"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/metrics"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/pagination"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/types"
)

const pendingPaymentMessage = "You have at least one pending payment - borrowing is forbidden"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userDirectory interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]users.UserDTO, error)
}

// Service owns the borrowing lifecycle.
type Service interface {
	Create(ctx context.Context, actor auth.Principal, input CreateBorrowingInput) (*models.Borrowing, error)
	Return(ctx context.Context, actor auth.Principal, id uuid.UUID) (*ReturnResult, error)
	Find(ctx context.Context, actor auth.Principal, id uuid.UUID) (*models.Borrowing, error)
	Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*DetailView, error)
	List(ctx context.Context, actor auth.Principal, filter ListFilter) (*pagination.Page[ListView], error)
	FineAmount(b models.Borrowing) (decimal.Decimal, error)
}

type ServiceParams struct {
	Repo              Repository
	Inventory         books.Inventory
	Users             userDirectory
	Notifier          notifications.Notifier
	TransactionRunner txRunner
	Metrics           *metrics.LibraryMetrics
	FineMultiplier    decimal.Decimal
	Now               func() time.Time
}

type service struct {
	repo           Repository
	inventory      books.Inventory
	users          userDirectory
	notifier       notifications.Notifier
	tx             txRunner
	metrics        *metrics.LibraryMetrics
	fineMultiplier decimal.Decimal
	now            func() time.Time
}

// NewService wires the borrowing engine.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "borrowings repo required")
	}
	if params.Inventory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user directory required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifier required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if !params.FineMultiplier.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fine multiplier must be positive")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:           params.Repo,
		inventory:      params.Inventory,
		users:          params.Users,
		notifier:       params.Notifier,
		tx:             params.TransactionRunner,
		metrics:        params.Metrics,
		fineMultiplier: params.FineMultiplier,
		now:            now,
	}, nil
}

func (s *service) Create(ctx context.Context, actor auth.Principal, input CreateBorrowingInput) (*models.Borrowing, error) {
	ownerID := actor.UserID
	if actor.IsStaff && input.UserID != nil && *input.UserID != uuid.Nil {
		ownerID = *input.UserID
	}

	bookIDs := distinctIDs(input.BookIDs)
	if len(bookIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one book is required").
			WithDetails(map[string]string{"book": "this field is required"})
	}

	today := types.DateOf(s.now())
	expected := types.DateOf(input.ExpectedReturnDate.Time)
	if input.ExpectedReturnDate.IsZero() || expected.Before(today) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expected return date must not be earlier than borrow date").
			WithDetails(map[string]string{"expected_return_date": "must be today or later"})
	}

	borrowing := &models.Borrowing{
		ID:                 uuid.New(),
		UserID:             ownerID,
		BorrowDate:         today,
		ExpectedReturnDate: expected,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, userID := range distinctIDs([]uuid.UUID{actor.UserID, ownerID}) {
			pending, err := repo.HasPendingPayment(ctx, userID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending payments")
			}
			if pending {
				return pkgerrors.New(pkgerrors.CodePendingPayment, pendingPaymentMessage).
					WithDetails(map[string]any{"user_id": userID})
			}
		}

		snapshots := make([]models.BorrowingBook, 0, len(bookIDs))
		for _, bookID := range bookIDs {
			book, err := s.inventory.Reserve(ctx, tx, bookID)
			if err != nil {
				return err
			}
			snapshots = append(snapshots, models.BorrowingBook{
				BookID:   book.ID,
				Title:    book.Title,
				DailyFee: book.DailyFee,
			})
		}
		sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Title < snapshots[j].Title })
		borrowing.Books = snapshots

		if err := repo.Create(ctx, borrowing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create borrowing")
		}
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "create borrowing")
	}

	s.metrics.IncBorrowingCreated()
	s.notifier.Notify(ctx, notifications.BorrowingCreated(borrowing.Titles(), s.fullName(ctx, actor, ownerID)))
	return borrowing, nil
}

func (s *service) Return(ctx context.Context, actor auth.Principal, id uuid.UUID) (*ReturnResult, error) {
	today := types.DateOf(s.now())

	var result *ReturnResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		borrowing, err := findVisible(ctx, repo, actor, id)
		if err != nil {
			return err
		}
		if err := markReturned(borrowing, today); err != nil {
			return err
		}

		updated, err := repo.MarkReturned(ctx, borrowing.ID, today)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark borrowing returned")
		}
		if !updated {
			return errAlreadyReturned(borrowing)
		}

		for _, book := range borrowing.Books {
			if err := s.inventory.Release(ctx, tx, book.BookID); err != nil {
				return err
			}
		}
		result = &ReturnResult{Borrowing: borrowing, Overdue: IsOverdue(*borrowing)}
		return nil
	})
	if err != nil {
		return nil, asTyped(err, "return borrowing")
	}

	s.metrics.IncBorrowingReturned(result.Overdue)
	return result, nil
}

func (s *service) Find(ctx context.Context, actor auth.Principal, id uuid.UUID) (*models.Borrowing, error) {
	return findVisible(ctx, s.repo, actor, id)
}

func (s *service) Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*DetailView, error) {
	borrowing, err := findVisible(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}
	audience := AudienceFor(actor)
	directory, err := s.usersFor(ctx, audience, []models.Borrowing{*borrowing})
	if err != nil {
		return nil, err
	}
	view := NewDetailView(*borrowing, audience, lookup(directory, borrowing.UserID))
	return &view, nil
}

func (s *service) List(ctx context.Context, actor auth.Principal, filter ListFilter) (*pagination.Page[ListView], error) {
	filter.Params = filter.Params.Normalize()
	if !actor.IsStaff {
		filter.UserIDs = []uuid.UUID{actor.UserID}
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list borrowings")
	}

	audience := AudienceFor(actor)
	directory, err := s.usersFor(ctx, audience, rows)
	if err != nil {
		return nil, err
	}
	views := make([]ListView, 0, len(rows))
	for _, row := range rows {
		views = append(views, NewListView(row, audience, lookup(directory, row.UserID)))
	}
	page := pagination.NewPage(filter.Params, total, views)
	return &page, nil
}

func (s *service) FineAmount(b models.Borrowing) (decimal.Decimal, error) {
	return CalculateFineAmount(b, s.fineMultiplier)
}

func (s *service) usersFor(ctx context.Context, audience Audience, rows []models.Borrowing) (map[uuid.UUID]users.UserDTO, error) {
	if audience != AudienceStaff || len(rows) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	found, err := s.users.FindByIDs(ctx, distinctIDs(ids))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load borrowing users")
	}
	return found, nil
}

func (s *service) fullName(ctx context.Context, actor auth.Principal, ownerID uuid.UUID) string {
	if ownerID == actor.UserID && actor.FullName != "" {
		return actor.FullName
	}
	found, err := s.users.FindByIDs(ctx, []uuid.UUID{ownerID})
	if err == nil {
		if user, ok := found[ownerID]; ok && user.FullName != "" {
			return user.FullName
		}
	}
	return ownerID.String()
}

func findVisible(ctx context.Context, repo Repository, actor auth.Principal, id uuid.UUID) (*models.Borrowing, error) {
	borrowing, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load borrowing")
	}
	if !actor.CanAccessUser(borrowing.UserID) {
		return nil, errNotFound(id)
	}
	return borrowing, nil
}

func errNotFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "borrowing not found").
		WithDetails(map[string]any{"borrowing_id": id})
}

func lookup(directory map[uuid.UUID]users.UserDTO, id uuid.UUID) *users.UserDTO {
	if user, ok := directory[id]; ok {
		return &user
	}
	return nil
}

// distinctIDs drops nil and repeated ids and sorts the rest so rows are
// always locked in the same order.
func distinctIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func asTyped(err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
