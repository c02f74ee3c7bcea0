package borrowings

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/TetyanaPavlyuk/library-api-service/internal/books"
	"github.com/TetyanaPavlyuk/library-api-service/internal/testdb"
	"github.com/TetyanaPavlyuk/library-api-service/internal/users"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/auth"
	pkgdb "github.com/TetyanaPavlyuk/library-api-service/pkg/db"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/db/models"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/enums"
	pkgerrors "github.com/TetyanaPavlyuk/library-api-service/pkg/errors"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/pagination"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/types"
)

var fixedNow = time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (n *recordingNotifier) Notify(_ context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.texts...)
}

type fixture struct {
	db       *gorm.DB
	svc      Service
	notifier *recordingNotifier
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := testdb.Open(t)
	f := &fixture{db: conn, notifier: &recordingNotifier{}, now: fixedNow}
	svc, err := NewService(ServiceParams{
		Repo:              NewRepository(conn),
		Inventory:         books.NewInventory(),
		Users:             users.NewRepository(conn),
		Notifier:          f.notifier,
		TransactionRunner: pkgdb.Wrap(conn),
		FineMultiplier:    decimal.RequireFromString("1.5"),
		Now:               func() time.Time { return f.now },
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) book(t *testing.T, title, fee string, inventory int) models.Book {
	t.Helper()
	book := models.Book{
		ID:        uuid.New(),
		Title:     title,
		Author:    "Author",
		DailyFee:  decimal.RequireFromString(fee),
		Inventory: inventory,
	}
	require.NoError(t, f.db.Create(&book).Error)
	return book
}

func (f *fixture) inventory(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var book models.Book
	require.NoError(t, f.db.First(&book, "id = ?", id).Error)
	return book.Inventory
}

func (f *fixture) pendingPayment(t *testing.T, userID uuid.UUID) {
	t.Helper()
	borrowing := models.Borrowing{
		ID:                 uuid.New(),
		UserID:             userID,
		BorrowDate:         day(2024, 10, 1),
		ExpectedReturnDate: day(2024, 10, 5),
	}
	require.NoError(t, f.db.Omit("Books", "Payments").Create(&borrowing).Error)
	payment := models.Payment{
		ID:          uuid.New(),
		BorrowingID: borrowing.ID,
		Type:        enums.PaymentTypePayment,
		Status:      enums.PaymentStatusPending,
		MoneyToPay:  decimal.RequireFromString("2.50"),
	}
	require.NoError(t, f.db.Create(&payment).Error)
}

func member(name string) auth.Principal {
	return auth.Principal{UserID: uuid.New(), FullName: name}
}

func staff() auth.Principal {
	return auth.Principal{UserID: uuid.New(), IsStaff: true, FullName: "Librarian"}
}

func createInput(expected time.Time, ids ...uuid.UUID) CreateBorrowingInput {
	return CreateBorrowingInput{BookIDs: ids, ExpectedReturnDate: types.NewDate(expected)}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestNewServiceValidatesParams(t *testing.T) {
	conn := testdb.Open(t)
	params := ServiceParams{
		Repo:              NewRepository(conn),
		Inventory:         books.NewInventory(),
		Users:             users.NewRepository(conn),
		Notifier:          &recordingNotifier{},
		TransactionRunner: pkgdb.Wrap(conn),
	}
	_, err := NewService(params)
	require.Error(t, err)

	params.FineMultiplier = decimal.NewFromInt(2)
	_, err = NewService(params)
	require.NoError(t, err)

	params.Repo = nil
	_, err = NewService(params)
	require.Error(t, err)
}

func TestCreateReservesInventoryAndSnapshotsFees(t *testing.T) {
	f := newFixture(t)
	dune := f.book(t, "Dune", "0.50", 2)
	emma := f.book(t, "Emma", "1.25", 1)
	actor := member("Jane Doe")

	created, err := f.svc.Create(context.Background(), actor, createInput(day(2024, 10, 12), emma.ID, dune.ID, dune.ID))
	require.NoError(t, err)

	assert.Equal(t, actor.UserID, created.UserID)
	assert.Equal(t, day(2024, 10, 10), created.BorrowDate)
	assert.Equal(t, []string{"Dune", "Emma"}, created.Titles())
	assert.Equal(t, 1, f.inventory(t, dune.ID))
	assert.Equal(t, 0, f.inventory(t, emma.ID))
	assert.Equal(t, "5.25", CalculateRentalAmount(*created).StringFixed(2))
	assert.Equal(t, []string{"New borrowing created: ['Dune', 'Emma'] by Jane Doe"}, f.notifier.sent())

	// A later fee change does not touch the lent rate.
	require.NoError(t, f.db.Model(&models.Book{}).Where("id = ?", dune.ID).Update("daily_fee", decimal.NewFromInt(9)).Error)
	stored, err := f.svc.Find(context.Background(), actor, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "5.25", CalculateRentalAmount(*stored).StringFixed(2))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	book := f.book(t, "Dune", "0.50", 1)
	actor := member("Jane")

	_, err := f.svc.Create(context.Background(), actor, createInput(day(2024, 10, 12)))
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.Create(context.Background(), actor, createInput(day(2024, 10, 9), book.ID))
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.Create(context.Background(), actor, CreateBorrowingInput{BookIDs: []uuid.UUID{book.ID}})
	requireCode(t, err, pkgerrors.CodeValidation)

	assert.Equal(t, 1, f.inventory(t, book.ID))
}

func TestCreateIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	available := f.book(t, "Available", "1.00", 3)
	empty := f.book(t, "Gone", "1.00", 0)

	_, err := f.svc.Create(context.Background(), member("Jane"), createInput(day(2024, 10, 12), available.ID, empty.ID))
	requireCode(t, err, pkgerrors.CodeUnavailable)
	assert.Equal(t, "Book Gone isn't available for borrowing today.", pkgerrors.As(err).Message())

	assert.Equal(t, 3, f.inventory(t, available.ID))
	assert.Equal(t, 0, f.inventory(t, empty.ID))
	var count int64
	require.NoError(t, f.db.Model(&models.Borrowing{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, f.notifier.sent())
}

func TestCreateUnknownBook(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), member("Jane"), createInput(day(2024, 10, 12), uuid.New()))
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateBlockedByPendingPayment(t *testing.T) {
	f := newFixture(t)
	book := f.book(t, "Dune", "0.50", 1)
	actor := member("Jane")
	f.pendingPayment(t, actor.UserID)

	_, err := f.svc.Create(context.Background(), actor, createInput(day(2024, 10, 12), book.ID))
	requireCode(t, err, pkgerrors.CodePendingPayment)
	assert.Equal(t, "You have at least one pending payment - borrowing is forbidden", pkgerrors.As(err).Message())
	assert.Equal(t, 1, f.inventory(t, book.ID))
	assert.Empty(t, f.notifier.sent())
}

func TestStaffCreatesForMember(t *testing.T) {
	f := newFixture(t)
	book := f.book(t, "Dune", "0.50", 1)
	owner := models.User{ID: uuid.New(), Email: "jane@example.com", FirstName: "Jane", LastName: "Doe"}
	require.NoError(t, f.db.Create(&owner).Error)

	created, err := f.svc.Create(context.Background(), staff(), CreateBorrowingInput{
		UserID:             &owner.ID,
		BookIDs:            []uuid.UUID{book.ID},
		ExpectedReturnDate: types.NewDate(day(2024, 10, 11)),
	})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, created.UserID)
	assert.Equal(t, []string{"New borrowing created: ['Dune'] by Jane Doe"}, f.notifier.sent())
}

func TestMemberCannotBorrowForSomeoneElse(t *testing.T) {
	f := newFixture(t)
	book := f.book(t, "Dune", "0.50", 1)
	actor := member("Jane")
	other := uuid.New()

	created, err := f.svc.Create(context.Background(), actor, CreateBorrowingInput{
		UserID:             &other,
		BookIDs:            []uuid.UUID{book.ID},
		ExpectedReturnDate: types.NewDate(day(2024, 10, 11)),
	})
	require.NoError(t, err)
	assert.Equal(t, actor.UserID, created.UserID)
}

// The sqlite test db has one connection, so these creates queue up rather than
// race. TestConcurrentCreatesOnLastCopyPostgres covers the racing case.
func TestConcurrentCreatesOnLastCopy(t *testing.T) {
	f := newFixture(t)
	book := f.book(t, "Last Copy", "1.00", 1)

	const workers = 10
	var (
		wg          sync.WaitGroup
		successes   atomic.Int32
		unavailable atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), member("Reader"), createInput(day(2024, 10, 12), book.ID))
			if err == nil {
				successes.Add(1)
				return
			}
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeUnavailable {
				unavailable.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(workers-1), unavailable.Load())
	assert.Equal(t, 0, f.inventory(t, book.ID))
}

func TestReturnRestoresInventoryOnce(t *testing.T) {
	f := newFixture(t)
	dune := f.book(t, "Dune", "0.50", 1)
	emma := f.book(t, "Emma", "0.50", 5)
	actor := member("Jane")

	created, err := f.svc.Create(context.Background(), actor, createInput(day(2024, 10, 12), dune.ID, emma.ID))
	require.NoError(t, err)
	other, err := f.svc.Create(context.Background(), member("Bob"), createInput(day(2024, 10, 12), emma.ID))
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Equal(t, 3, f.inventory(t, emma.ID))

	result, err := f.svc.Return(context.Background(), actor, created.ID)
	require.NoError(t, err)
	assert.False(t, result.Overdue)
	require.NotNil(t, result.Borrowing.ActualReturnDate)
	assert.Equal(t, day(2024, 10, 10), *result.Borrowing.ActualReturnDate)
	assert.Equal(t, 1, f.inventory(t, dune.ID))
	assert.Equal(t, 4, f.inventory(t, emma.ID))

	_, err = f.svc.Return(context.Background(), actor, created.ID)
	requireCode(t, err, pkgerrors.CodeAlreadyReturned)
	assert.Equal(t, "Books have already been returned.", pkgerrors.As(err).Message())
	assert.Equal(t, 1, f.inventory(t, dune.ID))
	assert.Equal(t, 4, f.inventory(t, emma.ID))
}

func TestReturnLateAllowsFine(t *testing.T) {
	f := newFixture(t)
	book := f.book(t, "Dune", "0.50", 1)
	actor := member("Jane")

	created, err := f.svc.Create(context.Background(), actor, createInput(day(2024, 10, 10), book.ID))
	require.NoError(t, err)

	f.now = day(2024, 10, 12)
	result, err := f.svc.Return(context.Background(), actor, created.ID)
	require.NoError(t, err)
	assert.True(t, result.Overdue)

	fine, err := f.svc.FineAmount(*result.Borrowing)
	require.NoError(t, err)
	assert.Equal(t, "1.50", fine.StringFixed(2))
}

func TestVisibilityHidesOtherUsersBorrowings(t *testing.T) {
	f := newFixture(t)
	book := f.book(t, "Dune", "0.50", 5)
	owner := member("Jane")
	stranger := member("Bob")

	created, err := f.svc.Create(context.Background(), owner, createInput(day(2024, 10, 12), book.ID))
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), stranger, created.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
	_, err = f.svc.Return(context.Background(), stranger, created.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)

	page, err := f.svc.List(context.Background(), stranger, ListFilter{UserIDs: []uuid.UUID{owner.UserID}})
	require.NoError(t, err)
	assert.Zero(t, page.Count)
	assert.Empty(t, page.Results)

	view, err := f.svc.Get(context.Background(), owner, created.ID)
	require.NoError(t, err)
	assert.Nil(t, view.User)
	require.Len(t, view.Books, 1)
	assert.Equal(t, "Dune", view.Books[0].Title)

	staffView, err := f.svc.Get(context.Background(), staff(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, staffView.User)
	assert.Equal(t, owner.UserID, staffView.User.ID)
}

func TestListFiltersAndOrdering(t *testing.T) {
	f := newFixture(t)
	book := f.book(t, "Dune", "0.50", 10)
	jane := member("Jane")
	bob := member("Bob")
	ctx := context.Background()

	first, err := f.svc.Create(ctx, jane, createInput(day(2024, 10, 20), book.ID))
	require.NoError(t, err)
	f.now = day(2024, 10, 11)
	second, err := f.svc.Create(ctx, jane, createInput(day(2024, 10, 20), book.ID))
	require.NoError(t, err)
	bobs, err := f.svc.Create(ctx, bob, createInput(day(2024, 10, 20), book.ID))
	require.NoError(t, err)
	_, err = f.svc.Return(ctx, jane, first.ID)
	require.NoError(t, err)

	page, err := f.svc.List(ctx, jane, ListFilter{})
	require.NoError(t, err)
	require.Len(t, page.Results, 2)
	assert.Equal(t, first.ID, page.Results[0].ID)
	assert.Equal(t, second.ID, page.Results[1].ID)
	assert.Nil(t, page.Results[0].User)

	active := true
	page, err = f.svc.List(ctx, jane, ListFilter{IsActive: &active})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, second.ID, page.Results[0].ID)

	page, err = f.svc.List(ctx, staff(), ListFilter{UserIDs: []uuid.UUID{bob.UserID}})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, bobs.ID, page.Results[0].ID)
	require.NotNil(t, page.Results[0].User)
	assert.Equal(t, bob.UserID, page.Results[0].User.ID)

	page, err = f.svc.List(ctx, staff(), ListFilter{Params: pagination.Params{Page: 1, Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Count)
	assert.Len(t, page.Results, 2)
	require.NotNil(t, page.Next)
	assert.Equal(t, 2, *page.Next)
	assert.Nil(t, page.Previous)
}

func TestListIncludesPaymentSummaries(t *testing.T) {
	f := newFixture(t)
	book := f.book(t, "Dune", "0.50", 1)
	actor := member("Jane")

	created, err := f.svc.Create(context.Background(), actor, createInput(day(2024, 10, 12), book.ID))
	require.NoError(t, err)
	payment := models.Payment{
		ID:          uuid.New(),
		BorrowingID: created.ID,
		Type:        enums.PaymentTypePayment,
		Status:      enums.PaymentStatusPaid,
		MoneyToPay:  decimal.RequireFromString("1.50"),
	}
	require.NoError(t, f.db.Create(&payment).Error)

	page, err := f.svc.List(context.Background(), actor, ListFilter{})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	require.Len(t, page.Results[0].Payments, 1)
	assert.Equal(t, enums.PaymentStatusPaid, page.Results[0].Payments[0].Status)
	assert.Equal(t, []string{"Dune"}, page.Results[0].Books)
}
