package borrowings

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TetyanaPavlyuk/library-api-service/internal/users"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/auth"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/db/models"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/enums"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/types"
)

// Audience selects which fields a view exposes.
type Audience string

const (
	AudienceMember Audience = "member"
	AudienceStaff  Audience = "staff"
)

// AudienceFor maps the acting principal to its view audience.
func AudienceFor(actor auth.Principal) Audience {
	if actor.IsStaff {
		return AudienceStaff
	}
	return AudienceMember
}

// PaymentSummary is the slim payment shape nested in borrowing views.
type PaymentSummary struct {
	ID         uuid.UUID           `json:"id"`
	Status     enums.PaymentStatus `json:"status"`
	Type       enums.PaymentType   `json:"type"`
	MoneyToPay decimal.Decimal     `json:"money_to_pay"`
}

// BookSnapshot is a borrowed book at the rate it was lent for.
type BookSnapshot struct {
	ID       uuid.UUID       `json:"id"`
	Title    string          `json:"title"`
	DailyFee decimal.Decimal `json:"daily_fee"`
}

// ListView is one row of the borrowing list. Books are listed by title.
type ListView struct {
	ID                 uuid.UUID             `json:"id"`
	Status             enums.BorrowingStatus `json:"status"`
	BorrowDate         types.Date            `json:"borrow_date"`
	ExpectedReturnDate types.Date            `json:"expected_return_date"`
	ActualReturnDate   *types.Date           `json:"actual_return_date"`
	Books              []string              `json:"book"`
	User               *users.UserDTO        `json:"user,omitempty"`
	Payments           []PaymentSummary      `json:"payments"`
}

// DetailView is a single borrowing with full book snapshots.
type DetailView struct {
	ID                 uuid.UUID             `json:"id"`
	Status             enums.BorrowingStatus `json:"status"`
	BorrowDate         types.Date            `json:"borrow_date"`
	ExpectedReturnDate types.Date            `json:"expected_return_date"`
	ActualReturnDate   *types.Date           `json:"actual_return_date"`
	Books              []BookSnapshot        `json:"book"`
	User               *users.UserDTO        `json:"user,omitempty"`
	Payments           []PaymentSummary      `json:"payments"`
	RentalAmount       decimal.Decimal       `json:"rental_amount"`
}

// NewListView builds a list row. The user block is only filled for staff.
func NewListView(b models.Borrowing, audience Audience, user *users.UserDTO) ListView {
	view := ListView{
		ID:                 b.ID,
		Status:             b.Status(),
		BorrowDate:         types.NewDate(b.BorrowDate),
		ExpectedReturnDate: types.NewDate(b.ExpectedReturnDate),
		ActualReturnDate:   returnDate(b),
		Books:              b.Titles(),
		Payments:           paymentSummaries(b.Payments),
	}
	if audience == AudienceStaff {
		view.User = userBlock(b.UserID, user)
	}
	return view
}

// NewDetailView builds the detail shape. The user block is only filled for staff.
func NewDetailView(b models.Borrowing, audience Audience, user *users.UserDTO) DetailView {
	books := make([]BookSnapshot, 0, len(b.Books))
	for _, book := range b.Books {
		books = append(books, BookSnapshot{ID: book.BookID, Title: book.Title, DailyFee: book.DailyFee})
	}
	view := DetailView{
		ID:                 b.ID,
		Status:             b.Status(),
		BorrowDate:         types.NewDate(b.BorrowDate),
		ExpectedReturnDate: types.NewDate(b.ExpectedReturnDate),
		ActualReturnDate:   returnDate(b),
		Books:              books,
		Payments:           paymentSummaries(b.Payments),
		RentalAmount:       CalculateRentalAmount(b),
	}
	if audience == AudienceStaff {
		view.User = userBlock(b.UserID, user)
	}
	return view
}

func userBlock(id uuid.UUID, user *users.UserDTO) *users.UserDTO {
	if user != nil {
		copied := *user
		return &copied
	}
	return &users.UserDTO{ID: id}
}

func returnDate(b models.Borrowing) *types.Date {
	if b.ActualReturnDate == nil {
		return nil
	}
	d := types.NewDate(*b.ActualReturnDate)
	return &d
}

func paymentSummaries(payments []models.Payment) []PaymentSummary {
	out := make([]PaymentSummary, 0, len(payments))
	for _, p := range payments {
		out = append(out, PaymentSummary{
			ID:         p.ID,
			Status:     p.Status,
			Type:       p.Type,
			MoneyToPay: p.MoneyToPay,
		})
	}
	return out
}
