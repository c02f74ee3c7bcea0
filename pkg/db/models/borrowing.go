package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TetyanaPavlyuk/library-api-service/pkg/enums"
)

// Borrowing records a set of books lent to a user.
type Borrowing struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID       `gorm:"column:user_id;type:uuid;not null"`
	BorrowDate         time.Time       `gorm:"column:borrow_date;type:date;not null"`
	ExpectedReturnDate time.Time       `gorm:"column:expected_return_date;type:date;not null"`
	ActualReturnDate   *time.Time      `gorm:"column:actual_return_date;type:date"`
	Books              []BorrowingBook `gorm:"foreignKey:BorrowingID;references:ID"`
	Payments           []Payment       `gorm:"foreignKey:BorrowingID;references:ID"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Status derives the lifecycle state from the return date.
func (b Borrowing) Status() enums.BorrowingStatus {
	if b.ActualReturnDate == nil {
		return enums.BorrowingStatusActive
	}
	return enums.BorrowingStatusReturned
}

// BorrowingBook snapshots a book's title and daily fee at borrowing time.
type BorrowingBook struct {
	BorrowingID uuid.UUID       `gorm:"column:borrowing_id;type:uuid;primaryKey"`
	BookID      uuid.UUID       `gorm:"column:book_id;type:uuid;primaryKey"`
	Title       string          `gorm:"column:title;not null"`
	DailyFee    decimal.Decimal `gorm:"column:daily_fee;type:numeric(5,2);not null"`
}

// TotalDailyFee sums the snapshotted fees of every book in the borrowing.
func (b Borrowing) TotalDailyFee() decimal.Decimal {
	total := decimal.Zero
	for _, book := range b.Books {
		total = total.Add(book.DailyFee)
	}
	return total
}

// Titles lists the snapshotted book titles.
func (b Borrowing) Titles() []string {
	titles := make([]string, 0, len(b.Books))
	for _, book := range b.Books {
		titles = append(titles, book.Title)
	}
	return titles
}
