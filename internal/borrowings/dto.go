package borrowings

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/TetyanaPavlyuk/library-api-service/internal/notifications"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/db/models"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/pagination"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/types"
)

// CreateBorrowingInput is the payload for lending a set of books.
// UserID is honoured for staff only; members always borrow for themselves.
type CreateBorrowingInput struct {
	UserID             *uuid.UUID  `json:"user,omitempty"`
	BookIDs            []uuid.UUID `json:"book" validate:"required,min=1"`
	ExpectedReturnDate types.Date  `json:"expected_return_date" validate:"required"`
}

// ListFilter narrows the borrowing list. UserIDs is ignored for members.
type ListFilter struct {
	IsActive *bool
	UserIDs  []uuid.UUID
	Params   pagination.Params
}

// ReturnResult describes a completed return.
type ReturnResult struct {
	Borrowing *models.Borrowing
	Overdue   bool
}

// Detail is the confirmation text shown to the borrower.
func (r ReturnResult) Detail() string {
	if r.Borrowing == nil {
		return ""
	}
	msg := fmt.Sprintf("Books %s have been returned.", notifications.FormatTitles(r.Borrowing.Titles()))
	if r.Overdue {
		msg += " Borrowing is overdue. Please pay the fine."
	}
	return msg
}
