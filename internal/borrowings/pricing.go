package borrowings

import (
	"github.com/shopspring/decimal"

	"github.com/TetyanaPavlyuk/library-api-service/pkg/db/models"
	pkgerrors "github.com/TetyanaPavlyuk/library-api-service/pkg/errors"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/types"
)

// CalculateRentalAmount charges every day from borrow date to expected return
// date, both ends included.
func CalculateRentalAmount(b models.Borrowing) decimal.Decimal {
	days := types.DaysBetween(b.BorrowDate, b.ExpectedReturnDate) + 1
	if days < 1 {
		days = 1
	}
	return b.TotalDailyFee().Mul(decimal.NewFromInt(int64(days))).Round(2)
}

// CalculateFineAmount charges the late days only, scaled by multiplier.
func CalculateFineAmount(b models.Borrowing, multiplier decimal.Decimal) (decimal.Decimal, error) {
	if !IsOverdue(b) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotOverdue, "Borrowing is not overdue").
			WithDetails(map[string]any{"borrowing_id": b.ID})
	}
	days := types.DaysBetween(b.ExpectedReturnDate, *b.ActualReturnDate)
	return b.TotalDailyFee().
		Mul(decimal.NewFromInt(int64(days))).
		Mul(multiplier).
		Round(2), nil
}

// IsOverdue reports whether the books came back after the expected date.
func IsOverdue(b models.Borrowing) bool {
	if b.ActualReturnDate == nil {
		return false
	}
	return types.DateOf(*b.ActualReturnDate).After(types.DateOf(b.ExpectedReturnDate))
}
