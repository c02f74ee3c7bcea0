package borrowings

import (
	"time"

	"github.com/TetyanaPavlyuk/library-api-service/pkg/db/models"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/enums"
	pkgerrors "github.com/TetyanaPavlyuk/library-api-service/pkg/errors"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/types"
)

var allowedTransitions = map[enums.BorrowingStatus][]enums.BorrowingStatus{
	enums.BorrowingStatusActive: {enums.BorrowingStatusReturned},
}

func canTransition(from, to enums.BorrowingStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// markReturned moves an active borrowing to returned. The return date is set once.
func markReturned(b *models.Borrowing, on time.Time) error {
	if !canTransition(b.Status(), enums.BorrowingStatusReturned) {
		return errAlreadyReturned(b)
	}
	returned := types.DateOf(on)
	b.ActualReturnDate = &returned
	return nil
}

func errAlreadyReturned(b *models.Borrowing) error {
	return pkgerrors.New(pkgerrors.CodeAlreadyReturned, "Books have already been returned.").
		WithDetails(map[string]any{"borrowing_id": b.ID})
}
