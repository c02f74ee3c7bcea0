package books

import (
	"context"
	"errors"
	"fmt"

	"github.com/TetyanaPavlyuk/library-api-service/pkg/db/models"
	pkgerrors "github.com/TetyanaPavlyuk/library-api-service/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Inventory changes shelf stock inside the caller's transaction. Each call
// moves exactly one unit and never lets inventory drop below zero.
type Inventory interface {
	Reserve(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (*models.Book, error)
	Release(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) error
}

type inventory struct{}

// NewInventory exposes the guarded-update inventory implementation.
func NewInventory() Inventory {
	return inventory{}
}

// Reserve takes one unit of the book and returns the book as it is after the decrement.
func (inventory) Reserve(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (*models.Book, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory reserve")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE books
		SET inventory = inventory - 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND inventory > 0
	`, bookID)
	if res.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve inventory")
	}

	var book models.Book
	if err := tx.WithContext(ctx).First(&book, "id = ?", bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found").
				WithDetails(map[string]any{"book_id": bookID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reserved book")
	}

	if res.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnavailable, fmt.Sprintf("Book %s isn't available for borrowing today.", book.Title)).
			WithDetails(map[string]any{"book_id": bookID, "title": book.Title})
	}
	return &book, nil
}

// Release puts one unit of the book back on the shelf.
func (inventory) Release(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory release")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE books
		SET inventory = inventory + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, bookID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "book not found").
			WithDetails(map[string]any{"book_id": bookID})
	}
	return nil
}
