package borrowings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TetyanaPavlyuk/library-api-service/pkg/db/models"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/enums"
)

// Repository defines persistence operations for borrowings and their book snapshots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, borrowing *models.Borrowing) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Borrowing, error)
	List(ctx context.Context, filter ListFilter) ([]models.Borrowing, int64, error)
	MarkReturned(ctx context.Context, id uuid.UUID, on time.Time) (bool, error)
	HasPendingPayment(ctx context.Context, userID uuid.UUID) (bool, error)
	ListActiveDueBy(ctx context.Context, cutoff time.Time) ([]models.Borrowing, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a borrowings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, borrowing *models.Borrowing) error {
	if borrowing.ID == uuid.Nil {
		borrowing.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(borrowing).Error; err != nil {
		return err
	}
	if len(borrowing.Books) == 0 {
		return nil
	}
	for i := range borrowing.Books {
		borrowing.Books[i].BorrowingID = borrowing.ID
	}
	return r.db.WithContext(ctx).Create(&borrowing.Books).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Borrowing, error) {
	var borrowing models.Borrowing
	err := withRelations(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&borrowing).Error
	if err != nil {
		return nil, err
	}
	return &borrowing, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Borrowing, int64, error) {
	params := filter.Params.Normalize()
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Model(&models.Borrowing{})
		if len(filter.UserIDs) > 0 {
			db = db.Where("user_id IN ?", filter.UserIDs)
		}
		if filter.IsActive != nil {
			if *filter.IsActive {
				db = db.Where("actual_return_date IS NULL")
			} else {
				db = db.Where("actual_return_date IS NOT NULL")
			}
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Borrowing
	// Returned rows by return date, active rows last.
	err := withRelations(r.db.WithContext(ctx).Scopes(scope)).
		Order("actual_return_date IS NULL").
		Order("actual_return_date ASC").
		Order("borrow_date DESC").
		Order("id ASC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) MarkReturned(ctx context.Context, id uuid.UUID, on time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Borrowing{}).
		Where("id = ? AND actual_return_date IS NULL", id).
		Updates(map[string]any{
			"actual_return_date": on,
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) HasPendingPayment(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Joins("JOIN borrowings ON borrowings.id = payments.borrowing_id").
		Where("borrowings.user_id = ? AND payments.status = ?", userID, enums.PaymentStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListActiveDueBy(ctx context.Context, cutoff time.Time) ([]models.Borrowing, error) {
	var rows []models.Borrowing
	err := withRelations(r.db.WithContext(ctx)).
		Where("actual_return_date IS NULL AND expected_return_date <= ?", cutoff).
		Order("expected_return_date ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Books", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("title ASC")
		}).
		Preload("Payments", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC")
		})
}
