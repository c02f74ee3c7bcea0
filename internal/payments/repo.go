package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/TetyanaPavlyuk/library-api-service/pkg/db/models"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/enums"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/pagination"
)

// Repository defines persistence operations for the payment ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) error
	AttachSession(ctx context.Context, id uuid.UUID, sessionID, sessionURL string) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindBySessionID(ctx context.Context, sessionID string) (*models.Payment, error)
	ExistsForBorrowing(ctx context.Context, borrowingID uuid.UUID, paymentType enums.PaymentType) (bool, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, userID *uuid.UUID, params pagination.Params) ([]models.Payment, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) AttachSession(ctx context.Context, id uuid.UUID, sessionID, sessionURL string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"session_id":  sessionID,
			"session_url": sessionURL,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindBySessionID(ctx context.Context, sessionID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ExistsForBorrowing(ctx context.Context, borrowingID uuid.UUID, paymentType enums.PaymentType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("borrowing_id = ? AND type = ?", borrowingID, paymentType).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkPaid moves a pending payment to paid. It reports false when the row was not pending.
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusPending).
		Updates(map[string]any{
			"status":     enums.PaymentStatusPaid,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) List(ctx context.Context, userID *uuid.UUID, params pagination.Params) ([]models.Payment, int64, error) {
	params = params.Normalize()
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Model(&models.Payment{})
		if userID != nil {
			db = db.Joins("JOIN borrowings ON borrowings.id = payments.borrowing_id").
				Where("borrowings.user_id = ?", *userID)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Payment
	err := r.db.WithContext(ctx).
		Scopes(scope).
		Select("payments.*").
		Order("payments.created_at DESC").
		Order("payments.id ASC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
