package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TetyanaPavlyuk/library-api-service/pkg/enums"
)

// Payment tracks one checkout session per (borrowing, type).
type Payment struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BorrowingID uuid.UUID           `gorm:"column:borrowing_id;type:uuid;not null"`
	Type        enums.PaymentType   `gorm:"column:type;type:payment_type;not null"`
	Status      enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	SessionURL  string              `gorm:"column:session_url;not null;default:''"`
	SessionID   *string             `gorm:"column:session_id"`
	MoneyToPay  decimal.Decimal     `gorm:"column:money_to_pay;type:numeric(10,2);not null"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
