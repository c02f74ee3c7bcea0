package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TetyanaPavlyuk/library-api-service/pkg/enums"
)

// Book is a catalog entry with its lending rate and shelf stock.
type Book struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title     string           `gorm:"column:title;not null"`
	Author    string           `gorm:"column:author;not null"`
	Cover     *enums.BookCover `gorm:"column:cover;type:book_cover"`
	DailyFee  decimal.Decimal  `gorm:"column:daily_fee;type:numeric(5,2);not null"`
	Inventory int              `gorm:"column:inventory;not null;default:0"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
