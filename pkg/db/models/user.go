package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the local read model of an identity-provider account.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	FirstName string    `gorm:"column:first_name;not null;default:''"`
	LastName  string    `gorm:"column:last_name;not null;default:''"`
	IsStaff   bool      `gorm:"column:is_staff;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// FullName joins first and last name, falling back to the email.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
