package users

import (
	"github.com/google/uuid"

	"github.com/TetyanaPavlyuk/library-api-service/pkg/db/models"
)

// UserDTO is the public shape of a borrower.
type UserDTO struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
}

// FromModel maps the persisted user into the transport shape.
func FromModel(u models.User) UserDTO {
	return UserDTO{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName(),
	}
}
