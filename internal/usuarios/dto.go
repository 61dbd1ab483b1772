package usuarios

import (
	"time"

	"github.com/google/uuid"

	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Nombre      string     `json:"nombre"`
	Rol         enums.Rol  `json:"rol"`
	SedeID      *uuid.UUID `json:"sede_id,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateRequest holds the admin-provided fields for a new user.
type CreateRequest struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"omitempty,min=8"`
	Nombre   string     `json:"nombre" validate:"required"`
	Rol      enums.Rol  `json:"rol" validate:"required"`
	SedeID   *uuid.UUID `json:"sede_id"`
}

// CreateResult carries the stored user plus the generated temp password when
// the request did not supply one.
type CreateResult struct {
	User         *UserDTO `json:"user"`
	TempPassword string   `json:"temp_password,omitempty"`
}

// UpdateRequest carries the mutable user fields. Nil pointers leave the
// current value untouched.
type UpdateRequest struct {
	Nombre   *string    `json:"nombre" validate:"omitempty,min=1"`
	Rol      *enums.Rol `json:"rol"`
	SedeID   *uuid.UUID `json:"sede_id"`
	IsActive *bool      `json:"is_active"`
}

// ChangePasswordRequest lets a user rotate their own credentials.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Nombre:      u.Nombre,
		Rol:         u.Rol,
		SedeID:      u.SedeID,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
