package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/casadefe/iglesia-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string     `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Nombre       string     `gorm:"column:nombre;not null"`
	Rol          enums.Rol  `gorm:"column:rol;type:rol;not null;default:'usuario'"`
	SedeID       *uuid.UUID `gorm:"column:sede_id;type:uuid;index"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }
