package models

import (
	"time"

	"github.com/google/uuid"
)

// Sede is a physical site/branch of the organization.
type Sede struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Nombre    string    `gorm:"column:nombre;not null"`
	Direccion string    `gorm:"column:direccion;not null"`
	Lider     string    `gorm:"column:lider;not null"`
	Telefono  string    `gorm:"column:telefono;not null"`
	Codigo    *string   `gorm:"column:codigo"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Sede) TableName() string { return "sedes" }
