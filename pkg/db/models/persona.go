package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/casadefe/iglesia-backend/pkg/enums"
)

// Persona represents a church member or visitor record. The identity
// document number is unique across the whole store, not per owner.
type Persona struct {
	ID              uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TipoDocumento   enums.DocumentType `gorm:"column:tipo_documento;type:document_type;not null"`
	NumeroDocumento string             `gorm:"column:numero_documento;not null;uniqueIndex:idx_personas_numero_documento"`
	Nombres         string             `gorm:"column:nombres;not null"`
	Apellidos       string             `gorm:"column:apellidos;not null"`
	FechaNacimiento *time.Time         `gorm:"column:fecha_nacimiento;type:date"`
	Telefono        *string            `gorm:"column:telefono"`
	Email           *string            `gorm:"column:email"`
	Departamento    *string            `gorm:"column:departamento"`
	Municipio       *string            `gorm:"column:municipio"`
	Direccion       *string            `gorm:"column:direccion"`
	Bautizado       bool               `gorm:"column:bautizado;not null;default:false"`
	FechaBautismo   *time.Time         `gorm:"column:fecha_bautismo;type:date"`
	AsisteTalleres  bool               `gorm:"column:asiste_talleres;not null;default:false"`
	FechaTalleres   *time.Time         `gorm:"column:fecha_talleres;type:date"`
	Ministerios     pq.StringArray     `gorm:"column:ministerios;type:text[]"`
	Escalas         pq.StringArray     `gorm:"column:escalas;type:text[]"`
	UserID          uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	SedeID          *uuid.UUID         `gorm:"column:sede_id;type:uuid;index"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the Spanish table naming used across the schema.
func (Persona) TableName() string { return "personas" }
