package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casadefe/iglesia-backend/pkg/enums"
)

// Actividad is a fundraising activity with a monetary goal. Progress is
// derived from active income transactions and never stored.
type Actividad struct {
	ID          uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Nombre      string               `gorm:"column:nombre;not null"`
	Descripcion *string              `gorm:"column:descripcion"`
	Meta        decimal.Decimal      `gorm:"column:meta;type:numeric(14,2);not null"`
	FechaInicio time.Time            `gorm:"column:fecha_inicio;type:date;not null"`
	FechaFin    *time.Time           `gorm:"column:fecha_fin;type:date"`
	Estado      enums.ActivityStatus `gorm:"column:estado;type:activity_status;not null;default:'planeada'"`
	UserID      uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (Actividad) TableName() string { return "actividades" }
