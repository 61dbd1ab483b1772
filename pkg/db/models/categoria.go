package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/casadefe/iglesia-backend/pkg/enums"
)

// Categoria classifies transactions within a single tipo (ingreso/egreso).
// Rows referenced by any transaccion cannot be deleted.
type Categoria struct {
	ID          uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Nombre      string                `gorm:"column:nombre;not null;uniqueIndex:idx_categorias_nombre_tipo"`
	Tipo        enums.TransactionType `gorm:"column:tipo;type:transaction_type;not null;uniqueIndex:idx_categorias_nombre_tipo"`
	Descripcion *string               `gorm:"column:descripcion"`
	UserID      uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Categoria) TableName() string { return "categorias" }
