package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casadefe/iglesia-backend/pkg/enums"
)

// Transaccion is a single financial movement. Transactions are never hard
// deleted; voiding (anular) flips estado and records the rationale.
type Transaccion struct {
	ID              uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Tipo            enums.TransactionType   `gorm:"column:tipo;type:transaction_type;not null"`
	Numero          string                  `gorm:"column:numero;not null;uniqueIndex:idx_transacciones_numero"`
	Monto           decimal.Decimal         `gorm:"column:monto;type:numeric(14,2);not null"`
	Fecha           time.Time               `gorm:"column:fecha;type:date;not null"`
	CategoriaID     uuid.UUID               `gorm:"column:categoria_id;type:uuid;not null;index"`
	ActividadID     *uuid.UUID              `gorm:"column:actividad_id;type:uuid;index"`
	PersonaID       *uuid.UUID              `gorm:"column:persona_id;type:uuid;index"`
	Descripcion     string                  `gorm:"column:descripcion;not null"`
	ComprobanteURL  *string                 `gorm:"column:comprobante_url"`
	Estado          enums.TransactionStatus `gorm:"column:estado;type:transaction_status;not null;default:'activa'"`
	MotivoAnulacion *string                 `gorm:"column:motivo_anulacion"`
	AnuladaAt       *time.Time              `gorm:"column:anulada_at"`
	UserID          uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (Transaccion) TableName() string { return "transacciones" }

// TransactionCounter backs the type-scoped sequence numbers. The row is
// bumped atomically inside the same transaction that inserts the movement.
type TransactionCounter struct {
	Tipo   enums.TransactionType `gorm:"column:tipo;type:transaction_type;primaryKey"`
	Ultimo int64                 `gorm:"column:ultimo;not null;default:0"`
}

func (TransactionCounter) TableName() string { return "transaction_counters" }
