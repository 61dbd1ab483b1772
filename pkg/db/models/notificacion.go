package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/casadefe/iglesia-backend/pkg/enums"
)

// Notificacion is an in-app notice addressed to a single user.
type Notificacion struct {
	ID        uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Tipo      enums.NotificationType `gorm:"column:tipo;type:notification_type;not null"`
	Titulo    string                 `gorm:"column:titulo;not null"`
	Mensaje   string                 `gorm:"column:mensaje;not null"`
	PersonaID *uuid.UUID             `gorm:"column:persona_id;type:uuid;index"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (Notificacion) TableName() string { return "notificaciones" }
