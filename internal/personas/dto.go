package personas

import (
	"time"

	"github.com/google/uuid"

	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/enums"
)

// CreateRequest holds the fields accepted when registering a persona.
type CreateRequest struct {
	TipoDocumento   enums.DocumentType `json:"tipo_documento" validate:"required"`
	NumeroDocumento string             `json:"numero_documento" validate:"required"`
	Nombres         string             `json:"nombres" validate:"required"`
	Apellidos       string             `json:"apellidos" validate:"required"`
	FechaNacimiento *string            `json:"fecha_nacimiento"`
	Telefono        *string            `json:"telefono"`
	Email           *string            `json:"email" validate:"omitempty,email"`
	Departamento    *string            `json:"departamento"`
	Municipio       *string            `json:"municipio"`
	Direccion       *string            `json:"direccion"`
	Bautizado       bool               `json:"bautizado"`
	FechaBautismo   *string            `json:"fecha_bautismo"`
	AsisteTalleres  bool               `json:"asiste_talleres"`
	FechaTalleres   *string            `json:"fecha_talleres"`
	Ministerios     []string           `json:"ministerios"`
	Escalas         []string           `json:"escalas"`
	SedeID          *uuid.UUID         `json:"sede_id"`
}

// UpdateRequest mirrors CreateRequest with every field optional.
type UpdateRequest struct {
	TipoDocumento   *enums.DocumentType `json:"tipo_documento"`
	NumeroDocumento *string             `json:"numero_documento"`
	Nombres         *string             `json:"nombres"`
	Apellidos       *string             `json:"apellidos"`
	FechaNacimiento *string             `json:"fecha_nacimiento"`
	Telefono        *string             `json:"telefono"`
	Email           *string             `json:"email" validate:"omitempty,email"`
	Departamento    *string             `json:"departamento"`
	Municipio       *string             `json:"municipio"`
	Direccion       *string             `json:"direccion"`
	Bautizado       *bool               `json:"bautizado"`
	FechaBautismo   *string             `json:"fecha_bautismo"`
	AsisteTalleres  *bool               `json:"asiste_talleres"`
	FechaTalleres   *string             `json:"fecha_talleres"`
	Ministerios     []string            `json:"ministerios"`
	Escalas         []string            `json:"escalas"`
	SedeID          *uuid.UUID          `json:"sede_id"`
}

// PersonaDTO is the transport shape returned by the API.
type PersonaDTO struct {
	ID              uuid.UUID          `json:"id"`
	TipoDocumento   enums.DocumentType `json:"tipo_documento"`
	NumeroDocumento string             `json:"numero_documento"`
	Nombres         string             `json:"nombres"`
	Apellidos       string             `json:"apellidos"`
	FechaNacimiento *string            `json:"fecha_nacimiento,omitempty"`
	Telefono        *string            `json:"telefono,omitempty"`
	Email           *string            `json:"email,omitempty"`
	Departamento    *string            `json:"departamento,omitempty"`
	Municipio       *string            `json:"municipio,omitempty"`
	Direccion       *string            `json:"direccion,omitempty"`
	Bautizado       bool               `json:"bautizado"`
	FechaBautismo   *string            `json:"fecha_bautismo,omitempty"`
	AsisteTalleres  bool               `json:"asiste_talleres"`
	FechaTalleres   *string            `json:"fecha_talleres,omitempty"`
	Ministerios     []string           `json:"ministerios"`
	Escalas         []string           `json:"escalas"`
	SedeID          *uuid.UUID         `json:"sede_id,omitempty"`
	UserID          uuid.UUID          `json:"user_id"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// CumpleaneroDTO augments a persona with derived birthday fields.
type CumpleaneroDTO struct {
	Persona  PersonaDTO `json:"persona"`
	DiasPara int        `json:"dias_para_cumpleanos"`
	Edad     int        `json:"edad"`
	EsHoy    bool       `json:"es_hoy"`
}

const dateLayout = "2006-01-02"

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func FromModel(p *models.Persona) *PersonaDTO {
	if p == nil {
		return nil
	}
	return &PersonaDTO{
		ID:              p.ID,
		TipoDocumento:   p.TipoDocumento,
		NumeroDocumento: p.NumeroDocumento,
		Nombres:         p.Nombres,
		Apellidos:       p.Apellidos,
		FechaNacimiento: formatDate(p.FechaNacimiento),
		Telefono:        p.Telefono,
		Email:           p.Email,
		Departamento:    p.Departamento,
		Municipio:       p.Municipio,
		Direccion:       p.Direccion,
		Bautizado:       p.Bautizado,
		FechaBautismo:   formatDate(p.FechaBautismo),
		AsisteTalleres:  p.AsisteTalleres,
		FechaTalleres:   formatDate(p.FechaTalleres),
		Ministerios:     append([]string(nil), p.Ministerios...),
		Escalas:         append([]string(nil), p.Escalas...),
		SedeID:          p.SedeID,
		UserID:          p.UserID,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
