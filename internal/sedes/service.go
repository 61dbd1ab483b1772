package sedes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/enums"
	pkgerrors "github.com/casadefe/iglesia-backend/pkg/errors"
	"github.com/casadefe/iglesia-backend/pkg/visibility"
)

// CreateRequest holds the fields for a new sede.
type CreateRequest struct {
	Nombre    string  `json:"nombre" validate:"required"`
	Direccion string  `json:"direccion" validate:"required"`
	Lider     string  `json:"lider" validate:"required"`
	Telefono  string  `json:"telefono" validate:"required"`
	Codigo    *string `json:"codigo"`
}

// UpdateRequest carries the mutable sede fields.
type UpdateRequest struct {
	Nombre    *string `json:"nombre"`
	Direccion *string `json:"direccion"`
	Lider     *string `json:"lider"`
	Telefono  *string `json:"telefono"`
	Codigo    *string `json:"codigo"`
}

// SedeDTO is the transport shape returned by the API.
type SedeDTO struct {
	ID        uuid.UUID `json:"id"`
	Nombre    string    `json:"nombre"`
	Direccion string    `json:"direccion"`
	Lider     string    `json:"lider"`
	Telefono  string    `json:"telefono"`
	Codigo    *string   `json:"codigo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service defines sede CRUD. Reads are open to any authenticated user;
// mutations require the admin rol.
type Service interface {
	Create(ctx context.Context, actor visibility.Actor, req CreateRequest) (*SedeDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*SedeDTO, error)
	List(ctx context.Context) ([]SedeDTO, error)
	Update(ctx context.Context, actor visibility.Actor, id uuid.UUID, req UpdateRequest) (*SedeDTO, error)
	Delete(ctx context.Context, actor visibility.Actor, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService wires sede dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sedes repository required")
	}
	return &service{repo: repo}, nil
}

func fromModel(s *models.Sede) *SedeDTO {
	if s == nil {
		return nil
	}
	return &SedeDTO{
		ID:        s.ID,
		Nombre:    s.Nombre,
		Direccion: s.Direccion,
		Lider:     s.Lider,
		Telefono:  s.Telefono,
		Codigo:    s.Codigo,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func requireAdmin(actor visibility.Actor) error {
	if actor.Rol != enums.RolAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins can manage sedes")
	}
	return nil
}

func (s *service) Create(ctx context.Context, actor visibility.Actor, req CreateRequest) (*SedeDTO, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	for field, value := range map[string]string{
		"nombre":    req.Nombre,
		"direccion": req.Direccion,
		"lider":     req.Lider,
		"telefono":  req.Telefono,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
		}
	}

	sede := &models.Sede{
		Nombre:    strings.TrimSpace(req.Nombre),
		Direccion: strings.TrimSpace(req.Direccion),
		Lider:     strings.TrimSpace(req.Lider),
		Telefono:  strings.TrimSpace(req.Telefono),
		Codigo:    req.Codigo,
	}
	if err := s.repo.Create(ctx, sede); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sede")
	}
	return fromModel(sede), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*SedeDTO, error) {
	sede, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromModel(sede), nil
}

func (s *service) List(ctx context.Context) ([]SedeDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sedes")
	}
	items := make([]SedeDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *fromModel(&rows[i]))
	}
	return items, nil
}

func (s *service) Update(ctx context.Context, actor visibility.Actor, id uuid.UUID, req UpdateRequest) (*SedeDTO, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	sede, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Nombre != nil {
		if strings.TrimSpace(*req.Nombre) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre cannot be empty")
		}
		sede.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.Direccion != nil {
		if strings.TrimSpace(*req.Direccion) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "direccion cannot be empty")
		}
		sede.Direccion = strings.TrimSpace(*req.Direccion)
	}
	if req.Lider != nil {
		if strings.TrimSpace(*req.Lider) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "lider cannot be empty")
		}
		sede.Lider = strings.TrimSpace(*req.Lider)
	}
	if req.Telefono != nil {
		if strings.TrimSpace(*req.Telefono) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "telefono cannot be empty")
		}
		sede.Telefono = strings.TrimSpace(*req.Telefono)
	}
	if req.Codigo != nil {
		sede.Codigo = req.Codigo
	}

	affected, err := s.repo.Update(ctx, sede)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sede")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sede not found")
	}
	return fromModel(sede), nil
}

func (s *service) Delete(ctx context.Context, actor visibility.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	personas, usuarios, err := s.repo.CountReferences(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count sede references")
	}
	if personas > 0 || usuarios > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("sede is referenced by %d personas and %d usuarios and cannot be deleted", personas, usuarios)).
			WithDetails(map[string]any{"personas": personas, "usuarios": usuarios})
	}

	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete sede")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "sede not found")
	}
	return nil
}

func (s *service) find(ctx context.Context, id uuid.UUID) (*models.Sede, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sede id required")
	}
	sede, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sede not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find sede")
	}
	return sede, nil
}
