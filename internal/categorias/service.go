package categorias

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casadefe/iglesia-backend/pkg/db"
	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/enums"
	pkgerrors "github.com/casadefe/iglesia-backend/pkg/errors"
	"github.com/casadefe/iglesia-backend/pkg/visibility"
)

// CreateRequest holds the fields for a new categoria.
type CreateRequest struct {
	Nombre      string                `json:"nombre" validate:"required"`
	Tipo        enums.TransactionType `json:"tipo" validate:"required"`
	Descripcion *string               `json:"descripcion"`
}

// UpdateRequest carries the mutable categoria fields. Tipo is immutable once
// any transaccion references the row.
type UpdateRequest struct {
	Nombre      *string                `json:"nombre"`
	Tipo        *enums.TransactionType `json:"tipo"`
	Descripcion *string                `json:"descripcion"`
}

// CategoriaDTO is the transport shape returned by the API.
type CategoriaDTO struct {
	ID          uuid.UUID             `json:"id"`
	Nombre      string                `json:"nombre"`
	Tipo        enums.TransactionType `json:"tipo"`
	Descripcion *string               `json:"descripcion,omitempty"`
	UserID      uuid.UUID             `json:"user_id"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// Service defines categoria CRUD with reference guards.
type Service interface {
	Create(ctx context.Context, actor visibility.Actor, req CreateRequest) (*CategoriaDTO, error)
	Get(ctx context.Context, actor visibility.Actor, id uuid.UUID) (*CategoriaDTO, error)
	List(ctx context.Context, actor visibility.Actor, tipo *enums.TransactionType) ([]CategoriaDTO, error)
	Update(ctx context.Context, actor visibility.Actor, id uuid.UUID, req UpdateRequest) (*CategoriaDTO, error)
	Delete(ctx context.Context, actor visibility.Actor, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService wires categoria dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "categorias repository required")
	}
	return &service{repo: repo}, nil
}

func fromModel(c *models.Categoria) *CategoriaDTO {
	if c == nil {
		return nil
	}
	return &CategoriaDTO{
		ID:          c.ID,
		Nombre:      c.Nombre,
		Tipo:        c.Tipo,
		Descripcion: c.Descripcion,
		UserID:      c.UserID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (s *service) Create(ctx context.Context, actor visibility.Actor, req CreateRequest) (*CategoriaDTO, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre is required")
	}
	if !req.Tipo.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tipo is invalid")
	}

	exists, err := s.repo.ExistsByNombreTipo(ctx, nombre, req.Tipo, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check nombre")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("categoria %q already exists for tipo %s", nombre, req.Tipo))
	}

	categoria := &models.Categoria{
		Nombre:      nombre,
		Tipo:        req.Tipo,
		Descripcion: req.Descripcion,
		UserID:      actor.UserID,
	}
	if err := s.repo.Create(ctx, categoria); err != nil {
		if db.IsUniqueViolation(err, "idx_categorias_nombre_tipo") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("categoria %q already exists for tipo %s", nombre, req.Tipo))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create categoria")
	}
	return fromModel(categoria), nil
}

func (s *service) Get(ctx context.Context, actor visibility.Actor, id uuid.UUID) (*CategoriaDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "categoria id required")
	}
	categoria, err := s.repo.FindByID(ctx, visibility.ScopeFor(actor), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "categoria not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find categoria")
	}
	return fromModel(categoria), nil
}

func (s *service) List(ctx context.Context, actor visibility.Actor, tipo *enums.TransactionType) ([]CategoriaDTO, error) {
	if tipo != nil && !tipo.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tipo is invalid")
	}
	rows, err := s.repo.List(ctx, visibility.ScopeFor(actor), tipo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categorias")
	}
	items := make([]CategoriaDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *fromModel(&rows[i]))
	}
	return items, nil
}

func (s *service) Update(ctx context.Context, actor visibility.Actor, id uuid.UUID, req UpdateRequest) (*CategoriaDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "categoria id required")
	}
	scope := visibility.ScopeFor(actor)
	categoria, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "categoria not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find categoria")
	}

	if req.Tipo != nil && *req.Tipo != categoria.Tipo {
		if !req.Tipo.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tipo is invalid")
		}
		refs, err := s.repo.CountTransacciones(ctx, id)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count transacciones")
		}
		if refs > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "tipo cannot change while transactions reference the categoria")
		}
		categoria.Tipo = *req.Tipo
	}
	if req.Nombre != nil {
		nombre := strings.TrimSpace(*req.Nombre)
		if nombre == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre cannot be empty")
		}
		if nombre != categoria.Nombre {
			exists, err := s.repo.ExistsByNombreTipo(ctx, nombre, categoria.Tipo, &categoria.ID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check nombre")
			}
			if exists {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("categoria %q already exists for tipo %s", nombre, categoria.Tipo))
			}
		}
		categoria.Nombre = nombre
	}
	if req.Descripcion != nil {
		categoria.Descripcion = req.Descripcion
	}

	affected, err := s.repo.Update(ctx, scope, categoria)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_categorias_nombre_tipo") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("categoria %q already exists for tipo %s", categoria.Nombre, categoria.Tipo))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update categoria")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "categoria not found")
	}
	return fromModel(categoria), nil
}

func (s *service) Delete(ctx context.Context, actor visibility.Actor, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "categoria id required")
	}
	scope := visibility.ScopeFor(actor)
	if _, err := s.repo.FindByID(ctx, scope, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "categoria not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find categoria")
	}

	refs, err := s.repo.CountTransacciones(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count transacciones")
	}
	if refs > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("categoria has %d transacciones and cannot be deleted", refs)).
			WithDetails(map[string]any{"transacciones": refs})
	}

	affected, err := s.repo.Delete(ctx, scope, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete categoria")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "categoria not found")
	}
	return nil
}
