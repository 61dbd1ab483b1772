package actividades

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/enums"
	pkgerrors "github.com/casadefe/iglesia-backend/pkg/errors"
	"github.com/casadefe/iglesia-backend/pkg/pagination"
	"github.com/casadefe/iglesia-backend/pkg/visibility"
)

var cien = decimal.NewFromInt(100)

// CreateRequest holds the fields for a new actividad.
type CreateRequest struct {
	Nombre      string                `json:"nombre" validate:"required"`
	Descripcion *string               `json:"descripcion"`
	Meta        decimal.Decimal       `json:"meta" validate:"required"`
	FechaInicio string                `json:"fecha_inicio" validate:"required"`
	FechaFin    *string               `json:"fecha_fin"`
	Estado      *enums.ActivityStatus `json:"estado"`
}

// UpdateRequest carries the mutable actividad fields.
type UpdateRequest struct {
	Nombre      *string               `json:"nombre"`
	Descripcion *string               `json:"descripcion"`
	Meta        *decimal.Decimal      `json:"meta"`
	FechaInicio *string               `json:"fecha_inicio"`
	FechaFin    *string               `json:"fecha_fin"`
	Estado      *enums.ActivityStatus `json:"estado"`
}

// ActividadDTO is the transport shape returned by the API.
type ActividadDTO struct {
	ID          uuid.UUID            `json:"id"`
	Nombre      string               `json:"nombre"`
	Descripcion *string              `json:"descripcion,omitempty"`
	Meta        decimal.Decimal      `json:"meta"`
	FechaInicio string               `json:"fecha_inicio"`
	FechaFin    *string              `json:"fecha_fin,omitempty"`
	Estado      enums.ActivityStatus `json:"estado"`
	UserID      uuid.UUID            `json:"user_id"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ProgresoDTO carries the derived fundraising progress for an activity.
type ProgresoDTO struct {
	ActividadID uuid.UUID       `json:"actividad_id"`
	Meta        decimal.Decimal `json:"meta"`
	Recaudado   decimal.Decimal `json:"recaudado"`
	Porcentaje  decimal.Decimal `json:"porcentaje"`
}

// Service defines actividad CRUD plus the derived progress computation.
type Service interface {
	Create(ctx context.Context, actor visibility.Actor, req CreateRequest) (*ActividadDTO, error)
	Get(ctx context.Context, actor visibility.Actor, id uuid.UUID) (*ActividadDTO, error)
	List(ctx context.Context, actor visibility.Actor, params ListParams) (*ListResult, error)
	Update(ctx context.Context, actor visibility.Actor, id uuid.UUID, req UpdateRequest) (*ActividadDTO, error)
	Delete(ctx context.Context, actor visibility.Actor, id uuid.UUID) error
	Progreso(ctx context.Context, actor visibility.Actor, id uuid.UUID) (*ProgresoDTO, error)
}

type service struct {
	repo Repository
}

// ListParams configures pagination and filters for the actividad list.
type ListParams struct {
	Limit  int
	Cursor string
	Estado *enums.ActivityStatus
}

// ListResult wraps returned actividades and the cursor for the next page.
type ListResult struct {
	Items  []ActividadDTO `json:"items"`
	Cursor string         `json:"cursor"`
}

// NewService wires actividad dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "actividades repository required")
	}
	return &service{repo: repo}, nil
}

const dateLayout = "2006-01-02"

func fromModel(a *models.Actividad) *ActividadDTO {
	if a == nil {
		return nil
	}
	dto := &ActividadDTO{
		ID:          a.ID,
		Nombre:      a.Nombre,
		Descripcion: a.Descripcion,
		Meta:        a.Meta,
		FechaInicio: a.FechaInicio.Format(dateLayout),
		Estado:      a.Estado,
		UserID:      a.UserID,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.FechaFin != nil {
		fin := a.FechaFin.Format(dateLayout)
		dto.FechaFin = &fin
	}
	return dto
}

func (s *service) Create(ctx context.Context, actor visibility.Actor, req CreateRequest) (*ActividadDTO, error) {
	if strings.TrimSpace(req.Nombre) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre is required")
	}
	if !req.Meta.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "meta must be greater than zero")
	}
	inicio, err := parseDate("fecha_inicio", req.FechaInicio)
	if err != nil {
		return nil, err
	}
	fin, err := parseOptionalDate("fecha_fin", req.FechaFin)
	if err != nil {
		return nil, err
	}
	if fin != nil && fin.Before(*inicio) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fecha_fin cannot precede fecha_inicio")
	}

	estado := enums.ActivityStatusPlaneada
	if req.Estado != nil {
		if !req.Estado.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "estado is invalid")
		}
		estado = *req.Estado
	}

	actividad := &models.Actividad{
		Nombre:      strings.TrimSpace(req.Nombre),
		Descripcion: req.Descripcion,
		Meta:        req.Meta,
		FechaInicio: *inicio,
		FechaFin:    fin,
		Estado:      estado,
		UserID:      actor.UserID,
	}
	if err := s.repo.Create(ctx, actividad); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create actividad")
	}
	return fromModel(actividad), nil
}

func (s *service) Get(ctx context.Context, actor visibility.Actor, id uuid.UUID) (*ActividadDTO, error) {
	actividad, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return fromModel(actividad), nil
}

func (s *service) List(ctx context.Context, actor visibility.Actor, params ListParams) (*ListResult, error) {
	query := listActividadesParams{Limit: params.Limit, Estado: params.Estado}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, visibility.ScopeFor(actor), query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list actividades")
	}

	items := make([]ActividadDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *fromModel(&rows[i]))
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}

func (s *service) Update(ctx context.Context, actor visibility.Actor, id uuid.UUID, req UpdateRequest) (*ActividadDTO, error) {
	actividad, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Nombre != nil {
		if strings.TrimSpace(*req.Nombre) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre cannot be empty")
		}
		actividad.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.Descripcion != nil {
		actividad.Descripcion = req.Descripcion
	}
	if req.Meta != nil {
		if !req.Meta.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "meta must be greater than zero")
		}
		actividad.Meta = *req.Meta
	}
	if req.FechaInicio != nil {
		inicio, err := parseDate("fecha_inicio", *req.FechaInicio)
		if err != nil {
			return nil, err
		}
		actividad.FechaInicio = *inicio
	}
	if req.FechaFin != nil {
		fin, err := parseOptionalDate("fecha_fin", req.FechaFin)
		if err != nil {
			return nil, err
		}
		actividad.FechaFin = fin
	}
	if actividad.FechaFin != nil && actividad.FechaFin.Before(actividad.FechaInicio) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fecha_fin cannot precede fecha_inicio")
	}
	if req.Estado != nil {
		if !req.Estado.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "estado is invalid")
		}
		actividad.Estado = *req.Estado
	}

	affected, err := s.repo.Update(ctx, visibility.ScopeFor(actor), actividad)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update actividad")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "actividad not found")
	}
	return fromModel(actividad), nil
}

func (s *service) Delete(ctx context.Context, actor visibility.Actor, id uuid.UUID) error {
	if _, err := s.find(ctx, actor, id); err != nil {
		return err
	}

	refs, err := s.repo.CountTransacciones(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count transacciones")
	}
	if refs > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("actividad has %d transacciones and cannot be deleted", refs)).
			WithDetails(map[string]any{"transacciones": refs})
	}

	affected, err := s.repo.Delete(ctx, visibility.ScopeFor(actor), id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete actividad")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "actividad not found")
	}
	return nil
}

// Progreso computes fundraising progress on demand; nothing is cached.
func (s *service) Progreso(ctx context.Context, actor visibility.Actor, id uuid.UUID) (*ProgresoDTO, error) {
	actividad, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	recaudado, err := s.repo.SumIngresosActivos(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum ingresos")
	}

	porcentaje := decimal.Zero
	if actividad.Meta.IsPositive() {
		porcentaje = recaudado.Div(actividad.Meta).Mul(cien).Round(2)
		if porcentaje.GreaterThan(cien) {
			porcentaje = cien
		}
	}

	return &ProgresoDTO{
		ActividadID: actividad.ID,
		Meta:        actividad.Meta,
		Recaudado:   recaudado,
		Porcentaje:  porcentaje,
	}, nil
}

func (s *service) find(ctx context.Context, actor visibility.Actor, id uuid.UUID) (*models.Actividad, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actividad id required")
	}
	actividad, err := s.repo.FindByID(ctx, visibility.ScopeFor(actor), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "actividad not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find actividad")
	}
	return actividad, nil
}

func parseDate(field, value string) (*time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" must be an ISO date")
	}
	return &t, nil
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	return parseDate(field, *value)
}
