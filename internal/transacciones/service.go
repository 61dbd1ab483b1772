package transacciones

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

const (
	dateLayout       = "2006-01-02"
	minMotivoRunes   = 10
	anuladaImmutable = "transaccion anulada cannot be modified"
)

// CreateRequest holds the fields for a new transaccion. Numero is never
// accepted from the caller; it is assigned from the sequence at insert time.
type CreateRequest struct {
	Tipo           enums.TransactionType `json:"tipo" validate:"required"`
	Monto          decimal.Decimal       `json:"monto" validate:"required"`
	Fecha          string                `json:"fecha" validate:"required"`
	CategoriaID    uuid.UUID             `json:"categoria_id" validate:"required"`
	ActividadID    *uuid.UUID            `json:"actividad_id"`
	PersonaID      *uuid.UUID            `json:"persona_id"`
	Descripcion    string                `json:"descripcion" validate:"required"`
	ComprobanteURL *string               `json:"comprobante_url"`
}

// UpdateRequest carries the mutable transaccion fields. Tipo and numero are
// immutable and deliberately absent.
type UpdateRequest struct {
	Monto          *decimal.Decimal `json:"monto"`
	Fecha          *string          `json:"fecha"`
	CategoriaID    *uuid.UUID       `json:"categoria_id"`
	ActividadID    *uuid.UUID       `json:"actividad_id"`
	PersonaID      *uuid.UUID       `json:"persona_id"`
	Descripcion    *string          `json:"descripcion"`
	ComprobanteURL *string          `json:"comprobante_url"`
}

// AnularRequest carries the void rationale.
type AnularRequest struct {
	Motivo string `json:"motivo" validate:"required"`
}

// TransaccionDTO is the transport shape returned by the API.
type TransaccionDTO struct {
	ID              uuid.UUID               `json:"id"`
	Tipo            enums.TransactionType   `json:"tipo"`
	Numero          string                  `json:"numero"`
	Monto           decimal.Decimal         `json:"monto"`
	Fecha           string                  `json:"fecha"`
	CategoriaID     uuid.UUID               `json:"categoria_id"`
	ActividadID     *uuid.UUID              `json:"actividad_id,omitempty"`
	PersonaID       *uuid.UUID              `json:"persona_id,omitempty"`
	Descripcion     string                  `json:"descripcion"`
	ComprobanteURL  *string                 `json:"comprobante_url,omitempty"`
	Estado          enums.TransactionStatus `json:"estado"`
	MotivoAnulacion *string                 `json:"motivo_anulacion,omitempty"`
	AnuladaAt       *time.Time              `json:"anulada_at,omitempty"`
	UserID          uuid.UUID               `json:"user_id"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// ListParams configures pagination and filters for the transaccion list.
type ListParams struct {
	Limit       int
	Cursor      string
	Tipo        *enums.TransactionType
	Estado      *enums.TransactionStatus
	CategoriaID *uuid.UUID
	ActividadID *uuid.UUID
	FechaDesde  *string
	FechaHasta  *string
}

// ListResult wraps returned transacciones and the cursor for the next page.
type ListResult struct {
	Items  []TransaccionDTO `json:"items"`
	Cursor string           `json:"cursor"`
}

// Service defines the transaccion operations. Movements can be voided but
// never hard deleted.
type Service interface {
	Create(ctx context.Context, actor visibility.Actor, req CreateRequest) (*TransaccionDTO, error)
	Get(ctx context.Context, actor visibility.Actor, id uuid.UUID) (*TransaccionDTO, error)
	List(ctx context.Context, actor visibility.Actor, params ListParams) (*ListResult, error)
	Update(ctx context.Context, actor visibility.Actor, id uuid.UUID, req UpdateRequest) (*TransaccionDTO, error)
	Anular(ctx context.Context, actor visibility.Actor, id uuid.UUID, req AnularRequest) (*TransaccionDTO, error)
}

type categoriaRepository interface {
	FindByID(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Categoria, error)
}

type actividadRepository interface {
	FindByID(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Actividad, error)
}

type personaRepository interface {
	FindByID(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Persona, error)
}

type service struct {
	repo        Repository
	categorias  categoriaRepository
	actividades actividadRepository
	personas    personaRepository
	now         func() time.Time
}

// NewService wires transaccion dependencies.
func NewService(repo Repository, categorias categoriaRepository, actividades actividadRepository, personas personaRepository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transacciones repository required")
	}
	if categorias == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "categorias repository required")
	}
	if actividades == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "actividades repository required")
	}
	if personas == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "personas repository required")
	}
	return &service{
		repo:        repo,
		categorias:  categorias,
		actividades: actividades,
		personas:    personas,
		now:         time.Now,
	}, nil
}

func fromModel(t *models.Transaccion) *TransaccionDTO {
	if t == nil {
		return nil
	}
	return &TransaccionDTO{
		ID:              t.ID,
		Tipo:            t.Tipo,
		Numero:          t.Numero,
		Monto:           t.Monto,
		Fecha:           t.Fecha.Format(dateLayout),
		CategoriaID:     t.CategoriaID,
		ActividadID:     t.ActividadID,
		PersonaID:       t.PersonaID,
		Descripcion:     t.Descripcion,
		ComprobanteURL:  t.ComprobanteURL,
		Estado:          t.Estado,
		MotivoAnulacion: t.MotivoAnulacion,
		AnuladaAt:       t.AnuladaAt,
		UserID:          t.UserID,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func (s *service) Create(ctx context.Context, actor visibility.Actor, req CreateRequest) (*TransaccionDTO, error) {
	if !req.Tipo.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tipo is invalid")
	}
	if !req.Monto.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "monto must be greater than zero")
	}
	fecha, err := parseDate("fecha", req.Fecha)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Descripcion) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "descripcion is required")
	}

	if err := s.checkCategoria(ctx, actor, req.CategoriaID, req.Tipo); err != nil {
		return nil, err
	}
	if err := s.checkActividad(ctx, actor, req.ActividadID); err != nil {
		return nil, err
	}
	if err := s.checkPersona(ctx, actor, req.PersonaID); err != nil {
		return nil, err
	}

	transaccion := &models.Transaccion{
		Tipo:           req.Tipo,
		Monto:          req.Monto,
		Fecha:          *fecha,
		CategoriaID:    req.CategoriaID,
		ActividadID:    req.ActividadID,
		PersonaID:      req.PersonaID,
		Descripcion:    strings.TrimSpace(req.Descripcion),
		ComprobanteURL: req.ComprobanteURL,
		Estado:         enums.TransactionStatusActiva,
		UserID:         actor.UserID,
	}
	if err := s.repo.Create(ctx, transaccion); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaccion")
	}
	return fromModel(transaccion), nil
}

func (s *service) Get(ctx context.Context, actor visibility.Actor, id uuid.UUID) (*TransaccionDTO, error) {
	transaccion, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return fromModel(transaccion), nil
}

func (s *service) List(ctx context.Context, actor visibility.Actor, params ListParams) (*ListResult, error) {
	query := listTransaccionesParams{
		Limit:       params.Limit,
		Tipo:        params.Tipo,
		Estado:      params.Estado,
		CategoriaID: params.CategoriaID,
		ActividadID: params.ActividadID,
	}
	if params.Tipo != nil && !params.Tipo.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tipo filter is invalid")
	}
	if params.Estado != nil && !params.Estado.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estado filter is invalid")
	}
	if params.FechaDesde != nil {
		desde, err := parseDate("fecha_desde", *params.FechaDesde)
		if err != nil {
			return nil, err
		}
		query.FechaDesde = desde
	}
	if params.FechaHasta != nil {
		hasta, err := parseDate("fecha_hasta", *params.FechaHasta)
		if err != nil {
			return nil, err
		}
		query.FechaHasta = hasta
	}
	if query.FechaDesde != nil && query.FechaHasta != nil && query.FechaHasta.Before(*query.FechaDesde) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fecha_hasta cannot precede fecha_desde")
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, visibility.ScopeFor(actor), query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transacciones")
	}

	items := make([]TransaccionDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *fromModel(&rows[i]))
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}

func (s *service) Update(ctx context.Context, actor visibility.Actor, id uuid.UUID, req UpdateRequest) (*TransaccionDTO, error) {
	transaccion, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if transaccion.Estado == enums.TransactionStatusAnulada {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, anuladaImmutable)
	}

	if req.Monto != nil {
		if !req.Monto.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "monto must be greater than zero")
		}
		transaccion.Monto = *req.Monto
	}
	if req.Fecha != nil {
		fecha, err := parseDate("fecha", *req.Fecha)
		if err != nil {
			return nil, err
		}
		transaccion.Fecha = *fecha
	}
	if req.CategoriaID != nil {
		if err := s.checkCategoria(ctx, actor, *req.CategoriaID, transaccion.Tipo); err != nil {
			return nil, err
		}
		transaccion.CategoriaID = *req.CategoriaID
	}
	if req.ActividadID != nil {
		if err := s.checkActividad(ctx, actor, req.ActividadID); err != nil {
			return nil, err
		}
		transaccion.ActividadID = req.ActividadID
	}
	if req.PersonaID != nil {
		if err := s.checkPersona(ctx, actor, req.PersonaID); err != nil {
			return nil, err
		}
		transaccion.PersonaID = req.PersonaID
	}
	if req.Descripcion != nil {
		if strings.TrimSpace(*req.Descripcion) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "descripcion cannot be empty")
		}
		transaccion.Descripcion = strings.TrimSpace(*req.Descripcion)
	}
	if req.ComprobanteURL != nil {
		transaccion.ComprobanteURL = req.ComprobanteURL
	}

	affected, err := s.repo.Update(ctx, visibility.ScopeFor(actor), transaccion)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update transaccion")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaccion not found")
	}
	return fromModel(transaccion), nil
}

// Anular voids a transaccion. Voiding is terminal: the row stays for audit and
// reporting, and cannot be edited or re-activated afterwards.
func (s *service) Anular(ctx context.Context, actor visibility.Actor, id uuid.UUID, req AnularRequest) (*TransaccionDTO, error) {
	motivo := strings.TrimSpace(req.Motivo)
	if len([]rune(motivo)) < minMotivoRunes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("motivo must be at least %d characters", minMotivoRunes))
	}

	transaccion, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if transaccion.Estado == enums.TransactionStatusAnulada {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transaccion is already anulada")
	}

	at := s.now().UTC()
	affected, err := s.repo.Anular(ctx, visibility.ScopeFor(actor), id, motivo, at)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "anular transaccion")
	}
	if affected == 0 {
		// Lost the race against another void.
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transaccion is already anulada")
	}

	transaccion.Estado = enums.TransactionStatusAnulada
	transaccion.MotivoAnulacion = &motivo
	transaccion.AnuladaAt = &at
	return fromModel(transaccion), nil
}

func (s *service) find(ctx context.Context, actor visibility.Actor, id uuid.UUID) (*models.Transaccion, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaccion id required")
	}
	transaccion, err := s.repo.FindByID(ctx, visibility.ScopeFor(actor), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaccion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find transaccion")
	}
	return transaccion, nil
}

func (s *service) checkCategoria(ctx context.Context, actor visibility.Actor, id uuid.UUID, tipo enums.TransactionType) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "categoria_id is required")
	}
	categoria, err := s.categorias.FindByID(ctx, visibility.ScopeFor(actor), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "categoria does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find categoria")
	}
	if categoria.Tipo != tipo {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("categoria tipo %s does not match transaccion tipo %s", categoria.Tipo, tipo))
	}
	return nil
}

func (s *service) checkActividad(ctx context.Context, actor visibility.Actor, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.actividades.FindByID(ctx, visibility.ScopeFor(actor), *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "actividad does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find actividad")
	}
	return nil
}

func (s *service) checkPersona(ctx context.Context, actor visibility.Actor, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.personas.FindByID(ctx, visibility.ScopeFor(actor), *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "persona does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find persona")
	}
	return nil
}

func parseDate(field, value string) (*time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" must be an ISO date")
	}
	return &t, nil
}
