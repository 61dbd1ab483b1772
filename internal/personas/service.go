package personas

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casadefe/iglesia-backend/pkg/db"
	"github.com/casadefe/iglesia-backend/pkg/db/models"
	pkgerrors "github.com/casadefe/iglesia-backend/pkg/errors"
	"github.com/casadefe/iglesia-backend/pkg/pagination"
	"github.com/casadefe/iglesia-backend/pkg/visibility"
)

// Service defines persona CRUD plus the birthday listing.
type Service interface {
	Create(ctx context.Context, actor visibility.Actor, req CreateRequest) (*PersonaDTO, error)
	Get(ctx context.Context, actor visibility.Actor, id uuid.UUID) (*PersonaDTO, error)
	List(ctx context.Context, actor visibility.Actor, params ListParams) (*ListResult, error)
	Update(ctx context.Context, actor visibility.Actor, id uuid.UUID, req UpdateRequest) (*PersonaDTO, error)
	Delete(ctx context.Context, actor visibility.Actor, id uuid.UUID) error
	Cumpleaneros(ctx context.Context, actor visibility.Actor, today time.Time) ([]CumpleaneroDTO, error)
}

type service struct {
	repo Repository
}

// ListParams configures pagination and filters for the persona list.
type ListParams struct {
	Limit     int
	Cursor    string
	SedeID    *uuid.UUID
	Bautizado *bool
	Search    string
}

// ListResult wraps returned personas and the cursor for the next page.
type ListResult struct {
	Items  []PersonaDTO `json:"items"`
	Cursor string       `json:"cursor"`
}

// NewService wires persona dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "personas repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, actor visibility.Actor, req CreateRequest) (*PersonaDTO, error) {
	if !req.TipoDocumento.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tipo_documento is invalid")
	}
	numero := strings.TrimSpace(req.NumeroDocumento)
	if numero == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "numero_documento is required")
	}
	if strings.TrimSpace(req.Nombres) == "" || strings.TrimSpace(req.Apellidos) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombres and apellidos are required")
	}

	exists, err := s.repo.ExistsByDocumento(ctx, numero, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check documento")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "numero_documento already registered")
	}

	persona := &models.Persona{
		TipoDocumento:   req.TipoDocumento,
		NumeroDocumento: numero,
		Nombres:         strings.TrimSpace(req.Nombres),
		Apellidos:       strings.TrimSpace(req.Apellidos),
		Telefono:        req.Telefono,
		Email:           req.Email,
		Departamento:    req.Departamento,
		Municipio:       req.Municipio,
		Direccion:       req.Direccion,
		Bautizado:       req.Bautizado,
		AsisteTalleres:  req.AsisteTalleres,
		Ministerios:     req.Ministerios,
		Escalas:         req.Escalas,
		SedeID:          req.SedeID,
		UserID:          actor.UserID,
	}
	if persona.FechaNacimiento, err = parseDateField("fecha_nacimiento", req.FechaNacimiento); err != nil {
		return nil, err
	}
	if persona.FechaBautismo, err = parseDateField("fecha_bautismo", req.FechaBautismo); err != nil {
		return nil, err
	}
	if persona.FechaTalleres, err = parseDateField("fecha_talleres", req.FechaTalleres); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, persona); err != nil {
		if db.IsUniqueViolation(err, "idx_personas_numero_documento") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "numero_documento already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create persona")
	}
	return FromModel(persona), nil
}

func (s *service) Get(ctx context.Context, actor visibility.Actor, id uuid.UUID) (*PersonaDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "persona id required")
	}
	persona, err := s.repo.FindByID(ctx, visibility.ScopeFor(actor), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "persona not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find persona")
	}
	return FromModel(persona), nil
}

func (s *service) List(ctx context.Context, actor visibility.Actor, params ListParams) (*ListResult, error) {
	query := listPersonasParams{
		Limit:     params.Limit,
		SedeID:    params.SedeID,
		Bautizado: params.Bautizado,
		Search:    strings.TrimSpace(params.Search),
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list personas")
	}

	items := make([]PersonaDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}

func (s *service) Update(ctx context.Context, actor visibility.Actor, id uuid.UUID, req UpdateRequest) (*PersonaDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "persona id required")
	}
	scope := visibility.ScopeFor(actor)
	persona, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "persona not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find persona")
	}

	if req.TipoDocumento != nil {
		if !req.TipoDocumento.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tipo_documento is invalid")
		}
		persona.TipoDocumento = *req.TipoDocumento
	}
	if req.NumeroDocumento != nil {
		numero := strings.TrimSpace(*req.NumeroDocumento)
		if numero == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "numero_documento cannot be empty")
		}
		if numero != persona.NumeroDocumento {
			exists, err := s.repo.ExistsByDocumento(ctx, numero, &persona.ID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check documento")
			}
			if exists {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "numero_documento already registered")
			}
		}
		persona.NumeroDocumento = numero
	}
	if req.Nombres != nil {
		if strings.TrimSpace(*req.Nombres) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombres cannot be empty")
		}
		persona.Nombres = strings.TrimSpace(*req.Nombres)
	}
	if req.Apellidos != nil {
		if strings.TrimSpace(*req.Apellidos) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "apellidos cannot be empty")
		}
		persona.Apellidos = strings.TrimSpace(*req.Apellidos)
	}
	if req.FechaNacimiento != nil {
		if persona.FechaNacimiento, err = parseDateField("fecha_nacimiento", req.FechaNacimiento); err != nil {
			return nil, err
		}
	}
	if req.Telefono != nil {
		persona.Telefono = req.Telefono
	}
	if req.Email != nil {
		persona.Email = req.Email
	}
	if req.Departamento != nil {
		persona.Departamento = req.Departamento
	}
	if req.Municipio != nil {
		persona.Municipio = req.Municipio
	}
	if req.Direccion != nil {
		persona.Direccion = req.Direccion
	}
	if req.Bautizado != nil {
		persona.Bautizado = *req.Bautizado
	}
	if req.FechaBautismo != nil {
		if persona.FechaBautismo, err = parseDateField("fecha_bautismo", req.FechaBautismo); err != nil {
			return nil, err
		}
	}
	if req.AsisteTalleres != nil {
		persona.AsisteTalleres = *req.AsisteTalleres
	}
	if req.FechaTalleres != nil {
		if persona.FechaTalleres, err = parseDateField("fecha_talleres", req.FechaTalleres); err != nil {
			return nil, err
		}
	}
	if req.Ministerios != nil {
		persona.Ministerios = req.Ministerios
	}
	if req.Escalas != nil {
		persona.Escalas = req.Escalas
	}
	if req.SedeID != nil {
		persona.SedeID = req.SedeID
	}

	affected, err := s.repo.Update(ctx, scope, persona)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_personas_numero_documento") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "numero_documento already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update persona")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "persona not found")
	}
	return FromModel(persona), nil
}

func (s *service) Delete(ctx context.Context, actor visibility.Actor, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "persona id required")
	}
	affected, err := s.repo.Delete(ctx, visibility.ScopeFor(actor), id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete persona")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "persona not found")
	}
	return nil
}

func (s *service) Cumpleaneros(ctx context.Context, actor visibility.Actor, today time.Time) ([]CumpleaneroDTO, error) {
	rows, err := s.repo.ListConFechaNacimiento(ctx, visibility.ScopeFor(actor))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cumpleaneros")
	}

	result := make([]CumpleaneroDTO, 0, len(rows))
	for i := range rows {
		persona := &rows[i]
		if persona.FechaNacimiento == nil {
			continue
		}
		fecha := persona.FechaNacimiento.Format(dateLayout)
		dias, err := DiasParaCumpleanos(fecha, today)
		if err != nil {
			continue
		}
		edad, err := Edad(fecha, today)
		if err != nil {
			continue
		}
		result = append(result, CumpleaneroDTO{
			Persona:  *FromModel(persona),
			DiasPara: dias,
			Edad:     edad,
			EsHoy:    dias == 0,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DiasPara < result[j].DiasPara
	})
	return result, nil
}

func parseDateField(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	bd, err := parseBirthDate(*value)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, field+" must be an ISO date")
	}
	t := time.Date(bd.Year, time.Month(bd.Month), bd.Day, 0, 0, 0, 0, time.UTC)
	return &t, nil
}
