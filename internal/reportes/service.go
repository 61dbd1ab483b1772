package reportes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/casadefe/iglesia-backend/pkg/enums"
	pkgerrors "github.com/casadefe/iglesia-backend/pkg/errors"
	"github.com/casadefe/iglesia-backend/pkg/visibility"
)

const dateLayout = "2006-01-02"

var cien = decimal.NewFromInt(100)

// RangoParams bounds a report to an inclusive date range.
type RangoParams struct {
	Desde string `json:"desde" validate:"required"`
	Hasta string `json:"hasta" validate:"required"`
}

// ExportParams narrows transaction exports.
type ExportParams struct {
	Tipo        *enums.TransactionType
	Estado      *enums.TransactionStatus
	CategoriaID *uuid.UUID
	Desde       *string
	Hasta       *string
}

// CategoriaResumenDTO is one row of the category breakdown.
type CategoriaResumenDTO struct {
	CategoriaID uuid.UUID             `json:"categoria_id"`
	Nombre      string                `json:"nombre"`
	Tipo        enums.TransactionType `json:"tipo"`
	Total       decimal.Decimal       `json:"total"`
}

// MesResumenDTO is one row of the monthly breakdown.
type MesResumenDTO struct {
	Mes      string          `json:"mes"`
	Ingresos decimal.Decimal `json:"ingresos"`
	Egresos  decimal.Decimal `json:"egresos"`
	Balance  decimal.Decimal `json:"balance"`
}

// ResumenDTO is the financial summary for a date range. Voided movements are
// excluded everywhere.
type ResumenDTO struct {
	Desde        string                `json:"desde"`
	Hasta        string                `json:"hasta"`
	Ingresos     decimal.Decimal       `json:"ingresos"`
	Egresos      decimal.Decimal       `json:"egresos"`
	Balance      decimal.Decimal       `json:"balance"`
	PorCategoria []CategoriaResumenDTO `json:"por_categoria"`
	PorMes       []MesResumenDTO       `json:"por_mes"`
}

// ActividadProgresoDTO is one row of the fundraising progress report.
type ActividadProgresoDTO struct {
	ActividadID uuid.UUID            `json:"actividad_id"`
	Nombre      string               `json:"nombre"`
	Estado      enums.ActivityStatus `json:"estado"`
	Meta        decimal.Decimal      `json:"meta"`
	Recaudado   decimal.Decimal      `json:"recaudado"`
	Porcentaje  decimal.Decimal      `json:"porcentaje"`
}

// Service builds financial summaries and file exports.
type Service interface {
	ResumenFinanciero(ctx context.Context, actor visibility.Actor, params RangoParams) (*ResumenDTO, error)
	ProgresoActividades(ctx context.Context, actor visibility.Actor) ([]ActividadProgresoDTO, error)
	ExportTransaccionesCSV(ctx context.Context, actor visibility.Actor, params ExportParams) ([]byte, error)
	ReciboPDF(ctx context.Context, actor visibility.Actor, transaccionID uuid.UUID) ([]byte, error)
	TransaccionesPDF(ctx context.Context, actor visibility.Actor, params ExportParams) ([]byte, error)
	ActividadesPDF(ctx context.Context, actor visibility.Actor) ([]byte, error)
}

type service struct {
	repo Repository
}

// NewService wires reporting dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reportes repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ResumenFinanciero(ctx context.Context, actor visibility.Actor, params RangoParams) (*ResumenDTO, error) {
	desde, hasta, err := parseRango(params.Desde, params.Hasta)
	if err != nil {
		return nil, err
	}
	scope := visibility.ScopeFor(actor)

	totales, err := s.repo.Totales(ctx, scope, desde, hasta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum totales")
	}

	porCategoria, err := s.repo.ResumenPorCategoria(ctx, scope, desde, hasta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "group by categoria")
	}
	categorias := make([]CategoriaResumenDTO, 0, len(porCategoria))
	for _, row := range porCategoria {
		categorias = append(categorias, CategoriaResumenDTO{
			CategoriaID: row.CategoriaID,
			Nombre:      row.Nombre,
			Tipo:        row.Tipo,
			Total:       row.Total,
		})
	}

	porMes, err := s.repo.ResumenPorMes(ctx, scope, desde, hasta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "group by mes")
	}
	meses := make([]MesResumenDTO, 0, len(porMes))
	for _, row := range porMes {
		meses = append(meses, MesResumenDTO{
			Mes:      row.Mes,
			Ingresos: row.Ingresos,
			Egresos:  row.Egresos,
			Balance:  row.Ingresos.Sub(row.Egresos),
		})
	}

	return &ResumenDTO{
		Desde:        desde.Format(dateLayout),
		Hasta:        hasta.Format(dateLayout),
		Ingresos:     totales.Ingresos,
		Egresos:      totales.Egresos,
		Balance:      totales.Ingresos.Sub(totales.Egresos),
		PorCategoria: categorias,
		PorMes:       meses,
	}, nil
}

// ProgresoActividades derives the fundraising progress for every visible
// activity. Percentages are capped at 100 even when collection overshoots
// the goal; the raw recaudado keeps the real figure.
func (s *service) ProgresoActividades(ctx context.Context, actor visibility.Actor) ([]ActividadProgresoDTO, error) {
	scope := visibility.ScopeFor(actor)
	actividades, err := s.repo.ListActividades(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list actividades")
	}

	rows := make([]ActividadProgresoDTO, 0, len(actividades))
	for i := range actividades {
		actividad := &actividades[i]
		recaudado, err := s.repo.SumIngresosActivos(ctx, actividad.ID)
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
		rows = append(rows, ActividadProgresoDTO{
			ActividadID: actividad.ID,
			Nombre:      actividad.Nombre,
			Estado:      actividad.Estado,
			Meta:        actividad.Meta,
			Recaudado:   recaudado,
			Porcentaje:  porcentaje,
		})
	}
	return rows, nil
}

func (s *service) ExportTransaccionesCSV(ctx context.Context, actor visibility.Actor, params ExportParams) ([]byte, error) {
	rows, err := s.exportRows(ctx, actor, params)
	if err != nil {
		return nil, err
	}
	data, err := writeTransaccionesCSV(rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode csv")
	}
	return data, nil
}

func (s *service) ReciboPDF(ctx context.Context, actor visibility.Actor, transaccionID uuid.UUID) ([]byte, error) {
	if transaccionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaccion id required")
	}
	transaccion, err := s.repo.FindTransaccion(ctx, visibility.ScopeFor(actor), transaccionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaccion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find transaccion")
	}

	nombres, err := s.repo.CategoriaNombres(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load categorias")
	}
	persona := ""
	if transaccion.PersonaID != nil {
		persona, err = s.repo.PersonaNombre(ctx, *transaccion.PersonaID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find persona")
		}
	}

	data, err := buildReciboPDF(transaccion, nombres[transaccion.CategoriaID], persona)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render recibo")
	}
	return data, nil
}

func (s *service) TransaccionesPDF(ctx context.Context, actor visibility.Actor, params ExportParams) ([]byte, error) {
	rows, err := s.exportRows(ctx, actor, params)
	if err != nil {
		return nil, err
	}
	data, err := buildTransaccionesPDF(rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render transacciones pdf")
	}
	return data, nil
}

func (s *service) ActividadesPDF(ctx context.Context, actor visibility.Actor) ([]byte, error) {
	progreso, err := s.ProgresoActividades(ctx, actor)
	if err != nil {
		return nil, err
	}
	data, err := buildActividadesPDF(progreso)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render actividades pdf")
	}
	return data, nil
}

func (s *service) exportRows(ctx context.Context, actor visibility.Actor, params ExportParams) ([]transaccionRow, error) {
	filtro := TransaccionFiltro{
		Tipo:        params.Tipo,
		Estado:      params.Estado,
		CategoriaID: params.CategoriaID,
	}
	if params.Tipo != nil && !params.Tipo.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tipo filter is invalid")
	}
	if params.Estado != nil && !params.Estado.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estado filter is invalid")
	}
	if params.Desde != nil {
		desde, err := parseDate("desde", *params.Desde)
		if err != nil {
			return nil, err
		}
		filtro.Desde = &desde
	}
	if params.Hasta != nil {
		hasta, err := parseDate("hasta", *params.Hasta)
		if err != nil {
			return nil, err
		}
		filtro.Hasta = &hasta
	}

	rows, err := s.repo.ListTransacciones(ctx, visibility.ScopeFor(actor), filtro)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transacciones")
	}
	nombres, err := s.repo.CategoriaNombres(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load categorias")
	}

	export := make([]transaccionRow, 0, len(rows))
	for i := range rows {
		export = append(export, newTransaccionRow(&rows[i], nombres))
	}
	return export, nil
}

func parseRango(desde, hasta string) (time.Time, time.Time, error) {
	d, err := parseDate("desde", desde)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	h, err := parseDate("hasta", hasta)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if h.Before(d) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "hasta cannot precede desde")
	}
	return d, h, nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, field+" must be an ISO date")
	}
	return t, nil
}
