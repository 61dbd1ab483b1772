package reportes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/enums"
	"github.com/casadefe/iglesia-backend/pkg/visibility"
)

// Repository is the read-only reporting surface. Every query excludes voided
// movements; anuladas stay in the ledger but never count toward totals.
type Repository interface {
	Totales(ctx context.Context, scope visibility.Scope, desde, hasta time.Time) (Totales, error)
	ResumenPorCategoria(ctx context.Context, scope visibility.Scope, desde, hasta time.Time) ([]CategoriaResumen, error)
	ResumenPorMes(ctx context.Context, scope visibility.Scope, desde, hasta time.Time) ([]MesResumen, error)
	ListTransacciones(ctx context.Context, scope visibility.Scope, filtro TransaccionFiltro) ([]models.Transaccion, error)
	FindTransaccion(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Transaccion, error)
	ListActividades(ctx context.Context, scope visibility.Scope) ([]models.Actividad, error)
	SumIngresosActivos(ctx context.Context, actividadID uuid.UUID) (decimal.Decimal, error)
	CategoriaNombres(ctx context.Context) (map[uuid.UUID]string, error)
	PersonaNombre(ctx context.Context, id uuid.UUID) (string, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a reporting repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// Totales aggregates active movements in a date range.
type Totales struct {
	Ingresos decimal.Decimal
	Egresos  decimal.Decimal
}

// CategoriaResumen is one grouped row of the category breakdown.
type CategoriaResumen struct {
	CategoriaID uuid.UUID             `gorm:"column:categoria_id"`
	Nombre      string                `gorm:"column:nombre"`
	Tipo        enums.TransactionType `gorm:"column:tipo"`
	Total       decimal.Decimal       `gorm:"column:total"`
}

// MesResumen is one grouped row of the monthly breakdown.
type MesResumen struct {
	Mes      string          `gorm:"column:mes"`
	Ingresos decimal.Decimal `gorm:"column:ingresos"`
	Egresos  decimal.Decimal `gorm:"column:egresos"`
}

// TransaccionFiltro narrows export queries.
type TransaccionFiltro struct {
	Tipo        *enums.TransactionType
	Estado      *enums.TransactionStatus
	CategoriaID *uuid.UUID
	Desde       *time.Time
	Hasta       *time.Time
}

func scoped(query *gorm.DB, scope visibility.Scope) *gorm.DB {
	if scope.Restricted {
		return query.Where("user_id = ?", scope.OwnerID)
	}
	return query
}

func (r *repositoryImpl) sumTipo(ctx context.Context, scope visibility.Scope, tipo enums.TransactionType, desde, hasta time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := scoped(r.db.WithContext(ctx).Model(&models.Transaccion{}), scope).
		Select("SUM(monto)").
		Where("tipo = ? AND estado = ? AND fecha >= ? AND fecha <= ?",
			tipo, enums.TransactionStatusActiva, desde, hasta).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *repositoryImpl) Totales(ctx context.Context, scope visibility.Scope, desde, hasta time.Time) (Totales, error) {
	ingresos, err := r.sumTipo(ctx, scope, enums.TransactionTypeIngreso, desde, hasta)
	if err != nil {
		return Totales{}, err
	}
	egresos, err := r.sumTipo(ctx, scope, enums.TransactionTypeEgreso, desde, hasta)
	if err != nil {
		return Totales{}, err
	}
	return Totales{Ingresos: ingresos, Egresos: egresos}, nil
}

func (r *repositoryImpl) ResumenPorCategoria(ctx context.Context, scope visibility.Scope, desde, hasta time.Time) ([]CategoriaResumen, error) {
	var rows []CategoriaResumen
	query := r.db.WithContext(ctx).
		Table("transacciones").
		Select("transacciones.categoria_id, categorias.nombre, transacciones.tipo, SUM(transacciones.monto) AS total").
		Joins("JOIN categorias ON categorias.id = transacciones.categoria_id").
		Where("transacciones.estado = ? AND transacciones.fecha >= ? AND transacciones.fecha <= ?",
			enums.TransactionStatusActiva, desde, hasta)
	if scope.Restricted {
		query = query.Where("transacciones.user_id = ?", scope.OwnerID)
	}
	err := query.
		Group("transacciones.categoria_id, categorias.nombre, transacciones.tipo").
		Order("total DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ResumenPorMes(ctx context.Context, scope visibility.Scope, desde, hasta time.Time) ([]MesResumen, error) {
	var rows []MesResumen
	err := scoped(r.db.WithContext(ctx).Model(&models.Transaccion{}), scope).
		Select(`to_char(fecha, 'YYYY-MM') AS mes,
			COALESCE(SUM(monto) FILTER (WHERE tipo = 'ingreso'), 0) AS ingresos,
			COALESCE(SUM(monto) FILTER (WHERE tipo = 'egreso'), 0) AS egresos`).
		Where("estado = ? AND fecha >= ? AND fecha <= ?", enums.TransactionStatusActiva, desde, hasta).
		Group("to_char(fecha, 'YYYY-MM')").
		Order("mes ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListTransacciones(ctx context.Context, scope visibility.Scope, filtro TransaccionFiltro) ([]models.Transaccion, error) {
	query := scoped(r.db.WithContext(ctx).Model(&models.Transaccion{}), scope)
	if filtro.Tipo != nil {
		query = query.Where("tipo = ?", *filtro.Tipo)
	}
	if filtro.Estado != nil {
		query = query.Where("estado = ?", *filtro.Estado)
	}
	if filtro.CategoriaID != nil {
		query = query.Where("categoria_id = ?", *filtro.CategoriaID)
	}
	if filtro.Desde != nil {
		query = query.Where("fecha >= ?", *filtro.Desde)
	}
	if filtro.Hasta != nil {
		query = query.Where("fecha <= ?", *filtro.Hasta)
	}

	var rows []models.Transaccion
	err := query.Order("fecha ASC, numero ASC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) FindTransaccion(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Transaccion, error) {
	var transaccion models.Transaccion
	if err := scoped(r.db.WithContext(ctx), scope).First(&transaccion, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transaccion, nil
}

func (r *repositoryImpl) ListActividades(ctx context.Context, scope visibility.Scope) ([]models.Actividad, error) {
	var rows []models.Actividad
	err := scoped(r.db.WithContext(ctx), scope).Order("fecha_inicio ASC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) SumIngresosActivos(ctx context.Context, actividadID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.Transaccion{}).
		Select("SUM(monto)").
		Where("actividad_id = ? AND tipo = ? AND estado = ?",
			actividadID, enums.TransactionTypeIngreso, enums.TransactionStatusActiva).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *repositoryImpl) CategoriaNombres(ctx context.Context) (map[uuid.UUID]string, error) {
	var rows []models.Categoria
	if err := r.db.WithContext(ctx).Select("id", "nombre").Find(&rows).Error; err != nil {
		return nil, err
	}
	nombres := make(map[uuid.UUID]string, len(rows))
	for _, c := range rows {
		nombres[c.ID] = c.Nombre
	}
	return nombres, nil
}

func (r *repositoryImpl) PersonaNombre(ctx context.Context, id uuid.UUID) (string, error) {
	var persona models.Persona
	if err := r.db.WithContext(ctx).Select("nombres", "apellidos").First(&persona, "id = ?", id).Error; err != nil {
		return "", err
	}
	return persona.Nombres + " " + persona.Apellidos, nil
}
