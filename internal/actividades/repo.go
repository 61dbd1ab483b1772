package actividades

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/enums"
	"github.com/casadefe/iglesia-backend/pkg/pagination"
	"github.com/casadefe/iglesia-backend/pkg/visibility"
)

// Repository exposes persistence helpers for actividades.
type Repository interface {
	Create(ctx context.Context, actividad *models.Actividad) error
	FindByID(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Actividad, error)
	List(ctx context.Context, scope visibility.Scope, params listActividadesParams) ([]models.Actividad, *pagination.Cursor, error)
	Update(ctx context.Context, scope visibility.Scope, actividad *models.Actividad) (int64, error)
	Delete(ctx context.Context, scope visibility.Scope, id uuid.UUID) (int64, error)
	CountTransacciones(ctx context.Context, id uuid.UUID) (int64, error)
	SumIngresosActivos(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an actividades repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listActividadesParams struct {
	Limit  int
	Cursor *pagination.Cursor
	Estado *enums.ActivityStatus
}

func scoped(query *gorm.DB, scope visibility.Scope) *gorm.DB {
	if scope.Restricted {
		return query.Where("user_id = ?", scope.OwnerID)
	}
	return query
}

func (r *repositoryImpl) Create(ctx context.Context, actividad *models.Actividad) error {
	return r.db.WithContext(ctx).Create(actividad).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Actividad, error) {
	var actividad models.Actividad
	if err := scoped(r.db.WithContext(ctx), scope).First(&actividad, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &actividad, nil
}

func (r *repositoryImpl) List(ctx context.Context, scope visibility.Scope, params listActividadesParams) ([]models.Actividad, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := scoped(r.db.WithContext(ctx).Model(&models.Actividad{}), scope)
	if params.Estado != nil {
		query = query.Where("estado = ?", *params.Estado)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Actividad
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return rows, nil, nil
}

func (r *repositoryImpl) Update(ctx context.Context, scope visibility.Scope, actividad *models.Actividad) (int64, error) {
	result := scoped(r.db.WithContext(ctx).Model(&models.Actividad{}), scope).
		Where("id = ?", actividad.ID).
		Select("*").Omit("id", "user_id", "created_at").
		Updates(actividad)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) Delete(ctx context.Context, scope visibility.Scope, id uuid.UUID) (int64, error) {
	result := scoped(r.db.WithContext(ctx), scope).Where("id = ?", id).Delete(&models.Actividad{})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) CountTransacciones(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Transaccion{}).
		Where("actividad_id = ?", id).
		Count(&count).Error
	return count, err
}

// SumIngresosActivos totals the active income linked to the activity. Voided
// rows and egresos never count toward progress.
func (r *repositoryImpl) SumIngresosActivos(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.Transaccion{}).
		Select("SUM(monto)").
		Where("actividad_id = ? AND tipo = ? AND estado = ?", id, enums.TransactionTypeIngreso, enums.TransactionStatusActiva).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
