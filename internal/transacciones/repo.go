package transacciones

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casadefe/iglesia-backend/pkg/db"
	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/enums"
	"github.com/casadefe/iglesia-backend/pkg/pagination"
	"github.com/casadefe/iglesia-backend/pkg/visibility"
)

// Repository exposes persistence helpers for transacciones. There is no
// delete: movements are voided, never removed.
type Repository interface {
	Create(ctx context.Context, transaccion *models.Transaccion) error
	FindByID(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Transaccion, error)
	List(ctx context.Context, scope visibility.Scope, params listTransaccionesParams) ([]models.Transaccion, *pagination.Cursor, error)
	Update(ctx context.Context, scope visibility.Scope, transaccion *models.Transaccion) (int64, error)
	Anular(ctx context.Context, scope visibility.Scope, id uuid.UUID, motivo string, at time.Time) (int64, error)
}

type repositoryImpl struct {
	client *db.Client
}

// NewRepository returns a transacciones repository bound to the provided client.
// The full client (not just the connection) is required because Create bumps
// the sequence counter inside the same transaction as the insert.
func NewRepository(client *db.Client) Repository {
	return &repositoryImpl{client: client}
}

type listTransaccionesParams struct {
	Limit       int
	Cursor      *pagination.Cursor
	Tipo        *enums.TransactionType
	Estado      *enums.TransactionStatus
	CategoriaID *uuid.UUID
	ActividadID *uuid.UUID
	FechaDesde  *time.Time
	FechaHasta  *time.Time
}

func scoped(query *gorm.DB, scope visibility.Scope) *gorm.DB {
	if scope.Restricted {
		return query.Where("user_id = ?", scope.OwnerID)
	}
	return query
}

// Create assigns the next sequence number for the transaccion tipo and inserts
// the row, both inside one database transaction.
func (r *repositoryImpl) Create(ctx context.Context, transaccion *models.Transaccion) error {
	return r.client.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := nextNumber(tx, transaccion.Tipo)
		if err != nil {
			return err
		}
		transaccion.Numero = formatNumero(transaccion.Tipo, n)
		return tx.Create(transaccion).Error
	})
}

func (r *repositoryImpl) FindByID(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Transaccion, error) {
	var transaccion models.Transaccion
	if err := scoped(r.client.DB().WithContext(ctx), scope).First(&transaccion, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transaccion, nil
}

func (r *repositoryImpl) List(ctx context.Context, scope visibility.Scope, params listTransaccionesParams) ([]models.Transaccion, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := scoped(r.client.DB().WithContext(ctx).Model(&models.Transaccion{}), scope)
	if params.Tipo != nil {
		query = query.Where("tipo = ?", *params.Tipo)
	}
	if params.Estado != nil {
		query = query.Where("estado = ?", *params.Estado)
	}
	if params.CategoriaID != nil {
		query = query.Where("categoria_id = ?", *params.CategoriaID)
	}
	if params.ActividadID != nil {
		query = query.Where("actividad_id = ?", *params.ActividadID)
	}
	if params.FechaDesde != nil {
		query = query.Where("fecha >= ?", *params.FechaDesde)
	}
	if params.FechaHasta != nil {
		query = query.Where("fecha <= ?", *params.FechaHasta)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Transaccion
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

// Update rewrites the mutable columns. Tipo and numero are assigned at create
// time and never change.
func (r *repositoryImpl) Update(ctx context.Context, scope visibility.Scope, transaccion *models.Transaccion) (int64, error) {
	result := scoped(r.client.DB().WithContext(ctx).Model(&models.Transaccion{}), scope).
		Where("id = ?", transaccion.ID).
		Select("*").Omit("id", "user_id", "tipo", "numero", "created_at").
		Updates(transaccion)
	return result.RowsAffected, result.Error
}

// Anular flips the row to anulada. The estado guard keeps a concurrent
// double-void from overwriting the original motivo.
func (r *repositoryImpl) Anular(ctx context.Context, scope visibility.Scope, id uuid.UUID, motivo string, at time.Time) (int64, error) {
	result := scoped(r.client.DB().WithContext(ctx).Model(&models.Transaccion{}), scope).
		Where("id = ? AND estado = ?", id, enums.TransactionStatusActiva).
		Updates(map[string]any{
			"estado":           enums.TransactionStatusAnulada,
			"motivo_anulacion": motivo,
			"anulada_at":       at,
		})
	return result.RowsAffected, result.Error
}
