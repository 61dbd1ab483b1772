package categorias

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/enums"
	"github.com/casadefe/iglesia-backend/pkg/visibility"
)

// Repository exposes persistence helpers for categorias.
type Repository interface {
	Create(ctx context.Context, categoria *models.Categoria) error
	FindByID(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Categoria, error)
	List(ctx context.Context, scope visibility.Scope, tipo *enums.TransactionType) ([]models.Categoria, error)
	Update(ctx context.Context, scope visibility.Scope, categoria *models.Categoria) (int64, error)
	Delete(ctx context.Context, scope visibility.Scope, id uuid.UUID) (int64, error)
	CountTransacciones(ctx context.Context, id uuid.UUID) (int64, error)
	ExistsByNombreTipo(ctx context.Context, nombre string, tipo enums.TransactionType, excludeID *uuid.UUID) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a categorias repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func scoped(query *gorm.DB, scope visibility.Scope) *gorm.DB {
	if scope.Restricted {
		return query.Where("user_id = ?", scope.OwnerID)
	}
	return query
}

func (r *repositoryImpl) Create(ctx context.Context, categoria *models.Categoria) error {
	return r.db.WithContext(ctx).Create(categoria).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Categoria, error) {
	var categoria models.Categoria
	if err := scoped(r.db.WithContext(ctx), scope).First(&categoria, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &categoria, nil
}

func (r *repositoryImpl) List(ctx context.Context, scope visibility.Scope, tipo *enums.TransactionType) ([]models.Categoria, error) {
	query := scoped(r.db.WithContext(ctx).Model(&models.Categoria{}), scope)
	if tipo != nil {
		query = query.Where("tipo = ?", *tipo)
	}
	var rows []models.Categoria
	if err := query.Order("nombre ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) Update(ctx context.Context, scope visibility.Scope, categoria *models.Categoria) (int64, error) {
	result := scoped(r.db.WithContext(ctx).Model(&models.Categoria{}), scope).
		Where("id = ?", categoria.ID).
		Select("*").Omit("id", "user_id", "created_at").
		Updates(categoria)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) Delete(ctx context.Context, scope visibility.Scope, id uuid.UUID) (int64, error) {
	result := scoped(r.db.WithContext(ctx), scope).Where("id = ?", id).Delete(&models.Categoria{})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) CountTransacciones(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Transaccion{}).
		Where("categoria_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) ExistsByNombreTipo(ctx context.Context, nombre string, tipo enums.TransactionType, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Categoria{}).
		Where("nombre = ? AND tipo = ?", nombre, tipo)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
