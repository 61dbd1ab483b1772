package sedes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casadefe/iglesia-backend/pkg/db/models"
)

// Repository exposes persistence helpers for sedes. Sedes are shared
// organization-wide, so no visibility scoping applies.
type Repository interface {
	Create(ctx context.Context, sede *models.Sede) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Sede, error)
	List(ctx context.Context) ([]models.Sede, error)
	Update(ctx context.Context, sede *models.Sede) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	CountReferences(ctx context.Context, id uuid.UUID) (personas int64, usuarios int64, err error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a sedes repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Create(ctx context.Context, sede *models.Sede) error {
	return r.db.WithContext(ctx).Create(sede).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Sede, error) {
	var sede models.Sede
	if err := r.db.WithContext(ctx).First(&sede, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sede, nil
}

func (r *repositoryImpl) List(ctx context.Context) ([]models.Sede, error) {
	var rows []models.Sede
	if err := r.db.WithContext(ctx).Order("nombre ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) Update(ctx context.Context, sede *models.Sede) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Sede{}).
		Where("id = ?", sede.ID).
		Select("*").Omit("id", "created_at").
		Updates(sede)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Sede{})
	return result.RowsAffected, result.Error
}

// CountReferences reports how many personas and usuarios still point at the
// sede. Deletion is blocked while either count is non-zero.
func (r *repositoryImpl) CountReferences(ctx context.Context, id uuid.UUID) (int64, int64, error) {
	var personas int64
	if err := r.db.WithContext(ctx).Model(&models.Persona{}).Where("sede_id = ?", id).Count(&personas).Error; err != nil {
		return 0, 0, err
	}
	var usuarios int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("sede_id = ?", id).Count(&usuarios).Error; err != nil {
		return 0, 0, err
	}
	return personas, usuarios, nil
}
