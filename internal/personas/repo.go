package personas

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/pagination"
	"github.com/casadefe/iglesia-backend/pkg/visibility"
)

// Repository exposes persistence helpers for personas.
type Repository interface {
	Create(ctx context.Context, persona *models.Persona) error
	FindByID(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Persona, error)
	ExistsByDocumento(ctx context.Context, numeroDocumento string, excludeID *uuid.UUID) (bool, error)
	List(ctx context.Context, scope visibility.Scope, params listPersonasParams) ([]models.Persona, *pagination.Cursor, error)
	ListConFechaNacimiento(ctx context.Context, scope visibility.Scope) ([]models.Persona, error)
	Update(ctx context.Context, scope visibility.Scope, persona *models.Persona) (int64, error)
	Delete(ctx context.Context, scope visibility.Scope, id uuid.UUID) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a personas repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listPersonasParams struct {
	Limit     int
	Cursor    *pagination.Cursor
	SedeID    *uuid.UUID
	Bautizado *bool
	Search    string
}

func scoped(query *gorm.DB, scope visibility.Scope) *gorm.DB {
	if scope.Restricted {
		return query.Where("user_id = ?", scope.OwnerID)
	}
	return query
}

func (r *repositoryImpl) Create(ctx context.Context, persona *models.Persona) error {
	return r.db.WithContext(ctx).Create(persona).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Persona, error) {
	var persona models.Persona
	query := scoped(r.db.WithContext(ctx), scope)
	if err := query.First(&persona, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &persona, nil
}

// ExistsByDocumento checks the whole table: document numbers are unique
// across owners, not per owner.
func (r *repositoryImpl) ExistsByDocumento(ctx context.Context, numeroDocumento string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Persona{}).Where("numero_documento = ?", numeroDocumento)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repositoryImpl) List(ctx context.Context, scope visibility.Scope, params listPersonasParams) ([]models.Persona, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := scoped(r.db.WithContext(ctx).Model(&models.Persona{}), scope)
	if params.SedeID != nil {
		query = query.Where("sede_id = ?", *params.SedeID)
	}
	if params.Bautizado != nil {
		query = query.Where("bautizado = ?", *params.Bautizado)
	}
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		query = query.Where("nombres ILIKE ? OR apellidos ILIKE ? OR numero_documento ILIKE ?", pattern, pattern, pattern)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Persona
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

func (r *repositoryImpl) ListConFechaNacimiento(ctx context.Context, scope visibility.Scope) ([]models.Persona, error) {
	var rows []models.Persona
	query := scoped(r.db.WithContext(ctx).Model(&models.Persona{}), scope).
		Where("fecha_nacimiento IS NOT NULL")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) Update(ctx context.Context, scope visibility.Scope, persona *models.Persona) (int64, error) {
	query := scoped(r.db.WithContext(ctx).Model(&models.Persona{}), scope).
		Where("id = ?", persona.ID)
	result := query.Select("*").Omit("id", "user_id", "created_at").Updates(persona)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) Delete(ctx context.Context, scope visibility.Scope, id uuid.UUID) (int64, error) {
	query := scoped(r.db.WithContext(ctx), scope)
	result := query.Where("id = ?", id).Delete(&models.Persona{})
	return result.RowsAffected, result.Error
}
