package notificaciones

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/enums"
	pkgerrors "github.com/casadefe/iglesia-backend/pkg/errors"
	"github.com/casadefe/iglesia-backend/pkg/pagination"
)

// Service defines notificacion list/read operations plus the entry points the
// cron jobs use to create and prune notices.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, userID, notificacionID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	NotificarCumpleanos(ctx context.Context, req CumpleanosNotice) (bool, error)
	PurgeLeidas(ctx context.Context, olderThan time.Time) (int64, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// ListParams configures pagination for notificaciones.
type ListParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notificaciones and the cursor for the next page.
type ListResult struct {
	Items  []models.Notificacion `json:"items"`
	Cursor string                `json:"cursor"`
}

// CumpleanosNotice describes a birthday notification for one persona.
type CumpleanosNotice struct {
	UserID    uuid.UUID
	PersonaID uuid.UUID
	Nombre    string
	Dias      int
}

// NewService wires notificacion dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notificaciones repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listNotificacionesParams{
		UserID:     params.UserID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notificaciones")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificacionID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificacionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notificacion id required")
	}

	result, err := s.repo.MarkRead(ctx, userID, notificacionID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notificacion read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notificacion not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.MarkAllRead(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notificaciones read")
	}
	return count, nil
}

// NotificarCumpleanos creates a birthday notice unless one was already
// delivered today for the same persona. It reports whether a row was created.
func (s *service) NotificarCumpleanos(ctx context.Context, req CumpleanosNotice) (bool, error) {
	if req.UserID == uuid.Nil || req.PersonaID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "user id and persona id required")
	}

	now := s.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	exists, err := s.repo.ExistsCumpleanosSince(ctx, req.UserID, req.PersonaID, startOfDay)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check cumpleanos notice")
	}
	if exists {
		return false, nil
	}

	titulo := "Cumpleanos proximo"
	mensaje := fmt.Sprintf("%s cumple anos en %d dias", req.Nombre, req.Dias)
	if req.Dias == 0 {
		titulo = "Cumpleanos hoy"
		mensaje = fmt.Sprintf("Hoy es el cumpleanos de %s", req.Nombre)
	}

	personaID := req.PersonaID
	notificacion := &models.Notificacion{
		UserID:    req.UserID,
		Tipo:      enums.NotificationTypeCumpleanos,
		Titulo:    titulo,
		Mensaje:   mensaje,
		PersonaID: &personaID,
	}
	if err := s.repo.Create(ctx, notificacion); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notificacion")
	}
	return true, nil
}

// PurgeLeidas deletes read notifications older than the cutoff.
func (s *service) PurgeLeidas(ctx context.Context, olderThan time.Time) (int64, error) {
	count, err := s.repo.DeleteReadOlderThan(ctx, olderThan)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge notificaciones")
	}
	return count, nil
}
