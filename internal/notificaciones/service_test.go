package notificaciones

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/enums"
	pkgerrors "github.com/casadefe/iglesia-backend/pkg/errors"
	"github.com/casadefe/iglesia-backend/pkg/pagination"
)

type stubRepo struct {
	notificaciones map[uuid.UUID]*models.Notificacion
}

func newStubRepo() *stubRepo {
	return &stubRepo{notificaciones: make(map[uuid.UUID]*models.Notificacion)}
}

func (s *stubRepo) Create(ctx context.Context, notificacion *models.Notificacion) error {
	if notificacion.ID == uuid.Nil {
		notificacion.ID = uuid.New()
	}
	if notificacion.CreatedAt.IsZero() {
		notificacion.CreatedAt = time.Now().UTC()
	}
	s.notificaciones[notificacion.ID] = notificacion
	return nil
}

func (s *stubRepo) List(ctx context.Context, params listNotificacionesParams) ([]models.Notificacion, *pagination.Cursor, error) {
	var rows []models.Notificacion
	for _, n := range s.notificaciones {
		if n.UserID != params.UserID {
			continue
		}
		if params.UnreadOnly && n.ReadAt != nil {
			continue
		}
		rows = append(rows, *n)
	}
	return rows, nil, nil
}

func (s *stubRepo) MarkRead(ctx context.Context, userID, notificacionID uuid.UUID, now time.Time) (markResult, error) {
	n, ok := s.notificaciones[notificacionID]
	if !ok || n.UserID != userID {
		return markResult{}, nil
	}
	if n.ReadAt != nil {
		return markResult{Found: true}, nil
	}
	n.ReadAt = &now
	return markResult{Found: true, Updated: true}, nil
}

func (s *stubRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	for _, n := range s.notificaciones {
		if n.UserID == userID && n.ReadAt == nil {
			n.ReadAt = &now
			count++
		}
	}
	return count, nil
}

func (s *stubRepo) ExistsCumpleanosSince(ctx context.Context, userID, personaID uuid.UUID, since time.Time) (bool, error) {
	for _, n := range s.notificaciones {
		if n.UserID == userID && n.PersonaID != nil && *n.PersonaID == personaID &&
			n.Tipo == enums.NotificationTypeCumpleanos && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepo) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	for id, n := range s.notificaciones {
		if n.ReadAt != nil && n.ReadAt.Before(cutoff) {
			delete(s.notificaciones, id)
			count++
		}
	}
	return count, nil
}

func buildService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNotificarCumpleanosIsIdempotentPerDay(t *testing.T) {
	repo := newStubRepo()
	svc := buildService(t, repo)
	notice := CumpleanosNotice{
		UserID:    uuid.New(),
		PersonaID: uuid.New(),
		Nombre:    "Maria Rodriguez",
		Dias:      3,
	}

	created, err := svc.NotificarCumpleanos(context.Background(), notice)
	if err != nil {
		t.Fatalf("notificar: %v", err)
	}
	if !created {
		t.Fatal("expected first notice to be created")
	}

	created, err = svc.NotificarCumpleanos(context.Background(), notice)
	if err != nil {
		t.Fatalf("notificar again: %v", err)
	}
	if created {
		t.Fatal("expected second notice for same persona to be skipped")
	}
	if len(repo.notificaciones) != 1 {
		t.Fatalf("expected 1 stored notice, got %d", len(repo.notificaciones))
	}
}

func TestMarkReadScopedToOwner(t *testing.T) {
	repo := newStubRepo()
	svc := buildService(t, repo)
	owner := uuid.New()

	n := &models.Notificacion{UserID: owner, Tipo: enums.NotificationTypeSistema, Titulo: "t", Mensaje: "m"}
	if err := repo.Create(context.Background(), n); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := svc.MarkRead(context.Background(), uuid.New(), n.ID)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for other user, got %v", err)
	}

	if err := svc.MarkRead(context.Background(), owner, n.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if n.ReadAt == nil {
		t.Fatal("read_at not set")
	}

	// Marking twice is a no-op, not an error.
	if err := svc.MarkRead(context.Background(), owner, n.ID); err != nil {
		t.Fatalf("mark read twice: %v", err)
	}
}

func TestListUnreadOnly(t *testing.T) {
	repo := newStubRepo()
	svc := buildService(t, repo)
	owner := uuid.New()

	read := time.Now().UTC()
	seed := []*models.Notificacion{
		{UserID: owner, Tipo: enums.NotificationTypeSistema, Titulo: "a", Mensaje: "m"},
		{UserID: owner, Tipo: enums.NotificationTypeSistema, Titulo: "b", Mensaje: "m", ReadAt: &read},
		{UserID: uuid.New(), Tipo: enums.NotificationTypeSistema, Titulo: "c", Mensaje: "m"},
	}
	for _, n := range seed {
		if err := repo.Create(context.Background(), n); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	result, err := svc.List(context.Background(), ListParams{UserID: owner, UnreadOnly: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].Titulo != "a" {
		t.Fatalf("expected only the unread owned notice, got %d items", len(result.Items))
	}
}

func TestPurgeLeidasDeletesOnlyOldRead(t *testing.T) {
	repo := newStubRepo()
	svc := buildService(t, repo)
	owner := uuid.New()

	old := time.Now().UTC().Add(-40 * 24 * time.Hour)
	recent := time.Now().UTC().Add(-time.Hour)
	seed := []*models.Notificacion{
		{UserID: owner, Tipo: enums.NotificationTypeSistema, Titulo: "old-read", Mensaje: "m", ReadAt: &old},
		{UserID: owner, Tipo: enums.NotificationTypeSistema, Titulo: "recent-read", Mensaje: "m", ReadAt: &recent},
		{UserID: owner, Tipo: enums.NotificationTypeSistema, Titulo: "unread", Mensaje: "m"},
	}
	for _, n := range seed {
		if err := repo.Create(context.Background(), n); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	count, err := svc.PurgeLeidas(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if count != 1 {
		t.Fatalf("purged %d, want 1", count)
	}
	if len(repo.notificaciones) != 2 {
		t.Fatalf("expected 2 remaining, got %d", len(repo.notificaciones))
	}
}
