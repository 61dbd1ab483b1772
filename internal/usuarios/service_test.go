package usuarios

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casadefe/iglesia-backend/pkg/config"
	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/enums"
	pkgerrors "github.com/casadefe/iglesia-backend/pkg/errors"
	"github.com/casadefe/iglesia-backend/pkg/pagination"
	"github.com/casadefe/iglesia-backend/pkg/security"
)

type stubRepo struct {
	users       map[uuid.UUID]*models.User
	adminCount  int64
	createErr   error
	deletedRows int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: make(map[uuid.UUID]*models.User), deletedRows: 1}
}

func (s *stubRepo) Create(ctx context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.users[user.ID] = user
	return nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) List(ctx context.Context, params listUsersParams) ([]models.User, *pagination.Cursor, error) {
	var rows []models.User
	for _, user := range s.users {
		rows = append(rows, *user)
	}
	return rows, nil, nil
}

func (s *stubRepo) Update(ctx context.Context, user *models.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *stubRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

func (s *stubRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	if user, ok := s.users[id]; ok {
		user.PasswordHash = hash
	}
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, ok := s.users[id]; !ok {
		return 0, nil
	}
	delete(s.users, id)
	return s.deletedRows, nil
}

func (s *stubRepo) CountActiveAdmins(ctx context.Context) (int64, error) {
	return s.adminCount, nil
}

func buildService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateGeneratesTempPassword(t *testing.T) {
	repo := newStubRepo()
	svc := buildService(t, repo)

	result, err := svc.Create(context.Background(), CreateRequest{
		Email:  "Tesorera@Iglesia.org",
		Nombre: "Marta",
		Rol:    enums.RolContador,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.TempPassword == "" {
		t.Fatal("expected generated temp password")
	}
	if result.User.Email != "tesorera@iglesia.org" {
		t.Fatalf("expected lowercased email, got %s", result.User.Email)
	}

	stored := repo.users[result.User.ID]
	ok, err := security.VerifyPassword(result.TempPassword, stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("temp password must verify against stored hash (ok=%v err=%v)", ok, err)
	}
}

func TestCreateRejectsInvalidRol(t *testing.T) {
	svc := buildService(t, newStubRepo())

	_, err := svc.Create(context.Background(), CreateRequest{
		Email:  "x@y.org",
		Nombre: "X",
		Rol:    "superuser",
	})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateBlocksLastAdminDemotion(t *testing.T) {
	repo := newStubRepo()
	repo.adminCount = 1
	admin := &models.User{ID: uuid.New(), Email: "admin@iglesia.org", Nombre: "Admin", Rol: enums.RolAdmin, IsActive: true}
	repo.users[admin.ID] = admin
	svc := buildService(t, repo)

	demoted := enums.RolUsuario
	_, err := svc.Update(context.Background(), admin.ID, UpdateRequest{Rol: &demoted})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	repo.adminCount = 2
	updated, err := svc.Update(context.Background(), admin.ID, UpdateRequest{Rol: &demoted})
	if err != nil {
		t.Fatalf("update with second admin present: %v", err)
	}
	if updated.Rol != enums.RolUsuario {
		t.Fatalf("expected rol usuario, got %s", updated.Rol)
	}
}

func TestDeleteBlocksLastActiveAdmin(t *testing.T) {
	repo := newStubRepo()
	repo.adminCount = 1
	admin := &models.User{ID: uuid.New(), Email: "admin@iglesia.org", Nombre: "Admin", Rol: enums.RolAdmin, IsActive: true}
	repo.users[admin.ID] = admin
	svc := buildService(t, repo)

	err := svc.Delete(context.Background(), admin.ID)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestDeleteMissingUserIsNotFound(t *testing.T) {
	svc := buildService(t, newStubRepo())

	err := svc.Delete(context.Background(), uuid.New())
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	repo := newStubRepo()
	hash, err := security.HashPassword("old-password", config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &models.User{ID: uuid.New(), Email: "u@iglesia.org", Nombre: "U", Rol: enums.RolUsuario, IsActive: true, PasswordHash: hash}
	repo.users[user.ID] = user
	svc := buildService(t, repo)

	err = svc.ChangePassword(context.Background(), user.ID, ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "new-password-1",
	})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	if err := svc.ChangePassword(context.Background(), user.ID, ChangePasswordRequest{
		CurrentPassword: "old-password",
		NewPassword:     "new-password-1",
	}); err != nil {
		t.Fatalf("change password: %v", err)
	}

	ok, err := security.VerifyPassword("new-password-1", repo.users[user.ID].PasswordHash)
	if err != nil || !ok {
		t.Fatalf("new password must verify (ok=%v err=%v)", ok, err)
	}
}
