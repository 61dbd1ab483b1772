package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/casadefe/iglesia-backend/internal/actividades"
	"github.com/casadefe/iglesia-backend/internal/auth"
	"github.com/casadefe/iglesia-backend/internal/categorias"
	"github.com/casadefe/iglesia-backend/internal/notificaciones"
	"github.com/casadefe/iglesia-backend/internal/personas"
	"github.com/casadefe/iglesia-backend/internal/reportes"
	"github.com/casadefe/iglesia-backend/internal/sedes"
	"github.com/casadefe/iglesia-backend/internal/transacciones"
	"github.com/casadefe/iglesia-backend/internal/usuarios"
	pkgAuth "github.com/casadefe/iglesia-backend/pkg/auth"
	"github.com/casadefe/iglesia-backend/pkg/auth/session"
	"github.com/casadefe/iglesia-backend/pkg/config"
	"github.com/casadefe/iglesia-backend/pkg/enums"
	pkgerrors "github.com/casadefe/iglesia-backend/pkg/errors"
	"github.com/casadefe/iglesia-backend/pkg/visibility"
)

type stubSessionManager struct{}

func (stubSessionManager) HasSession(context.Context, string) (bool, error) { return true, nil }
func (stubSessionManager) Rotate(context.Context, string, string) (string, string, error) {
	return "", "", nil
}
func (stubSessionManager) Revoke(context.Context, string) error { return nil }

type stubAuthService struct{}

func (stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}
func (stubAuthService) Refresh(context.Context, auth.RefreshRequest) (*auth.RefreshResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
}
func (stubAuthService) Logout(context.Context, string) error { return nil }

type stubPersonasService struct{}

func (stubPersonasService) Create(context.Context, visibility.Actor, personas.CreateRequest) (*personas.PersonaDTO, error) {
	return &personas.PersonaDTO{}, nil
}
func (stubPersonasService) Get(context.Context, visibility.Actor, uuid.UUID) (*personas.PersonaDTO, error) {
	return &personas.PersonaDTO{}, nil
}
func (stubPersonasService) List(context.Context, visibility.Actor, personas.ListParams) (*personas.ListResult, error) {
	return &personas.ListResult{}, nil
}
func (stubPersonasService) Update(context.Context, visibility.Actor, uuid.UUID, personas.UpdateRequest) (*personas.PersonaDTO, error) {
	return &personas.PersonaDTO{}, nil
}
func (stubPersonasService) Delete(context.Context, visibility.Actor, uuid.UUID) error { return nil }
func (stubPersonasService) Cumpleaneros(context.Context, visibility.Actor, time.Time) ([]personas.CumpleaneroDTO, error) {
	return nil, nil
}

type stubActividadesService struct{}

func (stubActividadesService) Create(context.Context, visibility.Actor, actividades.CreateRequest) (*actividades.ActividadDTO, error) {
	return &actividades.ActividadDTO{}, nil
}
func (stubActividadesService) Get(context.Context, visibility.Actor, uuid.UUID) (*actividades.ActividadDTO, error) {
	return &actividades.ActividadDTO{}, nil
}
func (stubActividadesService) List(context.Context, visibility.Actor, actividades.ListParams) (*actividades.ListResult, error) {
	return &actividades.ListResult{}, nil
}
func (stubActividadesService) Update(context.Context, visibility.Actor, uuid.UUID, actividades.UpdateRequest) (*actividades.ActividadDTO, error) {
	return &actividades.ActividadDTO{}, nil
}
func (stubActividadesService) Delete(context.Context, visibility.Actor, uuid.UUID) error { return nil }
func (stubActividadesService) Progreso(context.Context, visibility.Actor, uuid.UUID) (*actividades.ProgresoDTO, error) {
	return &actividades.ProgresoDTO{}, nil
}

type stubCategoriasService struct{}

func (stubCategoriasService) Create(context.Context, visibility.Actor, categorias.CreateRequest) (*categorias.CategoriaDTO, error) {
	return &categorias.CategoriaDTO{}, nil
}
func (stubCategoriasService) Get(context.Context, visibility.Actor, uuid.UUID) (*categorias.CategoriaDTO, error) {
	return &categorias.CategoriaDTO{}, nil
}
func (stubCategoriasService) List(context.Context, visibility.Actor, *enums.TransactionType) ([]categorias.CategoriaDTO, error) {
	return nil, nil
}
func (stubCategoriasService) Update(context.Context, visibility.Actor, uuid.UUID, categorias.UpdateRequest) (*categorias.CategoriaDTO, error) {
	return &categorias.CategoriaDTO{}, nil
}
func (stubCategoriasService) Delete(context.Context, visibility.Actor, uuid.UUID) error { return nil }

type stubTransaccionesService struct{}

func (stubTransaccionesService) Create(context.Context, visibility.Actor, transacciones.CreateRequest) (*transacciones.TransaccionDTO, error) {
	return &transacciones.TransaccionDTO{}, nil
}
func (stubTransaccionesService) Get(context.Context, visibility.Actor, uuid.UUID) (*transacciones.TransaccionDTO, error) {
	return &transacciones.TransaccionDTO{}, nil
}
func (stubTransaccionesService) List(context.Context, visibility.Actor, transacciones.ListParams) (*transacciones.ListResult, error) {
	return &transacciones.ListResult{}, nil
}
func (stubTransaccionesService) Update(context.Context, visibility.Actor, uuid.UUID, transacciones.UpdateRequest) (*transacciones.TransaccionDTO, error) {
	return &transacciones.TransaccionDTO{}, nil
}
func (stubTransaccionesService) Anular(context.Context, visibility.Actor, uuid.UUID, transacciones.AnularRequest) (*transacciones.TransaccionDTO, error) {
	return &transacciones.TransaccionDTO{}, nil
}

type stubSedesService struct{}

func (stubSedesService) Create(context.Context, visibility.Actor, sedes.CreateRequest) (*sedes.SedeDTO, error) {
	return &sedes.SedeDTO{}, nil
}
func (stubSedesService) Get(context.Context, uuid.UUID) (*sedes.SedeDTO, error) {
	return &sedes.SedeDTO{}, nil
}
func (stubSedesService) List(context.Context) ([]sedes.SedeDTO, error) { return nil, nil }
func (stubSedesService) Update(context.Context, visibility.Actor, uuid.UUID, sedes.UpdateRequest) (*sedes.SedeDTO, error) {
	return &sedes.SedeDTO{}, nil
}
func (stubSedesService) Delete(context.Context, visibility.Actor, uuid.UUID) error { return nil }

type stubUsuariosService struct{}

func (stubUsuariosService) Create(context.Context, usuarios.CreateRequest) (*usuarios.CreateResult, error) {
	return &usuarios.CreateResult{}, nil
}
func (stubUsuariosService) Get(context.Context, uuid.UUID) (*usuarios.UserDTO, error) {
	return &usuarios.UserDTO{}, nil
}
func (stubUsuariosService) List(context.Context, usuarios.ListParams) (*usuarios.ListResult, error) {
	return &usuarios.ListResult{}, nil
}
func (stubUsuariosService) Update(context.Context, uuid.UUID, usuarios.UpdateRequest) (*usuarios.UserDTO, error) {
	return &usuarios.UserDTO{}, nil
}
func (stubUsuariosService) Delete(context.Context, uuid.UUID) error { return nil }
func (stubUsuariosService) ChangePassword(context.Context, uuid.UUID, usuarios.ChangePasswordRequest) error {
	return nil
}

type stubNotificacionesService struct{}

func (stubNotificacionesService) List(context.Context, notificaciones.ListParams) (*notificaciones.ListResult, error) {
	return &notificaciones.ListResult{}, nil
}
func (stubNotificacionesService) MarkRead(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (stubNotificacionesService) MarkAllRead(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}
func (stubNotificacionesService) NotificarCumpleanos(context.Context, notificaciones.CumpleanosNotice) (bool, error) {
	return false, nil
}
func (stubNotificacionesService) PurgeLeidas(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type stubReportesService struct{}

func (stubReportesService) ResumenFinanciero(context.Context, visibility.Actor, reportes.RangoParams) (*reportes.ResumenDTO, error) {
	return &reportes.ResumenDTO{}, nil
}
func (stubReportesService) ProgresoActividades(context.Context, visibility.Actor) ([]reportes.ActividadProgresoDTO, error) {
	return nil, nil
}
func (stubReportesService) ExportTransaccionesCSV(context.Context, visibility.Actor, reportes.ExportParams) ([]byte, error) {
	return []byte("numero\n"), nil
}
func (stubReportesService) ReciboPDF(context.Context, visibility.Actor, uuid.UUID) ([]byte, error) {
	return []byte("%PDF"), nil
}
func (stubReportesService) TransaccionesPDF(context.Context, visibility.Actor, reportes.ExportParams) ([]byte, error) {
	return []byte("%PDF"), nil
}
func (stubReportesService) ActividadesPDF(context.Context, visibility.Actor) ([]byte, error) {
	return []byte("%PDF"), nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", Port: "8080"},
		JWT: config.JWTConfig{Secret: "router-test-secret", Issuer: "iglesia", ExpirationMinutes: 30},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(
		testConfig(),
		nil,
		nil,
		nil,
		stubSessionManager{},
		stubAuthService{},
		stubPersonasService{},
		stubActividadesService{},
		stubCategoriasService{},
		stubTransaccionesService{},
		stubSedesService{},
		stubUsuariosService{},
		stubNotificacionesService{},
		stubReportesService{},
	)
}

func mintToken(t *testing.T, rol enums.Rol) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Rol:    rol,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/personas", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestUsuariosRequiresAdminRole(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/usuarios", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RolContador))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/usuarios", nil)
	admin.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RolAdmin))
	adminRec := httptest.NewRecorder()
	router.ServeHTTP(adminRec, admin)

	if adminRec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", adminRec.Code)
	}
}

func TestSedesReadableByAnyRole(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sedes", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RolUsuario))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", payload.Error.Code)
	}
}

func TestReportesExportReturnsAttachment(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reportes/transacciones/export?formato=csv", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RolAdmin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected csv content type, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("expected attachment disposition, got %q", cd)
	}
}
