package actividades

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/enums"
	pkgerrors "github.com/casadefe/iglesia-backend/pkg/errors"
	"github.com/casadefe/iglesia-backend/pkg/pagination"
	"github.com/casadefe/iglesia-backend/pkg/visibility"
)

type stubRepo struct {
	actividades map[uuid.UUID]*models.Actividad
	txCounts    map[uuid.UUID]int64
	ingresos    map[uuid.UUID]decimal.Decimal
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		actividades: make(map[uuid.UUID]*models.Actividad),
		txCounts:    make(map[uuid.UUID]int64),
		ingresos:    make(map[uuid.UUID]decimal.Decimal),
	}
}

func (s *stubRepo) visible(scope visibility.Scope, a *models.Actividad) bool {
	return !scope.Restricted || a.UserID == scope.OwnerID
}

func (s *stubRepo) Create(ctx context.Context, actividad *models.Actividad) error {
	if actividad.ID == uuid.Nil {
		actividad.ID = uuid.New()
	}
	s.actividades[actividad.ID] = actividad
	return nil
}

func (s *stubRepo) FindByID(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Actividad, error) {
	actividad, ok := s.actividades[id]
	if !ok || !s.visible(scope, actividad) {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *actividad
	return &copied, nil
}

func (s *stubRepo) List(ctx context.Context, scope visibility.Scope, params listActividadesParams) ([]models.Actividad, *pagination.Cursor, error) {
	var rows []models.Actividad
	for _, actividad := range s.actividades {
		if s.visible(scope, actividad) {
			rows = append(rows, *actividad)
		}
	}
	return rows, nil, nil
}

func (s *stubRepo) Update(ctx context.Context, scope visibility.Scope, actividad *models.Actividad) (int64, error) {
	existing, ok := s.actividades[actividad.ID]
	if !ok || !s.visible(scope, existing) {
		return 0, nil
	}
	s.actividades[actividad.ID] = actividad
	return 1, nil
}

func (s *stubRepo) Delete(ctx context.Context, scope visibility.Scope, id uuid.UUID) (int64, error) {
	existing, ok := s.actividades[id]
	if !ok || !s.visible(scope, existing) {
		return 0, nil
	}
	delete(s.actividades, id)
	return 1, nil
}

func (s *stubRepo) CountTransacciones(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.txCounts[id], nil
}

func (s *stubRepo) SumIngresosActivos(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	if total, ok := s.ingresos[id]; ok {
		return total, nil
	}
	return decimal.Zero, nil
}

func buildService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func actor() visibility.Actor {
	return visibility.Actor{UserID: uuid.New(), Rol: enums.RolUsuario}
}

func TestCreateValidatesDatesAndMeta(t *testing.T) {
	svc := buildService(t, newStubRepo())
	a := actor()

	fin := "2024-01-01"
	_, err := svc.Create(context.Background(), a, CreateRequest{
		Nombre:      "Convivencia",
		Meta:        decimal.NewFromInt(500000),
		FechaInicio: "2024-02-01",
		FechaFin:    &fin,
	})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for fecha_fin before inicio, got %v", err)
	}

	_, err = svc.Create(context.Background(), a, CreateRequest{
		Nombre:      "Convivencia",
		Meta:        decimal.Zero,
		FechaInicio: "2024-02-01",
	})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for meta 0, got %v", err)
	}

	created, err := svc.Create(context.Background(), a, CreateRequest{
		Nombre:      "Convivencia",
		Meta:        decimal.NewFromInt(500000),
		FechaInicio: "2024-02-01",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Estado != enums.ActivityStatusPlaneada {
		t.Fatalf("expected default estado planeada, got %s", created.Estado)
	}
}

func TestProgresoCapsAtOneHundred(t *testing.T) {
	repo := newStubRepo()
	svc := buildService(t, repo)
	a := actor()

	created, err := svc.Create(context.Background(), a, CreateRequest{
		Nombre:      "Techo nuevo",
		Meta:        decimal.NewFromInt(100000),
		FechaInicio: "2024-01-01",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 40000 + 70000 in active income: recaudado reports the raw total but
	// the percentage caps at 100.
	repo.ingresos[created.ID] = decimal.NewFromInt(110000)

	progreso, err := svc.Progreso(context.Background(), a, created.ID)
	if err != nil {
		t.Fatalf("progreso: %v", err)
	}
	if !progreso.Recaudado.Equal(decimal.NewFromInt(110000)) {
		t.Fatalf("expected recaudado 110000, got %s", progreso.Recaudado)
	}
	if !progreso.Porcentaje.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected porcentaje capped at 100, got %s", progreso.Porcentaje)
	}
}

func TestProgresoPartial(t *testing.T) {
	repo := newStubRepo()
	svc := buildService(t, repo)
	a := actor()

	created, err := svc.Create(context.Background(), a, CreateRequest{
		Nombre:      "Misiones",
		Meta:        decimal.NewFromInt(200000),
		FechaInicio: "2024-01-01",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.ingresos[created.ID] = decimal.NewFromInt(50000)

	progreso, err := svc.Progreso(context.Background(), a, created.ID)
	if err != nil {
		t.Fatalf("progreso: %v", err)
	}
	if !progreso.Porcentaje.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected 25%%, got %s", progreso.Porcentaje)
	}
}

func TestDeleteGuardedByReferences(t *testing.T) {
	repo := newStubRepo()
	svc := buildService(t, repo)
	a := actor()

	created, err := svc.Create(context.Background(), a, CreateRequest{
		Nombre:      "Bazar",
		Meta:        decimal.NewFromInt(10000),
		FechaInicio: "2024-01-01",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.txCounts[created.ID] = 2

	err = svc.Delete(context.Background(), a, created.ID)
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	repo.txCounts[created.ID] = 0
	if err := svc.Delete(context.Background(), a, created.ID); err != nil {
		t.Fatalf("delete unreferenced: %v", err)
	}
}
