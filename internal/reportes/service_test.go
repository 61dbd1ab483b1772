package reportes

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/enums"
	pkgerrors "github.com/casadefe/iglesia-backend/pkg/errors"
	"github.com/casadefe/iglesia-backend/pkg/visibility"
)

type stubRepo struct {
	totales       Totales
	porCategoria  []CategoriaResumen
	porMes        []MesResumen
	transacciones []models.Transaccion
	actividades   []models.Actividad
	ingresos      map[uuid.UUID]decimal.Decimal
	categorias    map[uuid.UUID]string
	personas      map[uuid.UUID]string
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		ingresos:   make(map[uuid.UUID]decimal.Decimal),
		categorias: make(map[uuid.UUID]string),
		personas:   make(map[uuid.UUID]string),
	}
}

func (s *stubRepo) Totales(ctx context.Context, scope visibility.Scope, desde, hasta time.Time) (Totales, error) {
	return s.totales, nil
}

func (s *stubRepo) ResumenPorCategoria(ctx context.Context, scope visibility.Scope, desde, hasta time.Time) ([]CategoriaResumen, error) {
	return s.porCategoria, nil
}

func (s *stubRepo) ResumenPorMes(ctx context.Context, scope visibility.Scope, desde, hasta time.Time) ([]MesResumen, error) {
	return s.porMes, nil
}

func (s *stubRepo) ListTransacciones(ctx context.Context, scope visibility.Scope, filtro TransaccionFiltro) ([]models.Transaccion, error) {
	return s.transacciones, nil
}

func (s *stubRepo) FindTransaccion(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Transaccion, error) {
	for i := range s.transacciones {
		if s.transacciones[i].ID == id {
			return &s.transacciones[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) ListActividades(ctx context.Context, scope visibility.Scope) ([]models.Actividad, error) {
	return s.actividades, nil
}

func (s *stubRepo) SumIngresosActivos(ctx context.Context, actividadID uuid.UUID) (decimal.Decimal, error) {
	if total, ok := s.ingresos[actividadID]; ok {
		return total, nil
	}
	return decimal.Zero, nil
}

func (s *stubRepo) CategoriaNombres(ctx context.Context) (map[uuid.UUID]string, error) {
	return s.categorias, nil
}

func (s *stubRepo) PersonaNombre(ctx context.Context, id uuid.UUID) (string, error) {
	if nombre, ok := s.personas[id]; ok {
		return nombre, nil
	}
	return "", gorm.ErrRecordNotFound
}

func buildService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func admin() visibility.Actor {
	return visibility.Actor{UserID: uuid.New(), Rol: enums.RolAdmin}
}

func TestResumenFinancieroComputesBalance(t *testing.T) {
	repo := newStubRepo()
	repo.totales = Totales{
		Ingresos: decimal.NewFromInt(500000),
		Egresos:  decimal.NewFromInt(180000),
	}
	repo.porMes = []MesResumen{
		{Mes: "2024-01", Ingresos: decimal.NewFromInt(300000), Egresos: decimal.NewFromInt(100000)},
		{Mes: "2024-02", Ingresos: decimal.NewFromInt(200000), Egresos: decimal.NewFromInt(80000)},
	}
	svc := buildService(t, repo)

	resumen, err := svc.ResumenFinanciero(context.Background(), admin(), RangoParams{Desde: "2024-01-01", Hasta: "2024-02-29"})
	if err != nil {
		t.Fatalf("resumen: %v", err)
	}
	if !resumen.Balance.Equal(decimal.NewFromInt(320000)) {
		t.Fatalf("balance = %s, want 320000", resumen.Balance)
	}
	if len(resumen.PorMes) != 2 {
		t.Fatalf("expected 2 monthly rows, got %d", len(resumen.PorMes))
	}
	if !resumen.PorMes[0].Balance.Equal(decimal.NewFromInt(200000)) {
		t.Fatalf("enero balance = %s, want 200000", resumen.PorMes[0].Balance)
	}
}

func TestResumenFinancieroValidatesRango(t *testing.T) {
	svc := buildService(t, newStubRepo())

	_, err := svc.ResumenFinanciero(context.Background(), admin(), RangoParams{Desde: "2024-02-01", Hasta: "2024-01-01"})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for inverted range, got %v", err)
	}

	_, err = svc.ResumenFinanciero(context.Background(), admin(), RangoParams{Desde: "not-a-date", Hasta: "2024-01-01"})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for malformed desde, got %v", err)
	}
}

func TestProgresoActividadesCapsPorcentaje(t *testing.T) {
	repo := newStubRepo()
	actividad := models.Actividad{
		ID:     uuid.New(),
		Nombre: "Construccion templo",
		Meta:   decimal.NewFromInt(100000),
		Estado: enums.ActivityStatusEnCurso,
	}
	repo.actividades = []models.Actividad{actividad}
	repo.ingresos[actividad.ID] = decimal.NewFromInt(110000)
	svc := buildService(t, repo)

	rows, err := svc.ProgresoActividades(context.Background(), admin())
	if err != nil {
		t.Fatalf("progreso: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if !rows[0].Porcentaje.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("porcentaje = %s, want capped 100", rows[0].Porcentaje)
	}
	if !rows[0].Recaudado.Equal(decimal.NewFromInt(110000)) {
		t.Fatalf("recaudado = %s, want raw 110000", rows[0].Recaudado)
	}
}

func TestExportTransaccionesCSV(t *testing.T) {
	repo := newStubRepo()
	categoriaID := uuid.New()
	repo.categorias[categoriaID] = "Diezmos"
	repo.transacciones = []models.Transaccion{
		{
			ID:          uuid.New(),
			Tipo:        enums.TransactionTypeIngreso,
			Numero:      "ING001",
			Monto:       decimal.NewFromInt(50000),
			Fecha:       time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			CategoriaID: categoriaID,
			Descripcion: "Ofrenda dominical",
			Estado:      enums.TransactionStatusActiva,
		},
	}
	svc := buildService(t, repo)

	data, err := svc.ExportTransaccionesCSV(context.Background(), admin(), ExportParams{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d records", len(records))
	}
	row := records[1]
	if row[0] != "ING001" || row[3] != "Diezmos" || row[5] != "50000.00" {
		t.Fatalf("unexpected csv row: %v", row)
	}
}

func TestReciboPDFRendersDocument(t *testing.T) {
	repo := newStubRepo()
	categoriaID := uuid.New()
	personaID := uuid.New()
	repo.categorias[categoriaID] = "Diezmos"
	repo.personas[personaID] = "Maria Rodriguez"
	transaccion := models.Transaccion{
		ID:          uuid.New(),
		Tipo:        enums.TransactionTypeIngreso,
		Numero:      "ING001",
		Monto:       decimal.NewFromInt(50000),
		Fecha:       time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		CategoriaID: categoriaID,
		PersonaID:   &personaID,
		Descripcion: "Ofrenda dominical",
		Estado:      enums.TransactionStatusActiva,
	}
	repo.transacciones = []models.Transaccion{transaccion}
	svc := buildService(t, repo)

	data, err := svc.ReciboPDF(context.Background(), admin(), transaccion.ID)
	if err != nil {
		t.Fatalf("recibo: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("expected PDF output")
	}

	_, err = svc.ReciboPDF(context.Background(), admin(), uuid.New())
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown transaccion, got %v", err)
	}
}
