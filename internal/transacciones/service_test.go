package transacciones

import (
	"context"
	"testing"
	"time"

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
	transacciones map[uuid.UUID]*models.Transaccion
	counters      map[enums.TransactionType]int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		transacciones: make(map[uuid.UUID]*models.Transaccion),
		counters:      make(map[enums.TransactionType]int64),
	}
}

func (s *stubRepo) visible(scope visibility.Scope, t *models.Transaccion) bool {
	return !scope.Restricted || t.UserID == scope.OwnerID
}

func (s *stubRepo) Create(ctx context.Context, transaccion *models.Transaccion) error {
	s.counters[transaccion.Tipo]++
	transaccion.Numero = formatNumero(transaccion.Tipo, s.counters[transaccion.Tipo])
	if transaccion.ID == uuid.Nil {
		transaccion.ID = uuid.New()
	}
	s.transacciones[transaccion.ID] = transaccion
	return nil
}

func (s *stubRepo) FindByID(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Transaccion, error) {
	transaccion, ok := s.transacciones[id]
	if !ok || !s.visible(scope, transaccion) {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *transaccion
	return &copied, nil
}

func (s *stubRepo) List(ctx context.Context, scope visibility.Scope, params listTransaccionesParams) ([]models.Transaccion, *pagination.Cursor, error) {
	var rows []models.Transaccion
	for _, transaccion := range s.transacciones {
		if !s.visible(scope, transaccion) {
			continue
		}
		if params.Tipo != nil && transaccion.Tipo != *params.Tipo {
			continue
		}
		if params.Estado != nil && transaccion.Estado != *params.Estado {
			continue
		}
		rows = append(rows, *transaccion)
	}
	return rows, nil, nil
}

func (s *stubRepo) Update(ctx context.Context, scope visibility.Scope, transaccion *models.Transaccion) (int64, error) {
	existing, ok := s.transacciones[transaccion.ID]
	if !ok || !s.visible(scope, existing) {
		return 0, nil
	}
	s.transacciones[transaccion.ID] = transaccion
	return 1, nil
}

func (s *stubRepo) Anular(ctx context.Context, scope visibility.Scope, id uuid.UUID, motivo string, at time.Time) (int64, error) {
	existing, ok := s.transacciones[id]
	if !ok || !s.visible(scope, existing) || existing.Estado != enums.TransactionStatusActiva {
		return 0, nil
	}
	existing.Estado = enums.TransactionStatusAnulada
	existing.MotivoAnulacion = &motivo
	existing.AnuladaAt = &at
	return 1, nil
}

type stubRefs struct {
	categorias  map[uuid.UUID]*models.Categoria
	actividades map[uuid.UUID]*models.Actividad
	personas    map[uuid.UUID]*models.Persona
}

func newStubRefs() *stubRefs {
	return &stubRefs{
		categorias:  make(map[uuid.UUID]*models.Categoria),
		actividades: make(map[uuid.UUID]*models.Actividad),
		personas:    make(map[uuid.UUID]*models.Persona),
	}
}

func (s *stubRefs) addCategoria(tipo enums.TransactionType) uuid.UUID {
	id := uuid.New()
	s.categorias[id] = &models.Categoria{ID: id, Nombre: "Diezmos", Tipo: tipo}
	return id
}

func (s *stubRefs) FindByID(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Categoria, error) {
	if categoria, ok := s.categorias[id]; ok {
		return categoria, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type actividadRefs stubRefs

func (s *actividadRefs) FindByID(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Actividad, error) {
	if actividad, ok := s.actividades[id]; ok {
		return actividad, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type personaRefs stubRefs

func (s *personaRefs) FindByID(ctx context.Context, scope visibility.Scope, id uuid.UUID) (*models.Persona, error) {
	if persona, ok := s.personas[id]; ok {
		return persona, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func buildService(t *testing.T, repo Repository, refs *stubRefs) Service {
	t.Helper()
	svc, err := NewService(repo, refs, (*actividadRefs)(refs), (*personaRefs)(refs))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func actor() visibility.Actor {
	return visibility.Actor{UserID: uuid.New(), Rol: enums.RolUsuario}
}

func createReq(tipo enums.TransactionType, categoriaID uuid.UUID) CreateRequest {
	return CreateRequest{
		Tipo:        tipo,
		Monto:       decimal.NewFromInt(50000),
		Fecha:       "2024-03-10",
		CategoriaID: categoriaID,
		Descripcion: "Ofrenda dominical",
	}
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	refs := newStubRefs()
	ingresos := refs.addCategoria(enums.TransactionTypeIngreso)
	egresos := refs.addCategoria(enums.TransactionTypeEgreso)
	svc := buildService(t, newStubRepo(), refs)
	a := actor()

	first, err := svc.Create(context.Background(), a, createReq(enums.TransactionTypeIngreso, ingresos))
	if err != nil {
		t.Fatalf("create first ingreso: %v", err)
	}
	if first.Numero != "ING001" {
		t.Fatalf("first ingreso numero = %q, want ING001", first.Numero)
	}

	second, err := svc.Create(context.Background(), a, createReq(enums.TransactionTypeIngreso, ingresos))
	if err != nil {
		t.Fatalf("create second ingreso: %v", err)
	}
	if second.Numero != "ING002" {
		t.Fatalf("second ingreso numero = %q, want ING002", second.Numero)
	}

	// Egresos run on their own counter.
	egreso, err := svc.Create(context.Background(), a, createReq(enums.TransactionTypeEgreso, egresos))
	if err != nil {
		t.Fatalf("create egreso: %v", err)
	}
	if egreso.Numero != "EGR001" {
		t.Fatalf("egreso numero = %q, want EGR001", egreso.Numero)
	}
}

func TestCreateRejectsInvalidMontoAndFecha(t *testing.T) {
	refs := newStubRefs()
	categoria := refs.addCategoria(enums.TransactionTypeIngreso)
	svc := buildService(t, newStubRepo(), refs)
	a := actor()

	req := createReq(enums.TransactionTypeIngreso, categoria)
	req.Monto = decimal.Zero
	if _, err := svc.Create(context.Background(), a, req); err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero monto, got %v", err)
	}

	req = createReq(enums.TransactionTypeIngreso, categoria)
	req.Monto = decimal.NewFromInt(-100)
	if _, err := svc.Create(context.Background(), a, req); err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for negative monto, got %v", err)
	}

	req = createReq(enums.TransactionTypeIngreso, categoria)
	req.Fecha = "10/03/2024"
	if _, err := svc.Create(context.Background(), a, req); err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for malformed fecha, got %v", err)
	}
}

func TestCreateRejectsCategoriaTipoMismatch(t *testing.T) {
	refs := newStubRefs()
	egresos := refs.addCategoria(enums.TransactionTypeEgreso)
	svc := buildService(t, newStubRepo(), refs)

	_, err := svc.Create(context.Background(), actor(), createReq(enums.TransactionTypeIngreso, egresos))
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for tipo mismatch, got %v", err)
	}
}

func TestCreateRejectsMissingReferences(t *testing.T) {
	refs := newStubRefs()
	categoria := refs.addCategoria(enums.TransactionTypeIngreso)
	svc := buildService(t, newStubRepo(), refs)
	a := actor()

	req := createReq(enums.TransactionTypeIngreso, uuid.New())
	if _, err := svc.Create(context.Background(), a, req); err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown categoria, got %v", err)
	}

	missingActividad := uuid.New()
	req = createReq(enums.TransactionTypeIngreso, categoria)
	req.ActividadID = &missingActividad
	if _, err := svc.Create(context.Background(), a, req); err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown actividad, got %v", err)
	}

	missingPersona := uuid.New()
	req = createReq(enums.TransactionTypeIngreso, categoria)
	req.PersonaID = &missingPersona
	if _, err := svc.Create(context.Background(), a, req); err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown persona, got %v", err)
	}
}

func TestAnularRequiresMotivoAndIsTerminal(t *testing.T) {
	refs := newStubRefs()
	categoria := refs.addCategoria(enums.TransactionTypeIngreso)
	svc := buildService(t, newStubRepo(), refs)
	a := actor()

	created, err := svc.Create(context.Background(), a, createReq(enums.TransactionTypeIngreso, categoria))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Anular(context.Background(), a, created.ID, AnularRequest{Motivo: "corto"})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for short motivo, got %v", err)
	}

	voided, err := svc.Anular(context.Background(), a, created.ID, AnularRequest{Motivo: "registro duplicado por error"})
	if err != nil {
		t.Fatalf("anular: %v", err)
	}
	if voided.Estado != enums.TransactionStatusAnulada {
		t.Fatalf("estado = %s, want anulada", voided.Estado)
	}
	if voided.MotivoAnulacion == nil || *voided.MotivoAnulacion != "registro duplicado por error" {
		t.Fatalf("motivo not recorded: %v", voided.MotivoAnulacion)
	}
	if voided.AnuladaAt == nil {
		t.Fatal("anulada_at not recorded")
	}

	_, err = svc.Anular(context.Background(), a, created.ID, AnularRequest{Motivo: "segundo intento de anulacion"})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for double void, got %v", err)
	}
}

func TestUpdateRejectsVoidedTransaccion(t *testing.T) {
	refs := newStubRefs()
	categoria := refs.addCategoria(enums.TransactionTypeIngreso)
	svc := buildService(t, newStubRepo(), refs)
	a := actor()

	created, err := svc.Create(context.Background(), a, createReq(enums.TransactionTypeIngreso, categoria))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Anular(context.Background(), a, created.ID, AnularRequest{Motivo: "monto capturado mal"}); err != nil {
		t.Fatalf("anular: %v", err)
	}

	nuevoMonto := decimal.NewFromInt(99000)
	_, err = svc.Update(context.Background(), a, created.ID, UpdateRequest{Monto: &nuevoMonto})
	if err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict updating voided transaccion, got %v", err)
	}
}

func TestVisibilityHidesOtherUsersMovements(t *testing.T) {
	refs := newStubRefs()
	categoria := refs.addCategoria(enums.TransactionTypeIngreso)
	svc := buildService(t, newStubRepo(), refs)

	owner := actor()
	created, err := svc.Create(context.Background(), owner, createReq(enums.TransactionTypeIngreso, categoria))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	other := actor()
	if _, err := svc.Get(context.Background(), other, created.ID); err == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for other usuario, got %v", err)
	}

	admin := visibility.Actor{UserID: uuid.New(), Rol: enums.RolAdmin}
	got, err := svc.Get(context.Background(), admin, created.ID)
	if err != nil {
		t.Fatalf("admin get: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("admin fetched wrong row: %s", got.ID)
	}

	list, err := svc.List(context.Background(), other, ListParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Items) != 0 {
		t.Fatalf("expected empty list for other usuario, got %d items", len(list.Items))
	}
}
