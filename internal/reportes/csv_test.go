package reportes

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/enums"
)

func TestWriteTransaccionesCSV(t *testing.T) {
	categoriaID := uuid.New()
	categorias := map[uuid.UUID]string{categoriaID: "Diezmos"}

	movimiento := &models.Transaccion{
		Tipo:        enums.TransactionTypeIngreso,
		Numero:      "ING042",
		Monto:       decimal.RequireFromString("150.50"),
		Fecha:       time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		CategoriaID: categoriaID,
		Descripcion: "Ofrenda, servicio dominical",
		Estado:      enums.TransactionStatusActiva,
	}

	data, err := writeTransaccionesCSV([]transaccionRow{newTransaccionRow(movimiento, categorias)})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"ING042", "2026-03-15", "ingreso", "Diezmos", "Ofrenda, servicio dominical", "150.50", "activa"}, records[1])
}

func TestWriteTransaccionesCSVEmpty(t *testing.T) {
	data, err := writeTransaccionesCSV(nil)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, csvHeader, records[0])
}

func TestBuildReciboPDFProducesDocument(t *testing.T) {
	motivo := "monto duplicado"
	anuladaAt := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	movimiento := &models.Transaccion{
		Tipo:            enums.TransactionTypeEgreso,
		Numero:          "EGR007",
		Monto:           decimal.RequireFromString("300.00"),
		Fecha:           time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
		Descripcion:     "Compra de sillas",
		Estado:          enums.TransactionStatusAnulada,
		MotivoAnulacion: &motivo,
		AnuladaAt:       &anuladaAt,
	}

	data, err := buildReciboPDF(movimiento, "Mobiliario", "Juan Perez")
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}
