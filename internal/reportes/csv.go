package reportes

import (
	"bytes"
	"encoding/csv"

	"github.com/google/uuid"

	"github.com/casadefe/iglesia-backend/pkg/db/models"
)

// transaccionRow is the flattened export shape shared by the CSV and PDF
// renderers.
type transaccionRow struct {
	Numero      string
	Fecha       string
	Tipo        string
	Categoria   string
	Descripcion string
	Monto       string
	Estado      string
}

func newTransaccionRow(t *models.Transaccion, categorias map[uuid.UUID]string) transaccionRow {
	return transaccionRow{
		Numero:      t.Numero,
		Fecha:       t.Fecha.Format(dateLayout),
		Tipo:        t.Tipo.String(),
		Categoria:   categorias[t.CategoriaID],
		Descripcion: t.Descripcion,
		Monto:       t.Monto.StringFixed(2),
		Estado:      t.Estado.String(),
	}
}

var csvHeader = []string{"numero", "fecha", "tipo", "categoria", "descripcion", "monto", "estado"}

func writeTransaccionesCSV(rows []transaccionRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{row.Numero, row.Fecha, row.Tipo, row.Categoria, row.Descripcion, row.Monto, row.Estado}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
