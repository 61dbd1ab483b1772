package reportes

import (
	"bytes"

	"github.com/go-pdf/fpdf"

	"github.com/casadefe/iglesia-backend/pkg/db/models"
	"github.com/casadefe/iglesia-backend/pkg/enums"
)

const orgName = "Casa de Fe"

func newDocument(title string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, orgName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, title, "", 1, "C", false, 0, "")
	pdf.Ln(4)
	return pdf
}

func renderPDF(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func labelValue(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(45, 7, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}

// buildReciboPDF renders a one-page receipt for a single movement.
func buildReciboPDF(t *models.Transaccion, categoria, persona string) ([]byte, error) {
	titulo := "Recibo de Ingreso"
	if t.Tipo == enums.TransactionTypeEgreso {
		titulo = "Comprobante de Egreso"
	}
	pdf := newDocument(titulo)

	labelValue(pdf, "Numero", t.Numero)
	labelValue(pdf, "Fecha", t.Fecha.Format(dateLayout))
	labelValue(pdf, "Categoria", categoria)
	if persona != "" {
		labelValue(pdf, "Persona", persona)
	}
	labelValue(pdf, "Descripcion", t.Descripcion)
	labelValue(pdf, "Monto", "$ "+t.Monto.StringFixed(2))

	if t.Estado == enums.TransactionStatusAnulada {
		pdf.Ln(6)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetFont("Helvetica", "B", 12)
		motivo := ""
		if t.MotivoAnulacion != nil {
			motivo = *t.MotivoAnulacion
		}
		pdf.CellFormat(0, 8, "ANULADA: "+motivo, "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	return renderPDF(pdf)
}

func tableHeader(pdf *fpdf.Fpdf, widths []float64, headers []string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
}

// buildTransaccionesPDF renders the filtered movement list as a table.
func buildTransaccionesPDF(rows []transaccionRow) ([]byte, error) {
	pdf := newDocument("Reporte de Transacciones")

	widths := []float64{22, 22, 18, 35, 58, 22, 13}
	tableHeader(pdf, widths, []string{"Numero", "Fecha", "Tipo", "Categoria", "Descripcion", "Monto", "Estado"})

	for _, row := range rows {
		cells := []string{row.Numero, row.Fecha, row.Tipo, row.Categoria, row.Descripcion, row.Monto, row.Estado}
		for i, cell := range cells {
			align := "L"
			if i == 5 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	return renderPDF(pdf)
}

// buildActividadesPDF renders the fundraising progress table.
func buildActividadesPDF(rows []ActividadProgresoDTO) ([]byte, error) {
	pdf := newDocument("Progreso de Actividades")

	widths := []float64{60, 25, 30, 30, 25}
	tableHeader(pdf, widths, []string{"Actividad", "Estado", "Meta", "Recaudado", "%"})

	for _, row := range rows {
		pdf.CellFormat(widths[0], 6, row.Nombre, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, row.Estado.String(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, row.Meta.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, row.Recaudado.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, row.Porcentaje.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	return renderPDF(pdf)
}
