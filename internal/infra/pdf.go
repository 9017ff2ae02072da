package infra

// Presupuesto / remito PDF rendering using go-pdf/fpdf.
// A4 portrait with:
//   - Business name header and document number
//   - Client block
//   - Item table (name, quantity, unit price, discount, subtotal)
//   - Totals block: subtotal, discounts, cash discount, shipping, bold total
//
// Every amount is printed as stored; nothing is recomputed here.
// The output file is saved to storagePath/{tipo}_{numero}.pdf, with a
// _v{version} suffix once the document has been edited.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"maderera/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// DocumentoModelo is the renderer's input. Built once from a stored
// Documento; all numbers are final.
type DocumentoModelo struct {
	Empresa           string
	Tipo              string
	Numero            int
	Version           int
	Fecha             time.Time
	ClienteNombre     string
	Items             []DocumentoModeloItem
	Subtotal          decimal.Decimal
	DescuentoTotal    decimal.Decimal
	DescuentoEfectivo decimal.Decimal
	CostoEnvio        decimal.Decimal
	Total             decimal.Decimal
	Observaciones     string
}

type DocumentoModeloItem struct {
	Nombre    string
	Cantidad  decimal.Decimal
	Precio    decimal.Decimal
	Descuento decimal.Decimal
	Subtotal  decimal.Decimal
}

// NuevoDocumentoModelo projects a stored document onto the renderer input.
func NuevoDocumentoModelo(d *model.Documento, empresa string) DocumentoModelo {
	m := DocumentoModelo{
		Empresa:           empresa,
		Tipo:              d.Tipo,
		Numero:            d.Numero,
		Version:           d.Version,
		Fecha:             d.CreatedAt,
		ClienteNombre:     d.ClienteNombre,
		Subtotal:          d.Subtotal,
		DescuentoTotal:    d.DescuentoTotal,
		DescuentoEfectivo: d.DescuentoEfectivo,
		CostoEnvio:        d.CostoEnvio,
		Total:             d.Total,
	}
	if d.Observaciones != nil {
		m.Observaciones = *d.Observaciones
	}
	for _, it := range d.Items {
		m.Items = append(m.Items, DocumentoModeloItem{
			Nombre:    it.Nombre,
			Cantidad:  it.Cantidad,
			Precio:    it.Precio,
			Descuento: it.Descuento,
			Subtotal:  it.Subtotal,
		})
	}
	return m
}

// NombreArchivo is the file name a document is stored under.
func (m DocumentoModelo) NombreArchivo() string {
	if m.Version > 1 {
		return fmt.Sprintf("%s_%06d_v%d.pdf", m.Tipo, m.Numero, m.Version)
	}
	return fmt.Sprintf("%s_%06d.pdf", m.Tipo, m.Numero)
}

// Renderer draws DocumentoModelo values. It is not safe for concurrent use;
// RenderPool hands out one per goroutine.
type Renderer struct {
	tr       func(string) string
	lastUsed time.Time
}

func NewRenderer() *Renderer {
	// cp1252 translation so accents and "N°" survive the core fonts.
	tr := fpdf.New("P", "mm", "A4", "").UnicodeTranslatorFromDescriptor("")
	return &Renderer{tr: tr, lastUsed: time.Now()}
}

// GenerarDocumentoPDF renders m into storagePath with a one-off renderer.
// Returns the path to the generated file.
func GenerarDocumentoPDF(m DocumentoModelo, storagePath string) (string, error) {
	return NewRenderer().Render(m, storagePath)
}

func (r *Renderer) Render(m DocumentoModelo, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, m.NombreArchivo())

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW/2, 9, r.tr(m.Empresa), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 12)
	titulo := fmt.Sprintf("%s N° %06d", strings.ToUpper(m.Tipo), m.Numero)
	pdf.CellFormat(contentW/2, 9, r.tr(titulo), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, m.Fecha.Format("02/01/2006"), "", 1, "R", false, 0, "")
	pdf.Ln(3)

	// ── Client ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(20, 6, "Cliente:", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW-20, 6, r.tr(m.ClienteNombre), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// ── Items ────────────────────────────────────────────────────────────────
	colNombre := contentW * 0.46
	colCant := contentW * 0.10
	colPrecio := contentW * 0.16
	colDesc := contentW * 0.10
	colSub := contentW * 0.18

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(colNombre, 7, "Producto", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colCant, 7, "Cant", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colPrecio, 7, "Precio", "1", 0, "R", true, 0, "")
	pdf.CellFormat(colDesc, 7, "Desc %", "1", 0, "R", true, 0, "")
	pdf.CellFormat(colSub, 7, "Subtotal", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, it := range m.Items {
		nombre := it.Nombre
		if rs := []rune(nombre); len(rs) > 48 {
			nombre = string(rs[:47]) + "…"
		}
		pdf.CellFormat(colNombre, 6, r.tr(nombre), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colCant, 6, it.Cantidad.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colPrecio, 6, moneda(it.Precio), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colDesc, 6, it.Descuento.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colSub, 6, moneda(it.Subtotal), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// ── Totals ───────────────────────────────────────────────────────────────
	labelW := contentW - colSub
	fila := func(label string, v decimal.Decimal, negativo bool) {
		s := moneda(v)
		if negativo {
			s = "-" + s
		}
		pdf.CellFormat(labelW, 6, r.tr(label), "", 0, "R", false, 0, "")
		pdf.CellFormat(colSub, 6, s, "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 10)
	fila("Subtotal:", m.Subtotal, false)
	if !m.DescuentoTotal.IsZero() {
		fila("Descuentos:", m.DescuentoTotal, true)
	}
	if !m.DescuentoEfectivo.IsZero() {
		fila("Descuento pago en efectivo:", m.DescuentoEfectivo, true)
	}
	if !m.CostoEnvio.IsZero() {
		fila("Envío:", m.CostoEnvio, false)
	}
	pdf.SetFont("Helvetica", "B", 12)
	fila("TOTAL:", m.Total, false)

	if m.Observaciones != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(contentW, 5, r.tr(m.Observaciones), "", "L", false)
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

func moneda(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
