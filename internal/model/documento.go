package model

import (
	"time"

	"maderera/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DocumentoPresupuesto = "presupuesto"
	DocumentoRemito      = "remito"
)

// Documento is a quotation (presupuesto) or delivery note (remito).
// All amounts are final: computed by the pricing engine at the last edit and
// handed to the renderer as-is.
type Documento struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Tipo           string    `gorm:"not null;uniqueIndex:idx_documentos_tipo_numero"`
	Numero         int       `gorm:"not null;uniqueIndex:idx_documentos_tipo_numero"`
	ClienteNombre  string    `gorm:"not null"`
	ClienteEmail   *string
	PagoEnEfectivo bool `gorm:"not null;default:false"`
	// Version starts at 1 and increases on every edit. Render jobs carry the
	// version they were queued for.
	Version int `gorm:"not null;default:1"`

	Subtotal          decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	DescuentoTotal    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	DescuentoEfectivo decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CostoEnvio        decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Total             decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	Observaciones *string
	// PDFPath is relative to PDF_STORAGE_PATH; set by the render worker.
	PDFPath   *string `gorm:"column:pdf_path"`
	Usuario   string
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []DocumentoItem `gorm:"foreignKey:DocumentoID;constraint:OnDelete:CASCADE"`
}

func (Documento) TableName() string { return "documentos" }

// DocumentoItem keeps the source attributes of a line next to its derived
// Precio/Subtotal so the line can be re-priced on every edit.
type DocumentoItem struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentoID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductoID        *uuid.UUID `gorm:"type:uuid;index"`
	Orden             int        `gorm:"not null"`
	Nombre            string     `gorm:"not null"`
	Categoria         string
	Subcategoria      string
	UnidadMedida      string
	Alto              decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	Ancho             decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	Largo             decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	PrecioPorPie      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Cantidad          decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	Descuento         decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	CepilladoAplicado bool            `gorm:"not null;default:false"`
	Precio            decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(14,2);not null"`
}

func (DocumentoItem) TableName() string { return "documento_items" }

// Linea projects the item onto the totals calculator's input.
func (i *DocumentoItem) Linea() pricing.Linea {
	return pricing.Linea{
		Nombre:       i.Nombre,
		Categoria:    i.Categoria,
		Subcategoria: i.Subcategoria,
		Precio:       i.Precio,
		Cantidad:     i.Cantidad,
		Descuento:    i.Descuento,
	}
}
