package model

import (
	"time"

	"maderera/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a sellable and stockable item. Categoria "Maderas" enables
// dimension-aware pricing; Subcategoria machimbre/deck enables pack pricing.
// Stock is only ever written by the stock ledger.
type Producto struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre       string    `gorm:"index;not null"`
	Categoria    string    `gorm:"index;not null"`
	Subcategoria string    `gorm:"index"`
	// UnidadMedida: "M2" | "ML" | "Unidad" | "" (volumetric)
	UnidadMedida string
	Alto         decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	Ancho        decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	Largo        decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	PrecioPorPie decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	ValorVenta   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Stock        int             `gorm:"not null;default:0;check:chk_productos_stock,stock >= 0"`
	// StockMinimo is the reorder threshold; informational only.
	StockMinimo int  `gorm:"not null;default:0"`
	Activo      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Producto) TableName() string { return "productos" }

// Pricing projects the product onto the pricing engine's input.
func (p *Producto) Pricing() pricing.Producto {
	return pricing.Producto{
		Nombre:       p.Nombre,
		Categoria:    p.Categoria,
		Subcategoria: p.Subcategoria,
		UnidadMedida: p.UnidadMedida,
		Alto:         p.Alto,
		Ancho:        p.Ancho,
		Largo:        p.Largo,
		PrecioPorPie: p.PrecioPorPie,
		ValorVenta:   p.ValorVenta,
	}
}
