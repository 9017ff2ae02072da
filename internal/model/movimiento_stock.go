package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MovimientoEntrada = "entrada"
	MovimientoSalida  = "salida"
	MovimientoAjuste  = "ajuste"

	AjusteDelta    = "delta"
	AjusteAbsoluto = "absoluto"
)

// MovimientoStock is an append-only record of one accepted stock change.
// StockAntes/StockDespues snapshot Producto.Stock around the change, so the
// movements of a product ordered by Fecha form a verifiable chain.
// Rows are never updated or deleted.
type MovimientoStock struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID uuid.UUID `gorm:"type:uuid;not null;index"`
	Tipo       string    `gorm:"not null;index"` // "entrada" | "salida" | "ajuste"
	Cantidad   int       `gorm:"not null"`
	// ModoAjuste is only set for tipo "ajuste".
	ModoAjuste    *string
	StockAntes    int    `gorm:"not null"`
	StockDelta    int    `gorm:"not null"`
	StockDespues  int    `gorm:"not null"`
	Motivo        string // conteo | rotura | merma | carga_inicial | otros
	Usuario       string `gorm:"not null"`
	Observaciones *string
	Fecha         time.Time `gorm:"not null;index"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }
