package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HistorialPrecio registra cada cambio de precio de un producto.
// Los registros son inmutables: nunca se eliminan ni modifican.
type HistorialPrecio struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	PrecioPorPieAntes   decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	PrecioPorPieDespues decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	ValorVentaAntes     decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	ValorVentaDespues   decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Usuario             string
	CreatedAt           time.Time

	Producto Producto `gorm:"foreignKey:ProductoID"`
}

func (HistorialPrecio) TableName() string { return "historial_precios" }
