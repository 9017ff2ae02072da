package dto

import "github.com/shopspring/decimal"

// HistorialPrecioFilter is bound from the query string of
// GET /v1/productos/:id/historial-precios. Dates are inclusive days.
type HistorialPrecioFilter struct {
	Campo string `form:"campo" validate:"omitempty,oneof=precio_por_pie valor_venta"`
	Desde string `form:"desde" validate:"omitempty,datetime=2006-01-02"`
	Hasta string `form:"hasta" validate:"omitempty,datetime=2006-01-02"`
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// HistorialPrecioItem is one row in the price-history list. Variations are
// percentages, omitted when the previous value was zero.
type HistorialPrecioItem struct {
	ID                    string           `json:"id"`
	ProductoID            string           `json:"producto_id"`
	PrecioPorPieAntes     decimal.Decimal  `json:"precio_por_pie_antes"`
	PrecioPorPieDespues   decimal.Decimal  `json:"precio_por_pie_despues"`
	VariacionPrecioPorPie *decimal.Decimal `json:"variacion_precio_por_pie,omitempty"`
	ValorVentaAntes       decimal.Decimal  `json:"valor_venta_antes"`
	ValorVentaDespues     decimal.Decimal  `json:"valor_venta_despues"`
	VariacionValorVenta   *decimal.Decimal `json:"variacion_valor_venta,omitempty"`
	Usuario               string           `json:"usuario"`
	CreatedAt             string           `json:"created_at"`
}

// HistorialPrecioListResponse is returned by GET /v1/productos/:id/historial-precios.
type HistorialPrecioListResponse struct {
	Data  []HistorialPrecioItem `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
