package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Nombre       string          `json:"nombre"        validate:"required,min=2,max=120"`
	Categoria    string          `json:"categoria"     validate:"required"`
	Subcategoria string          `json:"subcategoria"`
	UnidadMedida string          `json:"unidad_medida" validate:"omitempty,oneof=M2 ML Unidad m2 ml unidad"`
	Alto         decimal.Decimal `json:"alto"          validate:"min=0"`
	Ancho        decimal.Decimal `json:"ancho"         validate:"min=0"`
	Largo        decimal.Decimal `json:"largo"         validate:"min=0"`
	PrecioPorPie decimal.Decimal `json:"precio_por_pie" validate:"min=0"`
	ValorVenta   decimal.Decimal `json:"valor_venta"   validate:"min=0"`
	// StockInicial is booked through the ledger as an "ajuste" with motivo carga_inicial.
	StockInicial int `json:"stock_inicial" validate:"min=0"`
	StockMinimo  int `json:"stock_minimo"  validate:"min=0"`
}

// ActualizarProductoRequest never touches stock: only the ledger does.
type ActualizarProductoRequest struct {
	Nombre       *string          `json:"nombre"        validate:"omitempty,min=2,max=120"`
	Categoria    *string          `json:"categoria"`
	Subcategoria *string          `json:"subcategoria"`
	UnidadMedida *string          `json:"unidad_medida" validate:"omitempty,oneof=M2 ML Unidad m2 ml unidad"`
	Alto         *decimal.Decimal `json:"alto"`
	Ancho        *decimal.Decimal `json:"ancho"`
	Largo        *decimal.Decimal `json:"largo"`
	PrecioPorPie *decimal.Decimal `json:"precio_por_pie"`
	ValorVenta   *decimal.Decimal `json:"valor_venta"`
	StockMinimo  *int             `json:"stock_minimo"  validate:"omitempty,min=0"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductoFilter struct {
	Nombre       string `form:"nombre"`
	Categoria    string `form:"categoria"`
	Subcategoria string `form:"subcategoria"`
	Page         int    `form:"page,default=1"  validate:"min=1"`
	Limit        int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID           string          `json:"id"`
	Nombre       string          `json:"nombre"`
	Categoria    string          `json:"categoria"`
	Subcategoria string          `json:"subcategoria"`
	UnidadMedida string          `json:"unidad_medida"`
	Alto         decimal.Decimal `json:"alto"`
	Ancho        decimal.Decimal `json:"ancho"`
	Largo        decimal.Decimal `json:"largo"`
	PrecioPorPie decimal.Decimal `json:"precio_por_pie"`
	ValorVenta   decimal.Decimal `json:"valor_venta"`
	Stock        int             `json:"stock"`
	StockMinimo  int             `json:"stock_minimo"`
	Activo       bool            `json:"activo"`
}

type ProductoListResponse struct {
	Data       []ProductoResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}
