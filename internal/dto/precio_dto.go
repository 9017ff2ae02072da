package dto

import "github.com/shopspring/decimal"

// CotizarQuery is bound from the query string of GET /v1/productos/:id/precio.
// Cantidad is text so that "2,5" is accepted the same way stored data is.
type CotizarQuery struct {
	Cantidad  string `form:"cantidad"`
	Cepillado bool   `form:"cepillado"`
}

// CalcularPrecioRequest prices an ad-hoc product that is not in the catalog.
type CalcularPrecioRequest struct {
	Nombre       string          `json:"nombre"`
	Categoria    string          `json:"categoria"      validate:"required"`
	Subcategoria string          `json:"subcategoria"`
	UnidadMedida string          `json:"unidad_medida"`
	Alto         decimal.Decimal `json:"alto"`
	Ancho        decimal.Decimal `json:"ancho"`
	Largo        decimal.Decimal `json:"largo"`
	PrecioPorPie decimal.Decimal `json:"precio_por_pie"`
	ValorVenta   decimal.Decimal `json:"valor_venta"`
	Cantidad     decimal.Decimal `json:"cantidad"`
	Cepillado    bool            `json:"cepillado"`
	SinRedondeo  bool            `json:"sin_redondeo"`
}
