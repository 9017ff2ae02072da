package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// RegistrarMovimientoRequest is the body of POST /v1/inventario/movimientos.
// Cantidad is an absolute amount for entrada/salida and a signed delta for
// ajuste in delta mode. Motivo is an open vocabulary (conteo, rotura, merma,
// carga_inicial, otros) required for ajuste.
type RegistrarMovimientoRequest struct {
	ProductoID        string  `json:"producto_id"         validate:"required,uuid"`
	Tipo              string  `json:"tipo"                validate:"required,oneof=entrada salida ajuste"`
	Cantidad          int     `json:"cantidad"`
	ModoAjuste        string  `json:"modo_ajuste"         validate:"omitempty,oneof=delta absoluto"`
	StockFinalDeseado *int    `json:"stock_final_deseado"`
	Motivo            string  `json:"motivo"              validate:"max=60"`
	Observaciones     *string `json:"observaciones"       validate:"omitempty,max=500"`
	// Usuario is filled from the JWT claims, never from the body.
	Usuario string `json:"-"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovimientoStockResponse struct {
	ID             string  `json:"id"`
	ProductoID     string  `json:"producto_id"`
	ProductoNombre string  `json:"producto_nombre,omitempty"`
	Tipo           string  `json:"tipo"`
	Cantidad       int     `json:"cantidad"`
	ModoAjuste     *string `json:"modo_ajuste,omitempty"`
	StockAntes     int     `json:"stock_antes"`
	StockDelta     int     `json:"stock_delta"`
	StockDespues   int     `json:"stock_despues"`
	Motivo         string  `json:"motivo"`
	Usuario        string  `json:"usuario"`
	Observaciones  *string `json:"observaciones,omitempty"`
	Fecha          string  `json:"fecha"`
}

type MovimientoStockListResponse struct {
	Data  []MovimientoStockResponse `json:"data"`
	Total int64                     `json:"total"`
	Page  int                       `json:"page"`
	Limit int                       `json:"limit"`
}

type MovimientoStockFilter struct {
	ProductoID string `form:"producto_id" validate:"omitempty,uuid"`
	Tipo       string `form:"tipo"        validate:"omitempty,oneof=entrada salida ajuste"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=100" validate:"min=1,max=500"`
}

type AlertaStockResponse struct {
	ProductoID  string `json:"producto_id"`
	Nombre      string `json:"nombre"`
	Categoria   string `json:"categoria"`
	Stock       int    `json:"stock"`
	StockMinimo int    `json:"stock_minimo"`
}

// CadenaResponse reports whether a product's movements form an unbroken
// before/after chain ending at the current stock.
type CadenaResponse struct {
	ProductoID  string  `json:"producto_id"`
	Movimientos int     `json:"movimientos"`
	StockActual int     `json:"stock_actual"`
	Consistente bool    `json:"consistente"`
	PrimerCorte *string `json:"primer_corte,omitempty"` // id of the first movement breaking the chain
}
