package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"maderera/internal/pricing"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// DocumentoItemRequest is one line of a presupuesto/remito. Lines with a
// ProductoID are re-priced from the catalog; free lines keep Precio.
// It decodes through NormalizarItem, so legacy spellings are accepted.
type DocumentoItemRequest struct {
	ProductoID   *string         `json:"producto_id"    validate:"omitempty,uuid"`
	Nombre       string          `json:"nombre"         validate:"required_without=ProductoID,max=160"`
	Categoria    string          `json:"categoria"`
	Subcategoria string          `json:"subcategoria"`
	UnidadMedida string          `json:"unidad_medida"`
	Alto         decimal.Decimal `json:"alto"`
	Ancho        decimal.Decimal `json:"ancho"`
	Largo        decimal.Decimal `json:"largo"`
	PrecioPorPie decimal.Decimal `json:"precio_por_pie"`
	Precio       decimal.Decimal `json:"precio"`
	Cantidad     decimal.Decimal `json:"cantidad"`
	Descuento    decimal.Decimal `json:"descuento"      validate:"min=0,max=100"`
	Cepillado    bool            `json:"cepillado"`
}

type CrearDocumentoRequest struct {
	Tipo           string                 `json:"tipo"             validate:"required,oneof=presupuesto remito"`
	ClienteNombre  string                 `json:"cliente_nombre"   validate:"required,min=2,max=120"`
	ClienteEmail   *string                `json:"cliente_email"    validate:"omitempty,email"`
	PagoEnEfectivo bool                   `json:"pago_en_efectivo"`
	CostoEnvio     decimal.Decimal        `json:"costo_envio"      validate:"min=0"`
	Observaciones  *string                `json:"observaciones"    validate:"omitempty,max=1000"`
	Items          []DocumentoItemRequest `json:"items"            validate:"required,min=1,dive"`
}

// ActualizarDocumentoRequest replaces the editable parts of a document.
// Every line is re-priced; stored prices are never trusted in edit mode.
type ActualizarDocumentoRequest struct {
	ClienteNombre  string                 `json:"cliente_nombre"   validate:"required,min=2,max=120"`
	ClienteEmail   *string                `json:"cliente_email"    validate:"omitempty,email"`
	PagoEnEfectivo bool                   `json:"pago_en_efectivo"`
	CostoEnvio     decimal.Decimal        `json:"costo_envio"      validate:"min=0"`
	Observaciones  *string                `json:"observaciones"    validate:"omitempty,max=1000"`
	Items          []DocumentoItemRequest `json:"items"            validate:"required,min=1,dive"`
}

type DocumentoFilter struct {
	Tipo  string `form:"tipo"  validate:"omitempty,oneof=presupuesto remito"`
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DocumentoItemResponse struct {
	ProductoID        *string         `json:"producto_id"`
	Nombre            string          `json:"nombre"`
	Categoria         string          `json:"categoria"`
	Subcategoria      string          `json:"subcategoria"`
	UnidadMedida      string          `json:"unidad_medida"`
	Cantidad          decimal.Decimal `json:"cantidad"`
	Descuento         decimal.Decimal `json:"descuento"`
	CepilladoAplicado bool            `json:"cepillado_aplicado"`
	Precio            decimal.Decimal `json:"precio"`
	Subtotal          decimal.Decimal `json:"subtotal"`
}

type DocumentoResponse struct {
	ID                string                  `json:"id,omitempty"`
	Tipo              string                  `json:"tipo"`
	Numero            int                     `json:"numero,omitempty"`
	ClienteNombre     string                  `json:"cliente_nombre"`
	ClienteEmail      *string                 `json:"cliente_email,omitempty"`
	PagoEnEfectivo    bool                    `json:"pago_en_efectivo"`
	Items             []DocumentoItemResponse `json:"items"`
	Subtotal          decimal.Decimal         `json:"subtotal"`
	DescuentoTotal    decimal.Decimal         `json:"descuento_total"`
	DescuentoEfectivo decimal.Decimal         `json:"descuento_efectivo"`
	CostoEnvio        decimal.Decimal         `json:"costo_envio"`
	Total             decimal.Decimal         `json:"total"`
	Observaciones     *string                 `json:"observaciones,omitempty"`
	PDFDisponible     bool                    `json:"pdf_disponible"`
	CreatedAt         string                  `json:"created_at,omitempty"`
}

type DocumentoListResponse struct {
	Data  []DocumentoResponse `json:"data"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

// ─── Ingestion adapter ───────────────────────────────────────────────────────

// itemAliases maps the legacy camelCase spellings onto canonical keys.
var itemAliases = map[string]string{
	"productoId":        "producto_id",
	"subCategoria":      "subcategoria",
	"unidad":            "unidad_medida",
	"unidadMedida":      "unidad_medida",
	"precioPorPie":      "precio_por_pie",
	"valorVenta":        "precio",
	"cepilladoAplicado": "cepillado",
}

// NormalizarItem builds a DocumentoItemRequest from a raw decoded object.
// Alias keys are folded into their canonical name (the canonical spelling
// wins when both are present) and numbers go through pricing.ToNumber, so
// "1,5" and 1.5 are equivalent.
func NormalizarItem(raw map[string]any) DocumentoItemRequest {
	canon := make(map[string]any, len(raw))
	for k, v := range raw {
		if c, ok := itemAliases[k]; ok {
			if _, exists := raw[c]; exists {
				continue
			}
			k = c
		}
		canon[k] = v
	}

	item := DocumentoItemRequest{
		Nombre:       strings.TrimSpace(asString(canon["nombre"])),
		Categoria:    pricing.NormalizarCategoria(asString(canon["categoria"])),
		Subcategoria: strings.TrimSpace(asString(canon["subcategoria"])),
		UnidadMedida: pricing.NormalizarUnidad(asString(canon["unidad_medida"])),
		Alto:         pricing.ToNumber(canon["alto"]),
		Ancho:        pricing.ToNumber(canon["ancho"]),
		Largo:        pricing.ToNumber(canon["largo"]),
		PrecioPorPie: pricing.ToNumber(canon["precio_por_pie"]),
		Precio:       pricing.ToNumber(canon["precio"]),
		Cantidad:     pricing.ToNumber(canon["cantidad"]),
		Descuento:    pricing.ToNumber(canon["descuento"]),
		Cepillado:    asBool(canon["cepillado"]),
	}
	if id := strings.TrimSpace(asString(canon["producto_id"])); id != "" {
		item.ProductoID = &id
	}
	return item
}

// UnmarshalJSON decodes through NormalizarItem.
func (r *DocumentoItemRequest) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("item: %w", err)
	}
	*r = NormalizarItem(raw)
	return nil
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		ok, _ := strconv.ParseBool(strings.TrimSpace(b))
		return ok
	case json.Number:
		return b.String() != "0"
	default:
		return false
	}
}
