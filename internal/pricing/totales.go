package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var descuentoEfectivoPct = decimal.NewFromInt(10)

// Linea is a priced line of a sale, quotation or obra material list.
// Precio is per unit for standard lines and the full line amount for
// pack-priced (machimbre / deck) lines.
type Linea struct {
	Nombre       string
	Categoria    string
	Subcategoria string
	Precio       decimal.Decimal
	Cantidad     decimal.Decimal
	Descuento    decimal.Decimal // percentage, 0-100
}

// Totales is the result of folding a list of lines.
type Totales struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DescuentoTotal decimal.Decimal `json:"descuento_total"`
	Total          decimal.Decimal `json:"total"`
}

// TotalesDocumento adds the document-level modifiers to Totales.
type TotalesDocumento struct {
	Subtotal          decimal.Decimal `json:"subtotal"`
	DescuentoTotal    decimal.Decimal `json:"descuento_total"`
	DescuentoEfectivo decimal.Decimal `json:"descuento_efectivo"`
	CostoEnvio        decimal.Decimal `json:"costo_envio"`
	Total             decimal.Decimal `json:"total"`
}

// EsMachimbreOrDeck classifies pack-priced lines. The subcategory is checked
// first; the name substring fallback tolerates untagged upstream data.
func EsMachimbreOrDeck(subcategoria, nombre string) bool {
	sub := strings.ToLower(strings.TrimSpace(subcategoria))
	if sub == "machimbre" || sub == "deck" {
		return true
	}
	n := strings.ToLower(nombre)
	return strings.Contains(n, "machimbre") || strings.Contains(n, "deck")
}

// ComputeLineBase returns the pre-discount amount of a line. Pack-priced
// lines already carry the quantity inside Precio and are not multiplied.
func ComputeLineBase(l Linea) decimal.Decimal {
	if EsMachimbreOrDeck(l.Subcategoria, l.Nombre) {
		return l.Precio
	}
	return l.Precio.Mul(maxDecimal(uno, l.Cantidad))
}

func descuentoPct(l Linea) decimal.Decimal {
	return maxDecimal(decimal.Zero, l.Descuento).Div(cien)
}

// ComputeLineSubtotal returns round(base × (1 − descuento%)).
func ComputeLineSubtotal(l Linea) decimal.Decimal {
	return Round(ComputeLineBase(l).Mul(uno.Sub(descuentoPct(l))))
}

// ComputeTotals folds lines into document totals. Subtotal and discount are
// rounded as aggregates and the total is derived from those two rounded
// values, not from the per-line subtotals.
func ComputeTotals(lineas []Linea) Totales {
	subtotal := decimal.Zero
	descuento := decimal.Zero
	for _, l := range lineas {
		base := ComputeLineBase(l)
		subtotal = subtotal.Add(base)
		descuento = descuento.Add(base.Mul(descuentoPct(l)))
	}
	subtotal = Round(subtotal)
	descuento = Round(descuento)
	return Totales{
		Subtotal:       subtotal,
		DescuentoTotal: descuento,
		Total:          subtotal.Sub(descuento),
	}
}

// AplicarModificadores applies the cash-payment discount (10% of the
// subtotal) and adds shipping, which is never discounted.
func AplicarModificadores(t Totales, pagoEnEfectivo bool, costoEnvio decimal.Decimal) TotalesDocumento {
	envio := maxDecimal(decimal.Zero, costoEnvio)
	efectivo := decimal.Zero
	if pagoEnEfectivo {
		efectivo = Round(t.Subtotal.Mul(descuentoEfectivoPct).Div(cien))
	}
	return TotalesDocumento{
		Subtotal:          t.Subtotal,
		DescuentoTotal:    t.DescuentoTotal,
		DescuentoEfectivo: efectivo,
		CostoEnvio:        envio,
		Total:             t.Total.Sub(efectivo).Add(envio),
	}
}

// PrecioLinea returns the price a document line must store for p: the full
// line price for pack-priced products, the unit price otherwise. Storing it
// this way keeps ComputeLineBase from folding the quantity twice.
func PrecioLinea(p Producto, o Opciones) decimal.Decimal {
	precios := PreciosProducto(p, o)
	if EsMachimbreOrDeck(p.Subcategoria, p.Nombre) {
		return precios.PrecioTotalFinal
	}
	return precios.PrecioUnitarioFinal
}
