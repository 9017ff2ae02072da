package pricing

import (
	"github.com/shopspring/decimal"
)

const (
	CategoriaMaderas = "Maderas"

	UnidadM2     = "M2"
	UnidadML     = "ML"
	UnidadUnidad = "Unidad"
)

var (
	// FactorCorte converts alto × ancho × largo into board feet.
	FactorCorte = decimal.NewFromFloat(0.2734)
	// FactorCepillado is the surface-finish surcharge (6.6%).
	FactorCepillado = decimal.NewFromFloat(1.066)
)

// CorteMadera describes a volumetric wood cut.
type CorteMadera struct {
	Alto         decimal.Decimal
	Ancho        decimal.Decimal
	Largo        decimal.Decimal
	PrecioPorPie decimal.Decimal
	// Factor defaults to FactorCorte when zero.
	Factor      decimal.Decimal
	SinRedondeo bool
}

// PrecioCorteMadera returns factor × alto × ancho × largo × precioPorPie.
// A cut with any non-positive input has no defined price and returns 0.
func PrecioCorteMadera(c CorteMadera) decimal.Decimal {
	factor := c.Factor
	if factor.IsZero() {
		factor = FactorCorte
	}
	if !c.Alto.IsPositive() || !c.Ancho.IsPositive() || !c.Largo.IsPositive() || !c.PrecioPorPie.IsPositive() {
		return decimal.Zero
	}
	precio := factor.Mul(c.Alto).Mul(c.Ancho).Mul(c.Largo).Mul(c.PrecioPorPie)
	return redondeo(precio, c.SinRedondeo)
}

// Machimbre describes an area-priced plank or deck purchase.
type Machimbre struct {
	Alto         decimal.Decimal
	Largo        decimal.Decimal
	Cantidad     decimal.Decimal
	PrecioPorPie decimal.Decimal
	SinRedondeo  bool
}

// PrecioMachimbre returns alto × largo × precioPorPie × cantidad, with
// cantidad clamped to at least 1.
func PrecioMachimbre(m Machimbre) decimal.Decimal {
	cantidad := maxDecimal(m.Cantidad, uno)
	if !m.Alto.IsPositive() || !m.Largo.IsPositive() || !m.PrecioPorPie.IsPositive() {
		return decimal.Zero
	}
	precio := m.Alto.Mul(m.Largo).Mul(m.PrecioPorPie).Mul(cantidad)
	return redondeo(precio, m.SinRedondeo)
}

// CepilladoElegible reports whether the surface-finish surcharge can apply.
// Per-piece wood already embeds the finish in its price.
func CepilladoElegible(categoria, unidad string) bool {
	return categoria == CategoriaMaderas && unidad != UnidadUnidad
}

// AplicarCepillado multiplies base by FactorCepillado and re-applies the
// rounding policy.
func AplicarCepillado(base decimal.Decimal, sinRedondeo bool) decimal.Decimal {
	return redondeo(base.Mul(FactorCepillado), sinRedondeo)
}

// Producto carries the pricing attributes of a product in canonical form.
// Alias spellings (subCategoria, unidad) are resolved before reaching here.
type Producto struct {
	Nombre       string
	Categoria    string
	Subcategoria string
	UnidadMedida string
	Alto         decimal.Decimal
	Ancho        decimal.Decimal
	Largo        decimal.Decimal
	PrecioPorPie decimal.Decimal
	ValorVenta   decimal.Decimal
}

// Opciones tunes PreciosProducto. A non-positive Cantidad is treated as 1.
type Opciones struct {
	Cantidad    decimal.Decimal
	Cepillado   bool
	SinRedondeo bool
}

// Precios is the full breakdown returned by PreciosProducto.
type Precios struct {
	Categoria               string          `json:"categoria"`
	Unidad                  string          `json:"unidad"`
	Cantidad                decimal.Decimal `json:"cantidad"`
	CepilladoAplicado       bool            `json:"cepillado_aplicado"`
	PrecioUnitarioBase      decimal.Decimal `json:"precio_unitario_base"`
	PrecioUnitarioCepillado decimal.Decimal `json:"precio_unitario_cepillado"`
	PrecioUnitarioFinal     decimal.Decimal `json:"precio_unitario_final"`
	PrecioTotalBase         decimal.Decimal `json:"precio_total_base"`
	PrecioTotalCepillado    decimal.Decimal `json:"precio_total_cepillado"`
	PrecioTotalFinal        decimal.Decimal `json:"precio_total_final"`
}

// PreciosProducto dispatches on categoria and unidad:
//
//	Maderas + M2      unit = machimbre(cantidad 1), total = machimbre(cantidad)
//	Maderas + Unidad  unit = round(precioPorPie), total = round(unit × cantidad)
//	Maderas + other   unit = corte, total = round(unit × cantidad)
//	anything else     unit = valorVenta, total = valorVenta × cantidad
//
// The surcharge is applied only when requested and eligible; asking for it on
// an ineligible product is not an error, the final prices just equal the base.
func PreciosProducto(p Producto, o Opciones) Precios {
	cantidad := o.Cantidad
	if !cantidad.IsPositive() {
		cantidad = uno
	}

	var unitario, total decimal.Decimal
	switch {
	case p.Categoria == CategoriaMaderas && p.UnidadMedida == UnidadM2:
		m := Machimbre{Alto: p.Alto, Largo: p.Largo, Cantidad: uno, PrecioPorPie: p.PrecioPorPie, SinRedondeo: o.SinRedondeo}
		unitario = PrecioMachimbre(m)
		m.Cantidad = cantidad
		total = PrecioMachimbre(m)
	case p.Categoria == CategoriaMaderas && p.UnidadMedida == UnidadUnidad:
		unitario = redondeo(p.PrecioPorPie, o.SinRedondeo)
		total = redondeo(unitario.Mul(cantidad), o.SinRedondeo)
	case p.Categoria == CategoriaMaderas:
		unitario = PrecioCorteMadera(CorteMadera{
			Alto:         p.Alto,
			Ancho:        p.Ancho,
			Largo:        p.Largo,
			PrecioPorPie: p.PrecioPorPie,
			SinRedondeo:  o.SinRedondeo,
		})
		total = redondeo(unitario.Mul(cantidad), o.SinRedondeo)
	default:
		unitario = p.ValorVenta
		total = p.ValorVenta.Mul(cantidad)
	}

	elegible := CepilladoElegible(p.Categoria, p.UnidadMedida)
	unitarioCep, totalCep := unitario, total
	if elegible {
		unitarioCep = AplicarCepillado(unitario, o.SinRedondeo)
		totalCep = AplicarCepillado(total, o.SinRedondeo)
	}

	aplicado := o.Cepillado && elegible
	res := Precios{
		Categoria:               p.Categoria,
		Unidad:                  p.UnidadMedida,
		Cantidad:                cantidad,
		CepilladoAplicado:       aplicado,
		PrecioUnitarioBase:      unitario,
		PrecioUnitarioCepillado: unitarioCep,
		PrecioUnitarioFinal:     unitario,
		PrecioTotalBase:         total,
		PrecioTotalCepillado:    totalCep,
		PrecioTotalFinal:        total,
	}
	if aplicado {
		res.PrecioUnitarioFinal = unitarioCep
		res.PrecioTotalFinal = totalCep
	}
	return res
}
