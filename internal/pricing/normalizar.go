package pricing

import "strings"

// NormalizarUnidad maps the unit spellings found in stored data onto the
// canonical M2 / ML / Unidad values. Unknown units are returned trimmed.
func NormalizarUnidad(u string) string {
	u = strings.TrimSpace(u)
	switch strings.ToLower(u) {
	case "m2", "m²":
		return UnidadM2
	case "ml":
		return UnidadML
	case "unidad", "un", "u":
		return UnidadUnidad
	}
	return u
}

// NormalizarCategoria canonicalizes the wood category label; other
// categories pass through trimmed.
func NormalizarCategoria(c string) string {
	c = strings.TrimSpace(c)
	if strings.EqualFold(c, CategoriaMaderas) {
		return CategoriaMaderas
	}
	return c
}
