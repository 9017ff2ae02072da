package handler

import (
	"net/http"
	"time"

	"maderera/internal/apierror"
	"maderera/internal/dto"
	"maderera/internal/model"
	"maderera/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// HistorialPreciosHandler serves the price-change history per product.
type HistorialPreciosHandler struct {
	repo repository.HistorialPrecioRepository
}

func NewHistorialPreciosHandler(repo repository.HistorialPrecioRepository) *HistorialPreciosHandler {
	return &HistorialPreciosHandler{repo: repo}
}

// ListarPorProducto godoc
// @Summary      Historial de precios de un producto
// @Description  Cambios de precio por pie y valor de venta, del más reciente al más antiguo, con la variación porcentual de cada uno.
// @Tags         productos
// @Security     BearerAuth
// @Param        id    path     string  true  "UUID del producto"
// @Param        campo query    string  false "precio_por_pie | valor_venta: solo filas donde ese precio cambió"
// @Param        desde query    string  false "Fecha inicial inclusive (YYYY-MM-DD)"
// @Param        hasta query    string  false "Fecha final inclusive (YYYY-MM-DD)"
// @Param        page  query    int     false "Página (default 1)"
// @Param        limit query    int     false "Registros por página (default 50, max 200)"
// @Success      200   {object} dto.HistorialPrecioListResponse
// @Failure      400   {object} apierror.APIError
// @Failure      422   {object} apierror.ValidationError
// @Router       /v1/productos/{id}/historial-precios [get]
func (h *HistorialPreciosHandler) ListarPorProducto(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de producto inválido"))
		return
	}

	var q dto.HistorialPrecioFilter
	if !bindQueryAndValidate(c, &q) {
		return
	}

	filter := repository.HistorialPrecioFilter{Campo: q.Campo, Page: q.Page, Limit: q.Limit}
	if q.Desde != "" {
		desde, _ := time.ParseInLocation(time.DateOnly, q.Desde, time.Local)
		filter.Desde = &desde
	}
	if q.Hasta != "" {
		hasta, _ := time.ParseInLocation(time.DateOnly, q.Hasta, time.Local)
		hasta = hasta.AddDate(0, 0, 1)
		filter.Hasta = &hasta
	}

	rows, total, err := h.repo.ListByProducto(c.Request.Context(), id, filter)
	if err != nil {
		log.Error().Err(err).Str("producto_id", id.String()).Msg("historial de precios")
		c.JSON(http.StatusInternalServerError, apierror.New("Error al obtener historial de precios"))
		return
	}

	data := make([]dto.HistorialPrecioItem, 0, len(rows))
	for i := range rows {
		data = append(data, historialToDTO(&rows[i]))
	}

	c.JSON(http.StatusOK, dto.HistorialPrecioListResponse{
		Data:  data,
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
	})
}

// variacionPct is (despues − antes) / antes as a percentage with two
// decimals; nil when there is no previous price to compare against.
func variacionPct(antes, despues decimal.Decimal) *decimal.Decimal {
	if !antes.IsPositive() {
		return nil
	}
	v := despues.Sub(antes).Div(antes).Mul(decimal.NewFromInt(100)).Round(2)
	return &v
}

func historialToDTO(h *model.HistorialPrecio) dto.HistorialPrecioItem {
	return dto.HistorialPrecioItem{
		ID:                    h.ID.String(),
		ProductoID:            h.ProductoID.String(),
		PrecioPorPieAntes:     h.PrecioPorPieAntes,
		PrecioPorPieDespues:   h.PrecioPorPieDespues,
		VariacionPrecioPorPie: variacionPct(h.PrecioPorPieAntes, h.PrecioPorPieDespues),
		ValorVentaAntes:       h.ValorVentaAntes,
		ValorVentaDespues:     h.ValorVentaDespues,
		VariacionValorVenta:   variacionPct(h.ValorVentaAntes, h.ValorVentaDespues),
		Usuario:               h.Usuario,
		CreatedAt:             h.CreatedAt.Format(time.RFC3339),
	}
}
