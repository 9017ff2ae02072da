package handler

import (
	"net/http"

	"maderera/internal/apierror"
	"maderera/internal/dto"
	"maderera/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PreciosHandler serves price quotes. No side effects; safe to expose
// without authentication.
type PreciosHandler struct{ svc service.PrecioService }

func NewPreciosHandler(svc service.PrecioService) *PreciosHandler {
	return &PreciosHandler{svc: svc}
}

// Cotizar godoc
// @Summary Cotización de un producto del catálogo
// @Tags    precios
// @Produce json
// @Param   id        path  string true  "UUID del producto"
// @Param   cantidad  query string false "Cantidad (acepta coma decimal)"
// @Param   cepillado query bool   false "Aplicar cepillado"
// @Success 200 {object} pricing.Precios
// @Failure 404 {object} apierror.APIError
// @Router  /v1/productos/{id}/precio [get]
func (h *PreciosHandler) Cotizar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var q dto.CotizarQuery
	if !bindQueryAndValidate(c, &q) {
		return
	}
	resp, err := h.svc.Cotizar(c.Request.Context(), id, q)
	if err != nil {
		respondError(c, err, "Error al cotizar producto")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Calcular prices an ad-hoc product sent in the body.
func (h *PreciosHandler) Calcular(c *gin.Context) {
	var req dto.CalcularPrecioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.svc.Calcular(req))
}
