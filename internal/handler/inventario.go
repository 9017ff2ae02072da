package handler

import (
	"net/http"

	"maderera/internal/apierror"
	"maderera/internal/dto"
	"maderera/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventarioHandler struct{ svc service.InventarioService }

func NewInventarioHandler(svc service.InventarioService) *InventarioHandler {
	return &InventarioHandler{svc: svc}
}

// RegistrarMovimiento godoc
// @Summary      Registrar movimiento de stock
// @Description  Entrada, salida o ajuste (delta | absoluto). Rechaza con 409 si el stock resultante sería negativo.
// @Tags         inventario
// @Security     BearerAuth
// @Param        body body     dto.RegistrarMovimientoRequest true "Movimiento"
// @Success      201  {object} dto.MovimientoStockResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/inventario/movimientos [post]
func (h *InventarioHandler) RegistrarMovimiento(c *gin.Context) {
	var req dto.RegistrarMovimientoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	req.Usuario = usuarioActual(c)

	resp, err := h.svc.RegistrarMovimiento(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Error al registrar movimiento")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InventarioHandler) ListarMovimientos(c *gin.Context) {
	var filter dto.MovimientoStockFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Error al listar movimientos")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventarioHandler) ObtenerAlertas(c *gin.Context) {
	resp, err := h.svc.ObtenerAlertas(c.Request.Context())
	if err != nil {
		respondError(c, err, "Error al obtener alertas")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventarioHandler) VerificarCadena(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de producto inválido"))
		return
	}
	resp, err := h.svc.VerificarCadena(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Error al verificar movimientos")
		return
	}
	c.JSON(http.StatusOK, resp)
}
