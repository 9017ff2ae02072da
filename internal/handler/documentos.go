package handler

import (
	"net/http"
	"path/filepath"

	"maderera/internal/apierror"
	"maderera/internal/dto"
	"maderera/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DocumentosHandler struct {
	svc         service.DocumentoService
	storagePath string
}

func NewDocumentosHandler(svc service.DocumentoService, storagePath string) *DocumentosHandler {
	return &DocumentosHandler{svc: svc, storagePath: storagePath}
}

// Crear godoc
// @Summary      Crear presupuesto o remito
// @Description  Re-precia cada línea, aplica descuento por pago en efectivo y envío, y encola el PDF.
// @Tags         documentos
// @Security     BearerAuth
// @Param        body body     dto.CrearDocumentoRequest true "Documento"
// @Success      201  {object} dto.DocumentoResponse
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/documentos [post]
func (h *DocumentosHandler) Crear(c *gin.Context) {
	var req dto.CrearDocumentoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req, usuarioActual(c))
	if err != nil {
		respondError(c, err, "Error al crear documento")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *DocumentosHandler) Previsualizar(c *gin.Context) {
	var req dto.CrearDocumentoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Previsualizar(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Error al calcular documento")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DocumentosHandler) Actualizar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.ActualizarDocumentoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req, usuarioActual(c))
	if err != nil {
		respondError(c, err, "Error al actualizar documento")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DocumentosHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Error al obtener documento")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DocumentosHandler) Listar(c *gin.Context) {
	var filter dto.DocumentoFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Error al listar documentos")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DescargarPDF serves the rendered file; 404 until the render job finished.
func (h *DocumentosHandler) DescargarPDF(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	nombre, err := h.svc.ArchivoPDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Error al obtener PDF")
		return
	}
	c.FileAttachment(filepath.Join(h.storagePath, filepath.Base(nombre)), nombre)
}
