package handler

import (
	"net/http"
	"strconv"

	"maderera/internal/apierror"
	"maderera/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// JobsHandler exposes the dead-letter queues of the background workers.
type JobsHandler struct{ rdb *redis.Client }

func NewJobsHandler(rdb *redis.Client) *JobsHandler { return &JobsHandler{rdb: rdb} }

var colasConocidas = map[string]string{
	"documentos": worker.QueueDocumentos,
	"email":      worker.QueueEmail,
}

// EstadoDLQ returns the dead-letter length of every queue.
func (h *JobsHandler) EstadoDLQ(c *gin.Context) {
	out := make(map[string]int64, len(colasConocidas))
	for nombre, queue := range colasConocidas {
		n, err := worker.DLQLength(c.Request.Context(), h.rdb, queue)
		if err != nil {
			respondError(c, err, "Error al consultar colas")
			return
		}
		out[nombre] = n
	}
	c.JSON(http.StatusOK, out)
}

// ReintentarDLQ godoc
// @Summary  Reencolar trabajos fallidos
// @Tags     jobs
// @Security BearerAuth
// @Param    cola path  string true  "documentos | email"
// @Param    max  query int    false "Máximo de trabajos (default 100)"
// @Success  200  {object} map[string]int
// @Router   /v1/jobs/{cola}/reintentar [post]
func (h *JobsHandler) ReintentarDLQ(c *gin.Context) {
	queue, ok := colasConocidas[c.Param("cola")]
	if !ok {
		c.JSON(http.StatusNotFound, apierror.New("Cola desconocida"))
		return
	}
	max, _ := strconv.Atoi(c.DefaultQuery("max", "100"))
	n, err := worker.ReplayDLQ(c.Request.Context(), h.rdb, queue, max)
	if err != nil {
		respondError(c, err, "Error al reencolar trabajos")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reencolados": n})
}
