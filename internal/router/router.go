package router

import (
	"net/http"

	"maderera/internal/config"
	"maderera/internal/handler"
	"maderera/internal/infra"
	"maderera/internal/middleware"
	"maderera/internal/repository"
	"maderera/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the already-wired collaborators the HTTP layer needs.
// Composition happens in cmd/server so the worker pool and the scheduler
// share the same instances.
type Deps struct {
	DB    *gorm.DB
	Redis *redis.Client

	Productos     service.ProductoService
	Inventario    service.InventarioService
	Precios       service.PrecioService
	Documentos    service.DocumentoService
	HistorialRepo repository.HistorialPrecioRepository

	MailCB      *infra.CircuitBreaker
	RenderPool  *infra.RenderPool
	RateLimiter *middleware.RateLimiter
	Metrics     http.Handler
}

// New returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ErrorHandler())
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.Handler())
	}

	// ── Handlers ─────────────────────────────────────────────────────────────
	productosH := handler.NewProductosHandler(d.Productos)
	inventarioH := handler.NewInventarioHandler(d.Inventario)
	preciosH := handler.NewPreciosHandler(d.Precios)
	documentosH := handler.NewDocumentosHandler(d.Documentos, cfg.PDFStoragePath)
	historialPreciosH := handler.NewHistorialPreciosHandler(d.HistorialRepo)
	jobsH := handler.NewJobsHandler(d.Redis)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis, d.MailCB, d.RenderPool))
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	// Price quotes have no side effects; no auth required
	r.GET("/v1/productos/:id/precio", preciosH.Cotizar)
	r.POST("/v1/precios/calcular", preciosH.Calcular)

	todos := middleware.RequireRole(middleware.RolVendedor, middleware.RolAdministrador)
	admin := middleware.RequireRole(middleware.RolAdministrador)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		v1.GET("/productos", todos, productosH.Listar)
		v1.GET("/productos/:id", todos, productosH.ObtenerPorID)
		v1.GET("/productos/:id/historial-precios", todos, historialPreciosH.ListarPorProducto)
		v1.GET("/productos/:id/movimientos/verificacion", admin, inventarioH.VerificarCadena)
		prods := v1.Group("/productos", admin)
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Desactivar)
		}

		inv := v1.Group("/inventario", todos)
		{
			inv.POST("/movimientos", inventarioH.RegistrarMovimiento)
			inv.GET("/movimientos", inventarioH.ListarMovimientos)
			inv.GET("/alertas", inventarioH.ObtenerAlertas)
		}

		docs := v1.Group("/documentos", todos)
		{
			docs.POST("", documentosH.Crear)
			docs.POST("/preview", documentosH.Previsualizar)
			docs.GET("", documentosH.Listar)
			docs.GET("/:id", documentosH.Obtener)
			docs.PUT("/:id", documentosH.Actualizar)
			docs.GET("/:id/pdf", documentosH.DescargarPDF)
		}

		jobs := v1.Group("/jobs", admin)
		{
			jobs.GET("/dlq", jobsH.EstadoDLQ)
			jobs.POST("/:cola/reintentar", jobsH.ReintentarDLQ)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
