// Carga un catálogo de demostración.
// Uso: go run ./cmd/seedcatalogo
// Los productos ya existentes (mismo nombre) se omiten; el stock inicial
// queda registrado como movimiento carga_inicial.
package main

import (
	"context"
	"os"
	"time"

	"maderera/internal/config"
	"maderera/internal/dto"
	"maderera/internal/infra"
	"maderera/internal/repository"
	"maderera/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var catalogo = []dto.CrearProductoRequest{
	{Nombre: "Tirante pino 2x4 x 3,05", Categoria: "Maderas", Subcategoria: "Tirantes", UnidadMedida: "Unidad",
		Alto: dec("2"), Ancho: dec("4"), Largo: dec("3.05"), PrecioPorPie: dec("1200"), StockInicial: 80, StockMinimo: 20},
	{Nombre: "Tabla pino 1x6 x 3,05", Categoria: "Maderas", Subcategoria: "Tablas", UnidadMedida: "Unidad",
		Alto: dec("1"), Ancho: dec("6"), Largo: dec("3.05"), PrecioPorPie: dec("1100"), StockInicial: 120, StockMinimo: 30},
	{Nombre: "Machimbre pino 1x4", Categoria: "Maderas", Subcategoria: "Machimbre", UnidadMedida: "M2",
		Alto: dec("1"), Ancho: dec("4"), Largo: dec("1"), PrecioPorPie: dec("950"), StockInicial: 40, StockMinimo: 10},
	{Nombre: "Deck eucalipto", Categoria: "Maderas", Subcategoria: "Deck", UnidadMedida: "ML",
		Alto: dec("1"), Ancho: dec("4"), Largo: dec("1"), PrecioPorPie: dec("1500"), StockInicial: 200, StockMinimo: 50},
	{Nombre: "Clavos 2\" x kg", Categoria: "Ferreteria", UnidadMedida: "Unidad",
		ValorVenta: dec("4200"), StockInicial: 25, StockMinimo: 5},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	tx := repository.NewTransactor(db, cfg.LedgerTxMaxRetries)
	productoRepo := repository.NewProductoRepository(db)
	inventario := service.NewInventarioService(productoRepo, repository.NewMovimientoStockRepository(db), tx)
	precios := service.NewPrecioService(productoRepo, nil, cfg.PrecioCacheTTL)
	productos := service.NewProductoService(productoRepo, repository.NewHistorialPrecioRepository(db), inventario, precios, tx)

	ctx := context.Background()
	creados := 0
	for _, req := range catalogo {
		existentes, err := productos.Listar(ctx, dto.ProductoFilter{Nombre: req.Nombre, Page: 1, Limit: 1})
		if err != nil {
			log.Fatal().Err(err).Msg("list failed")
		}
		if existentes.Total > 0 {
			log.Info().Str("nombre", req.Nombre).Msg("ya existe, omitido")
			continue
		}
		p, err := productos.Crear(ctx, req, "seed")
		if err != nil {
			log.Fatal().Err(err).Str("nombre", req.Nombre).Msg("create failed")
		}
		creados++
		log.Info().Str("id", p.ID).Str("nombre", p.Nombre).Int("stock", p.Stock).Msg("producto creado")
	}
	log.Info().Int("creados", creados).Int("total", len(catalogo)).Msg("catálogo cargado")
}
