package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"maderera/internal/dto"
	"maderera/internal/metrics"
	"maderera/internal/pricing"
	"maderera/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// PrecioService quotes catalog and ad-hoc products. Quotes for catalog
// products are cached in Redis; the cache is best-effort.
type PrecioService interface {
	Cotizar(ctx context.Context, productoID uuid.UUID, q dto.CotizarQuery) (*pricing.Precios, error)
	Calcular(req dto.CalcularPrecioRequest) pricing.Precios
	// Invalidar drops every cached quote of a product.
	Invalidar(ctx context.Context, productoID uuid.UUID)
}

type precioService struct {
	productoRepo repository.ProductoRepository
	rdb          *redis.Client
	ttl          time.Duration
}

// NewPrecioService accepts a nil rdb, in which case nothing is cached.
func NewPrecioService(productoRepo repository.ProductoRepository, rdb *redis.Client, ttl time.Duration) PrecioService {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &precioService{productoRepo: productoRepo, rdb: rdb, ttl: ttl}
}

func precioCacheKey(productoID uuid.UUID, o pricing.Opciones) string {
	return fmt.Sprintf("precio:%s:%s:%t", productoID, o.Cantidad.String(), o.Cepillado)
}

func (s *precioService) Cotizar(ctx context.Context, productoID uuid.UUID, q dto.CotizarQuery) (*pricing.Precios, error) {
	opciones := pricing.Opciones{Cantidad: pricing.ToNumber(q.Cantidad), Cepillado: q.Cepillado}
	if !opciones.Cantidad.IsPositive() {
		opciones.Cantidad = pricing.ToNumber(1)
	}
	key := precioCacheKey(productoID, opciones)

	if s.rdb == nil {
		metrics.PrecioCacheTotal.WithLabelValues("off").Inc()
	} else if cached, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var precios pricing.Precios
		if json.Unmarshal(cached, &precios) == nil {
			metrics.PrecioCacheTotal.WithLabelValues("hit").Inc()
			return &precios, nil
		}
		metrics.PrecioCacheTotal.WithLabelValues("error").Inc()
	} else if err == redis.Nil {
		metrics.PrecioCacheTotal.WithLabelValues("miss").Inc()
	} else {
		metrics.PrecioCacheTotal.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("key", key).Msg("precio cache: get failed")
	}

	p, err := s.productoRepo.FindByID(ctx, productoID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProductoNoEncontrado
		}
		return nil, err
	}
	if !p.Activo {
		return nil, ErrProductoNoEncontrado
	}

	precios := pricing.PreciosProducto(p.Pricing(), opciones)

	if s.rdb != nil {
		if b, err := json.Marshal(precios); err == nil {
			if err := s.rdb.Set(ctx, key, b, s.ttl).Err(); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("precio cache: set failed")
			}
		}
	}
	return &precios, nil
}

func (s *precioService) Calcular(req dto.CalcularPrecioRequest) pricing.Precios {
	p := pricing.Producto{
		Nombre:       req.Nombre,
		Categoria:    pricing.NormalizarCategoria(req.Categoria),
		Subcategoria: req.Subcategoria,
		UnidadMedida: pricing.NormalizarUnidad(req.UnidadMedida),
		Alto:         req.Alto,
		Ancho:        req.Ancho,
		Largo:        req.Largo,
		PrecioPorPie: req.PrecioPorPie,
		ValorVenta:   req.ValorVenta,
	}
	return pricing.PreciosProducto(p, pricing.Opciones{
		Cantidad:    req.Cantidad,
		Cepillado:   req.Cepillado,
		SinRedondeo: req.SinRedondeo,
	})
}

func (s *precioService) Invalidar(ctx context.Context, productoID uuid.UUID) {
	if s.rdb == nil {
		return
	}
	pattern := fmt.Sprintf("precio:%s:*", productoID)
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Warn().Err(err).Str("producto_id", productoID.String()).Msg("precio cache: scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Str("producto_id", productoID.String()).Msg("precio cache: invalidation failed")
	}
}
