package service

import (
	"context"
	"math"
	"strings"
	"time"

	"maderera/internal/dto"
	"maderera/internal/model"
	"maderera/internal/pricing"
	"maderera/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const motivoCargaInicial = "carga_inicial"

// ProductoService defines the business logic contract for products.
type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest, usuario string) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest, usuario string) (*dto.ProductoResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
}

type productoService struct {
	repo          repository.ProductoRepository
	historialRepo repository.HistorialPrecioRepository
	inventario    InventarioService
	precios       PrecioService
	tx            repository.Transactor
}

func NewProductoService(
	repo repository.ProductoRepository,
	historialRepo repository.HistorialPrecioRepository,
	inventario InventarioService,
	precios PrecioService,
	tx repository.Transactor,
) ProductoService {
	return &productoService{
		repo:          repo,
		historialRepo: historialRepo,
		inventario:    inventario,
		precios:       precios,
		tx:            tx,
	}
}

// Crear inserts the product with stock 0 and books StockInicial through the
// ledger in the same transaction, so the movement chain starts at zero.
func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest, usuario string) (*dto.ProductoResponse, error) {
	p := &model.Producto{
		ID:           uuid.New(),
		Nombre:       strings.TrimSpace(req.Nombre),
		Categoria:    pricing.NormalizarCategoria(req.Categoria),
		Subcategoria: strings.TrimSpace(req.Subcategoria),
		UnidadMedida: pricing.NormalizarUnidad(req.UnidadMedida),
		Alto:         req.Alto,
		Ancho:        req.Ancho,
		Largo:        req.Largo,
		PrecioPorPie: req.PrecioPorPie,
		ValorVenta:   req.ValorVenta,
		StockMinimo:  req.StockMinimo,
		Activo:       true,
	}

	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, p); err != nil {
			return err
		}
		if req.StockInicial <= 0 {
			return nil
		}
		inicial := req.StockInicial
		mov, err := s.inventario.AplicarMovimientoTx(tx, p.ID, dto.RegistrarMovimientoRequest{
			ProductoID:        p.ID.String(),
			Tipo:              model.MovimientoAjuste,
			ModoAjuste:        model.AjusteAbsoluto,
			StockFinalDeseado: &inicial,
			Motivo:            motivoCargaInicial,
			Usuario:           usuario,
		})
		if err != nil {
			return err
		}
		p.Stock = mov.StockDespues
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("producto_id", p.ID.String()).Str("nombre", p.Nombre).Msg("producto creado")
	return productoToResponse(p), nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProductoNoEncontrado
		}
		return nil, err
	}
	return productoToResponse(p), nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Categoria != "" {
		filter.Categoria = pricing.NormalizarCategoria(filter.Categoria)
	}
	productos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	data := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		data = append(data, *productoToResponse(&productos[i]))
	}

	totalPages := 0
	if filter.Limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(filter.Limit)))
	}
	return &dto.ProductoListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

// Actualizar applies the non-nil fields. A change of PrecioPorPie or
// ValorVenta appends a HistorialPrecio row in the same transaction.
func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest, usuario string) (*dto.ProductoResponse, error) {
	var p *model.Producto
	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		p, err = s.repo.FindByIDForUpdateTx(tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrProductoNoEncontrado
			}
			return err
		}

		ppAntes, vvAntes := p.PrecioPorPie, p.ValorVenta
		aplicarCambios(p, req)
		p.UpdatedAt = time.Now()

		if err := s.repo.UpdateTx(tx, p); err != nil {
			return err
		}
		if ppAntes.Equal(p.PrecioPorPie) && vvAntes.Equal(p.ValorVenta) {
			return nil
		}
		return s.historialRepo.CreateTx(tx, &model.HistorialPrecio{
			ID:                  uuid.New(),
			ProductoID:          p.ID,
			PrecioPorPieAntes:   ppAntes,
			PrecioPorPieDespues: p.PrecioPorPie,
			ValorVentaAntes:     vvAntes,
			ValorVentaDespues:   p.ValorVenta,
			Usuario:             usuario,
			CreatedAt:           p.UpdatedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	// Dimensions and category affect quotes as much as the rates do.
	s.precios.Invalidar(ctx, id)
	return productoToResponse(p), nil
}

func aplicarCambios(p *model.Producto, req dto.ActualizarProductoRequest) {
	if req.Nombre != nil {
		p.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.Categoria != nil {
		p.Categoria = pricing.NormalizarCategoria(*req.Categoria)
	}
	if req.Subcategoria != nil {
		p.Subcategoria = strings.TrimSpace(*req.Subcategoria)
	}
	if req.UnidadMedida != nil {
		p.UnidadMedida = pricing.NormalizarUnidad(*req.UnidadMedida)
	}
	if req.Alto != nil {
		p.Alto = *req.Alto
	}
	if req.Ancho != nil {
		p.Ancho = *req.Ancho
	}
	if req.Largo != nil {
		p.Largo = *req.Largo
	}
	if req.PrecioPorPie != nil {
		p.PrecioPorPie = *req.PrecioPorPie
	}
	if req.ValorVenta != nil {
		p.ValorVenta = *req.ValorVenta
	}
	if req.StockMinimo != nil {
		p.StockMinimo = *req.StockMinimo
	}
}

func (s *productoService) Desactivar(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrProductoNoEncontrado
		}
		return err
	}
	s.precios.Invalidar(ctx, id)
	return nil
}

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	return &dto.ProductoResponse{
		ID:           p.ID.String(),
		Nombre:       p.Nombre,
		Categoria:    p.Categoria,
		Subcategoria: p.Subcategoria,
		UnidadMedida: p.UnidadMedida,
		Alto:         p.Alto,
		Ancho:        p.Ancho,
		Largo:        p.Largo,
		PrecioPorPie: p.PrecioPorPie,
		ValorVenta:   p.ValorVenta,
		Stock:        p.Stock,
		StockMinimo:  p.StockMinimo,
		Activo:       p.Activo,
	}
}
