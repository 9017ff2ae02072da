package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"maderera/internal/dto"
	"maderera/internal/metrics"
	"maderera/internal/model"
	"maderera/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const usuarioSistema = "sistema"

// InventarioService is the stock ledger. Producto.Stock is only written here.
type InventarioService interface {
	RegistrarMovimiento(ctx context.Context, req dto.RegistrarMovimientoRequest) (*dto.MovimientoStockResponse, error)
	// AplicarMovimientoTx runs the read-modify-write inside a caller-owned
	// transaction. It skips pre-submission validation.
	AplicarMovimientoTx(tx *gorm.DB, productoID uuid.UUID, req dto.RegistrarMovimientoRequest) (*model.MovimientoStock, error)
	ListarMovimientos(ctx context.Context, filter dto.MovimientoStockFilter) (*dto.MovimientoStockListResponse, error)
	ObtenerAlertas(ctx context.Context) ([]dto.AlertaStockResponse, error)
	VerificarCadena(ctx context.Context, productoID uuid.UUID) (*dto.CadenaResponse, error)
}

type inventarioService struct {
	productoRepo repository.ProductoRepository
	movRepo      repository.MovimientoStockRepository
	tx           repository.Transactor
	now          func() time.Time
}

func NewInventarioService(
	productoRepo repository.ProductoRepository,
	movRepo repository.MovimientoStockRepository,
	tx repository.Transactor,
) InventarioService {
	return &inventarioService{
		productoRepo: productoRepo,
		movRepo:      movRepo,
		tx:           tx,
		now:          time.Now,
	}
}

// ValidarMovimiento is the fast pre-submission check. stockConocido is the
// last stock the caller saw; the transaction re-checks against the locked row
// regardless of what this returns.
func ValidarMovimiento(req dto.RegistrarMovimientoRequest, stockConocido int) error {
	fields := make(map[string]string)

	switch req.Tipo {
	case model.MovimientoEntrada, model.MovimientoSalida:
		if req.Cantidad <= 0 {
			fields["cantidad"] = "debe ser mayor a 0"
		} else if req.Tipo == model.MovimientoSalida && req.Cantidad > stockConocido {
			fields["cantidad"] = fmt.Sprintf("supera el stock disponible (%d)", stockConocido)
		}
	case model.MovimientoAjuste:
		if strings.TrimSpace(req.Motivo) == "" {
			fields["motivo"] = "requerido para ajustes"
		}
		switch modoAjuste(req) {
		case model.AjusteAbsoluto:
			if req.StockFinalDeseado == nil || *req.StockFinalDeseado < 0 {
				fields["stock_final_deseado"] = "debe ser un número mayor o igual a 0"
			}
		case model.AjusteDelta:
		default:
			fields["modo_ajuste"] = "debe ser delta o absoluto"
		}
	default:
		fields["tipo"] = "debe ser entrada, salida o ajuste"
	}

	if len(fields) > 0 {
		return &ValidacionError{Fields: fields}
	}
	return nil
}

func modoAjuste(req dto.RegistrarMovimientoRequest) string {
	if req.ModoAjuste == "" {
		return model.AjusteDelta
	}
	return req.ModoAjuste
}

// calcularDelta maps a request onto the signed stock change.
func calcularDelta(req dto.RegistrarMovimientoRequest, stockActual int) int {
	switch req.Tipo {
	case model.MovimientoEntrada:
		return abs(req.Cantidad)
	case model.MovimientoSalida:
		return -abs(req.Cantidad)
	}
	if modoAjuste(req) == model.AjusteAbsoluto {
		objetivo := 0
		if req.StockFinalDeseado != nil && *req.StockFinalDeseado > 0 {
			objetivo = *req.StockFinalDeseado
		}
		return objetivo - stockActual
	}
	return req.Cantidad
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ── RegistrarMovimiento ──────────────────────────────────────────────────────
//   1. Pre-submission validation against the last committed stock
//   2. BEGIN TX: lock product row, compute delta, reject negative stock
//   3. Append movement, write new stock
//   4. COMMIT (re-run by the transactor on serialization conflicts)

func (s *inventarioService) RegistrarMovimiento(ctx context.Context, req dto.RegistrarMovimientoRequest) (*dto.MovimientoStockResponse, error) {
	productoID, err := uuid.Parse(req.ProductoID)
	if err != nil {
		return nil, nuevaValidacion("producto_id", "UUID inválido")
	}

	actual, err := s.productoRepo.FindByID(ctx, productoID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProductoNoEncontrado
		}
		return nil, err
	}
	if !actual.Activo {
		return nil, ErrProductoNoEncontrado
	}
	if err := ValidarMovimiento(req, actual.Stock); err != nil {
		metrics.MovimientosTotal.WithLabelValues(req.Tipo, "rechazado").Inc()
		return nil, err
	}

	var mov *model.MovimientoStock
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		var txErr error
		mov, txErr = s.AplicarMovimientoTx(tx, productoID, req)
		return txErr
	})
	if err != nil {
		resultado := "error"
		if errors.Is(err, ErrStockNegativo) || errors.Is(err, ErrProductoNoEncontrado) {
			resultado = "rechazado"
		}
		metrics.MovimientosTotal.WithLabelValues(req.Tipo, resultado).Inc()
		log.Warn().Err(err).
			Str("producto_id", productoID.String()).
			Str("tipo", req.Tipo).
			Int("cantidad", req.Cantidad).
			Msg("movimiento de stock rechazado")
		return nil, err
	}

	metrics.MovimientosTotal.WithLabelValues(req.Tipo, "ok").Inc()
	log.Info().
		Str("producto_id", productoID.String()).
		Str("tipo", mov.Tipo).
		Int("stock_antes", mov.StockAntes).
		Int("stock_despues", mov.StockDespues).
		Str("usuario", mov.Usuario).
		Msg("movimiento de stock registrado")

	resp := movimientoToResponse(mov)
	resp.ProductoNombre = actual.Nombre
	return &resp, nil
}

func (s *inventarioService) AplicarMovimientoTx(tx *gorm.DB, productoID uuid.UUID, req dto.RegistrarMovimientoRequest) (*model.MovimientoStock, error) {
	p, err := s.productoRepo.FindByIDForUpdateTx(tx, productoID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProductoNoEncontrado
		}
		return nil, err
	}
	if !p.Activo {
		return nil, ErrProductoNoEncontrado
	}

	delta := calcularDelta(req, p.Stock)
	nuevoStock := p.Stock + delta
	if nuevoStock < 0 {
		return nil, fmt.Errorf("%w: %s tiene %d, movimiento %+d", ErrStockNegativo, p.Nombre, p.Stock, delta)
	}

	usuario := strings.TrimSpace(req.Usuario)
	if usuario == "" {
		usuario = usuarioSistema
	}

	now := s.now()
	mov := &model.MovimientoStock{
		ID:            uuid.New(),
		ProductoID:    p.ID,
		Tipo:          req.Tipo,
		Cantidad:      req.Cantidad,
		StockAntes:    p.Stock,
		StockDelta:    delta,
		StockDespues:  nuevoStock,
		Motivo:        strings.TrimSpace(req.Motivo),
		Usuario:       usuario,
		Observaciones: req.Observaciones,
		Fecha:         now,
	}
	if req.Tipo == model.MovimientoAjuste {
		modo := modoAjuste(req)
		mov.ModoAjuste = &modo
	}

	if err := s.movRepo.CreateTx(tx, mov); err != nil {
		return nil, fmt.Errorf("registrando movimiento: %w", err)
	}
	if err := s.productoRepo.SetStockTx(tx, p.ID, nuevoStock, now); err != nil {
		return nil, fmt.Errorf("actualizando stock: %w", err)
	}
	return mov, nil
}

func (s *inventarioService) ListarMovimientos(ctx context.Context, filter dto.MovimientoStockFilter) (*dto.MovimientoStockListResponse, error) {
	repoFilter := repository.MovimientoStockFilter{
		Tipo:  filter.Tipo,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	if filter.ProductoID != "" {
		id, err := uuid.Parse(filter.ProductoID)
		if err != nil {
			return nil, nuevaValidacion("producto_id", "UUID inválido")
		}
		repoFilter.ProductoID = &id
	}

	movs, total, err := s.movRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	data := make([]dto.MovimientoStockResponse, 0, len(movs))
	for i := range movs {
		r := movimientoToResponse(&movs[i])
		if movs[i].Producto != nil {
			r.ProductoNombre = movs[i].Producto.Nombre
		}
		data = append(data, r)
	}
	return &dto.MovimientoStockListResponse{
		Data:  data,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *inventarioService) ObtenerAlertas(ctx context.Context) ([]dto.AlertaStockResponse, error) {
	productos, err := s.productoRepo.ListBajoMinimo(ctx)
	if err != nil {
		return nil, err
	}
	alertas := make([]dto.AlertaStockResponse, 0, len(productos))
	for _, p := range productos {
		alertas = append(alertas, dto.AlertaStockResponse{
			ProductoID:  p.ID.String(),
			Nombre:      p.Nombre,
			Categoria:   p.Categoria,
			Stock:       p.Stock,
			StockMinimo: p.StockMinimo,
		})
	}
	return alertas, nil
}

// VerificarCadena walks a product's movements oldest first. Every product
// starts at stock 0, so the first StockAntes must be 0 and the last
// StockDespues must match the current stock.
func (s *inventarioService) VerificarCadena(ctx context.Context, productoID uuid.UUID) (*dto.CadenaResponse, error) {
	p, err := s.productoRepo.FindByID(ctx, productoID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProductoNoEncontrado
		}
		return nil, err
	}
	movs, err := s.movRepo.ListByProducto(ctx, productoID)
	if err != nil {
		return nil, err
	}

	resp := &dto.CadenaResponse{
		ProductoID:  productoID.String(),
		Movimientos: len(movs),
		StockActual: p.Stock,
		Consistente: true,
	}
	anterior := 0
	for _, m := range movs {
		if m.StockAntes != anterior || m.StockAntes+m.StockDelta != m.StockDespues {
			id := m.ID.String()
			resp.PrimerCorte = &id
			resp.Consistente = false
			return resp, nil
		}
		anterior = m.StockDespues
	}
	resp.Consistente = anterior == p.Stock
	return resp, nil
}

func movimientoToResponse(m *model.MovimientoStock) dto.MovimientoStockResponse {
	return dto.MovimientoStockResponse{
		ID:            m.ID.String(),
		ProductoID:    m.ProductoID.String(),
		Tipo:          m.Tipo,
		Cantidad:      m.Cantidad,
		ModoAjuste:    m.ModoAjuste,
		StockAntes:    m.StockAntes,
		StockDelta:    m.StockDelta,
		StockDespues:  m.StockDespues,
		Motivo:        m.Motivo,
		Usuario:       m.Usuario,
		Observaciones: m.Observaciones,
		Fecha:         m.Fecha.Format(time.RFC3339),
	}
}
