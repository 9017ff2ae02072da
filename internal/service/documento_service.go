package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"maderera/internal/dto"
	"maderera/internal/metrics"
	"maderera/internal/model"
	"maderera/internal/pricing"
	"maderera/internal/repository"
	"maderera/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DocumentoService builds presupuestos and remitos. Every create and update
// re-prices all lines from their source attributes; stored prices are never
// reused.
type DocumentoService interface {
	Crear(ctx context.Context, req dto.CrearDocumentoRequest, usuario string) (*dto.DocumentoResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarDocumentoRequest, usuario string) (*dto.DocumentoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.DocumentoResponse, error)
	Listar(ctx context.Context, filter dto.DocumentoFilter) (*dto.DocumentoListResponse, error)
	// Previsualizar prices the request without persisting anything.
	Previsualizar(ctx context.Context, req dto.CrearDocumentoRequest) (*dto.DocumentoResponse, error)
	// ArchivoPDF returns the stored PDF file name, relative to the storage dir.
	ArchivoPDF(ctx context.Context, id uuid.UUID) (string, error)
}

// PDFEncolador is satisfied by *worker.Dispatcher.
type PDFEncolador interface {
	EnqueueDocumentoPDF(ctx context.Context, payload worker.DocumentoPDFJobPayload) error
}

type documentoService struct {
	repo         repository.DocumentoRepository
	productoRepo repository.ProductoRepository
	tx           repository.Transactor
	pdf          PDFEncolador
}

// NewDocumentoService accepts a nil pdf encolador; documents are then
// stored without a rendered PDF.
func NewDocumentoService(
	repo repository.DocumentoRepository,
	productoRepo repository.ProductoRepository,
	tx repository.Transactor,
	pdf PDFEncolador,
) DocumentoService {
	return &documentoService{repo: repo, productoRepo: productoRepo, tx: tx, pdf: pdf}
}

// RecalcularLinea fills Precio, CepilladoAplicado and Subtotal of item from
// its source attributes. Wood lines with a per-foot rate go through the
// pricing engine, catalog or free. Any other line takes precio as its unit
// price. Pack-priced lines always store the full line price: for catalog
// lines priced by ValorVenta the quantity is folded in here, while a free
// pack line already carries the line price the caller quoted.
func RecalcularLinea(item *model.DocumentoItem, precio decimal.Decimal, cepillado bool) {
	if item.Categoria == pricing.CategoriaMaderas && item.PrecioPorPie.IsPositive() {
		prod := pricing.Producto{
			Nombre:       item.Nombre,
			Categoria:    item.Categoria,
			Subcategoria: item.Subcategoria,
			UnidadMedida: item.UnidadMedida,
			Alto:         item.Alto,
			Ancho:        item.Ancho,
			Largo:        item.Largo,
			PrecioPorPie: item.PrecioPorPie,
			ValorVenta:   precio,
		}
		opciones := pricing.Opciones{Cantidad: item.Cantidad, Cepillado: cepillado}
		item.Precio = pricing.PrecioLinea(prod, opciones)
		item.CepilladoAplicado = pricing.PreciosProducto(prod, opciones).CepilladoAplicado
	} else {
		item.Precio = precio
		item.CepilladoAplicado = false
		if item.ProductoID != nil && pricing.EsMachimbreOrDeck(item.Subcategoria, item.Nombre) {
			item.Precio = precio.Mul(decimal.Max(decimal.NewFromInt(1), item.Cantidad))
		}
	}
	item.Subtotal = pricing.ComputeLineSubtotal(item.Linea())
}

// construirItems resolves catalog references and prices every line.
func (s *documentoService) construirItems(ctx context.Context, reqs []dto.DocumentoItemRequest) ([]model.DocumentoItem, error) {
	items := make([]model.DocumentoItem, 0, len(reqs))
	for i, r := range reqs {
		item := model.DocumentoItem{
			ID:           uuid.New(),
			Orden:        i + 1,
			Nombre:       r.Nombre,
			Categoria:    r.Categoria,
			Subcategoria: r.Subcategoria,
			UnidadMedida: r.UnidadMedida,
			Alto:         r.Alto,
			Ancho:        r.Ancho,
			Largo:        r.Largo,
			PrecioPorPie: r.PrecioPorPie,
			Cantidad:     r.Cantidad,
			Descuento:    clampPct(r.Descuento),
		}
		if !item.Cantidad.IsPositive() {
			item.Cantidad = decimal.NewFromInt(1)
		}
		precio := r.Precio

		if r.ProductoID != nil {
			pid, err := uuid.Parse(*r.ProductoID)
			if err != nil {
				return nil, nuevaValidacion(fmt.Sprintf("items[%d].producto_id", i), "UUID inválido")
			}
			p, err := s.productoRepo.FindByID(ctx, pid)
			if err != nil {
				if repository.IsNotFound(err) {
					return nil, fmt.Errorf("%w: item %d (%s)", ErrProductoNoEncontrado, i+1, pid)
				}
				return nil, err
			}
			if !p.Activo {
				return nil, fmt.Errorf("%w: item %d (%s)", ErrProductoNoEncontrado, i+1, pid)
			}
			item.ProductoID = &p.ID
			if strings.TrimSpace(item.Nombre) == "" {
				item.Nombre = p.Nombre
			}
			item.Categoria = p.Categoria
			item.Subcategoria = p.Subcategoria
			item.UnidadMedida = p.UnidadMedida
			item.Alto, item.Ancho, item.Largo = p.Alto, p.Ancho, p.Largo
			item.PrecioPorPie = p.PrecioPorPie
			precio = p.ValorVenta
		}

		RecalcularLinea(&item, precio, r.Cepillado)
		items = append(items, item)
	}
	return items, nil
}

func clampPct(d decimal.Decimal) decimal.Decimal {
	cien := decimal.NewFromInt(100)
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(cien) {
		return cien
	}
	return d
}

func calcularTotales(items []model.DocumentoItem, pagoEnEfectivo bool, costoEnvio decimal.Decimal) pricing.TotalesDocumento {
	lineas := make([]pricing.Linea, 0, len(items))
	for i := range items {
		lineas = append(lineas, items[i].Linea())
	}
	return pricing.AplicarModificadores(pricing.ComputeTotals(lineas), pagoEnEfectivo, costoEnvio)
}

func aplicarTotales(d *model.Documento, t pricing.TotalesDocumento) {
	d.Subtotal = t.Subtotal
	d.DescuentoTotal = t.DescuentoTotal
	d.DescuentoEfectivo = t.DescuentoEfectivo
	d.CostoEnvio = t.CostoEnvio
	d.Total = t.Total
}

// ── Crear ────────────────────────────────────────────────────────────────────
//   1. Resolve and price every line (outside TX)
//   2. Fold totals and apply cash / shipping modifiers
//   3. BEGIN TX: next numero for tipo, insert documento + items
//   4. (async) enqueue PDF render

func (s *documentoService) Crear(ctx context.Context, req dto.CrearDocumentoRequest, usuario string) (*dto.DocumentoResponse, error) {
	items, err := s.construirItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	doc := &model.Documento{
		ID:             uuid.New(),
		Tipo:           req.Tipo,
		ClienteNombre:  strings.TrimSpace(req.ClienteNombre),
		ClienteEmail:   req.ClienteEmail,
		PagoEnEfectivo: req.PagoEnEfectivo,
		Observaciones:  req.Observaciones,
		Usuario:        usuario,
		Items:          items,
	}
	aplicarTotales(doc, calcularTotales(items, req.PagoEnEfectivo, req.CostoEnvio))
	for i := range doc.Items {
		doc.Items[i].DocumentoID = doc.ID
	}

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		numero, err := s.repo.NextNumeroTx(tx, doc.Tipo)
		if err != nil {
			return err
		}
		doc.Numero = numero
		doc.Version = 1
		doc.CreatedAt = time.Now()
		doc.UpdatedAt = doc.CreatedAt
		return s.repo.CreateTx(tx, doc)
	})
	if err != nil {
		return nil, err
	}

	metrics.DocumentosTotal.WithLabelValues(doc.Tipo).Inc()
	log.Info().Str("documento_id", doc.ID.String()).Str("tipo", doc.Tipo).Int("numero", doc.Numero).
		Str("total", doc.Total.String()).Msg("documento creado")

	s.encolarPDF(ctx, doc)
	return documentoToResponse(doc), nil
}

// Actualizar is edit mode: the header is replaced and all lines are
// re-priced. Tipo and Numero never change; a stale PDF is discarded.
func (s *documentoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarDocumentoRequest, usuario string) (*dto.DocumentoResponse, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrDocumentoNoEncontrado
		}
		return nil, err
	}

	items, err := s.construirItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].DocumentoID = doc.ID
	}

	doc.ClienteNombre = strings.TrimSpace(req.ClienteNombre)
	doc.ClienteEmail = req.ClienteEmail
	doc.PagoEnEfectivo = req.PagoEnEfectivo
	doc.Observaciones = req.Observaciones
	doc.Usuario = usuario
	doc.PDFPath = nil
	doc.Items = items
	doc.UpdatedAt = time.Now()
	aplicarTotales(doc, calcularTotales(items, req.PagoEnEfectivo, req.CostoEnvio))

	if err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		return s.repo.ReplaceTx(tx, doc)
	}); err != nil {
		return nil, err
	}

	s.encolarPDF(ctx, doc)
	return documentoToResponse(doc), nil
}

func (s *documentoService) encolarPDF(ctx context.Context, doc *model.Documento) {
	if s.pdf == nil {
		return
	}
	payload := worker.DocumentoPDFJobPayload{
		DocumentoID: doc.ID.String(),
		Version:     doc.Version,
		EnviarA:     doc.ClienteEmail,
	}
	if err := s.pdf.EnqueueDocumentoPDF(ctx, payload); err != nil {
		// The document is committed; the PDF can be re-requested by editing it.
		log.Error().Err(err).Str("documento_id", doc.ID.String()).Msg("failed to enqueue PDF job")
	}
}

func (s *documentoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.DocumentoResponse, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrDocumentoNoEncontrado
		}
		return nil, err
	}
	return documentoToResponse(doc), nil
}

func (s *documentoService) ArchivoPDF(ctx context.Context, id uuid.UUID) (string, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", ErrDocumentoNoEncontrado
		}
		return "", err
	}
	if doc.PDFPath == nil || *doc.PDFPath == "" {
		return "", ErrPDFNoDisponible
	}
	return *doc.PDFPath, nil
}

func (s *documentoService) Listar(ctx context.Context, filter dto.DocumentoFilter) (*dto.DocumentoListResponse, error) {
	docs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.DocumentoResponse, 0, len(docs))
	for i := range docs {
		data = append(data, *documentoToResponse(&docs[i]))
	}
	return &dto.DocumentoListResponse{
		Data:  data,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *documentoService) Previsualizar(ctx context.Context, req dto.CrearDocumentoRequest) (*dto.DocumentoResponse, error) {
	items, err := s.construirItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	doc := &model.Documento{
		Tipo:           req.Tipo,
		ClienteNombre:  req.ClienteNombre,
		ClienteEmail:   req.ClienteEmail,
		PagoEnEfectivo: req.PagoEnEfectivo,
		Observaciones:  req.Observaciones,
		Items:          items,
	}
	aplicarTotales(doc, calcularTotales(items, req.PagoEnEfectivo, req.CostoEnvio))
	resp := documentoToResponse(doc)
	resp.ID = ""
	resp.CreatedAt = ""
	return resp, nil
}

func documentoToResponse(d *model.Documento) *dto.DocumentoResponse {
	items := make([]dto.DocumentoItemResponse, 0, len(d.Items))
	for _, it := range d.Items {
		var pid *string
		if it.ProductoID != nil {
			s := it.ProductoID.String()
			pid = &s
		}
		items = append(items, dto.DocumentoItemResponse{
			ProductoID:        pid,
			Nombre:            it.Nombre,
			Categoria:         it.Categoria,
			Subcategoria:      it.Subcategoria,
			UnidadMedida:      it.UnidadMedida,
			Cantidad:          it.Cantidad,
			Descuento:         it.Descuento,
			CepilladoAplicado: it.CepilladoAplicado,
			Precio:            it.Precio,
			Subtotal:          it.Subtotal,
		})
	}

	resp := &dto.DocumentoResponse{
		Tipo:              d.Tipo,
		Numero:            d.Numero,
		ClienteNombre:     d.ClienteNombre,
		ClienteEmail:      d.ClienteEmail,
		PagoEnEfectivo:    d.PagoEnEfectivo,
		Items:             items,
		Subtotal:          d.Subtotal,
		DescuentoTotal:    d.DescuentoTotal,
		DescuentoEfectivo: d.DescuentoEfectivo,
		CostoEnvio:        d.CostoEnvio,
		Total:             d.Total,
		Observaciones:     d.Observaciones,
		PDFDisponible:     d.PDFPath != nil && *d.PDFPath != "",
	}
	if d.ID != uuid.Nil {
		resp.ID = d.ID.String()
	}
	if !d.CreatedAt.IsZero() {
		resp.CreatedAt = d.CreatedAt.Format(time.RFC3339)
	}
	return resp
}
