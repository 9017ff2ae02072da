package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"maderera/internal/dto"
	"maderera/internal/model"
	"maderera/internal/repository"
	"maderera/internal/worker"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── In-memory store shared by every stub repository ──────────────────────────
// Repositories hand out copies so a rolled-back transaction cannot leak
// through a pointer the caller kept.

type stubStore struct {
	mu         sync.RWMutex
	productos  map[uuid.UUID]model.Producto
	movs       []model.MovimientoStock
	historial  []model.HistorialPrecio
	documentos map[uuid.UUID]model.Documento
}

func newStubStore() *stubStore {
	return &stubStore{
		productos:  make(map[uuid.UUID]model.Producto),
		documentos: make(map[uuid.UUID]model.Documento),
	}
}

func (s *stubStore) snapshot() *stubStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := newStubStore()
	for k, v := range s.productos {
		c.productos[k] = v
	}
	for k, v := range s.documentos {
		c.documentos[k] = v
	}
	c.movs = append(c.movs, s.movs...)
	c.historial = append(c.historial, s.historial...)
	return c
}

func (s *stubStore) restore(c *stubStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.productos = c.productos
	s.documentos = c.documentos
	s.movs = c.movs
	s.historial = c.historial
}

func (s *stubStore) addProducto(p model.Producto) model.Producto {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Activo = true
	s.mu.Lock()
	s.productos[p.ID] = p
	s.mu.Unlock()
	return p
}

func (s *stubStore) producto(id uuid.UUID) model.Producto {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.productos[id]
}

func (s *stubStore) movimientos() []model.MovimientoStock {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.MovimientoStock(nil), s.movs...)
}

// ── Transactor stub: serializes like a row lock, rolls back on error ─────────

type stubTransactor struct {
	mu    sync.Mutex
	store *stubStore
	calls int
}

func (t *stubTransactor) Transaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	snap := t.store.snapshot()
	if err := fn(nil); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// ── ProductoRepository stub ──────────────────────────────────────────────────

type stubProductoRepo struct{ s *stubStore }

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *stubProductoRepo) List(_ context.Context, _ dto.ProductoFilter) ([]model.Producto, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Producto
	for _, p := range r.s.productos {
		if p.Activo {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, int64(len(out)), nil
}

func (r *stubProductoRepo) ListBajoMinimo(_ context.Context) ([]model.Producto, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Producto
	for _, p := range r.s.productos {
		if p.Activo && p.Stock <= p.StockMinimo {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubProductoRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Activo = false
	r.s.productos[id] = p
	return nil
}

func (r *stubProductoRepo) CreateTx(_ *gorm.DB, p *model.Producto) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.productos[p.ID] = *p
	return nil
}

func (r *stubProductoRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductoRepo) UpdateTx(_ *gorm.DB, p *model.Producto) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur := r.s.productos[p.ID]
	stock := cur.Stock
	cur = *p
	cur.Stock = stock
	r.s.productos[p.ID] = cur
	return nil
}

func (r *stubProductoRepo) SetStockTx(_ *gorm.DB, id uuid.UUID, stock int, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.productos[id]
	p.Stock = stock
	p.UpdatedAt = at
	r.s.productos[id] = p
	return nil
}

// ── MovimientoStockRepository stub ───────────────────────────────────────────

type stubMovRepo struct{ s *stubStore }

func (r *stubMovRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.movs = append(r.s.movs, *m)
	return nil
}

func (r *stubMovRepo) List(_ context.Context, f repository.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.MovimientoStock
	for i := len(r.s.movs) - 1; i >= 0; i-- {
		m := r.s.movs[i]
		if f.ProductoID != nil && m.ProductoID != *f.ProductoID {
			continue
		}
		if f.Tipo != "" && m.Tipo != f.Tipo {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *stubMovRepo) ListByProducto(_ context.Context, id uuid.UUID) ([]model.MovimientoStock, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.MovimientoStock
	for _, m := range r.s.movs {
		if m.ProductoID == id {
			out = append(out, m)
		}
	}
	return out, nil
}

// ── HistorialPrecioRepository stub ───────────────────────────────────────────

type stubHistorialRepo struct{ s *stubStore }

func (r *stubHistorialRepo) CreateTx(_ *gorm.DB, h *model.HistorialPrecio) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.historial = append(r.s.historial, *h)
	return nil
}

func (r *stubHistorialRepo) ListByProducto(_ context.Context, id uuid.UUID, _ repository.HistorialPrecioFilter) ([]model.HistorialPrecio, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.HistorialPrecio
	for _, h := range r.s.historial {
		if h.ProductoID == id {
			out = append(out, h)
		}
	}
	return out, int64(len(out)), nil
}

// ── DocumentoRepository stub ─────────────────────────────────────────────────

type stubDocumentoRepo struct{ s *stubStore }

func (r *stubDocumentoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Documento, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.documentos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	d.Items = append([]model.DocumentoItem(nil), d.Items...)
	return &d, nil
}

func (r *stubDocumentoRepo) List(_ context.Context, f dto.DocumentoFilter) ([]model.Documento, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Documento
	for _, d := range r.s.documentos {
		if f.Tipo == "" || d.Tipo == f.Tipo {
			out = append(out, d)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubDocumentoRepo) SetPDFPath(_ context.Context, id uuid.UUID, version int, path string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d := r.s.documentos[id]
	if d.Version != version {
		return false, nil
	}
	d.PDFPath = &path
	r.s.documentos[id] = d
	return true, nil
}

func (r *stubDocumentoRepo) CreateTx(_ *gorm.DB, d *model.Documento) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *d
	c.Items = append([]model.DocumentoItem(nil), d.Items...)
	r.s.documentos[d.ID] = c
	return nil
}

func (r *stubDocumentoRepo) ReplaceTx(tx *gorm.DB, d *model.Documento) error {
	r.s.mu.RLock()
	d.Version = r.s.documentos[d.ID].Version + 1
	r.s.mu.RUnlock()
	return r.CreateTx(tx, d)
}

func (r *stubDocumentoRepo) NextNumeroTx(_ *gorm.DB, tipo string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	max := 0
	for _, d := range r.s.documentos {
		if d.Tipo == tipo && d.Numero > max {
			max = d.Numero
		}
	}
	return max + 1, nil
}

// ── PDF job recorder ─────────────────────────────────────────────────────────

type stubEncolador struct {
	mu   sync.Mutex
	jobs []worker.DocumentoPDFJobPayload
}

func (e *stubEncolador) EnqueueDocumentoPDF(_ context.Context, p worker.DocumentoPDFJobPayload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jobs = append(e.jobs, p)
	return nil
}
