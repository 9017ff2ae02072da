package service_test

import (
	"context"
	"testing"

	"maderera/internal/dto"
	"maderera/internal/model"
	"maderera/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type documentoFixture struct {
	store *stubStore
	jobs  *stubEncolador
	svc   service.DocumentoService
}

func newDocumentoFixture() *documentoFixture {
	store := newStubStore()
	jobs := &stubEncolador{}
	svc := service.NewDocumentoService(
		&stubDocumentoRepo{s: store},
		&stubProductoRepo{s: store},
		&stubTransactor{store: store},
		jobs,
	)
	return &documentoFixture{store: store, jobs: jobs, svc: svc}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func lineasEscenario() []dto.DocumentoItemRequest {
	return []dto.DocumentoItemRequest{
		{Nombre: "Deck eucalipto", Categoria: "Maderas", Subcategoria: "deck", Precio: dec("12000"), Descuento: dec("10"), Cantidad: dec("5")},
		{Nombre: "Tornillos", Categoria: "Ferretería", Precio: dec("250"), Cantidad: dec("4")},
	}
}

func TestCrearDocumento_TotalesDelEscenario(t *testing.T) {
	f := newDocumentoFixture()
	email := "cliente@example.com"

	resp, err := f.svc.Crear(context.Background(), dto.CrearDocumentoRequest{
		Tipo:          model.DocumentoPresupuesto,
		ClienteNombre: "Obra Lopez",
		ClienteEmail:  &email,
		Items:         lineasEscenario(),
	}, "ana")
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Numero)
	assertDec(t, "13000", resp.Subtotal)
	assertDec(t, "1200", resp.DescuentoTotal)
	assertDec(t, "0", resp.DescuentoEfectivo)
	assertDec(t, "11800", resp.Total)
	require.Len(t, resp.Items, 2)
	assertDec(t, "10800", resp.Items[0].Subtotal)
	assertDec(t, "1000", resp.Items[1].Subtotal)

	require.Len(t, f.jobs.jobs, 1)
	assert.Equal(t, resp.ID, f.jobs.jobs[0].DocumentoID)
	require.NotNil(t, f.jobs.jobs[0].EnviarA)
	assert.Equal(t, email, *f.jobs.jobs[0].EnviarA)
}

func TestCrearDocumento_EfectivoYEnvio(t *testing.T) {
	f := newDocumentoFixture()

	resp, err := f.svc.Crear(context.Background(), dto.CrearDocumentoRequest{
		Tipo:           model.DocumentoPresupuesto,
		ClienteNombre:  "Obra Lopez",
		PagoEnEfectivo: true,
		CostoEnvio:     dec("2500"),
		Items:          lineasEscenario(),
	}, "ana")
	require.NoError(t, err)

	assertDec(t, "1300", resp.DescuentoEfectivo)
	assertDec(t, "2500", resp.CostoEnvio)
	// 13000 - 1200 - 1300 + 2500
	assertDec(t, "13000", resp.Total)
}

func TestCrearDocumento_NumeracionPorTipo(t *testing.T) {
	f := newDocumentoFixture()
	ctx := context.Background()
	crear := func(tipo string) int {
		resp, err := f.svc.Crear(ctx, dto.CrearDocumentoRequest{
			Tipo: tipo, ClienteNombre: "Cliente", Items: lineasEscenario(),
		}, "ana")
		require.NoError(t, err)
		return resp.Numero
	}

	assert.Equal(t, 1, crear(model.DocumentoPresupuesto))
	assert.Equal(t, 2, crear(model.DocumentoPresupuesto))
	assert.Equal(t, 1, crear(model.DocumentoRemito))
}

func TestCrearDocumento_RepreciaDesdeCatalogo(t *testing.T) {
	f := newDocumentoFixture()
	p := f.store.addProducto(model.Producto{
		Nombre: "Machimbre pino", Categoria: "Maderas", Subcategoria: "machimbre", UnidadMedida: "M2",
		Alto: dec("0.5"), Largo: dec("4"), PrecioPorPie: dec("1000"),
	})
	pid := p.ID.String()

	resp, err := f.svc.Crear(context.Background(), dto.CrearDocumentoRequest{
		Tipo:          model.DocumentoPresupuesto,
		ClienteNombre: "Cliente",
		Items: []dto.DocumentoItemRequest{
			// The client-sent price is ignored for catalog lines.
			{ProductoID: &pid, Precio: dec("1"), Cantidad: dec("3"), Cepillado: true},
		},
	}, "ana")
	require.NoError(t, err)

	it := resp.Items[0]
	assert.Equal(t, "Machimbre pino", it.Nombre)
	assert.True(t, it.CepilladoAplicado)
	// Pack line stores the full line price: round100(6000 × 1.066) = 6400.
	assertDec(t, "6400", it.Precio)
	assertDec(t, "6400", it.Subtotal)
	assertDec(t, "6400", resp.Total)
}

func TestCrearDocumento_PackDeCatalogoPorValorVenta(t *testing.T) {
	f := newDocumentoFixture()
	tornillos := f.store.addProducto(model.Producto{Nombre: "Tornillos para deck", Categoria: "Ferretería", ValorVenta: dec("100")})
	deck := f.store.addProducto(model.Producto{
		Nombre: "Deck pino", Categoria: "Maderas", Subcategoria: "deck", ValorVenta: dec("5000"),
	})
	tid, did := tornillos.ID.String(), deck.ID.String()

	resp, err := f.svc.Crear(context.Background(), dto.CrearDocumentoRequest{
		Tipo:          model.DocumentoPresupuesto,
		ClienteNombre: "Cliente",
		Items: []dto.DocumentoItemRequest{
			{ProductoID: &tid, Cantidad: dec("10")},
			{ProductoID: &did, Cantidad: dec("4")},
		},
	}, "ana")
	require.NoError(t, err)

	assertDec(t, "1000", resp.Items[0].Precio)
	assertDec(t, "1000", resp.Items[0].Subtotal)
	assertDec(t, "20000", resp.Items[1].Precio)
	assertDec(t, "20000", resp.Items[1].Subtotal)
	assertDec(t, "21000", resp.Subtotal)
	assertDec(t, "21000", resp.Total)
}

func TestCrearDocumento_LineasLibres(t *testing.T) {
	f := newDocumentoFixture()

	resp, err := f.svc.Crear(context.Background(), dto.CrearDocumentoRequest{
		Tipo:          model.DocumentoPresupuesto,
		ClienteNombre: "Cliente",
		Items: []dto.DocumentoItemRequest{
			// Free wood line with a per-foot rate goes through the engine.
			{Nombre: "Tirante a medida", Categoria: "Maderas", UnidadMedida: "Unidad", PrecioPorPie: dec("1049"), Precio: dec("1"), Cantidad: dec("2")},
			// Free pack line keeps the line price the caller quoted.
			{Nombre: "Deck eucalipto", Categoria: "Maderas", Subcategoria: "deck", Precio: dec("12000"), Cantidad: dec("5")},
		},
	}, "ana")
	require.NoError(t, err)

	assertDec(t, "1000", resp.Items[0].Precio)
	assertDec(t, "2000", resp.Items[0].Subtotal)
	assertDec(t, "12000", resp.Items[1].Precio)
	assertDec(t, "12000", resp.Items[1].Subtotal)
}

func TestCrearDocumento_ProductoInactivo(t *testing.T) {
	f := newDocumentoFixture()
	p := f.store.addProducto(model.Producto{Nombre: "Cemento", Categoria: "Construcción", ValorVenta: dec("9000")})
	require.NoError(t, (&stubProductoRepo{s: f.store}).SoftDelete(context.Background(), p.ID))
	pid := p.ID.String()

	_, err := f.svc.Crear(context.Background(), dto.CrearDocumentoRequest{
		Tipo: model.DocumentoPresupuesto, ClienteNombre: "Cliente",
		Items: []dto.DocumentoItemRequest{{ProductoID: &pid, Cantidad: dec("1")}},
	}, "ana")
	assert.ErrorIs(t, err, service.ErrProductoNoEncontrado)
	assert.Empty(t, f.store.documentos)
}

func TestCrearDocumento_ProductoInexistente(t *testing.T) {
	f := newDocumentoFixture()
	pid := uuid.NewString()

	_, err := f.svc.Crear(context.Background(), dto.CrearDocumentoRequest{
		Tipo: model.DocumentoRemito, ClienteNombre: "Cliente",
		Items: []dto.DocumentoItemRequest{{ProductoID: &pid, Cantidad: dec("1")}},
	}, "ana")
	assert.ErrorIs(t, err, service.ErrProductoNoEncontrado)
	assert.Empty(t, f.jobs.jobs)
}

func TestActualizarDocumento_RecalculaConPrecioNuevo(t *testing.T) {
	f := newDocumentoFixture()
	ctx := context.Background()
	p := f.store.addProducto(model.Producto{Nombre: "Cemento", Categoria: "Construcción", ValorVenta: dec("9000")})
	pid := p.ID.String()

	creado, err := f.svc.Crear(ctx, dto.CrearDocumentoRequest{
		Tipo: model.DocumentoPresupuesto, ClienteNombre: "Cliente",
		Items: []dto.DocumentoItemRequest{{ProductoID: &pid, Cantidad: dec("2")}},
	}, "ana")
	require.NoError(t, err)
	assertDec(t, "18000", creado.Total)

	f.store.mu.Lock()
	prod := f.store.productos[p.ID]
	prod.ValorVenta = dec("10000")
	f.store.productos[p.ID] = prod
	f.store.mu.Unlock()

	id := uuid.MustParse(creado.ID)
	editado, err := f.svc.Actualizar(ctx, id, dto.ActualizarDocumentoRequest{
		ClienteNombre: "Cliente",
		Items:         []dto.DocumentoItemRequest{{ProductoID: &pid, Cantidad: dec("2")}},
	}, "ana")
	require.NoError(t, err)

	assertDec(t, "20000", editado.Total)
	assert.Equal(t, creado.Numero, editado.Numero)
	assert.False(t, editado.PDFDisponible)
	require.Len(t, f.jobs.jobs, 2)
	assert.Equal(t, 1, f.jobs.jobs[0].Version)
	assert.Equal(t, 2, f.jobs.jobs[1].Version)
	assert.Equal(t, 2, f.store.documentos[id].Version)
}

func TestActualizarDocumento_Inexistente(t *testing.T) {
	f := newDocumentoFixture()
	_, err := f.svc.Actualizar(context.Background(), uuid.New(), dto.ActualizarDocumentoRequest{
		ClienteNombre: "Cliente", Items: lineasEscenario(),
	}, "ana")
	assert.ErrorIs(t, err, service.ErrDocumentoNoEncontrado)
}

func TestPrevisualizar_NoPersiste(t *testing.T) {
	f := newDocumentoFixture()

	resp, err := f.svc.Previsualizar(context.Background(), dto.CrearDocumentoRequest{
		Tipo: model.DocumentoPresupuesto, ClienteNombre: "Cliente", Items: lineasEscenario(),
	})
	require.NoError(t, err)
	assertDec(t, "11800", resp.Total)
	assert.Empty(t, resp.ID)
	assert.Empty(t, f.store.documentos)
	assert.Empty(t, f.jobs.jobs)
}

func TestRecalcularLinea_UnidadSinCepillado(t *testing.T) {
	item := model.DocumentoItem{
		Nombre: "Poste", Categoria: "Maderas", UnidadMedida: "Unidad",
		PrecioPorPie: dec("1049"), Cantidad: dec("2"),
	}
	service.RecalcularLinea(&item, decimal.Zero, true)

	assert.False(t, item.CepilladoAplicado)
	assertDec(t, "1000", item.Precio)
	assertDec(t, "2000", item.Subtotal)
}

func TestArchivoPDF(t *testing.T) {
	f := newDocumentoFixture()
	ctx := context.Background()
	creado, err := f.svc.Crear(ctx, dto.CrearDocumentoRequest{
		Tipo: model.DocumentoRemito, ClienteNombre: "Cliente", Items: lineasEscenario(),
	}, "ana")
	require.NoError(t, err)
	id := uuid.MustParse(creado.ID)

	_, err = f.svc.ArchivoPDF(ctx, id)
	assert.ErrorIs(t, err, service.ErrPDFNoDisponible)

	guardado, err := (&stubDocumentoRepo{s: f.store}).SetPDFPath(ctx, id, 1, "remito_000001.pdf")
	require.NoError(t, err)
	require.True(t, guardado)
	nombre, err := f.svc.ArchivoPDF(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "remito_000001.pdf", nombre)

	_, err = f.svc.ArchivoPDF(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrDocumentoNoEncontrado)
}
