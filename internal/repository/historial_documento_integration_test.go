//go:build integration

package repository_test

import (
	"context"
	"testing"
	"time"

	"maderera/internal/dto"
	"maderera/internal/model"
	"maderera/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistorialPrecios_FiltraPorCampo(t *testing.T) {
	env := setupLedger(t)
	ctx := context.Background()

	p, err := env.productos.Crear(ctx, dto.CrearProductoRequest{
		Nombre: "Tirante pino 2x4", Categoria: "Maderas",
		PrecioPorPie: decimal.NewFromInt(1000), ValorVenta: decimal.NewFromInt(500),
	}, "test")
	require.NoError(t, err)
	id := mustUUID(t, p.ID)

	ppp := decimal.NewFromInt(1100)
	_, err = env.productos.Actualizar(ctx, id, dto.ActualizarProductoRequest{PrecioPorPie: &ppp}, "test")
	require.NoError(t, err)
	vv := decimal.NewFromInt(600)
	_, err = env.productos.Actualizar(ctx, id, dto.ActualizarProductoRequest{ValorVenta: &vv}, "test")
	require.NoError(t, err)

	repo := repository.NewHistorialPrecioRepository(env.db)

	todos, total, err := repo.ListByProducto(ctx, id, repository.HistorialPrecioFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, todos, 2)
	assert.True(t, todos[0].ValorVentaDespues.Equal(vv), "newest first")

	soloPPP, total, err := repo.ListByProducto(ctx, id, repository.HistorialPrecioFilter{Campo: repository.CampoPrecioPorPie})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, soloPPP, 1)
	assert.True(t, soloPPP[0].PrecioPorPieDespues.Equal(ppp))

	manana := time.Now().Add(24 * time.Hour)
	vacio, total, err := repo.ListByProducto(ctx, id, repository.HistorialPrecioFilter{Desde: &manana})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, vacio)
}

func TestDocumentos_PDFPathSoloParaVersionVigente(t *testing.T) {
	env := setupLedger(t)
	ctx := context.Background()

	items := []dto.DocumentoItemRequest{{Nombre: "Tornillos", Categoria: "Ferretería", Precio: decimal.NewFromInt(100), Cantidad: decimal.NewFromInt(3)}}
	creado, err := env.documentos.Crear(ctx, dto.CrearDocumentoRequest{
		Tipo: model.DocumentoPresupuesto, ClienteNombre: "Cliente", Items: items,
	}, "test")
	require.NoError(t, err)
	id := mustUUID(t, creado.ID)

	_, err = env.documentos.Actualizar(ctx, id, dto.ActualizarDocumentoRequest{ClienteNombre: "Cliente", Items: items}, "test")
	require.NoError(t, err)

	repo := repository.NewDocumentoRepository(env.db)
	doc, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Version)

	ok, err := repo.SetPDFPath(ctx, id, 1, "presupuesto_000001.pdf")
	require.NoError(t, err)
	assert.False(t, ok, "a render of the first version must not be stored")

	ok, err = repo.SetPDFPath(ctx, id, 2, "presupuesto_000001_v2.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
}
