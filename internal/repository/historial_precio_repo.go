package repository

import (
	"context"
	"time"

	"maderera/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Price columns a history query can be narrowed to. Narrowing keeps only the
// rows where that column actually changed.
const (
	CampoPrecioPorPie = "precio_por_pie"
	CampoValorVenta   = "valor_venta"
)

type HistorialPrecioFilter struct {
	Campo string
	Desde *time.Time
	Hasta *time.Time // exclusive
	Page  int
	Limit int
}

type HistorialPrecioRepository interface {
	CreateTx(tx *gorm.DB, h *model.HistorialPrecio) error
	ListByProducto(ctx context.Context, productoID uuid.UUID, filter HistorialPrecioFilter) ([]model.HistorialPrecio, int64, error)
}

type historialPrecioRepository struct{ db *gorm.DB }

func NewHistorialPrecioRepository(db *gorm.DB) HistorialPrecioRepository {
	return &historialPrecioRepository{db: db}
}

func (r *historialPrecioRepository) CreateTx(tx *gorm.DB, h *model.HistorialPrecio) error {
	return tx.Omit("Producto").Create(h).Error
}

// ListByProducto pages through the price changes of one product, newest
// first. Rows written in the same instant keep a stable order by id.
func (r *historialPrecioRepository) ListByProducto(
	ctx context.Context,
	productoID uuid.UUID,
	filter HistorialPrecioFilter,
) ([]model.HistorialPrecio, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.HistorialPrecio{}).
		Where("producto_id = ?", productoID)

	switch filter.Campo {
	case CampoPrecioPorPie:
		q = q.Where("precio_por_pie_antes <> precio_por_pie_despues")
	case CampoValorVenta:
		q = q.Where("valor_venta_antes <> valor_venta_despues")
	}
	if filter.Desde != nil {
		q = q.Where("created_at >= ?", *filter.Desde)
	}
	if filter.Hasta != nil {
		q = q.Where("created_at < ?", *filter.Hasta)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := paginate(filter.Page, filter.Limit, 50, 200)
	var rows []model.HistorialPrecio
	if err := q.Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}
