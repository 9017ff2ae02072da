package repository

import (
	"context"

	"maderera/internal/dto"
	"maderera/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentoRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Documento, error)
	List(ctx context.Context, filter dto.DocumentoFilter) ([]model.Documento, int64, error)
	// SetPDFPath stores path only while the document is still at version.
	// It reports false when the document was edited in the meantime.
	SetPDFPath(ctx context.Context, id uuid.UUID, version int, path string) (bool, error)

	CreateTx(tx *gorm.DB, d *model.Documento) error
	// ReplaceTx overwrites the header and replaces every item. It locks the
	// row and sets d.Version to the stored version plus one.
	ReplaceTx(tx *gorm.DB, d *model.Documento) error
	NextNumeroTx(tx *gorm.DB, tipo string) (int, error)
}

type documentoRepo struct{ db *gorm.DB }

func NewDocumentoRepository(db *gorm.DB) DocumentoRepository { return &documentoRepo{db: db} }

func (r *documentoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Documento, error) {
	var d model.Documento
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("orden ASC") }).
		First(&d, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *documentoRepo) List(ctx context.Context, filter dto.DocumentoFilter) ([]model.Documento, int64, error) {
	var docs []model.Documento
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Documento{})
	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := paginate(filter.Page, filter.Limit, 50, 200)
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("orden ASC") }).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&docs).Error
	return docs, total, err
}

func (r *documentoRepo) SetPDFPath(ctx context.Context, id uuid.UUID, version int, path string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Documento{}).
		Where("id = ? AND version = ?", id, version).
		Update("pdf_path", path)
	return res.RowsAffected > 0, res.Error
}

func (r *documentoRepo) CreateTx(tx *gorm.DB, d *model.Documento) error {
	return tx.Create(d).Error
}

func (r *documentoRepo) ReplaceTx(tx *gorm.DB, d *model.Documento) error {
	var actual int
	err := tx.Model(&model.Documento{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("version").
		Where("id = ?", d.ID).
		Scan(&actual).Error
	if err != nil {
		return err
	}
	d.Version = actual + 1

	if err := tx.Where("documento_id = ?", d.ID).Delete(&model.DocumentoItem{}).Error; err != nil {
		return err
	}
	if err := tx.Omit("Items").Save(d).Error; err != nil {
		return err
	}
	for i := range d.Items {
		d.Items[i].DocumentoID = d.ID
	}
	if len(d.Items) == 0 {
		return nil
	}
	return tx.Create(&d.Items).Error
}

// NextNumeroTx serializes numbering per tipo with a transaction-scoped
// advisory lock, then takes MAX+1.
func (r *documentoRepo) NextNumeroTx(tx *gorm.DB, tipo string) (int, error) {
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "documentos:"+tipo).Error; err != nil {
		return 0, err
	}
	var num int
	err := tx.Raw("SELECT COALESCE(MAX(numero), 0) + 1 FROM documentos WHERE tipo = ?", tipo).Scan(&num).Error
	return num, err
}
