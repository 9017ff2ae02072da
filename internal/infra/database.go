package infra

import (
	"fmt"

	"maderera/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx. The caller runs
// Migrate once at startup.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	return db, nil
}

// Migrate runs AutoMigrate for every model and then the idempotent patches
// AutoMigrate cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Producto{},
		&model.MovimientoStock{},
		&model.HistorialPrecio{},
		&model.Documento{},
		&model.DocumentoItem{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL. Each statement is guarded so
// re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// AutoMigrate only adds CHECKs on table creation; older tables need it explicitly.
		{"productos stock >= 0", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_productos_stock') THEN
    ALTER TABLE productos ADD CONSTRAINT chk_productos_stock CHECK (stock >= 0);
  END IF;
END $$`},
		{"movimientos_stock chain index", `
CREATE INDEX IF NOT EXISTS idx_movimientos_stock_producto_fecha
    ON movimientos_stock (producto_id, fecha)`},
		{"movimientos_stock snapshot consistency", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_movimientos_stock_snapshot') THEN
    ALTER TABLE movimientos_stock ADD CONSTRAINT chk_movimientos_stock_snapshot
      CHECK (stock_despues = stock_antes + stock_delta AND stock_despues >= 0);
  END IF;
END $$`},
		{"productos bajo minimo partial index", `
CREATE INDEX IF NOT EXISTS idx_productos_bajo_minimo
    ON productos (stock)
    WHERE activo = true AND stock <= stock_minimo`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
