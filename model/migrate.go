package model

import "gorm.io/gorm"

// allModels lists every model to be migrated, in a fixed order.
var allModels = []interface{}{
	&User{},
	&Item{},
	&AuditLog{},
}

// columnMigrations lists additive column migrations applied after the
// base tables exist. Each step is safe to re-run: the column is added
// only when absent. Columns are never dropped or renamed.
var columnMigrations = []struct {
	model  interface{}
	column string
}{
	// image_url arrived after the first release of inventory_items.
	{&Item{}, "image_url"},
}

// Migrate creates or updates all tables and then applies the ordered
// additive column migrations. Any failure is returned to the caller
// and is fatal for process startup.
func Migrate(db *gorm.DB) error {
	for _, m := range allModels {
		if err := db.AutoMigrate(m); err != nil {
			return err
		}
	}
	for _, cm := range columnMigrations {
		if err := EnsureColumn(db, cm.model, cm.column); err != nil {
			return err
		}
	}
	return nil
}

// EnsureColumn adds the named column to the model's table when it is
// missing; when the column already exists it is a no-op.
func EnsureColumn(db *gorm.DB, m interface{}, column string) error {
	if db.Migrator().HasColumn(m, column) {
		return nil
	}
	return db.Migrator().AddColumn(m, column)
}
