package database

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"storefront/internal/models"
)

// ErrLegacySchema means the purchases table predates the purchase_time column
// and has to be migrated before the schema can be initialised.
var ErrLegacySchema = errors.New("purchases table uses the legacy purchase_date column; run the migrate command first")

const (
	purchasesTable       = "purchases"
	purchasesBackupTable = "purchases_backup"
)

// InitSchema creates every table the service needs that does not exist yet.
// Existing tables are left exactly as they are, so running it against an
// initialised database changes nothing.
func InitSchema(db *gorm.DB) error {
	if isLegacyPurchases(db) {
		return ErrLegacySchema
	}
	if err := createMissingTables(db,
		&models.User{},
		&models.Product{},
		&models.Purchase{},
		&models.ChatMessage{},
	); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}
	log.Info().Msg("Database schema initialized successfully")
	return nil
}

// createMissingTables creates the tables of dst in order, skipping any that
// already exist. Parents must come before the tables referencing them.
func createMissingTables(db *gorm.DB, dst ...interface{}) error {
	m := db.Migrator()
	for _, model := range dst {
		if m.HasTable(model) {
			continue
		}
		if err := m.CreateTable(model); err != nil {
			return err
		}
	}
	return nil
}

// MigrateLegacyPurchases rebuilds a purchases table that still records
// purchase_date into the current layout, carrying each purchase_date over as
// purchase_time, and then makes sure the remaining tables exist. It reports
// whether a rebuild happened.
func MigrateLegacyPurchases(db *gorm.DB) (bool, error) {
	if !isLegacyPurchases(db) {
		return false, InitSchema(db)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := createMissingTables(tx, &models.User{}, &models.Product{}); err != nil {
			return fmt.Errorf("failed to ensure users and products: %w", err)
		}
		if err := tx.Exec(fmt.Sprintf(
			"CREATE TABLE %s AS SELECT id, user_id, product_id, purchase_date FROM %s",
			purchasesBackupTable, purchasesTable,
		)).Error; err != nil {
			return fmt.Errorf("failed to back up purchases: %w", err)
		}
		if err := tx.Migrator().DropTable(purchasesTable); err != nil {
			return fmt.Errorf("failed to drop legacy purchases: %w", err)
		}
		if err := tx.Migrator().CreateTable(&models.Purchase{}); err != nil {
			return fmt.Errorf("failed to create purchases: %w", err)
		}

		res := tx.Exec(fmt.Sprintf(
			"INSERT INTO %s (id, user_id, product_id, purchase_time) "+
				"SELECT id, user_id, product_id, COALESCE(purchase_date, CURRENT_TIMESTAMP) FROM %s "+
				"WHERE user_id IS NOT NULL AND product_id IS NOT NULL",
			purchasesTable, purchasesBackupTable,
		))
		if res.Error != nil {
			return fmt.Errorf("failed to restore purchases: %w", res.Error)
		}

		var total int64
		if err := tx.Table(purchasesBackupTable).Count(&total).Error; err != nil {
			return fmt.Errorf("failed to count backed up purchases: %w", err)
		}
		if skipped := total - res.RowsAffected; skipped > 0 {
			log.Warn().Int64("skipped", skipped).Msg("Dropped purchases without a user or product")
		}

		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec(
				"SELECT setval(pg_get_serial_sequence('purchases', 'id'), COALESCE(MAX(id), 1)) FROM purchases",
			).Error; err != nil {
				return fmt.Errorf("failed to reset purchases sequence: %w", err)
			}
		}

		if err := tx.Migrator().DropTable(purchasesBackupTable); err != nil {
			return fmt.Errorf("failed to drop purchases backup: %w", err)
		}

		log.Info().Int64("restored", res.RowsAffected).Msg("Purchases table migrated to purchase_time")
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to migrate purchases: %w", err)
	}

	if err := InitSchema(db); err != nil {
		return true, err
	}
	return true, nil
}

func isLegacyPurchases(db *gorm.DB) bool {
	m := db.Migrator()
	return m.HasTable(purchasesTable) &&
		m.HasColumn(purchasesTable, "purchase_date") &&
		!m.HasColumn(purchasesTable, "purchase_time")
}

// Optimize refreshes the query planner statistics.
func Optimize(db *gorm.DB) error {
	stmt := "PRAGMA optimize"
	if db.Dialector.Name() == "postgres" {
		stmt = "ANALYZE"
	}
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("failed to optimize database: %w", err)
	}
	return nil
}
