// internal/infrastructure/database/gormdb/migration.go
package gormdb

import (
	"context"
	"fmt"

	"github.com/Kyac99/finance-gestion-app/internal/config"
	"github.com/Kyac99/finance-gestion-app/internal/domain/inventory"
	"github.com/Kyac99/finance-gestion-app/internal/domain/partner"
	"github.com/Kyac99/finance-gestion-app/internal/domain/product"
	"github.com/Kyac99/finance-gestion-app/internal/domain/purchase"
	"github.com/Kyac99/finance-gestion-app/internal/domain/sale"
	"github.com/Kyac99/finance-gestion-app/internal/domain/user"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Models lists every persisted type in dependency order
func Models() []interface{} {
	return []interface{}{
		&user.User{},

		&partner.Supplier{},
		&partner.Customer{},

		&product.Category{},
		&product.Product{},

		&purchase.Purchase{},
		&purchase.PurchaseItem{},
		&purchase.PurchasePayment{},

		&sale.Sale{},
		&sale.SaleItem{},
		&sale.SalePayment{},
		&sale.Invoice{},

		&inventory.StockMovement{},
	}
}

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log logrus.FieldLogger) *Migration {
	return &Migration{
		db:  db,
		log: log,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("Running database auto-migrations")

	for _, model := range Models() {
		m.log.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("Database auto-migrations completed")
	return nil
}

var indexes = []string{
	// Purchases
	"CREATE INDEX IF NOT EXISTS idx_purchases_supplier_status ON purchases(supplier_id, status)",
	"CREATE INDEX IF NOT EXISTS idx_purchases_payment_status ON purchases(payment_status, order_date)",

	// Sales
	"CREATE INDEX IF NOT EXISTS idx_sales_customer_status ON sales(customer_id, status)",
	"CREATE INDEX IF NOT EXISTS idx_sales_payment_status ON sales(payment_status, sale_date)",

	// Payments
	"CREATE INDEX IF NOT EXISTS idx_purchase_payments_purchase_date ON purchase_payments(purchase_id, payment_date)",
	"CREATE INDEX IF NOT EXISTS idx_sale_payments_sale_date ON sale_payments(sale_id, payment_date)",

	// Stock ledger
	"CREATE INDEX IF NOT EXISTS idx_stock_movements_product_date ON stock_movements(product_id, date)",

	// Products
	"CREATE INDEX IF NOT EXISTS idx_products_stock_levels ON products(stock_quantity, min_stock_level)",

	// Invoices
	"CREATE INDEX IF NOT EXISTS idx_invoices_status_due ON invoices(status, due_date)",
}

// CreateIndexes creates the composite indexes the list and dashboard queries use.
// A failing statement is logged and skipped.
func (m *Migration) CreateIndexes() (created, failed int) {
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.log.WithError(err).WithField("sql", indexSQL).Warn("Failed to create index")
			failed++
			continue
		}
		created++
	}

	m.log.WithFields(logrus.Fields{
		"created": created,
		"failed":  failed,
	}).Info("Database indexes ensured")
	return created, failed
}

// SeedInitialData creates the first administrator from ADMIN_EMAIL/ADMIN_PASSWORD
// when both are set.
func (m *Migration) SeedInitialData(ctx context.Context, users *user.Service, seed config.AdminSeedConfig) error {
	if seed.Email == "" || seed.Password == "" {
		m.log.Debug("No admin seed configured")
		return nil
	}

	created, err := users.EnsureAdmin(ctx, seed.Email, seed.Password)
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if created {
		m.log.WithField("email", user.NormalizeEmail(seed.Email)).Info("Admin user created")
	}
	return nil
}
