// internal/interfaces/http/routes/services.go
package routes

import (
	"github.com/Kyac99/finance-gestion-app/internal/config"
	"github.com/Kyac99/finance-gestion-app/internal/domain/analytics"
	"github.com/Kyac99/finance-gestion-app/internal/domain/inventory"
	"github.com/Kyac99/finance-gestion-app/internal/domain/partner"
	"github.com/Kyac99/finance-gestion-app/internal/domain/product"
	"github.com/Kyac99/finance-gestion-app/internal/domain/purchase"
	"github.com/Kyac99/finance-gestion-app/internal/domain/sale"
	"github.com/Kyac99/finance-gestion-app/internal/domain/user"
	"github.com/Kyac99/finance-gestion-app/internal/pkg/auth"
	"github.com/Kyac99/finance-gestion-app/internal/pkg/email"
	"github.com/Kyac99/finance-gestion-app/internal/pkg/pdf"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Services holds every domain service the API exposes
type Services struct {
	JWT        *auth.JWTManager
	Users      *user.Service
	Suppliers  *partner.SupplierService
	Customers  *partner.CustomerService
	Categories *product.CategoryService
	Products   *product.Service
	Inventory  *inventory.Service
	Purchases  *purchase.Service
	Sales      *sale.Service
	Invoices   *sale.InvoiceService
	Analytics  *analytics.Service
}

// NewServices wires the domain services. revoker may be nil when Redis is disabled.
func NewServices(db *gorm.DB, cfg *config.Config, revoker user.TokenRevoker, log logrus.FieldLogger) *Services {
	jwtManager := auth.NewJWTManager(cfg)
	products := product.NewService(db, cfg, log.WithField("service", "product"))
	inv := inventory.NewService(db, log.WithField("service", "inventory"))

	var mailer sale.InvoiceMailer
	if cfg.Email.Enabled {
		mailer = email.NewEmailService(cfg, log.WithField("service", "email"))
	}

	return &Services{
		JWT:        jwtManager,
		Users:      user.NewService(db, jwtManager, auth.NewPasswordManager(cfg), revoker, log.WithField("service", "user")),
		Suppliers:  partner.NewSupplierService(db, log.WithField("service", "supplier")),
		Customers:  partner.NewCustomerService(db, log.WithField("service", "customer")),
		Categories: product.NewCategoryService(db, log.WithField("service", "category")),
		Products:   products,
		Inventory:  inv,
		Purchases:  purchase.NewService(db, inv, log.WithField("service", "purchase")),
		Sales:      sale.NewService(db, inv, cfg, log.WithField("service", "sale")),
		Invoices:   sale.NewInvoiceService(db, pdf.NewService(cfg), mailer, log.WithField("service", "invoice")),
		Analytics:  analytics.NewService(db, products, cfg, log.WithField("service", "analytics")),
	}
}
