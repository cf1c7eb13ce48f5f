// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/Kyac99/finance-gestion-app/internal/interfaces/http/handlers"
	"github.com/Kyac99/finance-gestion-app/internal/interfaces/http/middleware"
	"github.com/Kyac99/finance-gestion-app/internal/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRoutes registers every /api/v1 route on rg
func SetupRoutes(rg *gin.RouterGroup, svc *Services, log logrus.FieldLogger) {
	validation.Register()

	requireAuth := middleware.AuthMiddleware(svc.JWT, svc.Users, log)

	SetupAuthRoutes(rg, svc, requireAuth, log)

	protected := rg.Group("")
	protected.Use(requireAuth)

	SetupPartnerRoutes(protected, svc, log)
	SetupProductRoutes(protected, svc, log)
	SetupPurchaseRoutes(protected, svc, log)
	SetupSaleRoutes(protected, svc, log)
	SetupInventoryRoutes(protected, svc, log)
	SetupInvoiceRoutes(protected, svc, log)
	SetupDashboardRoutes(protected, svc, log)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, svc *Services, requireAuth gin.HandlerFunc, log logrus.FieldLogger) {
	authHandler := handlers.NewAuthHandler(svc.Users, log)
	adminHandler := handlers.NewUserAdminHandler(svc.Users, log)

	auth := rg.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)

		protected := auth.Group("")
		protected.Use(requireAuth)
		{
			protected.POST("/logout", authHandler.Logout)
			protected.GET("/profile", authHandler.GetProfile)
			protected.PUT("/profile", authHandler.UpdateProfile)
			protected.POST("/change-password", authHandler.ChangePassword)
		}

		admin := auth.Group("/users")
		admin.Use(requireAuth, middleware.AdminMiddleware())
		{
			admin.GET("", adminHandler.ListUsers)
			admin.POST("", adminHandler.CreateUser)
			admin.PATCH("/:id/status", adminHandler.UpdateUserStatus)
		}
	}
}

// SetupPartnerRoutes sets up supplier and customer routes
func SetupPartnerRoutes(rg *gin.RouterGroup, svc *Services, log logrus.FieldLogger) {
	supplierHandler := handlers.NewSupplierHandler(svc.Suppliers, log)
	customerHandler := handlers.NewCustomerHandler(svc.Customers, log)

	suppliers := rg.Group("/suppliers")
	{
		suppliers.GET("", supplierHandler.ListSuppliers)
		suppliers.POST("", supplierHandler.CreateSupplier)
		suppliers.GET("/:id", supplierHandler.GetSupplier)
		suppliers.PUT("/:id", supplierHandler.UpdateSupplier)
		suppliers.PATCH("/:id", supplierHandler.UpdateSupplier)
		suppliers.DELETE("/:id", supplierHandler.DeleteSupplier)
	}

	customers := rg.Group("/customers")
	{
		customers.GET("", customerHandler.ListCustomers)
		customers.POST("", customerHandler.CreateCustomer)
		customers.GET("/:id", customerHandler.GetCustomer)
		customers.PUT("/:id", customerHandler.UpdateCustomer)
		customers.PATCH("/:id", customerHandler.UpdateCustomer)
		customers.DELETE("/:id", customerHandler.DeleteCustomer)
	}
}

// SetupProductRoutes sets up product and category routes
func SetupProductRoutes(rg *gin.RouterGroup, svc *Services, log logrus.FieldLogger) {
	categoryHandler := handlers.NewCategoryHandler(svc.Categories, log)
	productHandler := handlers.NewProductHandler(svc.Products, log)

	categories := rg.Group("/product-categories")
	{
		categories.GET("", categoryHandler.ListCategories)
		categories.POST("", categoryHandler.CreateCategory)
		categories.GET("/:id", categoryHandler.GetCategory)
		categories.PUT("/:id", categoryHandler.UpdateCategory)
		categories.PATCH("/:id", categoryHandler.UpdateCategory)
		categories.DELETE("/:id", categoryHandler.DeleteCategory)
	}

	products := rg.Group("/products")
	{
		products.GET("", productHandler.ListProducts)
		products.POST("", productHandler.CreateProduct)
		products.GET("/low-stock", productHandler.LowStock)
		products.GET("/:id", productHandler.GetProduct)
		products.PUT("/:id", productHandler.UpdateProduct)
		products.PATCH("/:id", productHandler.UpdateProduct)
		products.DELETE("/:id", productHandler.DeleteProduct)
	}
}

// SetupPurchaseRoutes sets up purchase routes
func SetupPurchaseRoutes(rg *gin.RouterGroup, svc *Services, log logrus.FieldLogger) {
	h := handlers.NewPurchaseHandler(svc.Purchases, log)

	purchases := rg.Group("/purchases")
	{
		purchases.GET("", h.ListPurchases)
		purchases.POST("", h.CreatePurchase)
		purchases.GET("/:id", h.GetPurchase)
		purchases.PUT("/:id", h.UpdatePurchase)
		purchases.PATCH("/:id", h.UpdatePurchase)
		purchases.DELETE("/:id", h.DeletePurchase)

		purchases.POST("/:id/items", h.AddItem)
		purchases.PUT("/:id/items/:itemId", h.UpdateItem)
		purchases.DELETE("/:id/items/:itemId", h.DeleteItem)

		purchases.POST("/:id/payments", h.AddPayment)
		purchases.DELETE("/:id/payments/:paymentId", h.DeletePayment)

		purchases.POST("/:id/receive", h.MarkReceived)
	}
}

// SetupSaleRoutes sets up sale routes
func SetupSaleRoutes(rg *gin.RouterGroup, svc *Services, log logrus.FieldLogger) {
	h := handlers.NewSaleHandler(svc.Sales, log)

	sales := rg.Group("/sales")
	{
		sales.GET("", h.ListSales)
		sales.POST("", h.CreateSale)
		sales.GET("/:id", h.GetSale)
		sales.PUT("/:id", h.UpdateSale)
		sales.PATCH("/:id", h.UpdateSale)
		sales.DELETE("/:id", h.DeleteSale)

		sales.POST("/:id/items", h.AddItem)
		sales.PUT("/:id/items/:itemId", h.UpdateItem)
		sales.DELETE("/:id/items/:itemId", h.DeleteItem)

		sales.POST("/:id/payments", h.AddPayment)
		sales.DELETE("/:id/payments/:paymentId", h.DeletePayment)

		sales.POST("/:id/deliver", h.MarkDelivered)
		sales.POST("/:id/invoice", h.GenerateInvoice)
	}
}

// SetupInventoryRoutes sets up stock ledger routes
func SetupInventoryRoutes(rg *gin.RouterGroup, svc *Services, log logrus.FieldLogger) {
	h := handlers.NewStockMovementHandler(svc.Inventory, log)

	movements := rg.Group("/stock-movements")
	{
		movements.GET("", h.ListMovements)
		movements.POST("", h.RecordMovement)
		movements.GET("/:id", h.GetMovement)
		movements.PUT("/:id", h.UpdateMovement)
		movements.PATCH("/:id", h.UpdateMovement)
		movements.DELETE("/:id", h.DeleteMovement)
	}
}

// SetupInvoiceRoutes sets up invoice routes
func SetupInvoiceRoutes(rg *gin.RouterGroup, svc *Services, log logrus.FieldLogger) {
	h := handlers.NewInvoiceHandler(svc.Invoices, log)

	invoices := rg.Group("/invoices")
	{
		invoices.GET("", h.ListInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.PUT("/:id", h.UpdateInvoice)
		invoices.PATCH("/:id", h.UpdateInvoice)
		invoices.DELETE("/:id", h.DeleteInvoice)

		invoices.POST("/:id/mark-sent", h.MarkSent)
		invoices.POST("/:id/mark-paid", h.MarkPaid)
		invoices.GET("/:id/pdf", h.DownloadPDF)
		invoices.POST("/:id/email", h.SendEmail)
	}
}

// SetupDashboardRoutes sets up the read-only dashboard routes
func SetupDashboardRoutes(rg *gin.RouterGroup, svc *Services, log logrus.FieldLogger) {
	h := handlers.NewDashboardHandler(svc.Analytics, log)

	dashboard := rg.Group("/dashboard")
	{
		dashboard.GET("/supplier-payments", h.SupplierPayments)
		dashboard.GET("/customer-payments", h.CustomerPayments)
		dashboard.GET("/low-stock-products", h.LowStockProducts)
		dashboard.GET("/sales-summary", h.SalesSummary)
		dashboard.GET("/purchases-summary", h.PurchasesSummary)
	}
}
