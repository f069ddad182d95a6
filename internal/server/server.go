// Package server wires repositories, services and handlers into the Fiber app.
package server

import (
	"time"

	"grocery-storefront/internal/handler"
	"grocery-storefront/internal/inventory"
	"grocery-storefront/internal/middleware"
	"grocery-storefront/internal/repository"
	"grocery-storefront/internal/service"
	"grocery-storefront/internal/ws"
	"grocery-storefront/pkg/config"
	"grocery-storefront/pkg/jwt"
	"grocery-storefront/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Hub     *ws.Hub
	Metrics *metrics.HTTPMetrics
	Barcode service.BarcodeLookup
	// AccessLog enables fiber's request line logger.
	AccessLog bool
}

func NewApp(d Deps) *fiber.App {
	cfg := d.Config
	policy := inventory.Policy{SharedFallback: cfg.Store.SharedStockFallback}

	// Dependency Injection (Wiring Layers)
	storeRepo := repository.NewStoreRepo(d.DB)
	categoryRepo := repository.NewCategoryRepo(d.DB)
	productRepo := repository.NewProductRepo(d.DB)
	stockRepo := repository.NewStockRepo()
	orderRepo := repository.NewOrderRepo(d.DB)
	customerRepo := repository.NewCustomerRepo(d.DB)
	statsRepo := repository.NewStatsRepo(d.DB)

	var recorder service.Recorder
	if d.Metrics != nil {
		recorder = d.Metrics
	}

	storeService := service.NewStoreService(storeRepo, categoryRepo, productRepo, d.DB)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, stockRepo, policy, d.Barcode, recorder, d.DB, d.Hub)
	categoryService := service.NewCategoryService(categoryRepo, d.DB)
	customerService := service.NewCustomerService(customerRepo)
	orderService := service.NewOrderService(orderRepo, productRepo, stockRepo, customerRepo, policy, recorder, cfg.Store.DeliveryETA, d.DB, d.Hub)
	dashService := service.NewDashboardService(statsRepo)

	storeHandler := handler.NewStoreHandler(storeService)
	productHandler := handler.NewProductHandler(catalogService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	customerHandler := handler.NewCustomerHandler(customerService)
	orderHandler := handler.NewOrderHandler(orderService)
	dashHandler := handler.NewDashboardHandler(dashService)

	app := fiber.New(fiber.Config{
		AppName:      "Grocery Storefront API v1.0",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	// Middleware
	if d.AccessLog {
		app.Use(logger.New()) // Logging request
	}
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.TenantHeader + ", " + middleware.AdminTokenHeader,
	}))
	app.Use(middleware.RequestID())
	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
		app.Get("/metrics", d.Metrics.Handler())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := d.DB.DB()
		if err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			return c.Status(503).JSON(fiber.Map{"status": "unhealthy"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Routes
	api := app.Group("/api/v1")
	secret := []byte(cfg.Auth.JWTSecret)
	requireAuth := middleware.RequireAuth(secret)
	requireAdmin := middleware.RequireRole(jwt.RoleAdmin, jwt.RoleService)

	tenant := middleware.ResolveTenant(storeService, cfg.Store.BaseDomains)

	// Route-level chains: a prefix-less Group with handlers would apply them to all of /api/v1
	// ============ PLATFORM ADMIN ============
	api.Get("/stores", requireAuth, requireAdmin, storeHandler.ListStores)
	api.Post("/stores", requireAuth, requireAdmin, storeHandler.UpsertStore)
	api.Put("/stores/:slug", requireAuth, requireAdmin, storeHandler.UpdateStore)
	api.Delete("/stores/:slug", requireAuth, requireAdmin, storeHandler.DeleteStore)
	api.Get("/admin/stats", requireAuth, requireAdmin, dashHandler.GetDashboardStats)
	api.Get("/admin/order-volume", requireAuth, requireAdmin, dashHandler.GetOrderVolume)

	// ============ STOREFRONT (tenant, no login) ============
	api.Get("/store", tenant, storeHandler.GetStore)
	api.Get("/products", tenant, productHandler.GetProducts)
	api.Get("/products/:id", tenant, productHandler.GetProduct)
	api.Get("/categories", tenant, categoryHandler.GetCategories)
	api.Post("/orders", tenant, orderHandler.CreateOrder)
	api.Get("/orders/mine", requireAuth, tenant, orderHandler.GetMyOrders)
	api.Get("/orders/:id", tenant, orderHandler.GetOrder)
	api.Post("/orders/:id/confirm", tenant, orderHandler.ConfirmOrder)
	api.Post("/orders/:id/cancel", tenant, orderHandler.CancelOrder)

	// ============ STORE ADMIN ============
	admin := func(h ...fiber.Handler) []fiber.Handler {
		return append([]fiber.Handler{requireAuth, requireAdmin, tenant}, h...)
	}
	api.Post("/products", admin(productHandler.CreateProduct)...)
	api.Patch("/products/:id", admin(productHandler.UpdateProduct)...)
	api.Patch("/products/:id/stock", admin(productHandler.SetStock)...)
	api.Patch("/inventory", admin(productHandler.BulkInventory)...)
	api.Post("/products/:id/set-active", admin(productHandler.SetActive)...)
	api.Post("/products/:id/make-global", admin(middleware.RequireAdminToken(cfg.Auth.AdminTokenHash), productHandler.MakeGlobal)...)
	api.Post("/products/:id/enrich", admin(productHandler.Enrich)...)
	api.Post("/categories", admin(categoryHandler.CreateCategory)...)
	api.Get("/customers", admin(customerHandler.GetCustomers)...)
	api.Post("/customers", admin(customerHandler.CreateCustomer)...)
	api.Get("/orders", admin(orderHandler.GetOrders)...)
	api.Patch("/orders/:id/fulfillment", admin(orderHandler.SetFulfillment)...)

	// WebSocket Route
	if d.Hub != nil {
		app.Use("/ws", handler.RequireUpgrade)
		app.Get("/ws", handler.StoreEvents(d.Hub))
	}

	return app
}
