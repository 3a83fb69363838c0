package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/stockroom/api/controllers"
	"github.com/angelmondragon/stockroom/api/middleware"
	"github.com/angelmondragon/stockroom/internal/app"
	"github.com/angelmondragon/stockroom/pkg/config"
	"github.com/angelmondragon/stockroom/pkg/logger"
	"github.com/angelmondragon/stockroom/pkg/redis"
)

// Deps are the infrastructure handles. Redis and Gatherer may be nil.
type Deps struct {
	DB       controllers.Pinger
	Redis    *redis.Client
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps, svc *app.Services) http.Handler {
	if svc == nil {
		svc = &app.Services{}
	}
	if logg == nil {
		logg = logger.Nop()
	}
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Actor(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	var (
		redisPinger controllers.Pinger
		idemStore   redis.IdempotencyStore
		limiter     middleware.RateLimiterStore
	)
	if deps.Redis != nil {
		redisPinger = deps.Redis
		idemStore = deps.Redis
		limiter = deps.Redis
	}
	idempotent := middleware.Idempotency(idemStore, cfg.HTTP.IdempotencyTTL, logg)
	heavy := middleware.RateLimit(
		middleware.NewRateLimitPolicy("heavy", cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimitHeavy),
		limiter,
		logg,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(svc.Inventory, logg))
			r.With(idempotent).Post("/", controllers.CreateProduct(svc.Inventory, logg))
			r.Route("/{productId}", func(r chi.Router) {
				r.Get("/", controllers.GetProduct(svc.Inventory, logg))
				r.Patch("/", controllers.UpdateProduct(svc.Inventory, logg))
				r.Delete("/", controllers.DeleteProduct(svc.Inventory, logg))
				r.Get("/movements", controllers.ListMovements(svc.Inventory, logg))
				r.With(idempotent).Post("/movements", controllers.RecordMovement(svc.Inventory, logg))
			})
		})
		r.Get("/movements", controllers.ListMovements(svc.Inventory, logg))

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.ListCustomers(svc.Customers, logg))
			r.With(idempotent).Post("/", controllers.CreateCustomer(svc.Customers, logg))
			r.Route("/{customerId}", func(r chi.Router) {
				r.Get("/", controllers.GetCustomer(svc.Customers, logg))
				r.Put("/", controllers.UpdateCustomer(svc.Customers, logg))
				r.Get("/prices", controllers.ListCustomerPrices(svc.Customers, logg))
				r.Put("/prices/{productId}", controllers.SetCustomerPrice(svc.Customers, logg))
				r.Delete("/prices/{productId}", controllers.DeleteCustomerPrice(svc.Customers, logg))
			})
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", controllers.ListSuppliers(svc.Purchasing, logg))
			r.With(idempotent).Post("/", controllers.CreateSupplier(svc.Purchasing, logg))
			r.Get("/{supplierId}", controllers.GetSupplier(svc.Purchasing, logg))
		})

		r.Route("/purchase-orders", func(r chi.Router) {
			r.Get("/", controllers.ListPurchaseOrders(svc.Purchasing, logg))
			r.With(idempotent).Post("/", controllers.CreatePurchaseOrder(svc.Purchasing, logg))
			r.Route("/{purchaseOrderId}", func(r chi.Router) {
				r.Get("/", controllers.GetPurchaseOrder(svc.Purchasing, logg))
				r.Post("/status", controllers.UpdatePurchaseOrderStatus(svc.Purchasing, logg))
				r.With(idempotent).Post("/receive", controllers.ReceivePurchaseOrder(svc.Purchasing, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(svc.Orders, logg))
			r.With(idempotent).Post("/", controllers.CreateOrder(svc.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(svc.Orders, logg))
				r.With(idempotent).Post("/items/{itemIndex}/prepare", controllers.PrepareOrderItem(svc.Orders, logg))
				r.With(idempotent).Post("/complete", controllers.CompleteOrderPreparation(svc.Orders, logg))
				r.Post("/status", controllers.UpdateOrderStatus(svc.Orders, logg))
			})
		})

		r.Route("/backorders", func(r chi.Router) {
			r.Get("/", controllers.ListBackorders(svc.Backorders, logg))
			r.Get("/{backorderId}", controllers.GetBackorder(svc.Backorders, logg))
			r.Patch("/{backorderId}", controllers.UpdateBackorder(svc.Backorders, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/abc", controllers.ABCReport(svc.Analytics, logg))
			r.Get("/xyz", controllers.XYZReport(svc.Analytics, logg))
			r.Get("/forecast/{productId}", controllers.ForecastReport(svc.Analytics, logg))
			r.Get("/cohorts", controllers.CohortReport(svc.Analytics, logg))
			r.Get("/valuation", controllers.ValuationReport(svc.Analytics, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svc.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svc.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svc.Notifications, logg))
		})

		r.Route("/automation", func(r chi.Router) {
			r.Get("/rules", controllers.ListRules(svc.Rules, logg))
			r.Post("/rules", controllers.CreateRule(svc.Rules, logg))
			r.Patch("/rules/{ruleId}", controllers.UpdateRule(svc.Rules, logg))
			r.Delete("/rules/{ruleId}", controllers.DeleteRule(svc.Rules, logg))
			r.With(heavy).Post("/scan", controllers.RunScan(svc.Scanner, logg))
		})

		r.Route("/backup", func(r chi.Router) {
			r.Use(heavy)
			r.Get("/export", controllers.ExportBackup(svc.Backup, logg))
			r.Get("/export/csv", controllers.ListExportEntities(svc.Backup, logg))
			r.Get("/export/csv/{entity}", controllers.ExportCSV(svc.Backup, logg))
			r.Get("/export/xlsx", controllers.ExportXLSX(svc.Backup, logg))
			r.Post("/import", controllers.ImportBackup(svc.Backup, logg))
		})

		r.Get("/audit", controllers.ListAuditEntries(svc.Audit, logg))
	})

	return r
}
