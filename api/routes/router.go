package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mercatura-tech/stockflow-backend/api/controllers"
	"github.com/mercatura-tech/stockflow-backend/api/middleware"
	branchsvc "github.com/mercatura-tech/stockflow-backend/internal/branches"
	productsvc "github.com/mercatura-tech/stockflow-backend/internal/products"
	stocksvc "github.com/mercatura-tech/stockflow-backend/internal/stock"
	transfersvc "github.com/mercatura-tech/stockflow-backend/internal/transfers"
	"github.com/mercatura-tech/stockflow-backend/pkg/config"
	"github.com/mercatura-tech/stockflow-backend/pkg/logger"
	"github.com/mercatura-tech/stockflow-backend/pkg/metrics"
	pkgredis "github.com/mercatura-tech/stockflow-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        pkgredis.Pinger
	Redis     *pkgredis.Client
	Metrics   *metrics.StockMetrics
	Registry  *prometheus.Registry
	Stock     *stocksvc.Service
	Transfers *transfersvc.Service
	Products  *productsvc.Service
	Branches  *branchsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]pkgredis.Pinger{
			"postgres": deps.DB,
			"redis":    pingerOrNil(deps.Redis),
		}))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore(deps.Redis), cfg.Idempotency, deps.Metrics, logg))

		r.Route("/branches", func(r chi.Router) {
			r.Post("/", controllers.CreateBranch(deps.Branches, logg))
			r.Get("/", controllers.ListBranches(deps.Branches, logg))
			r.Get("/{branchID}", controllers.GetBranch(deps.Branches, logg))
			r.Patch("/{branchID}", controllers.UpdateBranch(deps.Branches, logg))
			r.Get("/{branchID}/stock", controllers.ListBranchStock(deps.Stock, logg))
			r.Get("/{branchID}/stock/{productID}", controllers.GetProductStock(deps.Stock, logg))
			r.Get("/{branchID}/stock/{productID}/lots", controllers.ListLots(deps.Stock, logg))
			r.Get("/{branchID}/stock/{productID}/ledger", controllers.ListLedger(deps.Stock, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(deps.Products, logg))
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.Get("/{productID}", controllers.GetProduct(deps.Products, logg))
			r.Patch("/{productID}", controllers.UpdateProduct(deps.Products, logg))
			r.Post("/{productID}/deactivate", controllers.DeactivateProduct(deps.Products, logg))
		})

		r.Route("/stock", func(r chi.Router) {
			r.Post("/receive", controllers.ReceiveStock(deps.Stock, logg))
			r.Post("/consume", controllers.ConsumeStock(deps.Stock, logg))
			r.Post("/adjust", controllers.AdjustStock(deps.Stock, logg))
		})

		r.Route("/transfers", func(r chi.Router) {
			r.Post("/", controllers.CreateTransfer(deps.Transfers, logg))
			r.Get("/", controllers.ListTransfers(deps.Transfers, logg))
			r.Get("/{transferID}", controllers.GetTransfer(deps.Transfers, logg))
			r.Post("/{transferID}/review", controllers.ReviewTransfer(deps.Transfers, logg))
			r.Post("/{transferID}/ship", controllers.ShipTransfer(deps.Transfers, logg))
			r.Post("/{transferID}/receive", controllers.ReceiveTransfer(deps.Transfers, logg))
			r.Post("/{transferID}/cancel", controllers.CancelTransfer(deps.Transfers, logg))
			r.Post("/{transferID}/reverse", controllers.ReverseTransfer(deps.Transfers, logg))
			r.Patch("/{transferID}/priority", controllers.UpdateTransferPriority(deps.Transfers, logg))
		})
	})

	return r
}

func pingerOrNil(client *pkgredis.Client) pkgredis.Pinger {
	if client == nil {
		return nil
	}
	return client
}

func idempotencyStore(client *pkgredis.Client) pkgredis.IdempotencyStore {
	if client == nil {
		return nil
	}
	return client
}
