package http

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/kadik23/law-firm-web-app-sub002/internal/http/handlers"
	"github.com/kadik23/law-firm-web-app-sub002/internal/http/middleware"
	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/clients"
	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/notifications"
	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/payments"
	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/services"
	"github.com/kadik23/law-firm-web-app-sub002/internal/receipts"
	"github.com/kadik23/law-firm-web-app-sub002/internal/storage"
)

type Config struct {
	Logger     *slog.Logger
	DB         *gorm.DB
	Provider   payments.Provider
	Dispatcher notifications.Dispatcher
	Archive    storage.Storage
	JWTSecret  []byte
	BaseURL    string
}

func NewRouter(cfg Config) *gin.Engine {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	catalog := services.NewRepo(cfg.DB)
	directory := clients.NewRepo(cfg.DB)
	notifier := payments.NewNotifier(cfg.Dispatcher, catalog, cfg.Logger)

	paySvc := payments.NewService(cfg.DB, cfg.Provider, catalog, directory, notifier, cfg.BaseURL)
	ledger := payments.NewLedger(cfg.DB, cfg.Provider, notifier)

	webhookSvc := payments.NewWebhookService(cfg.DB)
	webhookSvc.SetLogger(cfg.Logger)
	webhookSvc.SetNotifier(notifier)
	if cfg.Archive != nil {
		webhookSvc.SetArchiver(receipts.NewArchiver(cfg.Archive))
	}

	payH := handlers.NewPaymentHandler(paySvc, ledger)
	svcH := handlers.NewServiceHandler(catalog)
	hookH := handlers.NewWebhookHandler(cfg.Logger, cfg.Provider, webhookSvc)
	healthH := handlers.NewHealthHandler(cfg.DB)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.ErrorHandler(cfg.Logger))

	r.GET("/healthz", healthH.Handle)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Signature-authenticated, not token-authenticated.
	r.POST("/webhooks/:provider", hookH.Handle)

	api := r.Group("/api", middleware.RequireAuth(cfg.JWTSecret))
	{
		api.GET("/services", svcH.List)

		api.POST("/payments", payH.Create)
		// static segment before the :id wildcard
		api.GET("/payments/partial", payH.ListPartial)
		api.GET("/payments/partial/:id", payH.GetPartial)
		api.GET("/payments/client/:clientID", payH.ListForClient)
		api.GET("/payments/:id", payH.Get)
		api.POST("/payments/:id/cancel", payH.Cancel)
		api.POST("/payments/:id/transactions", payH.AddTransaction)
		api.GET("/payments/:id/transactions", payH.ListTransactions)
	}

	return r
}
