package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/youthbridge/youthbridge/internal/auth/session"
	checkoutdomain "github.com/youthbridge/youthbridge/internal/checkout/domain"
	"github.com/youthbridge/youthbridge/internal/config"
	"github.com/youthbridge/youthbridge/internal/observability"
	"github.com/youthbridge/youthbridge/internal/observability/logger"
	payabledomain "github.com/youthbridge/youthbridge/internal/payable/domain"
	"github.com/youthbridge/youthbridge/internal/ratelimit"
	webhookdomain "github.com/youthbridge/youthbridge/internal/webhook/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServerParams struct {
	fx.In

	Cfg      config.Config
	ObsCfg   observability.Config
	Log      *zap.Logger
	Registry *prometheus.Registry

	Sessions  *session.Manager
	Payables  payabledomain.Service
	Checkout  checkoutdomain.Service
	Webhooks  webhookdomain.Service
	Checkouts *ratelimit.CheckoutLimiter `optional:"true"`
}

type Server struct {
	cfg       config.Config
	log       *zap.Logger
	sessions  *session.Manager
	payables  payabledomain.Service
	checkout  checkoutdomain.Service
	webhooks  webhookdomain.Service
	checkouts *ratelimit.CheckoutLimiter
}

var Module = fx.Module("server",
	fx.Provide(NewServer, NewEngine),
	fx.Invoke(run),
)

func NewServer(p ServerParams) *Server {
	return &Server{
		cfg:       p.Cfg,
		log:       p.Log.Named("server"),
		sessions:  p.Sessions,
		payables:  p.Payables,
		checkout:  p.Checkout,
		webhooks:  p.Webhooks,
		checkouts: p.Checkouts,
	}
}

func NewEngine(p ServerParams, srv *Server) *gin.Engine {
	if !p.ObsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		Debug:           p.ObsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	engine.Use(ErrorHandlingMiddleware())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{})))

	srv.RegisterRoutes(engine)
	return engine
}

func (s *Server) RegisterRoutes(engine *gin.Engine) {
	api := engine.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/set-session", s.SetSession)
		auth.GET("/get-session", s.GetSession)
		auth.POST("/clear-session", s.ClearSession)
	}

	payables := api.Group("/payables")
	{
		payables.POST("", s.CreatePayable)
		payables.GET("/resume", s.ResumePayable)
		payables.GET("/:id", s.GetPayable)
	}

	api.POST("/checkout/session", s.CreateCheckoutSession)

	webhooks := api.Group("/webhooks")
	{
		webhooks.POST("/:provider", s.HandleProviderWebhook)
	}
	api.POST("/paypal/verify-order", s.VerifyPayPalOrder)

	admin := engine.Group("/admin")
	{
		admin.POST("/visa-invitations/:id/approve", s.ApproveVisa)
		admin.POST("/visa-invitations/:id/reject", s.RejectVisa)
	}
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine) {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	})
}
