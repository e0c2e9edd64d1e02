package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/brightfold/portal/internal/audit"
	auditdomain "github.com/brightfold/portal/internal/audit/domain"
	"github.com/brightfold/portal/internal/catalog"
	catalogdomain "github.com/brightfold/portal/internal/catalog/domain"
	"github.com/brightfold/portal/internal/client"
	clientdomain "github.com/brightfold/portal/internal/client/domain"
	"github.com/brightfold/portal/internal/config"
	"github.com/brightfold/portal/internal/dashboard"
	"github.com/brightfold/portal/internal/invoice"
	invoicedomain "github.com/brightfold/portal/internal/invoice/domain"
	"github.com/brightfold/portal/internal/message"
	messagedomain "github.com/brightfold/portal/internal/message/domain"
	"github.com/brightfold/portal/internal/observability"
	obsmiddleware "github.com/brightfold/portal/internal/observability/logger"
	obstracing "github.com/brightfold/portal/internal/observability/tracing"
	"github.com/brightfold/portal/internal/payment"
	paymentdomain "github.com/brightfold/portal/internal/payment/domain"
	"github.com/brightfold/portal/internal/request"
	requestdomain "github.com/brightfold/portal/internal/request/domain"
	"github.com/brightfold/portal/internal/sequence"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	sequence.Module,
	audit.Module,
	client.Module,
	catalog.Module,
	invoice.Module,
	payment.Module,
	request.Module,
	message.Module,
	dashboard.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	genID        *snowflake.Node
	auditSvc     auditdomain.Service
	clientSvc    clientdomain.Service
	catalogSvc   catalogdomain.CatalogService
	invoiceSvc   invoicedomain.Service
	checkoutSvc  paymentdomain.CheckoutService
	webhookSvc   paymentdomain.WebhookService
	requestSvc   requestdomain.Service
	messageSvc   messagedomain.Service
	dashboardSvc *dashboard.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	GenID        *snowflake.Node
	AuditSvc     auditdomain.Service
	ClientSvc    clientdomain.Service
	CatalogSvc   catalogdomain.CatalogService
	InvoiceSvc   invoicedomain.Service
	CheckoutSvc  paymentdomain.CheckoutService
	WebhookSvc   paymentdomain.WebhookService
	RequestSvc   requestdomain.Service
	MessageSvc   messagedomain.Service
	DashboardSvc *dashboard.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		genID:        p.GenID,
		auditSvc:     p.AuditSvc,
		clientSvc:    p.ClientSvc,
		catalogSvc:   p.CatalogSvc,
		invoiceSvc:   p.InvoiceSvc,
		checkoutSvc:  p.CheckoutSvc,
		webhookSvc:   p.WebhookSvc,
		requestSvc:   p.RequestSvc,
		messageSvc:   p.MessageSvc,
		dashboardSvc: p.DashboardSvc,
	}

	svc.registerAPIRoutes()
	svc.registerWebhookRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.ActorRequired())

	api.GET("/dashboard", s.GetDashboard)

	invoices := api.Group("/invoices")
	{
		invoices.GET("", s.ListInvoices)
		invoices.POST("", s.StaffRequired(), s.CreateInvoice)
		invoices.GET("/:id", s.GetInvoiceByID)
		invoices.PATCH("/:id", s.StaffRequired(), s.UpdateInvoice)
		invoices.POST("/:id/pay", s.InitiatePayment)
	}

	clients := api.Group("/clients", s.StaffRequired())
	{
		clients.GET("", s.ListClients)
		clients.POST("", s.AdminRequired(), s.CreateClient)
		clients.GET("/:id", s.GetClientByID)
		clients.PATCH("/:id", s.AdminRequired(), s.UpdateClient)
	}

	services := api.Group("/services")
	{
		services.GET("", s.ListServices)
		services.POST("", s.StaffRequired(), s.CreateService)
		services.PATCH("/:id", s.StaffRequired(), s.UpdateService)
	}

	requests := api.Group("/requests")
	{
		requests.GET("", s.ListRequests)
		requests.POST("", s.CreateRequest)
		requests.GET("/:id", s.GetRequestByID)
		requests.PATCH("/:id", s.StaffRequired(), s.UpdateRequest)
	}

	messages := api.Group("/messages")
	{
		messages.GET("", s.ListMessages)
		messages.POST("", s.PostMessage)
	}

	api.GET("/audit", s.StaffRequired(), s.ListAuditLogs)
}

// Webhook deliveries authenticate with their signature, not an actor.
func (s *Server) registerWebhookRoutes() {
	s.engine.POST("/api/webhooks/razorpay", s.HandleRazorpayWebhook)
}
