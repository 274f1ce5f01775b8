// Package server exposes the HTTP surface: the /v1 management API and
// the public share-link endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	backupdomain "github.com/invosync/invosync/internal/backup/domain"
	clientdomain "github.com/invosync/invosync/internal/client/domain"
	"github.com/invosync/invosync/internal/config"
	dashboarddomain "github.com/invosync/invosync/internal/dashboard/domain"
	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
	"github.com/invosync/invosync/internal/invoice/render"
	paymentdomain "github.com/invosync/invosync/internal/payment/domain"
	"github.com/invosync/invosync/pkg/telemetry"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(render.NewRenderer),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, metrics *telemetry.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(APIMetrics(metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type engineParams struct {
	fx.In

	Log     *zap.Logger
	Metrics *telemetry.Metrics `optional:"true"`
}

func registerGin(p engineParams) *gin.Engine {
	return NewEngine(p.Log, p.Metrics)
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
					panic(err)
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
	engine        *gin.Engine
	cfg           config.Config
	policy        *config.InvoicingHolder
	clientSvc     clientdomain.Service
	invoiceSvc    invoicedomain.Service
	paymentSvc    paymentdomain.Service
	dashboardSvc  dashboarddomain.Service
	backupSvc     backupdomain.Service
	renderer      render.Renderer
	publicLimiter *rateLimiter
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Policy       *config.InvoicingHolder
	ClientSvc    clientdomain.Service
	InvoiceSvc   invoicedomain.Service
	PaymentSvc   paymentdomain.Service
	DashboardSvc dashboarddomain.Service
	BackupSvc    backupdomain.Service
	Renderer     render.Renderer
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		policy:        p.Policy,
		clientSvc:     p.ClientSvc,
		invoiceSvc:    p.InvoiceSvc,
		paymentSvc:    p.PaymentSvc,
		dashboardSvc:  p.DashboardSvc,
		backupSvc:     p.BackupSvc,
		renderer:      p.Renderer,
		publicLimiter: newRateLimiter(30, time.Minute),
	}

	svc.registerAPIRoutes()
	svc.registerPublicRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/v1")

	// -------- Clients --------
	api.GET("/clients", s.ListClients)
	api.POST("/clients", s.CreateClient)
	api.GET("/clients/:id", s.GetClientByID)
	api.PUT("/clients/:id", s.UpdateClient)
	api.DELETE("/clients/:id", s.DeleteClient)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PUT("/invoices/:id", s.UpdateInvoice)
	api.DELETE("/invoices/:id", s.DeleteInvoice)
	api.POST("/invoices/:id/send", s.SendInvoice)
	api.POST("/invoices/:id/cancel", s.CancelInvoice)
	api.POST("/invoices/:id/status", s.SetInvoiceStatus)

	// -------- Payments --------
	api.GET("/invoices/:id/payments", s.ListInvoicePayments)
	api.POST("/invoices/:id/payments", s.RecordPayment)
	api.POST("/invoices/:id/simulate-payment", s.SimulatePayment)
	api.POST("/invoices/:id/payment-link", s.CreatePaymentLink)

	// -------- Dashboard --------
	api.GET("/stats/summary", s.DashboardSummary)
	api.GET("/stats/monthly-revenue", s.MonthlyRevenue)

	// -------- Backups --------
	api.GET("/export", s.ExportData)
	api.GET("/backups", s.ListBackups)
	api.POST("/backups", s.CreateBackup)
	api.POST("/backups/restore", s.RestoreBackup)
	api.GET("/backups/:filename/download", s.DownloadBackup)
	api.DELETE("/backups/:filename", s.DeleteBackup)
}

func (s *Server) registerPublicRoutes() {
	public := s.engine.Group("/public", s.publicRateLimit(s.publicLimiter))

	public.GET("/invoices/:token", s.GetPublicInvoice)
	public.GET("/invoices/:token/view", s.ViewPublicInvoice)
}
