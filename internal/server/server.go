package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/villadesk/internal/audit"
	auditdomain "github.com/smallbiznis/villadesk/internal/audit/domain"
	"github.com/smallbiznis/villadesk/internal/auth"
	authdomain "github.com/smallbiznis/villadesk/internal/auth/domain"
	"github.com/smallbiznis/villadesk/internal/auth/session"
	"github.com/smallbiznis/villadesk/internal/authorization"
	"github.com/smallbiznis/villadesk/internal/category"
	categorydomain "github.com/smallbiznis/villadesk/internal/category/domain"
	"github.com/smallbiznis/villadesk/internal/config"
	"github.com/smallbiznis/villadesk/internal/customer"
	customerdomain "github.com/smallbiznis/villadesk/internal/customer/domain"
	"github.com/smallbiznis/villadesk/internal/dashboard"
	dashboarddomain "github.com/smallbiznis/villadesk/internal/dashboard/domain"
	"github.com/smallbiznis/villadesk/internal/expense"
	expensedomain "github.com/smallbiznis/villadesk/internal/expense/domain"
	"github.com/smallbiznis/villadesk/internal/extraservice"
	extraservicedomain "github.com/smallbiznis/villadesk/internal/extraservice/domain"
	"github.com/smallbiznis/villadesk/internal/installment"
	installmentdomain "github.com/smallbiznis/villadesk/internal/installment/domain"
	"github.com/smallbiznis/villadesk/internal/invoicesequence"
	sequencedomain "github.com/smallbiznis/villadesk/internal/invoicesequence/domain"
	"github.com/smallbiznis/villadesk/internal/invoicetemplate"
	templatedomain "github.com/smallbiznis/villadesk/internal/invoicetemplate/domain"
	"github.com/smallbiznis/villadesk/internal/observability"
	obsmiddleware "github.com/smallbiznis/villadesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/villadesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/villadesk/internal/observability/tracing"
	"github.com/smallbiznis/villadesk/internal/owner"
	ownerdomain "github.com/smallbiznis/villadesk/internal/owner/domain"
	"github.com/smallbiznis/villadesk/internal/ratelimit"
	"github.com/smallbiznis/villadesk/internal/receipt"
	"github.com/smallbiznis/villadesk/internal/reservation"
	reservationdomain "github.com/smallbiznis/villadesk/internal/reservation/domain"
	"github.com/smallbiznis/villadesk/internal/villa"
	villadomain "github.com/smallbiznis/villadesk/internal/villa/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Services wires every domain module the HTTP layer depends on.
var Services = fx.Options(
	authorization.Module,
	audit.Module,
	auth.Module,
	ratelimit.Module,
	customer.Module,
	category.Module,
	villa.Module,
	extraservice.Module,
	invoicetemplate.Module,
	invoicesequence.Module,
	owner.Module,
	expense.Module,
	reservation.Module,
	installment.Module,
	dashboard.Module,
	receipt.Module,
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	binding.EnableDecoderDisallowUnknownFields = true

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, srv *Server, log *zap.Logger) {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", addr))
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	sessions     *session.Manager
	loginLimiter *ratelimit.LoginLimiter
	obsMetrics   *obsmetrics.Metrics

	authsvc        authdomain.Service
	authzSvc       authorization.Service
	auditSvc       auditdomain.Service
	customerSvc    customerdomain.Service
	villaSvc       villadomain.Service
	extraSvc       extraservicedomain.Service
	sequenceSvc    sequencedomain.Service
	ownerSvc       ownerdomain.Service
	expenseSvc     expensedomain.Service
	reservationSvc reservationdomain.Service
	installmentSvc installmentdomain.Service
	dashboardSvc   dashboarddomain.Service
	receiptSvc     *receipt.Service
	categorySvc    categorydomain.Service
	templateSvc    templatedomain.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	Sessions     *session.Manager
	LoginLimiter *ratelimit.LoginLimiter `optional:"true"`
	ObsMetrics   *obsmetrics.Metrics     `optional:"true"`

	Authsvc        authdomain.Service
	AuthzSvc       authorization.Service
	AuditSvc       auditdomain.Service
	CustomerSvc    customerdomain.Service
	VillaSvc       villadomain.Service
	ExtraSvc       extraservicedomain.Service
	SequenceSvc    sequencedomain.Service
	OwnerSvc       ownerdomain.Service
	ExpenseSvc     expensedomain.Service
	ReservationSvc reservationdomain.Service
	InstallmentSvc installmentdomain.Service
	DashboardSvc   dashboarddomain.Service
	ReceiptSvc     *receipt.Service
	CategorySvc    categorydomain.Service
	TemplateSvc    templatedomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("http.server"),
		sessions:       p.Sessions,
		loginLimiter:   p.LoginLimiter,
		obsMetrics:     p.ObsMetrics,
		authsvc:        p.Authsvc,
		authzSvc:       p.AuthzSvc,
		auditSvc:       p.AuditSvc,
		customerSvc:    p.CustomerSvc,
		villaSvc:       p.VillaSvc,
		extraSvc:       p.ExtraSvc,
		sequenceSvc:    p.SequenceSvc,
		ownerSvc:       p.OwnerSvc,
		expenseSvc:     p.ExpenseSvc,
		reservationSvc: p.ReservationSvc,
		installmentSvc: p.InstallmentSvc,
		dashboardSvc:   p.DashboardSvc,
		receiptSvc:     p.ReceiptSvc,
		categorySvc:    p.CategorySvc,
		templateSvc:    p.TemplateSvc,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
	auth.POST("/change-password", s.AuthRequired(), s.ChangePassword)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Dashboard --------
	api.GET("/dashboard/stats", s.Authorize(authorization.ObjectDashboard, authorization.ActionView), s.GetDashboardStats)

	// -------- Customers --------
	api.GET("/customers", s.Authorize(authorization.ObjectCustomer, authorization.ActionView), s.ListCustomers)
	api.POST("/customers", s.Authorize(authorization.ObjectCustomer, authorization.ActionCreate), s.CreateCustomer)
	api.GET("/customers/:id", s.Authorize(authorization.ObjectCustomer, authorization.ActionView), s.GetCustomerByID)
	api.DELETE("/customers/:id", s.Authorize(authorization.ObjectCustomer, authorization.ActionDelete), s.DeleteCustomer)

	// -------- Villas --------
	api.GET("/villas", s.Authorize(authorization.ObjectVilla, authorization.ActionView), s.ListVillas)
	api.POST("/villas", s.Authorize(authorization.ObjectVilla, authorization.ActionCreate), s.CreateVilla)
	api.GET("/villas/:id", s.Authorize(authorization.ObjectVilla, authorization.ActionView), s.GetVilla)
	api.PUT("/villas/:id", s.Authorize(authorization.ObjectVilla, authorization.ActionUpdate), s.UpdateVilla)
	api.DELETE("/villas/:id", s.Authorize(authorization.ObjectVilla, authorization.ActionDelete), s.DeleteVilla)

	// -------- Extra services --------
	api.GET("/extra-services", s.Authorize(authorization.ObjectExtraService, authorization.ActionView), s.ListExtraServices)
	api.POST("/extra-services", s.Authorize(authorization.ObjectExtraService, authorization.ActionCreate), s.CreateExtraService)
	api.PUT("/extra-services/:id", s.Authorize(authorization.ObjectExtraService, authorization.ActionUpdate), s.UpdateExtraService)
	api.DELETE("/extra-services/:id", s.Authorize(authorization.ObjectExtraService, authorization.ActionDelete), s.DeleteExtraService)

	// -------- Reservations --------
	api.GET("/reservations", s.Authorize(authorization.ObjectReservation, authorization.ActionView), s.ListReservations)
	api.POST("/reservations", s.Authorize(authorization.ObjectReservation, authorization.ActionCreate), s.CreateReservation)
	api.GET("/reservations/:id", s.Authorize(authorization.ObjectReservation, authorization.ActionView), s.GetReservation)
	api.PUT("/reservations/:id", s.Authorize(authorization.ObjectReservation, authorization.ActionUpdate), s.UpdateReservation)
	api.DELETE("/reservations/:id", s.Authorize(authorization.ObjectReservation, authorization.ActionDelete), s.DeleteReservation)
	api.GET("/reservations/:id/invoice", s.Authorize(authorization.ObjectReceipt, authorization.ActionView), s.DownloadReservationInvoice)

	api.GET("/reservations/:id/installments", s.Authorize(authorization.ObjectInstallment, authorization.ActionView), s.ListReservationInstallments)
	api.POST("/reservations/:id/installments", s.Authorize(authorization.ObjectInstallment, authorization.ActionCreate), s.AddReservationInstallment)
	api.DELETE("/reservations/:id/installments/:installment_id", s.Authorize(authorization.ObjectInstallment, authorization.ActionDelete), s.RemoveReservationInstallment)
	api.GET("/reservations/:id/installments/:installment_id/receipt", s.Authorize(authorization.ObjectReceipt, authorization.ActionView), s.DownloadReservationReceipt)

	// -------- Expenses --------
	api.GET("/expenses", s.Authorize(authorization.ObjectExpense, authorization.ActionView), s.ListExpenses)
	api.POST("/expenses", s.Authorize(authorization.ObjectExpense, authorization.ActionCreate), s.CreateExpense)
	api.GET("/expenses/:id", s.Authorize(authorization.ObjectExpense, authorization.ActionView), s.GetExpense)
	api.PUT("/expenses/:id", s.Authorize(authorization.ObjectExpense, authorization.ActionUpdate), s.UpdateExpense)
	api.DELETE("/expenses/:id", s.Authorize(authorization.ObjectExpense, authorization.ActionDelete), s.DeleteExpense)

	api.GET("/expenses/:id/installments", s.Authorize(authorization.ObjectInstallment, authorization.ActionView), s.ListExpenseInstallments)
	api.POST("/expenses/:id/installments", s.Authorize(authorization.ObjectInstallment, authorization.ActionCreate), s.AddExpenseInstallment)
	api.DELETE("/expenses/:id/installments/:installment_id", s.Authorize(authorization.ObjectInstallment, authorization.ActionDelete), s.RemoveExpenseInstallment)
	api.GET("/expenses/:id/installments/:installment_id/receipt", s.Authorize(authorization.ObjectReceipt, authorization.ActionView), s.DownloadExpenseReceipt)

	// -------- Owners --------
	api.GET("/owners", s.Authorize(authorization.ObjectOwner, authorization.ActionView), s.ListOwners)
	api.POST("/owners", s.Authorize(authorization.ObjectOwner, authorization.ActionCreate), s.CreateOwner)
	api.GET("/owners/:id", s.Authorize(authorization.ObjectOwner, authorization.ActionView), s.GetOwner)
	api.PUT("/owners/:id", s.Authorize(authorization.ObjectOwner, authorization.ActionUpdate), s.UpdateOwner)
	api.DELETE("/owners/:id", s.Authorize(authorization.ObjectOwner, authorization.ActionDelete), s.DeleteOwner)
	api.GET("/owners/:id/payments", s.Authorize(authorization.ObjectOwner, authorization.ActionView), s.ListOwnerPayments)
	api.POST("/owners/:id/payments", s.Authorize(authorization.ObjectOwner, authorization.ActionUpdate), s.RecordOwnerPayment)
	api.PUT("/owners/:id/total-owed", s.Authorize(authorization.ObjectOwner, authorization.ActionUpdate), s.SetOwnerTotalOwed)

	// -------- Categories --------
	for path, kind := range map[string]categorydomain.Kind{
		"/categories":         categorydomain.KindVilla,
		"/expense-categories": categorydomain.KindExpense,
	} {
		api.GET(path, s.Authorize(authorization.ObjectCategory, authorization.ActionView), s.ListCategories(kind))
		api.POST(path, s.Authorize(authorization.ObjectCategory, authorization.ActionCreate), s.CreateCategory(kind))
		api.GET(path+"/:id", s.Authorize(authorization.ObjectCategory, authorization.ActionView), s.GetCategory(kind))
		api.PUT(path+"/:id", s.Authorize(authorization.ObjectCategory, authorization.ActionUpdate), s.UpdateCategory(kind))
		api.DELETE(path+"/:id", s.Authorize(authorization.ObjectCategory, authorization.ActionDelete), s.DeleteCategory(kind))
	}

	// -------- Invoice layout --------
	api.GET("/config/invoice-template", s.Authorize(authorization.ObjectInvoiceTemplate, authorization.ActionView), s.GetInvoiceTemplate)
	api.PUT("/config/invoice-template", s.Authorize(authorization.ObjectInvoiceTemplate, authorization.ActionUpdate), s.UpdateInvoiceTemplate)
	api.POST("/config/invoice-template/reset", s.Authorize(authorization.ObjectInvoiceTemplate, authorization.ActionUpdate), s.ResetInvoiceTemplate)
	api.GET("/config/logo", s.Authorize(authorization.ObjectLogo, authorization.ActionView), s.GetLogo)
	api.POST("/config/logo", s.Authorize(authorization.ObjectLogo, authorization.ActionUpdate), s.UploadLogo)
	api.DELETE("/config/logo", s.Authorize(authorization.ObjectLogo, authorization.ActionDelete), s.DeleteLogo)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/api/admin", s.AuthRequired())

	// -------- Users --------
	admin.GET("/users", s.Authorize(authorization.ObjectUser, authorization.ActionView), s.ListUsers)
	admin.POST("/users", s.Authorize(authorization.ObjectUser, authorization.ActionCreate), s.CreateUser)
	admin.PUT("/users/:id", s.Authorize(authorization.ObjectUser, authorization.ActionUpdate), s.UpdateUser)
	admin.DELETE("/users/:id", s.Authorize(authorization.ObjectUser, authorization.ActionDelete), s.DeleteUser)
	admin.PATCH("/users/:id/toggle-status", s.Authorize(authorization.ObjectUser, authorization.ActionUpdate), s.ToggleUserStatus)

	// -------- Invoice counter --------
	admin.GET("/invoice-sequence", s.Authorize(authorization.ObjectInvoiceSeq, authorization.ActionView), s.GetInvoiceSequence)
	admin.PUT("/invoice-sequence", s.Authorize(authorization.ObjectInvoiceSeq, authorization.ActionUpdate), s.SetInvoiceSequence)
	admin.POST("/invoice-sequence/reset", s.Authorize(authorization.ObjectInvoiceSeq, authorization.ActionUpdate), s.ResetInvoiceSequence)

	admin.GET("/audit-logs", s.Authorize(authorization.ObjectAuditLog, authorization.ActionView), s.ListAuditLogs)
	admin.GET("/audit-logs/:target_type/:target_id", s.Authorize(authorization.ObjectAuditLog, authorization.ActionView), s.AuditTrail)
	admin.POST("/reconcile/payouts", s.Authorize(authorization.ObjectReconcile, authorization.ActionRun), s.ReconcilePayouts)
}
