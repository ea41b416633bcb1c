package cmd

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	authclient "github.com/vibast-solutions/lib-go-auth/client"
	authmiddleware "github.com/vibast-solutions/lib-go-auth/middleware"
	authlibservice "github.com/vibast-solutions/lib-go-auth/service"
	"github.com/vibast-solutions/ms-go-donations/app/controller"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	donationsgrpc "github.com/vibast-solutions/ms-go-donations/app/grpc"
	"github.com/vibast-solutions/ms-go-donations/config"
	"google.golang.org/grpc"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  "Start both HTTP (Echo) and gRPC servers for the donations service.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// routeGuards holds the internal-access checks for route groups that must not be
// reachable by anonymous callers. Admin routes need the service scope, job
// triggers the narrower jobs scope.
type routeGuards struct {
	service echo.MiddlewareFunc
	jobs    echo.MiddlewareFunc
}

type httpControllers struct {
	payment  *controller.PaymentController
	donation *controller.DonationController
	checkout *controller.CheckoutController
	admin    *controller.AdminController
	jobs     *controller.JobsController
}

func runServe(_ *cobra.Command, _ []string) {
	app, cleanup := mustCreateApplication()
	defer cleanup()
	cfg := app.cfg

	controllers := httpControllers{
		payment:  controller.NewPaymentController(app.donationService, cfg.Donations.DefaultCurrency),
		donation: controller.NewDonationController(app.donationService, cfg.Donations.DefaultCurrency),
		checkout: controller.NewCheckoutController(cfg.Cashfree.Environment),
		admin:    controller.NewAdminController(app.adminService, app.donationService, app.emailService),
		jobs:     controller.NewJobsController(app.donationService),
	}
	grpcDonationServer := donationsgrpc.NewServer(app.donationService)

	authGRPCClient, err := authclient.NewGRPCClientFromAddr(context.Background(), cfg.InternalEndpoints.AuthGRPCAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize auth gRPC client")
	}
	defer authGRPCClient.Close()

	internalAuthService := authlibservice.NewInternalAuthService(authGRPCClient)
	echoInternalAuthMiddleware := authmiddleware.NewEchoInternalAuthMiddleware(internalAuthService)
	grpcInternalAuthMiddleware := authmiddleware.NewGRPCInternalAuthMiddleware(internalAuthService)

	e := setupHTTPServer(controllers, routeGuards{
		service: echoInternalAuthMiddleware.RequireInternalAccess(cfg.App.ServiceName),
		jobs:    echoInternalAuthMiddleware.RequireInternalAccess(cfg.InternalEndpoints.JobsAccessName),
	})
	grpcSrv, lis := setupGRPCServer(cfg, grpcDonationServer, grpcInternalAuthMiddleware, cfg.App.ServiceName)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	go func() {
		logrus.WithField("addr", lis.Addr().String()).Info("Starting gRPC server")
		if err := grpcSrv.Serve(lis); err != nil {
			logrus.WithError(err).Fatal("gRPC server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}
	grpcSrv.GracefulStop()

	logrus.Info("Server stopped")
}

func setupHTTPServer(controllers httpControllers, guards routeGuards) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	renderer, err := controller.NewTemplateRenderer()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to parse templates")
	}
	e.Renderer = renderer

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
				"request_id": v.RequestID,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(ensureRequestID())

	registerRoutes(e, controllers, guards)
	return e
}

func registerRoutes(e *echo.Echo, controllers httpControllers, guards routeGuards) {
	e.GET("/health", controllers.payment.Health)
	e.GET("/checkout/:session_id", controllers.checkout.Checkout)

	api := e.Group("/api")

	donations := api.Group("/donations")
	donations.POST("", controllers.donation.SubmitDonation)
	donations.GET("/:id", controllers.donation.GetDonation)

	payments := api.Group("/payments")
	payments.POST("/session", controllers.payment.CreatePaymentSession)
	payments.POST("/verify", controllers.payment.VerifyPayment)
	payments.GET("/:order_id/status", controllers.payment.GetOrderStatus)

	api.POST("/webhooks/cashfree", controllers.payment.HandleCashfreeWebhook)

	// X-Admin-Email is only trusted from authenticated internal callers.
	admin := api.Group("/admin", guards.service, controllers.admin.RequireAdmin)
	admin.GET("/analytics", controllers.admin.Analytics)
	admin.GET("/donations", controllers.admin.ListDonations)
	admin.PATCH("/donations/:id/status", controllers.admin.UpdateDonationStatus)
	admin.POST("/donations/:id/receipt", controllers.admin.ResendReceipt)
	admin.GET("/admins", controllers.admin.ListAdmins)
	admin.POST("/admins", controllers.admin.CreateAdmin)
	admin.GET("/email-settings", controllers.admin.ListEmailSettings)
	admin.PUT("/email-settings", controllers.admin.UpdateEmailSettings)
	admin.POST("/email/test", controllers.admin.SendTestEmail)

	internal := e.Group("/internal", guards.jobs)
	internal.POST("/cleanup", controllers.jobs.RunCleanup)
	internal.POST("/reconcile", controllers.jobs.RunReconcile)
}

// ensureRequestID echoes the caller's X-Request-ID or assigns a fresh one, and
// carries it on the request context for service-level logging.
func ensureRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			requestID := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
			if requestID == "" {
				requestID = uuid.NewString()
				ctx.Request().Header.Set(echo.HeaderXRequestID, requestID)
			}
			ctx.Response().Header().Set(echo.HeaderXRequestID, requestID)

			req := ctx.Request()
			ctx.SetRequest(req.WithContext(factory.ContextWithRequestID(req.Context(), requestID)))
			return next(ctx)
		}
	}
}

func setupGRPCServer(
	cfg *config.Config,
	donationServer *donationsgrpc.Server,
	internalAuthMiddleware *authmiddleware.GRPCInternalAuthMiddleware,
	appServiceName string,
) (*grpc.Server, net.Listener) {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	grpcSrv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			donationsgrpc.RecoveryInterceptor(),
			donationsgrpc.RequestIDInterceptor(),
			donationsgrpc.LoggingInterceptor(),
			internalAuthMiddleware.UnaryRequireInternalAccess(appServiceName),
		),
	)
	donationsgrpc.RegisterDonationsServiceServer(grpcSrv, donationServer)

	return grpcSrv, lis
}
