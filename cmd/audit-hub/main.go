package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"audit-hub/internal/adapter/gateway"
	adapterhandler "audit-hub/internal/adapter/handler"
	"audit-hub/internal/adapter/storage"
	infracache "audit-hub/internal/infrastructure/cache"
	infratoken "audit-hub/internal/infrastructure/token"
	"audit-hub/internal/offers"
	"audit-hub/internal/session"
	"audit-hub/internal/usecase"

	"audit-hub/config"
	appmiddleware "audit-hub/middleware"
	"audit-hub/utils/logger"
	"audit-hub/utils/otel"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Handle healthcheck subcommand (for Docker healthcheck in distroless image)
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Initialize OpenTelemetry
	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		slog.Warn("failed to initialize OpenTelemetry, continuing without tracing", "error", err)
		otelCfg.Enabled = false
	}

	// Initialize structured logger
	logger.Init(otelCfg.Enabled)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "configuration loaded",
		"kratos_url", cfg.KratosURL,
		"port", cfg.Port,
		"cache_ttl", cfg.CacheTTL,
		"offer_poll_base", cfg.OfferPollBase)

	// Gateway-owned stores
	db, err := gateway.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to gateway tables", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	minioClient, err := minio.New(cfg.ObjectStoreEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.ObjectStoreAccessKey, cfg.ObjectStoreSecretKey, ""),
		Secure: cfg.ObjectStoreUseSSL,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create object store client", "error", err)
		os.Exit(1)
	}
	objectStore, err := storage.NewClient(ctx, minioClient, cfg.ObjectStoreBucket)
	if err != nil {
		slog.ErrorContext(ctx, "failed to prepare avatar bucket", "error", err)
		os.Exit(1)
	}

	profileRepo := gateway.NewProfileRepository(db)
	roleRepo := gateway.NewRoleRepository(db)
	offerRepo := gateway.NewOfferRepository(db)
	notificationRepo := gateway.NewNotificationRepository(db)

	// Identity provider and infrastructure
	kratosGateway := gateway.NewKratosGateway(cfg.KratosURL, 5*time.Second)
	sessionCache := infracache.NewSessionCache(cfg.CacheTTL)
	defer sessionCache.Close()

	snapshots, err := infracache.NewSnapshotStore(cfg.SnapshotDir, slog.Default())
	if err != nil {
		slog.ErrorContext(ctx, "failed to open snapshot store", "error", err)
		os.Exit(1)
	}

	jwtIssuer := infratoken.NewJWTIssuer(infratoken.JWTConfig{
		Secret:   cfg.BackendTokenSecret,
		Issuer:   cfg.BackendTokenIssuer,
		Audience: cfg.BackendTokenAudience,
		TTL:      cfg.BackendTokenTTL,
	})
	csrfGenerator := infratoken.NewHMACCSRFGenerator(cfg.CSRFSecret)

	// Auth state machinery
	broker := session.NewBroker()
	monitor := session.NewMonitor(db.Ping, cfg.MonitorInterval, slog.Default())
	resolution := usecase.NewProfileResolution(profileRepo, roleRepo, notificationRepo, monitor, slog.Default())
	controller := session.NewController(kratosGateway, resolution, snapshots, broker, slog.Default())
	tracker := offers.NewTracker(offerRepo, cfg.OfferPollBase, cfg.OfferPollMax, slog.Default())

	// Usecases
	validateUC := usecase.NewValidateSession(kratosGateway, roleRepo, sessionCache, slog.Default())
	sessionUC := usecase.NewGetSession(kratosGateway, sessionCache, profileRepo, roleRepo, jwtIssuer, slog.Default())
	signInUC := usecase.NewSignIn(kratosGateway, broker, slog.Default())
	signUpUC := usecase.NewSignUp(kratosGateway, profileRepo, roleRepo, broker, slog.Default())
	signOutUC := usecase.NewSignOut(kratosGateway, sessionCache, controller, broker, slog.Default())
	forgotUC := usecase.NewForgotPassword(kratosGateway, slog.Default())
	resetUC := usecase.NewResetPassword(kratosGateway, slog.Default())
	updateProfileUC := usecase.NewUpdateProfile(profileRepo, controller, slog.Default())
	uploadAvatarUC := usecase.NewUploadAvatar(objectStore, profileRepo, slog.Default())
	csrfUC := usecase.NewGenerateCSRF(kratosGateway, csrfGenerator, slog.Default())
	reconcileUC := usecase.NewReconcileUser(profileRepo, roleRepo, slog.Default())
	createOfferUC := usecase.NewCreateOffer(offerRepo, notificationRepo, tracker, slog.Default())
	counterOfferUC := usecase.NewCounterOffer(offerRepo, notificationRepo, tracker, slog.Default())
	decideOfferUC := usecase.NewDecideOffer(offerRepo, notificationRepo, tracker, slog.Default())
	threadUC := usecase.NewGetOfferThread(offerRepo, slog.Default())
	notificationsUC := usecase.NewListNotifications(notificationRepo, slog.Default())

	// Handlers
	validateHandler := adapterhandler.NewValidateHandler(validateUC)
	sessionHandler := adapterhandler.NewSessionHandler(sessionUC)
	authHandler := adapterhandler.NewAuthHandler(signInUC, signUpUC, signOutUC, forgotUC, resetUC)
	profileHandler := adapterhandler.NewProfileHandler(validateUC, updateProfileUC, uploadAvatarUC)
	offerHandler := adapterhandler.NewOfferHandler(validateUC, createOfferUC, counterOfferUC, decideOfferUC, threadUC, tracker)
	notificationHandler := adapterhandler.NewNotificationHandler(validateUC, notificationsUC)
	csrfHandler := adapterhandler.NewCSRFHandler(csrfUC)
	healthHandler := adapterhandler.NewHealthHandler(db)
	internalHandler := adapterhandler.NewInternalHandler(reconcileUC)

	// Setup Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Security middleware
	e.Use(appmiddleware.SecurityHeaders())

	// OpenTelemetry tracing
	if otelCfg.Enabled {
		e.Use(otelecho.Middleware(otelCfg.ServiceName))
		e.Use(appmiddleware.OTelStatusMiddleware())
	}

	// Request logging
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			if v.Error == nil {
				slog.InfoContext(rctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				slog.ErrorContext(rctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())

	// Rate limiters per endpoint group
	validateRL := appmiddleware.NewRateLimiter(100.0/60.0, 10) // 100 req/min
	authRL := appmiddleware.NewRateLimiter(10.0/60.0, 5)       // 10 req/min
	sessionRL := appmiddleware.NewRateLimiter(30.0/60.0, 5)    // 30 req/min
	offerRL := appmiddleware.NewRateLimiter(30.0/60.0, 5)      // 30 req/min
	csrfRL := appmiddleware.NewRateLimiter(10.0/60.0, 3)       // 10 req/min
	internalRL := appmiddleware.NewRateLimiter(10.0/60.0, 3)   // 10 req/min
	defer func() {
		for _, rl := range []*appmiddleware.RateLimiter{validateRL, authRL, sessionRL, offerRL, csrfRL, internalRL} {
			rl.Close()
		}
	}()

	// Public routes
	e.GET("/validate", validateHandler.Handle, validateRL.Middleware())
	e.GET("/session", sessionHandler.Handle, sessionRL.Middleware())
	e.POST("/csrf", csrfHandler.Handle, csrfRL.Middleware())
	e.GET("/health", healthHandler.Handle)

	authGroup := e.Group("/auth", authRL.Middleware())
	authGroup.POST("/signin", authHandler.HandleSignIn)
	authGroup.POST("/signup", authHandler.HandleSignUp)
	authGroup.POST("/signout", authHandler.HandleSignOut)
	authGroup.POST("/forgot-password", authHandler.HandleForgotPassword)
	authGroup.POST("/reset-password", authHandler.HandleResetPassword)

	profileGroup := e.Group("/profile", sessionRL.Middleware())
	profileGroup.PATCH("", profileHandler.HandleUpdate)
	profileGroup.POST("/avatar", profileHandler.HandleAvatar)

	offerGroup := e.Group("", offerRL.Middleware())
	offerGroup.POST("/offers", offerHandler.HandleCreate)
	offerGroup.POST("/offers/:id/counter", offerHandler.HandleCounter)
	offerGroup.POST("/offers/:id/decision", offerHandler.HandleDecision)
	offerGroup.GET("/audits/:auditID/offers", offerHandler.HandleThread)
	offerGroup.GET("/audits/:auditID/offers/stream", offerHandler.HandleStream)
	offerGroup.GET("/notifications", notificationHandler.HandleList)

	// Internal routes (protected by shared secret)
	internalGroup := e.Group("/internal",
		internalRL.Middleware(),
		appmiddleware.InternalAuth(cfg.InternalSharedSecret),
	)
	internalGroup.POST("/reconcile/:userID", internalHandler.HandleReconcile)

	// Start server with errgroup for graceful shutdown
	address := fmt.Sprintf(":%s", cfg.Port)
	slog.InfoContext(ctx, "starting audit-hub server", "address", address)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return controller.Run(gCtx)
	})

	g.Go(func() error {
		return monitor.Run(gCtx)
	})

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down server...")
		tracker.Close()
		broker.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited properly")
}

// runHealthcheck performs a health check against the local server.
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8888"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}
