package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-club-api/api/swagger"
	"github.com/noah-isme/sma-club-api/internal/handler"
	"github.com/noah-isme/sma-club-api/internal/middleware"
	"github.com/noah-isme/sma-club-api/internal/models"
	"github.com/noah-isme/sma-club-api/internal/repository"
	"github.com/noah-isme/sma-club-api/internal/service"
	"github.com/noah-isme/sma-club-api/internal/wizard"
	"github.com/noah-isme/sma-club-api/pkg/cache"
	"github.com/noah-isme/sma-club-api/pkg/config"
	"github.com/noah-isme/sma-club-api/pkg/database"
	"github.com/noah-isme/sma-club-api/pkg/export"
	"github.com/noah-isme/sma-club-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-club-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-club-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-club-api/pkg/storage"
)

// @title Club Enrollment API
// @version 1.0.0
// @description Club enrollment and fee payment wizard service
// @BasePath /api/v1
// @schemes http

const schoolName = "Groupe Scolaire Horizon"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and receipt numbering degraded", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	// Repositories.
	clubRepo := repository.NewClubRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	receiptCounter := repository.NewReceiptCounter(redisClient)

	// Receipt rendering pipeline.
	receiptStore, err := storage.NewLocalStorage(cfg.Receipts.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare receipt storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Receipts.SignedURLSecret, cfg.Receipts.SignedURLTTL)
	receiptSvc := service.NewReceiptService(export.NewReceiptRenderer(), receiptStore, signer, service.ReceiptConfig{
		Enabled:         cfg.Receipts.Enabled,
		Workers:         cfg.Receipts.WorkerConcurrency,
		Retries:         cfg.Receipts.WorkerRetries,
		CleanupInterval: cfg.Receipts.CleanupInterval,
	}, logr)

	// Wizard sessions and orchestrators.
	sessions := service.NewSessionStore(cfg.Wizard.SessionTTL, cfg.Wizard.SweepInterval, logr)
	enrollmentPolicy := wizard.EnrollmentPolicy{PhonePlaceholder: cfg.Wizard.PhonePlaceholder}
	paymentPolicy := wizard.PaymentPolicy{PhonePlaceholder: cfg.Wizard.PhonePlaceholder}

	clubSvc := service.NewClubService(clubRepo, enrollmentRepo, cacheRepo, export.NewRosterCSVExporter(), metrics, cfg.Clubs.CacheTTL, logr)
	enrollmentWizard := service.NewEnrollmentWizardService(
		sessions,
		wizard.NewReconciler(enrollmentRepo, logr),
		clubRepo,
		clubSvc,
		studentRepo,
		receiptSvc,
		enrollmentRepo,
		paymentRepo,
		metrics,
		enrollmentPolicy,
		schoolName,
		validate,
		logr,
	)
	paymentWizard := service.NewPaymentWizardService(
		sessions,
		wizard.NewReconciler(paymentRepo, logr),
		studentRepo,
		receiptCounter,
		service.ReceiptPrefixes{
			Cash:        cfg.Receipts.CashPrefix,
			Bank:        cfg.Receipts.BankPrefix,
			MobileMoney: cfg.Receipts.MobileMoneyPrefix,
		},
		paymentRepo,
		receiptSvc,
		metrics,
		paymentPolicy,
		schoolName,
		validate,
		logr,
	)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret, logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions.Start(rootCtx)
	defer sessions.Stop()
	receiptSvc.Start(rootCtx)
	defer receiptSvc.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", handler.NewMetricsHandler(metrics).Scrape)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	clubHandler := handler.NewClubHandler(clubSvc)
	enrollmentHandler := handler.NewEnrollmentWizardHandler(enrollmentWizard)
	paymentHandler := handler.NewPaymentWizardHandler(paymentWizard)
	receiptHandler := handler.NewReceiptHandler(receiptSvc)

	api := r.Group(cfg.APIPrefix, middleware.JWT(tokenSvc))
	{
		clubs := api.Group("/clubs")
		clubs.GET("", clubHandler.List)
		clubs.GET("/:id", clubHandler.Get)
		clubs.GET("/:id/roster", middleware.RequireRoles(models.RoleAdmin, models.RoleSecretary), clubHandler.Roster)

		enroll := api.Group("/enrollments/wizard", middleware.RequireRoles(models.RoleAdmin, models.RoleSecretary))
		enroll.POST("", enrollmentHandler.Start)
		enroll.POST("/resume", enrollmentHandler.Resume)
		enroll.GET("/:sessionId", enrollmentHandler.GetState)
		enroll.PUT("/:sessionId/club", enrollmentHandler.SelectClub)
		enroll.GET("/:sessionId/students", enrollmentHandler.EligibleStudents)
		enroll.PUT("/:sessionId/student", enrollmentHandler.SelectStudent)
		enroll.PATCH("/:sessionId/payment", enrollmentHandler.UpdatePayment)
		enroll.GET("/:sessionId/proration", enrollmentHandler.Proration)
		enroll.POST("/:sessionId/next", enrollmentHandler.Next)
		enroll.POST("/:sessionId/previous", enrollmentHandler.Previous)
		enroll.POST("/:sessionId/goto", enrollmentHandler.Goto)
		enroll.POST("/:sessionId/reset", enrollmentHandler.Reset)
		enroll.POST("/:sessionId/submit", enrollmentHandler.Submit)

		pay := api.Group("/payments/wizard", middleware.RequireRoles(models.RoleAdmin, models.RoleSecretary, models.RoleAccounts))
		pay.POST("", paymentHandler.Start)
		pay.GET("/:sessionId", paymentHandler.GetState)
		pay.PUT("/:sessionId/student", paymentHandler.SelectStudent)
		pay.PATCH("/:sessionId/payment", paymentHandler.UpdatePayment)
		pay.POST("/:sessionId/receipt-number", paymentHandler.SuggestReceiptNumber)
		pay.POST("/:sessionId/next", paymentHandler.Next)
		pay.POST("/:sessionId/previous", paymentHandler.Previous)
		pay.POST("/:sessionId/goto", paymentHandler.Goto)
		pay.POST("/:sessionId/reset", paymentHandler.Reset)
		pay.POST("/:sessionId/submit", paymentHandler.Submit)

		api.GET("/payments/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleSecretary, models.RoleAccounts), paymentHandler.Detail)
		api.GET("/payments/:id/receipt-link", receiptHandler.Link)
	}

	// Download links are pre-signed; no bearer token required.
	r.GET("/receipts/download", receiptHandler.Download)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
