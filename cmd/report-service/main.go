package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/bhims/bhims-backend/internal/report/events"
	"github.com/bhims/bhims-backend/internal/report/handler"
	"github.com/bhims/bhims-backend/internal/report/repository"
	"github.com/bhims/bhims-backend/internal/report/service"
	"github.com/bhims/bhims-backend/pkg/auth"
	"github.com/bhims/bhims-backend/pkg/config"
	"github.com/bhims/bhims-backend/pkg/database"
	"github.com/bhims/bhims-backend/pkg/httputil"
	"github.com/bhims/bhims-backend/pkg/logger"
	"github.com/bhims/bhims-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("report-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("report-service", cfg.Server.Environment)
	log.Info().Msg("starting Report Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ. Reports must render even without the broker, so a
	// connect failure downgrades event publishing instead of aborting.
	var publisher service.EventPublisher
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ unavailable, report events disabled")
	} else {
		defer rmq.Close()
		p, err := messaging.NewPublisher(rmq, messaging.ExchangeReportEvents, "report-service", log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to create event publisher, report events disabled")
		} else {
			publisher = events.NewReportEventPublisher(p, log)
		}
	}

	// Initialize repositories
	medicineRepo := repository.NewMedicineRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	detector := repository.NewCapabilityDetector(db, log)
	receiptReader := repository.NewBatchReceiptReader(db)
	dispenseReader := repository.NewDispenseReader(db)
	transactionReader := repository.NewTransactionReader(db)

	// Initialize service
	reportService := service.NewReportService(
		detector,
		receiptReader,
		dispenseReader,
		transactionReader,
		batchRepo,
		requestRepo,
		publisher,
		cfg.Report,
		log,
	)

	// Initialize handlers
	reportHandler := handler.NewReportHandler(reportService, medicineRepo, log)
	exportHandler := handler.NewExportHandler(reportService, medicineRepo, settingsRepo, log)

	// Initialize auth
	jwtManager := auth.NewManager(&cfg.JWT)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if origin == "http://localhost:3000" || origin == "http://localhost:5173" {
				return true
			}
			return cfg.Server.Environment != config.EnvProduction
		},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":   "healthy",
			"service":  "report-service",
			"database": db.Health(r.Context()),
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	// API routes. Reports are an administrator surface.
	r.Route("/api/v1/reports", func(r chi.Router) {
		r.Use(auth.Authenticate(jwtManager))
		r.Use(auth.RequireAdmin)

		r.Get("/", reportHandler.Generate)

		// CSV exports walk the full row set, so keep them rate limited.
		r.With(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))).
			Get("/export", exportHandler.ExportCSV)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
