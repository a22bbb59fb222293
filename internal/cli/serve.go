package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/01moynul/pharmastore-golang/docs"
	"github.com/01moynul/pharmastore-golang/internal/audit"
	"github.com/01moynul/pharmastore-golang/internal/auth"
	"github.com/01moynul/pharmastore-golang/internal/config"
	"github.com/01moynul/pharmastore-golang/internal/database"
	"github.com/01moynul/pharmastore-golang/internal/handlers"
	"github.com/01moynul/pharmastore-golang/internal/ratelimit"
	"github.com/01moynul/pharmastore-golang/internal/repository"
	"github.com/01moynul/pharmastore-golang/internal/repository/sqlstore"
	"github.com/01moynul/pharmastore-golang/internal/routes"
	"github.com/01moynul/pharmastore-golang/internal/services"
)

const (
	shutdownTimeout   = 15 * time.Second
	rateLimiterExpiry = 10 * time.Minute
	readHeaderTimeout = 10 * time.Second
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the overdue-order sweeper",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Apply the schema before serving")
}

// @title Pharmastore API
// @version 1.0
// @description Multi-tenant pharmacy storefront: catalog, carts, orders and payments.
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.OpenDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
		log.Info("schema is up to date")
	}

	reg := sqlstore.New(db)
	sink, closeSink := auditSink(cfg, reg, log)
	defer closeSink()

	courier, cargo := cfg.ShippingFees()
	svc := services.New(reg, audit.NewRecorder(sink, log), log, services.ShippingRates{Courier: courier, Cargo: cargo})

	gin.SetMode(gin.ReleaseMode)
	h := handlers.New(svc, auth.NewManager(cfg.JWTSecret, cfg.JWTTTL), log)
	router := routes.SetupRouter(h, routes.Options{
		CORSOrigin:     cfg.CORSAllowedOrigin,
		CallbackSecret: cfg.PaymentCallbackSecret,
		Limiter:        ratelimit.NewMemoryStore(cfg.RateLimitRPS, cfg.RateLimitBurst, rateLimiterExpiry),
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting pharmastore API server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return svc.Orders.RunOverdueSweeper(gctx, cfg.OverdueSweepInterval, cfg.UnpaidOrderTTL)
	})
	return g.Wait()
}

// auditSink picks the configured destination for audit entries.
func auditSink(cfg *config.Config, reg *repository.Registry, log *zap.Logger) (audit.Sink, func()) {
	if cfg.AuditSink == config.AuditSinkKafka {
		k := audit.NewKafkaSink(cfg.Brokers(), cfg.KafkaAuditTopic, log)
		log.Info("audit entries go to kafka", zap.Strings("brokers", cfg.Brokers()), zap.String("topic", cfg.KafkaAuditTopic))
		return k, func() {
			if err := k.Close(); err != nil {
				log.Warn("kafka writer close failed", zap.Error(err))
			}
		}
	}
	return &audit.DBSink{Log: reg.Audit}, func() {}
}
