package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/config"
	dbpkg "github.com/BruksfildServices01/barber-booking/internal/db"
	"github.com/BruksfildServices01/barber-booking/internal/infra/cache"
	infraRepo "github.com/BruksfildServices01/barber-booking/internal/infra/repository"
	"github.com/BruksfildServices01/barber-booking/internal/logger"
	"github.com/BruksfildServices01/barber-booking/internal/media"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	"github.com/BruksfildServices01/barber-booking/internal/payments"
	"github.com/BruksfildServices01/barber-booking/internal/routes"
	"github.com/BruksfildServices01/barber-booking/internal/telemetry"
)

const serviceName = "barber-booking"

func main() {

	cfg := config.Load()

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ======================================================
	// TRACING
	// ======================================================
	otelShutdown, err := telemetry.Setup(ctx, cfg, serviceName)
	if err != nil {
		log.Error("otel setup failed", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	// ======================================================
	// STORAGE + AUDIT
	// ======================================================
	deps := routes.Deps{Log: log}
	var sinks []audit.Sink

	switch cfg.StorageDriver {
	case "memory":
		log.Warn("using in-memory storage; data is lost on restart")
		memLog := audit.NewMemoryLog()
		deps.Store = infraRepo.NewMemoryRepository()
		deps.AuditReader = memLog
		sinks = append(sinks, memLog)
	default:
		db, err := dbpkg.NewDB(cfg, log)
		if err != nil {
			log.Fatal("database setup failed", zap.Error(err))
		}
		dbLog := audit.New(db)
		deps.Store = infraRepo.NewGormRepository(db)
		deps.AuditReader = dbLog
		deps.Ping = dbpkg.Ping(db)
		sinks = append(sinks, dbLog)
	}

	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		kafkaSink := audit.NewKafkaSink(brokers, cfg.KafkaAuditTopic)
		defer func() { _ = kafkaSink.Close() }()
		sinks = append(sinks, kafkaSink)
		log.Info("audit events streamed to kafka", zap.String("topic", cfg.KafkaAuditTopic))
	}

	deps.Audit = audit.NewDispatcher(log, sinks...)
	defer deps.Audit.Close()

	// ======================================================
	// METRICS
	// ======================================================
	deps.Metrics = metrics.NewBookingMetrics(prometheus.DefaultRegisterer)
	deps.Gatherer = prometheus.DefaultGatherer

	// ======================================================
	// WEBHOOK DEDUPE
	// ======================================================
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("redis unavailable, webhook dedupe is per-process", zap.Error(err))
		} else {
			defer func() { _ = rdb.Close() }()
			deps.Processed = cache.NewRedisProcessedStore(rdb, 0)
		}
	}
	if deps.Processed == nil {
		deps.Processed = cache.NewMemoryProcessedStore(0)
	}

	// ======================================================
	// PAYMENTS
	// ======================================================
	deps.Gateway, deps.Webhooks = paymentGateways(cfg, log)
	if cfg.StripeSecretKey != "" {
		deps.Onboarder = payments.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, log)
	} else {
		log.Info("STRIPE_SECRET_KEY not set, payment account onboarding disabled")
	}

	// ======================================================
	// PROVIDER IMAGES
	// ======================================================
	if store := media.NewS3Store(media.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	}); store != nil {
		deps.Images = store
	} else {
		log.Info("S3_BUCKET not set, provider image upload disabled")
	}

	// ======================================================
	// HTTP
	// ======================================================
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, cfg, deps)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           otelhttp.NewHandler(r, serviceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server running", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", zap.Error(err))
	}
	log.Info("server stopped")
}

// paymentGateways picks the checkout gateway from PAYMENT_PROVIDER and
// registers a webhook parser for every processor that has credentials.
func paymentGateways(cfg *config.Config, log *zap.Logger) (payments.Gateway, []payments.WebhookParser) {
	var (
		gateway payments.Gateway
		parsers []payments.WebhookParser
	)

	if cfg.StripeSecretKey != "" || cfg.StripeWebhookSecret != "" {
		stripeGW := payments.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, log)
		parsers = append(parsers, stripeGW)
		if cfg.PaymentProvider == "stripe" && cfg.StripeSecretKey != "" {
			gateway = stripeGW
		}
	}

	if cfg.MercadoPagoToken != "" {
		mpGW, err := payments.NewMercadoPagoGateway(
			cfg.MercadoPagoToken,
			cfg.MercadoPagoWebhookKey,
			cfg.PublicAPIURL+"/api/webhooks/mercadopago",
			log,
		)
		if err != nil {
			log.Error("mercadopago setup failed", zap.Error(err))
		} else {
			parsers = append(parsers, mpGW)
			if cfg.PaymentProvider == "mercadopago" {
				gateway = mpGW
			}
		}
	}

	if gateway == nil {
		log.Warn("no payment gateway configured, checkout disabled", zap.String("provider", cfg.PaymentProvider))
	}
	return gateway, parsers
}
