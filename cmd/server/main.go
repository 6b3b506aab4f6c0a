package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/raazsocial/messaging/internal/application"
	"github.com/raazsocial/messaging/internal/cache"
	"github.com/raazsocial/messaging/internal/config"
	"github.com/raazsocial/messaging/internal/identity"
	"github.com/raazsocial/messaging/internal/kafka"
	"github.com/raazsocial/messaging/internal/media"
	"github.com/raazsocial/messaging/internal/observability"
	"github.com/raazsocial/messaging/internal/outbox"
	"github.com/raazsocial/messaging/internal/presence"
	"github.com/raazsocial/messaging/internal/repository"
	"github.com/raazsocial/messaging/internal/repository/memory"
	"github.com/raazsocial/messaging/internal/repository/postgres"
	"github.com/raazsocial/messaging/internal/transport/httpapi"
	"github.com/raazsocial/messaging/internal/tx"
	"github.com/raazsocial/messaging/internal/ws"
)

func main() {
	cfg := config.Load()

	observability.InitLogger(cfg.ServiceName)
	log := observability.Log

	if cfg.TracingEnabled {
		tp, err := observability.InitTracer(cfg.ServiceName, cfg.JaegerURL)
		if err != nil {
			log.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Error("failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	ctx, cancel := setupSignalHandler(log)
	defer cancel()

	var (
		db         *sql.DB
		repo       repository.Repository
		transactor tx.Transactor
	)

	switch cfg.StorageMode {
	case "memory":
		repo = memory.New()
		transactor = tx.Passthrough{}
		log.Info("using in-memory storage")
	default:
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatal("db open failed", zap.Error(err))
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal("db ping failed", zap.Error(err))
		}

		pgRepo := &postgres.Repository{DB: db}
		if cfg.CacheEnabled {
			pgRepo.Cache = cache.New(cfg.RedisAddr)
		}
		repo = pgRepo
		transactor = &tx.Manager{DB: db}
	}

	blobs, err := media.NewDiskStore(cfg.MediaDir, cfg.MediaURL)
	if err != nil {
		log.Fatal("media store init failed", zap.Error(err))
	}

	dir := presence.NewDirectory(log)
	router := ws.NewRouter(dir, log)
	wsHandler := ws.NewHandler(router)

	svc := application.New(repo, transactor, blobs, router, log)

	if cfg.KafkaEnabled && db != nil {
		producer := kafka.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()
		outbox.NewWorker(db, producer, 100, time.Second, log).Start(ctx)
	}

	resolver := identity.NewResolver(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	apiHandler := httpapi.NewHandler(svc)

	mainMux := chi.NewRouter()
	mainMux.Mount("/", httpapi.NewRouter(apiHandler, resolver, wsHandler))
	mainMux.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.MediaDir))))

	obsMux := chi.NewRouter()
	obsMux.Use(observability.MetricsMiddleware(cfg.ServiceName))
	if cfg.MetricsEnabled {
		obsMux.Handle("/metrics", promhttp.Handler())
	}
	obsMux.Get("/health/live", observability.HealthLiveHandler)
	obsMux.Get("/health/ready", observability.HealthReadyHandler(db))

	mainSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: mainMux}
	obsSrv := &http.Server{Addr: cfg.ObsHTTPAddr, Handler: obsMux}

	go func() {
		log.Info("starting observability server", zap.String("addr", cfg.ObsHTTPAddr))
		if err := obsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("observability server error", zap.Error(err))
		}
	}()
	go func() {
		log.Info("starting main server", zap.String("addr", cfg.HTTPAddr))
		if err := mainSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	performGracefulShutdown(mainSrv, obsSrv, log)
}

func setupSignalHandler(log *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, initiating shutdown", zap.String("signal", sig.String()))
		cancel()
	}()
	return ctx, cancel
}

func performGracefulShutdown(mainSrv, obsSrv *http.Server, log *zap.Logger) {
	log.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := mainSrv.Shutdown(ctx); err != nil {
		log.Error("error during main server shutdown", zap.Error(err))
	}
	if err := obsSrv.Shutdown(ctx); err != nil {
		log.Error("error during observability server shutdown", zap.Error(err))
	}
	log.Info("shutdown complete, exiting")
}
