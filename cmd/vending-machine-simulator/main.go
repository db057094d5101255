// Package main boots the Vending Machine Simulator HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fairyhunter13/vending-machine-simulator/internal/catalog"
	"github.com/fairyhunter13/vending-machine-simulator/internal/config"
	"github.com/fairyhunter13/vending-machine-simulator/internal/events"
	httpapi "github.com/fairyhunter13/vending-machine-simulator/internal/http"
	"github.com/fairyhunter13/vending-machine-simulator/internal/idempotency"
	"github.com/fairyhunter13/vending-machine-simulator/internal/inventory"
	"github.com/fairyhunter13/vending-machine-simulator/internal/machine"
	"github.com/fairyhunter13/vending-machine-simulator/internal/obs"
	"github.com/fairyhunter13/vending-machine-simulator/internal/queue"
	"github.com/fairyhunter13/vending-machine-simulator/internal/redisx"
	"github.com/fairyhunter13/vending-machine-simulator/internal/tracing"
)

func main() {
	// A missing .env is fine; the environment alone is enough.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		obs.Logger.Error("config_error", "error", err)
		os.Exit(1)
	}
	obs.InitLogger(cfg.LogLevel)
	obs.Logger.Info("service_starting", "addr", cfg.HTTPAddr, "coins", cfg.Coins)

	tp, err := tracing.Init(context.Background(), cfg.ServiceName, cfg.TraceExporter, os.Stderr, obs.Logger)
	if err != nil {
		obs.Logger.Error("tracing_error", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			obs.Logger.Error("tracing_shutdown_error", "error", err)
		}
	}()

	products, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		obs.Logger.Error("catalog_error", "error", err, "path", cfg.CatalogFile)
		os.Exit(1)
	}
	inv := inventory.New(products)

	var pub queue.Publisher = events.NewLogPublisher(obs.Logger)
	if len(cfg.KafkaBrokers) > 0 {
		w := events.NewKafkaWriter(cfg.KafkaBrokers)
		defer func() {
			if err := w.Close(); err != nil {
				obs.Logger.Error("kafka_close_error", "error", err)
			}
		}()
		pub = events.NewKafkaPublisher(obs.Logger, w, cfg.EventsTopic)
		obs.Logger.Info("kafka_publisher_enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.EventsTopic)
	}

	q := queue.New(128)
	mgr := queue.NewManager(cfg, q, pub)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mgr.Start(ctx)

	m, err := machine.New(inv, cfg.Coins,
		machine.WithEventSink(mgr),
		machine.WithInitialBalance(cfg.InitialBalanceCt),
		machine.WithID(cfg.MachineID),
	)
	if err != nil {
		obs.Logger.Error("machine_error", "error", err)
		os.Exit(1)
	}
	obs.Logger.Info("machine_ready", "machine_id", m.ID(), "products", inv.Len(), "balance_ct", m.Balance())

	app := httpapi.NewApp(cfg, m, mgr)
	if cfg.RedisURL != "" {
		pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
		rdb, err := redisx.Config{URL: cfg.RedisURL}.New(pingCtx)
		cancelPing()
		if err != nil {
			obs.Logger.Error("redis_error", "error", err)
			os.Exit(1)
		}
		defer func() { _ = rdb.Close() }()
		app.Idempotency = idempotency.NewStore(rdb, cfg.IdempotencyTTL)
		obs.Logger.Info("idempotency_enabled", "ttl", cfg.IdempotencyTTL.String())
	}
	mux := httpapi.NewRouter(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obs.Logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	obs.Logger.Info("shutdown_signal", "signal", s.String())

	app.StartShutdown()
	obs.Logger.Info("shutdown_drain_begin", "backlog_size", mgr.BacklogSize(), "worker_count", mgr.WorkerCount())

	ctxDrain, cancelDrain := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelDrain()
	if drained := mgr.DrainUntil(ctxDrain); !drained {
		obs.Logger.Warn("shutdown_drain_timeout")
	} else {
		obs.Logger.Info("shutdown_drain_complete")
	}

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}
	mgr.Stop()
	obs.Logger.Info("service_stopped", "balance_ct", m.Balance(), "last_sequence", mgr.LastSequence())
}
