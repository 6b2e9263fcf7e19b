package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/contactkeeper/internal/auth"
	"github.com/geocoder89/contactkeeper/internal/cache"
	"github.com/geocoder89/contactkeeper/internal/config"
	httpx "github.com/geocoder89/contactkeeper/internal/http"
	"github.com/geocoder89/contactkeeper/internal/http/handlers"
	"github.com/geocoder89/contactkeeper/internal/observability"
	"github.com/geocoder89/contactkeeper/internal/redisclient"
	"github.com/geocoder89/contactkeeper/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	log.Info("config loaded", "cfg", cfg)

	if cfg.UsesDevSecret() {
		log.Warn("JWT_SECRET not set, signing with a random per-process dev secret")
	}

	ctx := context.Background()

	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: cfg.ServiceName,
			Environment: cfg.Env,
			Endpoint:    cfg.OTLPEndpoint,
			Protocol:    cfg.OTLPProtocol,
			SampleRatio: cfg.SampleRatio,
		})
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() {
			sctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracer(sctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	openCtx, cancelOpen := config.WithTimeout(ctx, 15*time.Second)
	st, err := store.Open(openCtx, cfg, prom)
	cancelOpen()

	if err != nil {
		log.Error("store open failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer st.Close()

	var (
		lists  cache.ContactLists
		checks []handlers.ReadinessCheck
	)

	switch {
	case !cfg.CacheEnabled():
		log.Info("contact list cache disabled")

	case cfg.RedisAddr != "":
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rc.Close()

		lists = cache.NewRedisContactLists(rc.Raw(), cfg.CacheTTL, func(op string, err error) {
			prom.ObserveCacheError(op)
			log.Warn("contact list cache error", "op", op, "err", err)
		})
		checks = append(checks, handlers.ReadinessCheck{Name: "redis", Ping: rc.Ping})

	default:
		lists = cache.NewMemoryContactLists(cfg.CacheTTL)
		log.Warn("contact list cache is process-local, set REDIS_ADDR when running more than one replica")
	}

	if lists != nil {
		lists = cache.WithLookupObserver(lists, prom.ObserveCacheLookup)
	}

	tokens := auth.NewManager(cfg.JWTSecret, cfg.RegisterTokenTTL, cfg.LoginTokenTTL)

	// set up routers with the log
	router := httpx.NewRouter(httpx.Deps{
		Log:      log,
		Config:   cfg,
		Store:    st,
		Tokens:   tokens,
		Lists:    lists,
		Prom:     prom,
		Gatherer: reg,
		Checks:   checks,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", st.Driver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)
			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
