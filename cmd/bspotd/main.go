package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/api"
	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/chat"
	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/config"
	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/gateway"
	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/notify"
	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/obs"
	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/ratelimit"
	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/ratelimit/memory"
	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/ratelimit/redisstore"
	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/visitor"
)

func main() {
	cfgPath := os.Getenv("BSPOT_CONFIG")
	if cfgPath == "" {
		cfgPath = "./config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := obs.SetupLogger(cfg.Observability.LogLevel)
	logger.Info().Str("addr", cfg.Server.Addr).Msg("starting bspotd")

	reg := prometheus.NewRegistry()
	metrics := obs.NewMetrics(reg)

	// background ctx drives the sweepers; cancelling it is the stop handle
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	memLimiter := memory.New()
	memLimiter.StartSweeper(bgCtx, cfg.Limits.Chat.SweepEvery())
	var chatLimiter ratelimit.Limiter = memLimiter
	if rdb != nil {
		shared, err := redisstore.New(bgCtx, rdb)
		if err != nil {
			logger.Warn().Err(err).Msg("redis limiter unavailable, using in-memory windows")
		} else {
			chatLimiter = shared
		}
	}

	gate := visitor.NewGate(cfg.Limits.VisitorWindow())
	gate.StartSweeper(bgCtx, cfg.Limits.VisitorSweepEvery())

	var counter visitor.Counter = visitor.NewMemoryCounter()
	if rdb != nil {
		counter = visitor.NewRedisCounter(rdb)
	}

	var notifier notify.Notifier
	if cfg.Notify.APIKey != "" && len(cfg.Notify.To) > 0 {
		notifier = notify.NewResend(cfg.Notify.APIKey, cfg.Notify.From, cfg.Notify.To)
	} else {
		logger.Warn().Msg("notifications disabled: no RESEND_API_KEY or recipients")
	}

	completer := chat.NewCompletionClient(chat.CompletionConfig{
		BaseURL:     cfg.Upstream.BaseURL,
		APIKey:      cfg.Upstream.APIKey,
		Model:       cfg.Upstream.Model,
		Timeout:     cfg.Upstream.Timeout(),
		OutboundRPS: cfg.Upstream.OutboundRPS,
		Burst:       cfg.Upstream.Burst,
	})

	chatSvc := chat.NewService(completer, notifier, logger)
	chatSvc.OnReport = func(err error) {
		outcome := "sent"
		if err != nil {
			outcome = "failed"
		}
		metrics.ReportsTotal.WithLabelValues(outcome).Inc()
	}

	handlers := api.NewServer(chatSvc, gate, counter, metrics)

	chatPolicy := ratelimit.Config{
		MaxRequests: cfg.Limits.Chat.MaxRequests,
		Window:      cfg.Limits.Chat.Window(),
	}
	limitChat := gateway.RateLimit(chatLimiter, chatPolicy, func(string) {
		metrics.RateLimited.WithLabelValues("/chat").Inc()
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /chat", handlers.ChatHealth)
	mux.Handle("POST /chat", gateway.Chain(http.HandlerFunc(handlers.Chat), limitChat))
	mux.HandleFunc("POST /increment-visitor", handlers.IncrementVisitor)
	mux.Handle("GET "+cfg.Observability.PrometheusPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	skip := map[string]struct{}{
		"/health":                        {},
		cfg.Observability.PrometheusPath: {},
	}

	handler := gateway.Chain(
		mux,
		obs.Logger(logger),
		metrics.Middleware(skip),
		gateway.CORS(),
		gateway.BodyLimit(int(cfg.Server.MaxBody())),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout(),
		WriteTimeout:      cfg.Server.WriteTimeout(),
		IdleTimeout:       cfg.Server.IdleTimeout(),
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	stopBackground()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	_ = chatLimiter.Close()
	if rdb != nil {
		_ = rdb.Close()
	}
	logger.Info().Msg("bye")
}
