package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httpapi "github.com/radieske/event-odds-gateway/internal/odds-gateway/http"
	"github.com/radieske/event-odds-gateway/internal/odds-gateway/normalizer"
	"github.com/radieske/event-odds-gateway/internal/odds-gateway/publisher"
	"github.com/radieske/event-odds-gateway/internal/odds-gateway/upstream"
	"github.com/radieske/event-odds-gateway/internal/shared/cache"
	"github.com/radieske/event-odds-gateway/internal/shared/config"
	"github.com/radieske/event-odds-gateway/internal/shared/logger"
	"github.com/radieske/event-odds-gateway/internal/shared/metrics"
)

func main() {
	// carrega config
	cfg := config.Load()

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service",
		zap.String("upstream", cfg.UpstreamBaseURL),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
	)

	// Métricas Prometheus do fetch client
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_gw_cache_hits_total", Help: "acertos no cache de payloads"})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_gw_cache_misses_total", Help: "misses no cache de payloads"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "odds_gw_upstream_attempts_total", Help: "tentativas por status (0 = falha de transporte)"}, []string{"status"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "odds_gw_upstream_latency_seconds", Help: "latência das tentativas no upstream"})
	fetchErrors := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "odds_gw_fetch_errors_total", Help: "falhas terminais por código"}, []string{"code"})
	prometheus.MustRegister(cacheHits, cacheMisses, attempts, latency, fetchErrors)

	// Fetch client: dono do cache TTL, retry/backoff e pool de conexões.
	// Construído aqui e passado por referência; nenhum estado global implícito.
	client := upstream.New(upstream.Options{
		BaseURL: cfg.UpstreamBaseURL,
		Headers: cfg.UpstreamHeaders(),
		DefaultParams: map[string]string{
			"_hash":                cfg.UpstreamHash,
			"projectId":            cfg.ProjectID,
			"geoIpCode":            cfg.GeoIPCode,
			"geoIpSubdivisionCode": cfg.GeoIPSubdivisionCode,
		},
		Timeout:       cfg.UpstreamTimeout,
		MaxRetries:    cfg.MaxRetries,
		BackoffFactor: cfg.BackoffFactor,
		MaxBackoff:    cfg.MaxBackoff,
		CacheTTL:      cfg.CacheTTL,
	}, log)
	defer client.Close()

	client.OnCacheHit = func() { cacheHits.Inc() }
	client.OnCacheMiss = func() { cacheMisses.Inc() }
	client.OnAttempt = func(status int, elapsed time.Duration) {
		attempts.WithLabelValues(strconv.Itoa(status)).Inc()
		latency.Observe(elapsed.Seconds())
	}
	client.OnError = func(code string) { fetchErrors.WithLabelValues(code).Inc() }

	// Publishers opcionais de snapshot (Kafka e Redis Pub/Sub)
	var publishers []httpapi.Publisher

	if cfg.KafkaBrokers != "" {
		kafkaPub := publisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.TopicOddsSnapshots, log)
		defer kafkaPub.Close()
		publishers = append(publishers, kafkaPub)
		log.Info("kafka snapshot publisher ready", zap.String("topic", cfg.TopicOddsSnapshots))
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.ConnectRedis(cfg.RedisAddr)
		if err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close()
		publishers = append(publishers, publisher.NewRedisBroadcaster(redisClient, cfg.RedisPubSubChannel, log))
		log.Info("redis broadcaster ready", zap.String("channel", cfg.RedisPubSubChannel))
	}

	api := &httpapi.API{
		Log:        log,
		Fetcher:    client,
		Normalizer: &normalizer.Normalizer{DefaultSource: cfg.SourceLabel},
		Publishers: publishers,
	}

	// healthz valida o Redis quando configurado; sem dependências críticas,
	// o serviço responde ok enquanto estiver de pé
	var healthFn metrics.HealthFunc
	if redisClient != nil {
		healthFn = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	metricsSrv := metrics.StartServer(cfg.MetricsPort, healthFn)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("stopped")
}
