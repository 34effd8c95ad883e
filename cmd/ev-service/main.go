package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/esports-ev-finder/internal/api"
	"github.com/radieske/esports-ev-finder/internal/api/ws"
	"github.com/radieske/esports-ev-finder/internal/cycle"
	"github.com/radieske/esports-ev-finder/internal/matcher"
	"github.com/radieske/esports-ev-finder/internal/normalize"
	"github.com/radieske/esports-ev-finder/internal/shared/cache"
	"github.com/radieske/esports-ev-finder/internal/shared/config"
	"github.com/radieske/esports-ev-finder/internal/shared/db"
	sharedkafka "github.com/radieske/esports-ev-finder/internal/shared/kafka"
	"github.com/radieske/esports-ev-finder/internal/shared/logger"
	"github.com/radieske/esports-ev-finder/internal/shared/metrics"
	"github.com/radieske/esports-ev-finder/internal/sources"
	"github.com/radieske/esports-ev-finder/internal/store"
)

func main() {
	// carrega config
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "ev-service"
	}

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// conecta com db Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	log.Info("postgres connected")

	// conecta com cache Redis
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("redis connected")

	// writers Kafka dos eventos do ciclo
	closingWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicClosingLines)
	defer closingWriter.Close()
	alertWriter := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicValueAlerts)
	defer alertWriter.Close()
	log.Info("kafka writers ready",
		zap.String("closing_topic", cfg.TopicClosingLines),
		zap.String("alert_topic", cfg.TopicValueAlerts))

	// store + schema
	st := store.New(pg, log)
	if err := st.InitSchema(ctx); err != nil {
		log.Fatal("failed to init schema", zap.Error(err))
	}
	matchIDs := store.NewMatchIDSet(redisClient)

	// matcher: embeddings se configurado, senão similaridade de string
	var provider matcher.SimilarityProvider
	if cfg.EmbeddingURL != "" {
		provider = matcher.NewEmbeddingProvider(cfg.EmbeddingURL)
		log.Info("matcher usando embeddings", zap.String("url", cfg.EmbeddingURL))
	} else {
		provider = matcher.NewSequenceProvider()
		log.Info("matcher usando similaridade de string")
	}
	m := matcher.New(provider, normalize.DefaultAliases())

	// fontes de odds
	refSource := sources.NewReferenceClient(cfg.ReferenceBaseURL, log)
	retSource := sources.NewRetailClient(cfg.RetailBaseURL, log)

	// ciclo + scheduler
	notifier := cycle.NewKafkaNotifier(closingWriter, alertWriter, redisClient, cfg.RedisPubSubChannel, log)
	runner := cycle.NewRunner(st, refSource, retSource, matchIDs, m, notifier, log)
	scheduler := cycle.NewScheduler(runner, cfg.ScrapeIntervalMinutes, log)
	if err := scheduler.Start(ctx); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	// hub WebSocket alimentado pelo Pub/Sub do Redis
	hub := ws.NewHub(func(r *http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, redisClient, cfg.RedisPubSubChannel, hub, log)

	// API REST
	a := &api.API{
		BaseCtx:   ctx,
		Store:     st,
		MatchIDs:  matchIDs,
		Runner:    runner,
		Scheduler: scheduler,
		Cache:     api.NewViewCache(redisClient),
		Hub:       hub,
		Logger:    log,
	}
	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: a.Router()}
	go func() {
		log.Info("http server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	// métricas e health
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})
	log.Info("metrics server starting", zap.String("port", cfg.MetricsPort))

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}
