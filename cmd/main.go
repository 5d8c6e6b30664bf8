package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/fathima-sithara/realtime-service/internal/api"
	"github.com/fathima-sithara/realtime-service/internal/auth"
	"github.com/fathima-sithara/realtime-service/internal/config"
	"github.com/fathima-sithara/realtime-service/internal/events"
	"github.com/fathima-sithara/realtime-service/internal/hub"
	"github.com/fathima-sithara/realtime-service/internal/kafka"
	"github.com/fathima-sithara/realtime-service/internal/logger"
	"github.com/fathima-sithara/realtime-service/internal/metrics"
	"github.com/fathima-sithara/realtime-service/internal/presence"
	"github.com/fathima-sithara/realtime-service/internal/repository"
	"github.com/fathima-sithara/realtime-service/internal/router"
	"github.com/fathima-sithara/realtime-service/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	lg, err := logger.New(logger.Config{Env: cfg.App.Env})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	metrics.Init()

	ctx := context.Background()
	mongoClient, err := repository.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		lg.Fatalw("mongo connect", "err", err)
	}
	db := mongoClient.Database(cfg.Mongo.Database)
	msgRepo := repository.NewMessageRepo(db.Collection("messages"))
	chatRepo := repository.NewChatRepo(db.Collection("chats"))
	userRepo := repository.NewUserRepo(db.Collection("users"))

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		lg.Fatalw("redis ping", "err", err)
	}
	presStore := presence.NewStore(rdb, cfg.Redis.Prefix, cfg.PresenceTTL)
	presResolver := presence.NewResolver(presStore, userRepo)

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicMessageSent)
	defer func() { _ = producer.Close() }()

	h := hub.New()
	relay := hub.NewRelay(rdb, h, lg)
	relayCtx, relayCancel := context.WithCancel(ctx)
	defer relayCancel()
	go relay.Run(relayCtx)

	rt := router.New(h, msgRepo, chatRepo, userRepo, presStore, producer,
		router.BaseURLMediaResolver{BaseURL: os.Getenv("MEDIA_BASE_URL")}, lg)

	sub, err := events.NewSubscriber(cfg.NATS.URL, h, lg)
	if err != nil {
		lg.Fatalw("nats connect", "err", err)
	}
	defer sub.Close()
	if err := sub.Run(cfg.NATS.ChatUpdatedSubject); err != nil {
		lg.Fatalw("nats subscribe", "err", err)
	}

	jv := auth.NewJWTValidator(cfg.App.JWTSecret)
	wsSrv := ws.NewServer(h, rt, jv, cfg.PingInterval, cfg.WriteDeadline, cfg.WS.MaxMessageSizeBytes)

	app := api.NewApp(wsSrv.HandleWS(), jv, presResolver, msgRepo, chatRepo)

	errs := make(chan error, 1)
	go func() {
		addr := ":" + strconv.Itoa(cfg.App.Port)
		lg.Infof("starting realtime service on %s", addr)
		errs <- app.Listen(addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case e := <-errs:
		lg.Fatalw("server error", "err", e)
	case s := <-sig:
		lg.Infof("signal received: %v", s)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(); err != nil {
		lg.Warnw("fiber shutdown", "err", err)
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		lg.Warnw("mongo disconnect", "err", err)
	}
	_ = rdb.Close()
	lg.Info("shutting down")
}
