package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/covechat/cove/internal/archive"
	"github.com/covechat/cove/internal/auth"
	"github.com/covechat/cove/internal/bridge"
	"github.com/covechat/cove/internal/config"
	"github.com/covechat/cove/internal/directory"
	"github.com/covechat/cove/internal/handler"
	"github.com/covechat/cove/internal/hub"
	"github.com/covechat/cove/internal/presence"
	"github.com/covechat/cove/internal/service"
	"github.com/covechat/cove/internal/store"
	"github.com/covechat/cove/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	l := log.L()
	l.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting cove")

	limits := store.Limits{
		RoomLogMax:         cfg.History.RoomLogMax,
		ConversationLogMax: cfg.History.ConversationLogMax,
	}

	var (
		msgStore store.MessageStore
		tracker  presence.Tracker
		dir      directory.Directory
		br       bridge.Bridge
	)

	switch cfg.Store.Driver {
	case "memory":
		msgStore = store.NewMemoryMessageStore(limits)
		tracker = presence.NewMemoryTracker(cfg.Presence.Window)
		dir = directory.NewMemoryDirectory()
		br = bridge.NewMemoryBridge()
		l.Info().Msg("using in-memory backends (single instance)")

	default:
		msgStore, err = store.NewRedisMessageStore(newRedisClient(cfg.Redis), limits)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to initialize message store")
		}
		tracker, err = presence.NewRedisTracker(newRedisClient(cfg.Redis), cfg.Presence.Window)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to initialize presence tracker")
		}
		dir, err = directory.NewRedisDirectory(newRedisClient(cfg.Redis))
		if err != nil {
			l.Fatal().Err(err).Msg("failed to initialize directory")
		}
		br, err = bridge.NewRedisBridge(newRedisClient(cfg.Redis))
		if err != nil {
			l.Fatal().Err(err).Msg("failed to initialize broadcast bridge")
		}
		l.Info().Str("address", cfg.Redis.Address).Msg("connected to redis")
	}
	defer msgStore.Close()
	defer tracker.Close()
	defer dir.Close()
	defer br.Close()

	var archiver archive.Archiver
	if cfg.Archive.Enabled {
		archiver, err = archive.NewKafkaArchiver(cfg.Archive.Brokers, cfg.Archive.Topic)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to initialize archiver")
		}
		l.Info().Str("brokers", cfg.Archive.Brokers).Str("topic", cfg.Archive.Topic).Msg("archiving to kafka")
	}

	wsHub := hub.NewHub()
	chatSvc := service.NewChatService(wsHub, msgStore, tracker, dir, br, archiver, cfg.History)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := chatSvc.Start(ctx); err != nil {
		l.Fatal().Err(err).Msg("failed to start chat service")
	}
	defer chatSvc.Stop()

	sweeper := presence.NewSweeper(tracker, cfg.Presence.SweepInterval)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	if cfg.Auth.JWTSecret == "" {
		l.Warn().Msg("auth.jwt_secret is empty; set JWT_SECRET in production")
	}
	verifier := auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	wsHandler := handler.NewWSHandler(wsHub, chatSvc, verifier, cfg.WebSocket)
	httpHandler := handler.NewHTTPHandler(chatSvc, tracker, verifier)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/ws", gin.WrapF(wsHandler.HandleWebSocket))
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	httpHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		l.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Warn().Err(err).Msg("server forced to shutdown")
	}

	l.Info().Msg("stopped")
}

func newRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
