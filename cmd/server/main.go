package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	portfolio "go.phasenull.dev/portfolio"
	echoapi "go.phasenull.dev/portfolio/api/echo"
	"go.phasenull.dev/portfolio/blobstore"
	"go.phasenull.dev/portfolio/cache"
	cacheredis "go.phasenull.dev/portfolio/cache/redis"
	"go.phasenull.dev/portfolio/config"
	"go.phasenull.dev/portfolio/internal/server"
	"go.phasenull.dev/portfolio/log"
	"go.phasenull.dev/portfolio/postgres"
	"go.phasenull.dev/portfolio/twitter"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logLevel, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		logLevel = zerolog.InfoLevel
	}
	appLogger := log.NewZerologAdapter(logLevel, cfg.LogPretty)

	ctx := context.Background()
	appLogger.Info(ctx, "starting portfolio server", map[string]interface{}{
		"http_port": cfg.HTTPPort,
		"log_level": logLevel.String(),
	})

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		appLogger.Fatal(ctx, "failed to connect to postgres", err)
	}
	defer pool.Close()

	redisClient := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Fatal(ctx, "failed to connect to redis", err)
	}
	defer redisClient.Close()

	mongoClient, err := blobstore.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		appLogger.Fatal(ctx, "failed to connect to mongodb", err)
	}
	blobs, err := blobstore.NewGridFSStore(mongoClient.Database(cfg.MongoDBName))
	if err != nil {
		appLogger.Fatal(ctx, "failed to create gridfs bucket", err)
	}

	challengeRepo := postgres.NewChallengeRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	projectRepo := postgres.NewProjectRepository(pool)
	stackRepo := postgres.NewStackRepository(pool)
	activityRepo := postgres.NewActivityRepository(pool)

	tokens := portfolio.NewTokenService(cfg.JWTSecret)
	provider := twitter.NewClient(nil, "")
	authService := portfolio.NewAuthService(cfg, challengeRepo, sessionRepo, tokens, provider)

	cacheStore := cacheredis.NewStore(redisClient, "portfolio", 2*cfg.ProjectsCacheTTL())
	readThrough := cache.NewReadThrough(cacheStore)

	api := echoapi.NewPortfolioAPI(cfg, authService, tokens,
		sessionRepo, projectRepo, stackRepo, activityRepo, readThrough, blobs)

	httpServer := server.NewHTTPServer(cfg, appLogger, api)
	go func() {
		appLogger.Info(ctx, "http server listening", map[string]interface{}{"addr": httpServer.Addr})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(ctx, "http server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info(ctx, "shutting down", map[string]interface{}{"signal": sig.String()})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "http server shutdown error", err)
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "mongodb disconnect error", err)
	}

	appLogger.Info(shutdownCtx, "server stopped")
}
