// Command api runs the SkillSwap HTTP and websocket server.
//
//	@title						SkillSwap API
//	@version					1.0
//	@description				Skill matching, connection requests, and realtime rooms for peer mentoring.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	_ "github.com/tbourn/skillswap-backend/docs"
	"github.com/tbourn/skillswap-backend/internal/cache"
	"github.com/tbourn/skillswap-backend/internal/config"
	httpapi "github.com/tbourn/skillswap-backend/internal/http"
	"github.com/tbourn/skillswap-backend/internal/observability"
	"github.com/tbourn/skillswap-backend/internal/realtime"
	"github.com/tbourn/skillswap-backend/internal/repo"
	"github.com/tbourn/skillswap-backend/internal/services"
	"github.com/tbourn/skillswap-backend/internal/sysutil"
)

const shutdownTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	sysutil.SetupLogger(nil, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	gin.SetMode(cfg.GinMode)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	version := sysutil.Version()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}

	db, err := repo.Open(cfg.DB.Driver, cfg.DB.Path, cfg.DB.DSN)
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}

	deps := httpapi.Deps{DB: db}
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = cache.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("recommendation cache disabled")
		} else {
			deps.RankCache = cache.NewRedis(rdb, "rank")
		}
	}

	hub := realtime.NewHub(services.NewMessageService(db, cfg.ChatMaxRunes), realtime.Options{
		ReadLimit:    cfg.Realtime.ReadLimit,
		PingInterval: cfg.Realtime.PingInterval,
		SendBuffer:   cfg.Realtime.SendBuffer,
		Logger:       log.Logger,
	})
	deps.Hub = hub

	r := gin.New()
	httpapi.RegisterRoutes(r, deps, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("db", cfg.DB.Driver).Bool("cache", deps.RankCache != nil).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		// Hijacked websocket connections are not tracked by Shutdown.
		errs = append(errs, srv.Shutdown(sctx), hub.Close(sctx))
		if rdb != nil {
			errs = append(errs, rdb.Close())
		}
		if sqlDB, err := db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
		errs = append(errs, shutdownOTel(sctx))
		return errors.Join(errs...)
	})
	return g.Wait()
}
