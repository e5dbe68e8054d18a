package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/jinxiguild/internal/cache"
	"github.com/jinxiguild/internal/config"
	"github.com/jinxiguild/internal/db"
	"github.com/jinxiguild/internal/handler"
	"github.com/jinxiguild/internal/logger"
	"github.com/jinxiguild/internal/router"
	"github.com/jinxiguild/internal/service"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	gin.SetMode(ginMode(cfg.GinMode))

	loc, err := time.LoadLocation(cfg.CheckinTimezone)
	if err != nil {
		log.Warn("unknown checkin timezone, falling back to Asia/Shanghai",
			zap.String("timezone", cfg.CheckinTimezone), zap.Error(err))
		loc = time.FixedZone("Asia/Shanghai", 8*3600)
	}

	// 初始化数据库
	if err := db.Init(db.Options{
		Driver:   cfg.DatabaseDriver,
		Path:     cfg.DatabasePath,
		DSN:      cfg.DatabaseDSN,
		LogLevel: logger.GormLevel(cfg.LogLevel),
	}); err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}

	var leaderboardCache service.LeaderboardCache
	redisCache, err := cache.NewRedis(context.Background(), cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, log)
	switch {
	case err != nil:
		log.Warn("redis unavailable, leaderboard cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	case redisCache != nil:
		leaderboardCache = redisCache
		defer redisCache.Close()
	}

	api := handler.NewAPI(db.DB, handler.Options{
		Location:            loc,
		UploadDir:           cfg.UploadDir,
		UploadURL:           cfg.UploadURLPath,
		AdminPasswordHash:   cfg.AdminPasswordHash,
		ViewDedupWindow:     time.Duration(cfg.ViewDedupMinutes) * time.Minute,
		LeaderboardCache:    leaderboardCache,
		LeaderboardCacheTTL: time.Duration(cfg.LeaderboardCacheSeconds) * time.Second,
		SMTP: service.SMTPSettings{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		},
		RecruitTo:    cfg.RecruitTo,
		FormRelayURL: cfg.FormRelayURL,
		Logger:       log,
	})
	if cfg.AdminPasswordHash == "" {
		log.Warn("ADMIN_PASSWORD_HASH not set, pin and delete actions are disabled")
	}

	r := router.SetupRouter(api, router.Options{
		SessionSecret:      cfg.SessionSecret,
		UploadDir:          cfg.UploadDir,
		UploadURL:          cfg.UploadURLPath,
		AllowedOrigins:     cfg.AllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             log,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("starting server", zap.String("addr", cfg.ListenAddr), zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped with error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func ginMode(mode string) string {
	switch mode {
	case gin.DebugMode, gin.TestMode:
		return mode
	default:
		return gin.ReleaseMode
	}
}
