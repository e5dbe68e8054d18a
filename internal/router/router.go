package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/jinxiguild/internal/handler"
	"github.com/jinxiguild/internal/middleware"
	"go.uber.org/zap"
)

const sessionName = "jinxi_session"

// Options 描述路由层需要的外部配置。
type Options struct {
	SessionSecret      string
	UploadDir          string
	UploadURL          string
	AllowedOrigins     []string
	RateLimitPerMinute int
	Logger             *zap.Logger
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(logger, true))
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	secret := opts.SessionSecret
	if secret == "" {
		secret = "jinxi-dev-secret"
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   365 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	// 上传的攻略图片与视频
	uploadDir := strings.TrimSpace(opts.UploadDir)
	if uploadDir == "" {
		uploadDir = "web/static/uploads"
	}
	uploadURL := "/" + strings.Trim(strings.TrimSpace(opts.UploadURL), "/")
	if uploadURL == "/" {
		uploadURL = "/static/uploads"
	}
	r.Static(uploadURL, uploadDir)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	limit := middleware.NewRateLimiter(opts.RateLimitPerMinute).Handler()

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/identity", api.GetIdentity)
		apiGroup.PUT("/identity", limit, api.UpdateIdentity)

		apiGroup.GET("/checkin/status", api.CheckinStatus)
		apiGroup.POST("/checkin", limit, api.PerformCheckin)
		apiGroup.GET("/checkin/history", api.CheckinHistory)
		apiGroup.GET("/leaderboard", api.GetLeaderboard)

		apiGroup.GET("/strategies", api.ListStrategies)
		apiGroup.POST("/strategies", limit, api.CreateStrategy)
		apiGroup.POST("/strategies/media", limit, api.UploadStrategyMedia)
		apiGroup.GET("/strategies/:id", api.GetStrategy)
		apiGroup.GET("/strategy-categories", api.ListStrategyCategories)
		apiGroup.POST("/strategy-actions", limit, api.StrategyAction)

		apiGroup.GET("/messages", api.ListMessages)
		apiGroup.POST("/messages", limit, api.CreateMessage)
		apiGroup.POST("/message-actions", limit, api.MessageAction)

		apiGroup.GET("/settings", api.GetSettings)
		apiGroup.PUT("/settings", limit, api.UpdateSettings)
		apiGroup.POST("/recruit", limit, api.SubmitRecruit)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		// 通配时回显请求的 Origin，浏览器才会携带会话 cookie
		cfg.AllowOriginFunc = func(string) bool { return true }
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
