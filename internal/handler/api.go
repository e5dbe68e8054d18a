package handler

import (
	"context"
	"strings"
	"time"

	"github.com/jinxiguild/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	checkins    *service.CheckinService
	leaderboard *service.LeaderboardService
	strategies  *service.StrategyService
	views       *service.StrategyViewService
	media       *service.MediaService
	messages    *service.MessageService
	settings    *service.GuildSettingService
	recruit     *service.RecruitService
	admin       *service.AdminGate
	logger      *zap.Logger
	now         func() time.Time
}

// Options 汇总构造 API 所需的运行参数。
type Options struct {
	Location            *time.Location
	UploadDir           string
	UploadURL           string
	AdminPasswordHash   string
	ViewDedupWindow     time.Duration
	LeaderboardCache    service.LeaderboardCache
	LeaderboardCacheTTL time.Duration
	SMTP                service.SMTPSettings
	RecruitTo           string
	FormRelayURL        string
	Logger              *zap.Logger
	Now                 func() time.Time
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	settings := service.NewGuildSettingService(gdb)
	recipient := func(ctx context.Context) string {
		current, err := settings.Get(ctx)
		if err == nil && strings.TrimSpace(current.RecruitEmail) != "" {
			return current.RecruitEmail
		}
		return opts.RecruitTo
	}

	return &API{
		checkins:    service.NewCheckinService(gdb, opts.Location).WithClock(now),
		leaderboard: service.NewLeaderboardService(gdb, opts.Location).WithClock(now).WithCache(opts.LeaderboardCache, opts.LeaderboardCacheTTL),
		strategies:  service.NewStrategyService(gdb),
		views:       service.NewStrategyViewService(gdb).WithDedupWindow(opts.ViewDedupWindow),
		media:       service.NewMediaService(opts.UploadDir, opts.UploadURL),
		messages:    service.NewMessageService(gdb),
		settings:    settings,
		recruit:     service.NewRecruitService(opts.SMTP, opts.FormRelayURL, recipient, logger.Named("recruit")),
		admin:       service.NewAdminGate(opts.AdminPasswordHash),
		logger:      logger,
		now:         now,
	}
}
