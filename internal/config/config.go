package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr         string
	Port               string
	DatabaseDriver     string
	DatabasePath       string
	DatabaseDSN        string
	SessionSecret      string
	GinMode            string
	UploadDir          string
	UploadURLPath      string
	AdminPasswordHash  string
	CheckinTimezone    string
	AllowedOrigins     []string
	RateLimitPerMinute int
	ViewDedupMinutes   int

	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	LeaderboardCacheSeconds int

	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	RecruitTo    string
	FormRelayURL string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := envString("PORT", "8080")

	listenAddr := envString("LISTEN_ADDR", "")
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	driver := strings.ToLower(envString("DATABASE_DRIVER", "sqlite"))
	if driver != "mysql" {
		driver = "sqlite"
	}

	return AppConfig{
		ListenAddr:         listenAddr,
		Port:               port,
		DatabaseDriver:     driver,
		DatabasePath:       envString("DATABASE_PATH", "jinxi.db"),
		DatabaseDSN:        envString("DATABASE_DSN", ""),
		SessionSecret:      envString("SESSION_SECRET", "jinxi-dev-secret"),
		GinMode:            envString("GIN_MODE", "release"),
		UploadDir:          envString("UPLOAD_DIR", "web/static/uploads"),
		UploadURLPath:      envString("UPLOAD_URL_PATH", "/static/uploads"),
		AdminPasswordHash:  envString("ADMIN_PASSWORD_HASH", ""),
		CheckinTimezone:    envString("CHECKIN_TIMEZONE", "Asia/Shanghai"),
		AllowedOrigins:     splitList(envString("ALLOWED_ORIGINS", "*")),
		RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 60),
		ViewDedupMinutes:   envInt("VIEW_DEDUP_MINUTES", 30),

		RedisAddr:               envString("REDIS_ADDR", ""),
		RedisPassword:           envString("REDIS_PASSWORD", ""),
		RedisDB:                 envInt("REDIS_DB", 0),
		LeaderboardCacheSeconds: envInt("LEADERBOARD_CACHE_SECONDS", 60),

		LogLevel:      strings.ToLower(envString("LOG_LEVEL", "info")),
		LogPath:       envString("LOG_PATH", ""),
		LogMaxSizeMB:  envInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: envInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: envInt("LOG_MAX_AGE_DAYS", 7),
		LogCompress:   envBool("LOG_COMPRESS", false),

		SMTPHost:     envString("SMTP_HOST", ""),
		SMTPPort:     envInt("SMTP_PORT", 587),
		SMTPUsername: envString("SMTP_USERNAME", ""),
		SMTPPassword: envString("SMTP_PASSWORD", ""),
		SMTPFrom:     envString("SMTP_FROM", ""),
		RecruitTo:    envString("RECRUIT_TO", ""),
		FormRelayURL: envString("FORM_RELAY_URL", ""),
	}
}

func envString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
