package db

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Options 描述数据库连接参数。
type Options struct {
	Driver   string
	Path     string
	DSN      string
	LogLevel logger.LogLevel
}

// Init 初始化数据库连接并执行自动迁移。
// sqlite 路径为空时回退到 jinxi.db；mysql 必须提供 DSN。
func Init(opts Options) error {
	gormCfg := &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "", log.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  opts.LogLevel,
				IgnoreRecordNotFoundError: true,
			},
		),
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "mysql":
		if strings.TrimSpace(opts.DSN) == "" {
			return errors.New("mysql dsn is required")
		}
		dialector = mysql.Open(opts.DSN)
	default:
		path := strings.TrimSpace(opts.Path)
		if path == "" {
			path = "jinxi.db"
		}
		if err := ensureParentDir(path); err != nil {
			return err
		}
		dialector = sqlite.Open(path)
	}

	gdb, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return err
	}

	if err := Migrate(gdb); err != nil {
		return err
	}

	DB = gdb
	return nil
}

// Migrate 为全部模型建表，测试中也直接复用。
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&UserCheckinStats{},
		&CheckinRecord{},
		&Strategy{},
		&StrategyReaction{},
		&StrategyComment{},
		&StrategyVisit{},
		&Message{},
		&MessageReply{},
		&MessageReaction{},
		&GuildSetting{},
	)
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
