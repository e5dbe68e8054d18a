package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/jinxiguild/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultGuildName         = "今夕公会"
	defaultAnnouncementTitle = "公会公告"

	maxGuildNameLength         = 30
	maxAnnouncementTitleLength = 60
	maxAnnouncementLength      = 5000
)

var (
	ErrGuildNameInvalid         = errors.New("guild name is too long")
	ErrAnnouncementTitleInvalid = errors.New("announcement title is too long")
	ErrAnnouncementTooLong      = errors.New("announcement is too long")
	ErrRecruitEmailInvalid      = errors.New("recruit email is invalid")
)

// GuildSettings 描述站点可配置的公会信息。
type GuildSettings struct {
	GuildName         string `json:"guildName"`
	AnnouncementTitle string `json:"announcementTitle"`
	AnnouncementHTML  string `json:"announcementHtml"`
	RecruitEmail      string `json:"recruitEmail"`
}

// GuildSettingService 提供公会设置的读取与更新能力。
type GuildSettingService struct {
	db *gorm.DB
}

// NewGuildSettingService 构造 GuildSettingService。
func NewGuildSettingService(gdb *gorm.DB) *GuildSettingService {
	return &GuildSettingService{db: gdb}
}

var settingKeys = []string{
	db.SettingKeyGuildName,
	db.SettingKeyAnnouncementTitle,
	db.SettingKeyAnnouncementHTML,
	db.SettingKeyRecruitEmail,
}

// Get 读取公会设置，未设置的项返回默认值。
func (s *GuildSettingService) Get(ctx context.Context) (GuildSettings, error) {
	result := GuildSettings{GuildName: defaultGuildName, AnnouncementTitle: defaultAnnouncementTitle}

	var records []db.GuildSetting
	if err := s.db.WithContext(ctx).Where("`key` IN ?", settingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load guild settings: %w", err)
	}

	for _, record := range records {
		switch record.Key {
		case db.SettingKeyGuildName:
			if strings.TrimSpace(record.Value) != "" {
				result.GuildName = record.Value
			}
		case db.SettingKeyAnnouncementTitle:
			if strings.TrimSpace(record.Value) != "" {
				result.AnnouncementTitle = record.Value
			}
		case db.SettingKeyAnnouncementHTML:
			result.AnnouncementHTML = record.Value
		case db.SettingKeyRecruitEmail:
			result.RecruitEmail = record.Value
		}
	}

	return result, nil
}

// Update 保存公会设置，公告正文按 UGC 策略清洗。
func (s *GuildSettingService) Update(ctx context.Context, input GuildSettings) (GuildSettings, error) {
	sanitized := GuildSettings{
		GuildName:         cleanText(input.GuildName),
		AnnouncementTitle: cleanText(input.AnnouncementTitle),
		AnnouncementHTML:  cleanHTML(input.AnnouncementHTML),
		RecruitEmail:      strings.TrimSpace(input.RecruitEmail),
	}

	if utf8.RuneCountInString(sanitized.GuildName) > maxGuildNameLength {
		return GuildSettings{}, ErrGuildNameInvalid
	}
	if utf8.RuneCountInString(sanitized.AnnouncementTitle) > maxAnnouncementTitleLength {
		return GuildSettings{}, ErrAnnouncementTitleInvalid
	}
	if utf8.RuneCountInString(sanitized.AnnouncementHTML) > maxAnnouncementLength {
		return GuildSettings{}, ErrAnnouncementTooLong
	}
	if sanitized.RecruitEmail != "" {
		if _, err := mail.ParseAddress(sanitized.RecruitEmail); err != nil {
			return GuildSettings{}, ErrRecruitEmailInvalid
		}
	}

	if sanitized.GuildName == "" {
		sanitized.GuildName = defaultGuildName
	}
	if sanitized.AnnouncementTitle == "" {
		sanitized.AnnouncementTitle = defaultAnnouncementTitle
	}

	values := map[string]string{
		db.SettingKeyGuildName:         sanitized.GuildName,
		db.SettingKeyAnnouncementTitle: sanitized.AnnouncementTitle,
		db.SettingKeyAnnouncementHTML:  sanitized.AnnouncementHTML,
		db.SettingKeyRecruitEmail:      sanitized.RecruitEmail,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, key := range settingKeys {
			if err := upsertSetting(tx, key, values[key]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return GuildSettings{}, fmt.Errorf("update guild settings: %w", err)
	}

	return sanitized, nil
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := db.GuildSetting{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}
