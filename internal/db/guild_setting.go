package db

import "gorm.io/gorm"

// GuildSetting 存储站点可配置的键值对。
type GuildSetting struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (GuildSetting) TableName() string {
	return "guild_settings"
}

const (
	// SettingKeyGuildName 表示公会名称。
	SettingKeyGuildName = "guild_name"
	// SettingKeyAnnouncementTitle 表示公告标题。
	SettingKeyAnnouncementTitle = "announcement_title"
	// SettingKeyAnnouncementHTML 表示公告正文（已清洗的 HTML）。
	SettingKeyAnnouncementHTML = "announcement_html"
	// SettingKeyRecruitEmail 表示招募申请的收件邮箱。
	SettingKeyRecruitEmail = "recruit_email"
)
