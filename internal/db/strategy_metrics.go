package db

import "time"

// StrategyVisit 记录访客维度的浏览历史，用于浏览量去重。
type StrategyVisit struct {
	ID            uint   `gorm:"primaryKey"`
	StrategyID    uint   `gorm:"not null;index:idx_strategy_visit,unique"`
	VisitorID     string `gorm:"size:64;not null;index:idx_strategy_visit,unique"`
	ViewCount     int64  `gorm:"not null;default:0"`
	LastViewedAt  time.Time
	LastCountedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName 指定自定义表名。
func (StrategyVisit) TableName() string {
	return "strategy_visits"
}
