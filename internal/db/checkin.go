package db

import "time"

// DateLayout 是签到日期的存储格式，只保留日历日。
const DateLayout = "2006-01-02"

// UserCheckinStats 每个用户一行的签到汇总。
// UserID 由客户端生成并持久化；UserName 可随时修改，不保证唯一。
type UserCheckinStats struct {
	ID                 uint   `gorm:"primaryKey" json:"id"`
	UserID             string `gorm:"size:64;uniqueIndex;not null" json:"userId"`
	UserName           string `gorm:"size:64;not null" json:"userName"`
	TotalCheckins      int    `gorm:"not null;default:0" json:"totalCheckins"`
	ContinuousCheckins int    `gorm:"not null;default:0" json:"continuousCheckins"`
	MaxContinuous      int    `gorm:"not null;default:0" json:"maxContinuous"`
	TotalPoints        int    `gorm:"not null;default:0" json:"totalPoints"`
	ThisMonthCheckins  int    `gorm:"not null;default:0" json:"thisMonthCheckins"`
	ThisYearCheckins   int    `gorm:"not null;default:0" json:"thisYearCheckins"`
	// LastCheckinDate 为 YYYY-MM-DD，既是幂等判断也是连续性判断的依据
	LastCheckinDate string    `gorm:"size:10;index" json:"lastCheckinDate"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// TableName 指定自定义表名。
func (UserCheckinStats) TableName() string {
	return "user_checkin_stats"
}

// CheckinRecord 追加写入的签到流水。
// UserID + CheckinDate 唯一索引，保证同一天最多一条记录。
type CheckinRecord struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         string    `gorm:"size:64;not null;index:idx_checkin_user_date,unique" json:"userId"`
	CheckinDate    string    `gorm:"size:10;not null;index:idx_checkin_user_date,unique;index" json:"checkinDate"`
	ContinuousDays int       `gorm:"not null" json:"continuousDays"`
	RewardPoints   int       `gorm:"not null" json:"rewardPoints"`
	IsContinuous   bool      `gorm:"not null;default:false" json:"isContinuous"`
	CreatedAt      time.Time `json:"createdAt"`
}

// TableName 指定自定义表名。
func (CheckinRecord) TableName() string {
	return "checkin_records"
}
