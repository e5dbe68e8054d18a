package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jinxiguild/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxUserNameLength = 20

var (
	// ErrInvalidUserID 在缺少用户标识时返回
	ErrInvalidUserID = errors.New("user id is required")
	// ErrInvalidUserName 在昵称为空或过长时返回
	ErrInvalidUserName = errors.New("invalid user name")
	// ErrInvalidMonth 在月份不是 YYYY-MM 时返回
	ErrInvalidMonth = errors.New("invalid month")

	errAlreadyCheckedIn = errors.New("already checked in today")
)

// CheckinService 负责每日签到、连续天数与积分的计算。
// 所有日期均按 loc 时区的日历日计算，不按 24 小时间隔。
type CheckinService struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

// CheckinStatus 描述用户当天的签到状态。
type CheckinStatus struct {
	Today          string
	CheckedInToday bool
	// StreakActive 表示连续签到尚未中断（最近一次签到是今天或昨天）
	StreakActive bool
	Stats        *db.UserCheckinStats
}

// CheckinResult 是一次签到请求的结果，重复签到时 Success=false 且不产生任何写入。
type CheckinResult struct {
	Success        bool
	Message        string
	RewardPoints   int
	ContinuousDays int
	IsContinuous   bool
	Stats          *db.UserCheckinStats
}

// NewCheckinService 构造 CheckinService，loc 为空时使用 UTC。
func NewCheckinService(gdb *gorm.DB, loc *time.Location) *CheckinService {
	if loc == nil {
		loc = time.UTC
	}
	return &CheckinService{db: gdb, loc: loc, now: time.Now}
}

// WithClock 允许在测试中固定当前时间。
func (s *CheckinService) WithClock(now func() time.Time) *CheckinService {
	if now != nil {
		s.now = now
	}
	return s
}

// Location 返回签到使用的时区。
func (s *CheckinService) Location() *time.Location {
	return s.loc
}

// Today 返回当前日历日。
func (s *CheckinService) Today() string {
	return s.now().In(s.loc).Format(db.DateLayout)
}

// Status 查询用户今天是否已签到以及当前汇总数据，首次用户 Stats 为 nil。
func (s *CheckinService) Status(ctx context.Context, userID string) (*CheckinStatus, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	today, yesterday := s.calendarDays()
	status := &CheckinStatus{Today: today}

	var stats db.UserCheckinStats
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return status, nil
		}
		return nil, fmt.Errorf("load checkin stats: %w", err)
	}

	status.CheckedInToday = stats.LastCheckinDate == today
	status.StreakActive = stats.LastCheckinDate == today || stats.LastCheckinDate == yesterday
	if !sameMonth(stats.LastCheckinDate, today) {
		stats.ThisMonthCheckins = 0
	}
	if !sameYear(stats.LastCheckinDate, today) {
		stats.ThisYearCheckins = 0
	}
	status.Stats = &stats
	return status, nil
}

// Perform 执行一次签到。
// 同一用户同一日历日只会成功一次：签到流水的唯一索引与汇总行的条件更新共同保证，
// 并发的重复提交只会有一个事务写入成功，其余返回“今天已签到”。
func (s *CheckinService) Perform(ctx context.Context, userID, userName string) (*CheckinResult, error) {
	userID = strings.TrimSpace(userID)
	userName = strings.TrimSpace(userName)
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if userName == "" || utf8.RuneCountInString(userName) > maxUserNameLength {
		return nil, ErrInvalidUserName
	}

	today, yesterday := s.calendarDays()
	result := &CheckinResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stats db.UserCheckinStats
		err := tx.Where("user_id = ?", userID).First(&stats).Error
		fresh := errors.Is(err, gorm.ErrRecordNotFound)
		if err != nil && !fresh {
			return fmt.Errorf("load checkin stats: %w", err)
		}

		if !fresh && stats.LastCheckinDate == today {
			return errAlreadyCheckedIn
		}

		continuing := !fresh && stats.LastCheckinDate == yesterday
		streak := 1
		if continuing {
			streak = stats.ContinuousCheckins + 1
		}
		reward := RewardForStreak(streak)

		record := db.CheckinRecord{
			UserID:         userID,
			CheckinDate:    today,
			ContinuousDays: streak,
			RewardPoints:   reward,
			IsContinuous:   continuing,
		}
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "checkin_date"}},
			DoNothing: true,
		}).Create(&record)
		if insert.Error != nil {
			return fmt.Errorf("create checkin record: %w", insert.Error)
		}
		if insert.RowsAffected == 0 {
			return errAlreadyCheckedIn
		}

		previousDate := stats.LastCheckinDate
		next := stats
		next.UserID = userID
		next.UserName = userName
		next.TotalCheckins++
		next.ContinuousCheckins = streak
		if streak > next.MaxContinuous {
			next.MaxContinuous = streak
		}
		next.TotalPoints += reward
		if sameMonth(previousDate, today) {
			next.ThisMonthCheckins++
		} else {
			next.ThisMonthCheckins = 1
		}
		if sameYear(previousDate, today) {
			next.ThisYearCheckins++
		} else {
			next.ThisYearCheckins = 1
		}
		next.LastCheckinDate = today

		if fresh {
			created := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoNothing: true,
			}).Create(&next)
			if created.Error != nil {
				return fmt.Errorf("create checkin stats: %w", created.Error)
			}
			if created.RowsAffected == 0 {
				return errAlreadyCheckedIn
			}
		} else {
			updated := tx.Model(&db.UserCheckinStats{}).
				Where("id = ? AND last_checkin_date = ?", stats.ID, previousDate).
				Updates(map[string]any{
					"user_name":           next.UserName,
					"total_checkins":      next.TotalCheckins,
					"continuous_checkins": next.ContinuousCheckins,
					"max_continuous":      next.MaxContinuous,
					"total_points":        next.TotalPoints,
					"this_month_checkins": next.ThisMonthCheckins,
					"this_year_checkins":  next.ThisYearCheckins,
					"last_checkin_date":   next.LastCheckinDate,
				})
			if updated.Error != nil {
				return fmt.Errorf("update checkin stats: %w", updated.Error)
			}
			if updated.RowsAffected == 0 {
				return errAlreadyCheckedIn
			}
		}

		if err := tx.Where("user_id = ?", userID).First(&next).Error; err != nil {
			return fmt.Errorf("reload checkin stats: %w", err)
		}

		result.Success = true
		result.RewardPoints = reward
		result.ContinuousDays = streak
		result.IsContinuous = continuing
		result.Message = checkinMessage(streak, reward)
		result.Stats = &next
		return nil
	})

	if errors.Is(err, errAlreadyCheckedIn) {
		return &CheckinResult{Success: false, Message: "今天已经签到过了，明天再来吧"}, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// History 返回用户指定月份（YYYY-MM）的签到流水，month 为空时取当月。
func (s *CheckinService) History(ctx context.Context, userID, month string) ([]db.CheckinRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	month = strings.TrimSpace(month)
	if month == "" {
		month = s.now().In(s.loc).Format("2006-01")
	}
	start, err := time.ParseInLocation("2006-01", month, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	end := start.AddDate(0, 1, -1)

	var records []db.CheckinRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("checkin_date BETWEEN ? AND ?", start.Format(db.DateLayout), end.Format(db.DateLayout)).
		Order("checkin_date ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list checkin records: %w", err)
	}
	return records, nil
}

// RewardForStreak 根据签到后的连续天数计算当天积分：满 7 天 3 分，满 3 天 2 分，否则 1 分。
func RewardForStreak(streak int) int {
	switch {
	case streak >= 7:
		return 3
	case streak >= 3:
		return 2
	default:
		return 1
	}
}

func checkinMessage(streak, reward int) string {
	switch {
	case streak >= 30:
		return fmt.Sprintf("连续签到%d天，公会传说非你莫属！获得%d积分", streak, reward)
	case streak >= 7:
		return fmt.Sprintf("连续签到%d天，坚持就是胜利！获得%d积分", streak, reward)
	case streak >= 3:
		return fmt.Sprintf("连续签到%d天，状态正佳！获得%d积分", streak, reward)
	default:
		return fmt.Sprintf("签到成功，获得%d积分", reward)
	}
}

func (s *CheckinService) calendarDays() (string, string) {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	return today.Format(db.DateLayout), today.AddDate(0, 0, -1).Format(db.DateLayout)
}

func sameMonth(a, b string) bool {
	return len(a) >= 7 && len(b) >= 7 && a[:7] == b[:7]
}

func sameYear(a, b string) bool {
	return len(a) >= 4 && len(b) >= 4 && a[:4] == b[:4]
}
