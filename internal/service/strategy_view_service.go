package service

import (
	"context"
	"errors"
	"time"

	"github.com/jinxiguild/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultViewDedupWindow = 30 * time.Minute

// StrategyViewService 负责攻略浏览量统计，同一访客在去重窗口内重复打开只计一次。
type StrategyViewService struct {
	db          *gorm.DB
	dedupWindow time.Duration
}

// ViewResult 返回浏览记录后的最新浏览量。
type ViewResult struct {
	ViewCount int64
	Counted   bool
}

// NewStrategyViewService 创建 StrategyViewService，默认去重窗口为 30 分钟。
func NewStrategyViewService(gdb *gorm.DB) *StrategyViewService {
	return &StrategyViewService{db: gdb, dedupWindow: defaultViewDedupWindow}
}

// WithDedupWindow 允许在测试或特定场景下调整去重窗口。
func (s *StrategyViewService) WithDedupWindow(d time.Duration) *StrategyViewService {
	if d <= 0 {
		return s
	}
	s.dedupWindow = d
	return s
}

// RecordView 记录访客对攻略的浏览。
func (s *StrategyViewService) RecordView(ctx context.Context, strategyID uint, visitorID string, now time.Time) (*ViewResult, error) {
	if visitorID == "" || strategyID == 0 {
		return nil, errors.New("invalid visitor or strategy id")
	}

	result := &ViewResult{}
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureStrategyExists(tx, strategyID); err != nil {
			return err
		}

		visit := db.StrategyVisit{
			StrategyID:    strategyID,
			VisitorID:     visitorID,
			ViewCount:     1,
			LastViewedAt:  now,
			LastCountedAt: now,
		}
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "strategy_id"}, {Name: "visitor_id"}},
			DoNothing: true,
		}).Create(&visit)
		if insert.Error != nil {
			return insert.Error
		}

		counted := insert.RowsAffected == 1
		if !counted {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("strategy_id = ? AND visitor_id = ?", strategyID, visitorID).
				First(&visit).Error; err != nil {
				return err
			}
			visit.LastViewedAt = now
			if now.Sub(visit.LastCountedAt) >= s.dedupWindow {
				visit.LastCountedAt = now
				visit.ViewCount++
				counted = true
			}
			if err := tx.Save(&visit).Error; err != nil {
				return err
			}
		}

		if counted {
			if err := tx.Model(&db.Strategy{}).Where("id = ?", strategyID).
				UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
				return err
			}
		}

		var strategy db.Strategy
		if err := tx.Select("view_count").First(&strategy, strategyID).Error; err != nil {
			return err
		}
		result.ViewCount = strategy.ViewCount
		result.Counted = counted
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// TopViewed 返回浏览量最高的已发布攻略。
func (s *StrategyViewService) TopViewed(ctx context.Context, limit int) ([]db.Strategy, error) {
	if limit <= 0 {
		limit = 5
	}

	var strategies []db.Strategy
	if err := s.db.WithContext(ctx).
		Where("status = ? AND view_count > 0", db.StrategyStatusPublished).
		Order("view_count DESC, id DESC").
		Limit(limit).
		Find(&strategies).Error; err != nil {
		return nil, err
	}
	return strategies, nil
}
