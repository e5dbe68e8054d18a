package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinxiguild/internal/db"
	"gorm.io/gorm"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	leaderboardCachePrefix  = "leaderboard:"
)

// ErrInvalidDimension 在排行榜类型不受支持时返回
var ErrInvalidDimension = errors.New("invalid leaderboard dimension")

// Dimension 排行榜的排序维度。
type Dimension string

const (
	DimensionTotal         Dimension = "total"
	DimensionContinuous    Dimension = "continuous"
	DimensionMonthly       Dimension = "monthly"
	DimensionYearly        Dimension = "yearly"
	DimensionPoints        Dimension = "points"
	DimensionMaxContinuous Dimension = "max_continuous"
)

type dimensionSpec struct {
	title string
	// column 为汇总表上的排序列；monthly/yearly 由签到流水按日期区间统计
	column string
	label  func(value int) string
}

var dimensionSpecs = map[Dimension]dimensionSpec{
	DimensionTotal: {
		title:  "累计签到榜",
		column: "total_checkins",
		label:  func(v int) string { return fmt.Sprintf("累计%d天", v) },
	},
	DimensionContinuous: {
		title:  "连续签到榜",
		column: "continuous_checkins",
		label:  func(v int) string { return fmt.Sprintf("连续%d天", v) },
	},
	DimensionMonthly: {
		title: "本月签到榜",
		label: func(v int) string { return fmt.Sprintf("本月%d天", v) },
	},
	DimensionYearly: {
		title: "年度签到榜",
		label: func(v int) string { return fmt.Sprintf("今年%d天", v) },
	},
	DimensionPoints: {
		title:  "积分榜",
		column: "total_points",
		label:  func(v int) string { return fmt.Sprintf("%d积分", v) },
	},
	DimensionMaxContinuous: {
		title:  "最长连续榜",
		column: "max_continuous",
		label:  func(v int) string { return fmt.Sprintf("最长连续%d天", v) },
	},
}

// ParseDimension 校验并解析排行榜类型。
func ParseDimension(raw string) (Dimension, error) {
	dim := Dimension(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := dimensionSpecs[dim]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidDimension, raw)
	}
	return dim, nil
}

// LeaderboardCache 是排行榜结果缓存的最小接口。
type LeaderboardCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	InvalidatePrefix(ctx context.Context, prefix string)
}

// LeaderboardEntry 排行榜中的一行。
type LeaderboardEntry struct {
	Rank     int                 `json:"rank"`
	UserID   string              `json:"userId"`
	UserName string              `json:"userName"`
	Value    int                 `json:"value"`
	Label    string              `json:"label"`
	Stats    db.UserCheckinStats `json:"stats"`
}

// Leaderboard 某一维度的排行榜。
type Leaderboard struct {
	Type         Dimension          `json:"type"`
	Title        string             `json:"title"`
	Entries      []LeaderboardEntry `json:"entries"`
	TotalEntries int64              `json:"totalEntries"`
}

// LeaderboardService 按不同维度对签到汇总排名。
// 每个 userId 独立上榜，不按昵称合并。
type LeaderboardService struct {
	db       *gorm.DB
	loc      *time.Location
	now      func() time.Time
	cache    LeaderboardCache
	cacheTTL time.Duration
}

// NewLeaderboardService 构造 LeaderboardService。
func NewLeaderboardService(gdb *gorm.DB, loc *time.Location) *LeaderboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &LeaderboardService{db: gdb, loc: loc, now: time.Now}
}

// WithClock 允许在测试中固定当前时间。
func (s *LeaderboardService) WithClock(now func() time.Time) *LeaderboardService {
	if now != nil {
		s.now = now
	}
	return s
}

// WithCache 启用结果缓存；cache 为 nil 或 ttl<=0 时保持禁用。
func (s *LeaderboardService) WithCache(cache LeaderboardCache, ttl time.Duration) *LeaderboardService {
	if cache == nil || ttl <= 0 {
		return s
	}
	s.cache = cache
	s.cacheTTL = ttl
	return s
}

type rankedRow struct {
	db.UserCheckinStats `gorm:"embedded"`
	RankValue           int `gorm:"column:rank_value"`
}

// Get 返回指定维度的排行榜，limit 缺省 10，最大 100。
func (s *LeaderboardService) Get(ctx context.Context, dim Dimension, limit int) (*Leaderboard, error) {
	spec, ok := dimensionSpecs[dim]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDimension, dim)
	}
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	now := s.now().In(s.loc)
	today := now.Format(db.DateLayout)
	cacheKey := fmt.Sprintf("%s%s:%d:%s", leaderboardCachePrefix, dim, limit, today)
	if s.cache != nil {
		if raw, hit := s.cache.Get(ctx, cacheKey); hit {
			var cached Leaderboard
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	query, valueExpr := s.rankingQuery(ctx, dim, spec, now)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count leaderboard: %w", err)
	}

	var rows []rankedRow
	if err := query.Session(&gorm.Session{}).
		Select("s.*, " + valueExpr + " AS rank_value").
		Order(rankingOrder(valueExpr, spec.column)).
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}

	board := &Leaderboard{
		Type:         dim,
		Title:        spec.title,
		Entries:      make([]LeaderboardEntry, 0, len(rows)),
		TotalEntries: total,
	}
	for i, row := range rows {
		board.Entries = append(board.Entries, LeaderboardEntry{
			Rank:     i + 1,
			UserID:   row.UserID,
			UserName: row.UserName,
			Value:    row.RankValue,
			Label:    spec.label(row.RankValue),
			Stats:    row.UserCheckinStats,
		})
	}

	if s.cache != nil {
		if raw, err := json.Marshal(board); err == nil {
			s.cache.Set(ctx, cacheKey, raw, s.cacheTTL)
		}
	}

	return board, nil
}

// Invalidate 清除全部排行榜缓存，签到成功后调用。
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidatePrefix(ctx, leaderboardCachePrefix)
}

func (s *LeaderboardService) rankingQuery(ctx context.Context, dim Dimension, spec dimensionSpec, now time.Time) (*gorm.DB, string) {
	base := s.db.WithContext(ctx).Table("user_checkin_stats AS s")
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	switch dim {
	case DimensionMonthly, DimensionYearly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
		if dim == DimensionYearly {
			start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, s.loc)
		}
		base = base.Joins(
			"JOIN (SELECT user_id, COUNT(*) AS period_count FROM checkin_records WHERE checkin_date BETWEEN ? AND ? GROUP BY user_id) r ON r.user_id = s.user_id",
			start.Format(db.DateLayout), today.Format(db.DateLayout),
		)
		return base, "r.period_count"
	case DimensionContinuous:
		// 已中断的连续签到不上榜
		yesterday := today.AddDate(0, 0, -1).Format(db.DateLayout)
		return base.Where("s.last_checkin_date >= ?", yesterday).Where("s.continuous_checkins > 0"), "s." + spec.column
	default:
		return base.Where("s." + spec.column + " > 0"), "s." + spec.column
	}
}

// rankingOrder 主序为维度值，其次累计签到、总积分，与主序相同的列跳过，最后按 user_id 保证稳定。
func rankingOrder(valueExpr, column string) string {
	parts := []string{valueExpr + " DESC"}
	if column != "total_checkins" {
		parts = append(parts, "s.total_checkins DESC")
	}
	if column != "total_points" {
		parts = append(parts, "s.total_points DESC")
	}
	parts = append(parts, "s.user_id ASC")
	return strings.Join(parts, ", ")
}
