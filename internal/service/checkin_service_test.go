package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jinxiguild/internal/db"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advanceDays(days int) { c.now = c.now.AddDate(0, 0, days) }

func newTestCheckinService(t *testing.T, start time.Time) (*CheckinService, *fakeClock) {
	t.Helper()
	gdb := setupServiceTestDB(t)
	clock := &fakeClock{now: start}
	loc, _ := time.LoadLocation("Asia/Shanghai")
	if loc == nil {
		loc = time.FixedZone("CST", 8*3600)
	}
	return NewCheckinService(gdb, loc).WithClock(clock.Now), clock
}

func TestRewardForStreakBoundaries(t *testing.T) {
	cases := map[int]int{1: 1, 2: 1, 3: 2, 6: 2, 7: 3, 30: 3}
	for streak, want := range cases {
		if got := RewardForStreak(streak); got != want {
			t.Fatalf("streak %d: expected reward %d, got %d", streak, want, got)
		}
	}
}

func TestPerformCheckinThreeConsecutiveDays(t *testing.T) {
	svc, clock := newTestCheckinService(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := svc.Perform(ctx, "u-1", "阿狸")
		if err != nil {
			t.Fatalf("day %d: perform failed: %v", i+1, err)
		}
		if !result.Success {
			t.Fatalf("day %d: expected success, got %q", i+1, result.Message)
		}
		if result.ContinuousDays != i+1 {
			t.Fatalf("day %d: expected streak %d, got %d", i+1, i+1, result.ContinuousDays)
		}
		clock.advanceDays(1)
	}

	var stats db.UserCheckinStats
	if err := db.DB.Where("user_id = ?", "u-1").First(&stats).Error; err != nil {
		t.Fatalf("load stats: %v", err)
	}
	if stats.TotalCheckins != 3 || stats.ContinuousCheckins != 3 || stats.MaxContinuous != 3 || stats.TotalPoints != 4 {
		t.Fatalf("expected {3,3,3,4}, got {%d,%d,%d,%d}", stats.TotalCheckins, stats.ContinuousCheckins, stats.MaxContinuous, stats.TotalPoints)
	}
}

func TestPerformCheckinGapResetsStreak(t *testing.T) {
	svc, clock := newTestCheckinService(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	if _, err := svc.Perform(ctx, "u-2", "小明"); err != nil {
		t.Fatalf("first checkin failed: %v", err)
	}
	clock.advanceDays(2)

	result, err := svc.Perform(ctx, "u-2", "小明")
	if err != nil {
		t.Fatalf("second checkin failed: %v", err)
	}
	if result.IsContinuous {
		t.Fatalf("expected streak to be broken")
	}

	stats := result.Stats
	if stats.TotalCheckins != 2 || stats.ContinuousCheckins != 1 || stats.MaxContinuous != 1 || stats.TotalPoints != 2 {
		t.Fatalf("expected {2,1,1,2}, got {%d,%d,%d,%d}", stats.TotalCheckins, stats.ContinuousCheckins, stats.MaxContinuous, stats.TotalPoints)
	}
}

func TestPerformCheckinTwiceSameDay(t *testing.T) {
	svc, _ := newTestCheckinService(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first, err := svc.Perform(ctx, "u-3", "阿狸")
	if err != nil || !first.Success {
		t.Fatalf("first checkin should succeed: %v %+v", err, first)
	}

	second, err := svc.Perform(ctx, "u-3", "阿狸")
	if err != nil {
		t.Fatalf("second checkin returned error: %v", err)
	}
	if second.Success {
		t.Fatalf("expected second checkin to be rejected")
	}
	if !strings.Contains(second.Message, "已经签到") {
		t.Fatalf("unexpected rejection message %q", second.Message)
	}

	var stats db.UserCheckinStats
	if err := db.DB.Where("user_id = ?", "u-3").First(&stats).Error; err != nil {
		t.Fatalf("load stats: %v", err)
	}
	if stats.TotalCheckins != 1 || stats.TotalPoints != 1 {
		t.Fatalf("expected counters unchanged, got total=%d points=%d", stats.TotalCheckins, stats.TotalPoints)
	}

	var records int64
	db.DB.Model(&db.CheckinRecord{}).Where("user_id = ?", "u-3").Count(&records)
	if records != 1 {
		t.Fatalf("expected 1 record, got %d", records)
	}
}

func TestPerformCheckinUsesConfiguredTimezone(t *testing.T) {
	// UTC 16:00 之后即为上海时间的次日
	svc, clock := newTestCheckinService(t, time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC))
	ctx := context.Background()

	if _, err := svc.Perform(ctx, "u-4", "阿狸"); err != nil {
		t.Fatalf("first checkin failed: %v", err)
	}
	clock.now = time.Date(2024, 5, 1, 16, 30, 0, 0, time.UTC)

	result, err := svc.Perform(ctx, "u-4", "阿狸")
	if err != nil {
		t.Fatalf("second checkin failed: %v", err)
	}
	if !result.Success || result.ContinuousDays != 2 {
		t.Fatalf("expected a new calendar day with streak 2, got %+v", result)
	}
	if result.Stats.LastCheckinDate != "2024-05-02" {
		t.Fatalf("expected last checkin 2024-05-02, got %s", result.Stats.LastCheckinDate)
	}
}

func TestPerformCheckinMaxContinuousMonotone(t *testing.T) {
	svc, clock := newTestCheckinService(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	// 连续 4 天，断 1 天，再连续 2 天
	gaps := []int{0, 1, 1, 1, 2, 1}
	lastMax := 0
	for i, gap := range gaps {
		clock.advanceDays(gap)
		result, err := svc.Perform(ctx, "u-5", "阿狸")
		if err != nil || !result.Success {
			t.Fatalf("step %d failed: %v %+v", i, err, result)
		}
		stats := result.Stats
		if stats.MaxContinuous < lastMax {
			t.Fatalf("step %d: maxContinuous decreased from %d to %d", i, lastMax, stats.MaxContinuous)
		}
		if stats.MaxContinuous < stats.ContinuousCheckins {
			t.Fatalf("step %d: maxContinuous %d < continuous %d", i, stats.MaxContinuous, stats.ContinuousCheckins)
		}
		lastMax = stats.MaxContinuous
	}
	if lastMax != 4 {
		t.Fatalf("expected max 4, got %d", lastMax)
	}
}

func TestPerformCheckinMonthCounterResets(t *testing.T) {
	svc, clock := newTestCheckinService(t, time.Date(2024, 5, 31, 4, 0, 0, 0, time.UTC))
	ctx := context.Background()

	if _, err := svc.Perform(ctx, "u-6", "阿狸"); err != nil {
		t.Fatalf("checkin failed: %v", err)
	}
	clock.advanceDays(1)
	result, err := svc.Perform(ctx, "u-6", "阿狸")
	if err != nil {
		t.Fatalf("checkin failed: %v", err)
	}
	if result.Stats.ThisMonthCheckins != 1 {
		t.Fatalf("expected month counter reset to 1, got %d", result.Stats.ThisMonthCheckins)
	}
	if result.Stats.ThisYearCheckins != 2 {
		t.Fatalf("expected year counter 2, got %d", result.Stats.ThisYearCheckins)
	}
	if !result.IsContinuous {
		t.Fatalf("expected streak to continue across month boundary")
	}
}

func TestPerformCheckinValidation(t *testing.T) {
	svc, _ := newTestCheckinService(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	if _, err := svc.Perform(ctx, "", "阿狸"); !errors.Is(err, ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID, got %v", err)
	}
	if _, err := svc.Perform(ctx, "u-7", "  "); !errors.Is(err, ErrInvalidUserName) {
		t.Fatalf("expected ErrInvalidUserName, got %v", err)
	}
	if _, err := svc.Perform(ctx, "u-7", strings.Repeat("名", 21)); !errors.Is(err, ErrInvalidUserName) {
		t.Fatalf("expected ErrInvalidUserName for long name, got %v", err)
	}

	var count int64
	db.DB.Model(&db.UserCheckinStats{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no stats rows, got %d", count)
	}
}

func TestCheckinStatusAndHistory(t *testing.T) {
	svc, clock := newTestCheckinService(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	status, err := svc.Status(ctx, "u-8")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.CheckedInToday || status.Stats != nil {
		t.Fatalf("expected fresh status, got %+v", status)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.Perform(ctx, "u-8", "阿狸"); err != nil {
			t.Fatalf("checkin failed: %v", err)
		}
		clock.advanceDays(1)
	}

	status, err = svc.Status(ctx, "u-8")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.CheckedInToday || !status.StreakActive {
		t.Fatalf("expected active streak without today's checkin, got %+v", status)
	}

	history, err := svc.History(ctx, "u-8", "2024-05")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 2 || history[0].CheckinDate != "2024-05-01" || history[1].ContinuousDays != 2 {
		t.Fatalf("unexpected history %+v", history)
	}

	if _, err := svc.History(ctx, "u-8", "2024/05"); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected invalid month error")
	}
}
