package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jinxiguild/internal/db"
	"gorm.io/gorm"
)

func seedStats(t *testing.T, gdb *gorm.DB, rows ...db.UserCheckinStats) {
	t.Helper()
	for i := range rows {
		if err := gdb.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed stats %s: %v", rows[i].UserID, err)
		}
	}
}

func fixedLeaderboardService(gdb *gorm.DB, now time.Time) *LeaderboardService {
	return NewLeaderboardService(gdb, time.UTC).WithClock(func() time.Time { return now })
}

func TestLeaderboardPointsTieBrokenByCheckins(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedStats(t, gdb,
		db.UserCheckinStats{UserID: "a", UserName: "甲", TotalPoints: 50, TotalCheckins: 10, LastCheckinDate: "2024-05-01"},
		db.UserCheckinStats{UserID: "b", UserName: "乙", TotalPoints: 50, TotalCheckins: 20, LastCheckinDate: "2024-05-01"},
	)

	svc := fixedLeaderboardService(gdb, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	board, err := svc.Get(context.Background(), DimensionPoints, 10)
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	if len(board.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(board.Entries))
	}
	if board.Entries[0].UserID != "b" || board.Entries[1].UserID != "a" {
		t.Fatalf("expected b before a, got %s, %s", board.Entries[0].UserID, board.Entries[1].UserID)
	}
	if board.Entries[0].Label != "50积分" {
		t.Fatalf("unexpected label %q", board.Entries[0].Label)
	}
}

func TestLeaderboardRanksContiguousAndSorted(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedStats(t, gdb,
		db.UserCheckinStats{UserID: "a", UserName: "甲", TotalCheckins: 5, LastCheckinDate: "2024-05-01"},
		db.UserCheckinStats{UserID: "b", UserName: "乙", TotalCheckins: 12, LastCheckinDate: "2024-05-01"},
		db.UserCheckinStats{UserID: "c", UserName: "丙", TotalCheckins: 5, LastCheckinDate: "2024-05-01"},
		db.UserCheckinStats{UserID: "d", UserName: "丁", TotalCheckins: 8, LastCheckinDate: "2024-05-01"},
		db.UserCheckinStats{UserID: "e", UserName: "戊", TotalCheckins: 0},
	)

	svc := fixedLeaderboardService(gdb, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	board, err := svc.Get(context.Background(), DimensionTotal, 10)
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	if board.TotalEntries != 4 {
		t.Fatalf("expected 4 ranked users, got %d", board.TotalEntries)
	}
	for i, entry := range board.Entries {
		if entry.Rank != i+1 {
			t.Fatalf("entry %d: expected rank %d, got %d", i, i+1, entry.Rank)
		}
		if i > 0 && entry.Value > board.Entries[i-1].Value {
			t.Fatalf("entries not sorted descending at %d", i)
		}
	}
	if board.Entries[0].UserID != "b" {
		t.Fatalf("expected b first, got %s", board.Entries[0].UserID)
	}
}

func TestLeaderboardContinuousSkipsBrokenStreaks(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedStats(t, gdb,
		db.UserCheckinStats{UserID: "alive", UserName: "甲", ContinuousCheckins: 3, TotalCheckins: 3, LastCheckinDate: "2024-05-09"},
		db.UserCheckinStats{UserID: "broken", UserName: "乙", ContinuousCheckins: 9, TotalCheckins: 9, LastCheckinDate: "2024-05-07"},
	)

	svc := fixedLeaderboardService(gdb, time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC))
	board, err := svc.Get(context.Background(), DimensionContinuous, 10)
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	if len(board.Entries) != 1 || board.Entries[0].UserID != "alive" {
		t.Fatalf("expected only alive streak, got %+v", board.Entries)
	}
}

func TestLeaderboardMonthlyCountsRecords(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedStats(t, gdb,
		db.UserCheckinStats{UserID: "a", UserName: "甲", TotalCheckins: 3, LastCheckinDate: "2024-05-02"},
		db.UserCheckinStats{UserID: "b", UserName: "乙", TotalCheckins: 1, LastCheckinDate: "2024-04-30"},
	)
	records := []db.CheckinRecord{
		{UserID: "a", CheckinDate: "2024-04-30", ContinuousDays: 1, RewardPoints: 1},
		{UserID: "a", CheckinDate: "2024-05-01", ContinuousDays: 2, RewardPoints: 1},
		{UserID: "a", CheckinDate: "2024-05-02", ContinuousDays: 3, RewardPoints: 2},
		{UserID: "b", CheckinDate: "2024-04-30", ContinuousDays: 1, RewardPoints: 1},
	}
	if err := gdb.Create(&records).Error; err != nil {
		t.Fatalf("seed records: %v", err)
	}

	svc := fixedLeaderboardService(gdb, time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC))
	monthly, err := svc.Get(context.Background(), DimensionMonthly, 10)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if len(monthly.Entries) != 1 || monthly.Entries[0].Value != 2 {
		t.Fatalf("expected only a with 2 days this month, got %+v", monthly.Entries)
	}

	yearly, err := svc.Get(context.Background(), DimensionYearly, 10)
	if err != nil {
		t.Fatalf("yearly: %v", err)
	}
	if len(yearly.Entries) != 2 || yearly.Entries[0].UserID != "a" || yearly.Entries[0].Value != 3 {
		t.Fatalf("unexpected yearly board %+v", yearly.Entries)
	}
}

func TestLeaderboardEmptyAndInvalidDimension(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := fixedLeaderboardService(gdb, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	board, err := svc.Get(context.Background(), DimensionMaxContinuous, 0)
	if err != nil {
		t.Fatalf("get empty leaderboard: %v", err)
	}
	if len(board.Entries) != 0 || board.TotalEntries != 0 {
		t.Fatalf("expected empty board, got %+v", board)
	}

	if _, err := ParseDimension("weekly"); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}
	if dim, err := ParseDimension(" Points "); err != nil || dim != DimensionPoints {
		t.Fatalf("expected points dimension, got %v %v", dim, err)
	}
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *memoryCache) InvalidatePrefix(_ context.Context, prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.data {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(m.data, key)
		}
	}
}

func TestLeaderboardCacheInvalidation(t *testing.T) {
	gdb := setupServiceTestDB(t)
	seedStats(t, gdb, db.UserCheckinStats{UserID: "a", UserName: "甲", TotalCheckins: 1, LastCheckinDate: "2024-05-01"})

	cache := &memoryCache{data: map[string][]byte{}}
	svc := fixedLeaderboardService(gdb, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)).WithCache(cache, time.Minute)
	ctx := context.Background()

	if _, err := svc.Get(ctx, DimensionTotal, 10); err != nil {
		t.Fatalf("first get: %v", err)
	}
	if len(cache.data) != 1 {
		t.Fatalf("expected cached board, got %d keys", len(cache.data))
	}

	seedStats(t, gdb, db.UserCheckinStats{UserID: "b", UserName: "乙", TotalCheckins: 2, LastCheckinDate: "2024-05-01"})
	cached, err := svc.Get(ctx, DimensionTotal, 10)
	if err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if len(cached.Entries) != 1 {
		t.Fatalf("expected stale cached board, got %d entries", len(cached.Entries))
	}

	svc.Invalidate(ctx)
	fresh, err := svc.Get(ctx, DimensionTotal, 10)
	if err != nil {
		t.Fatalf("fresh get: %v", err)
	}
	if len(fresh.Entries) != 2 || fresh.Entries[0].UserID != "b" {
		t.Fatalf("expected refreshed board, got %+v", fresh.Entries)
	}
}
