package clientstate

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func TestMemoryStorageQuota(t *testing.T) {
	s := NewMemoryStorage(20)

	if err := s.Set("k", "0123456789"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Set("other", strings.Repeat("x", 10)); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	// 覆盖写只计算差值
	if err := s.Set("k", "short"); err != nil {
		t.Fatalf("unexpected error on overwrite: %v", err)
	}
	s.Remove("k")
	if _, ok := s.Get("k"); ok {
		t.Fatalf("expected key removed")
	}
	if err := s.Set("other", strings.Repeat("x", 10)); err != nil {
		t.Fatalf("expected space freed after remove, got %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := NewMemoryStorage(0)
	if err := Save(s, KeyUserName, 1, map[string]string{"name": "阿狸"}, testNow); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var out map[string]string
	ok, err := Load(s, KeyUserName, 1, &out, nil)
	if err != nil || !ok {
		t.Fatalf("expected record loaded, got ok=%v err=%v", ok, err)
	}
	if out["name"] != "阿狸" {
		t.Fatalf("unexpected data %v", out)
	}

	ok, err = Load(s, "missing", 1, &out, nil)
	if err != nil || ok {
		t.Fatalf("expected missing record, got ok=%v err=%v", ok, err)
	}
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	s := NewMemoryStorage(0)
	if err := Save(s, KeyGameData, 3, []int{1}, testNow); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var out []int
	if _, err := Load(s, KeyGameData, 2, &out, nil); !errors.Is(err, ErrFutureVersion) {
		t.Fatalf("expected ErrFutureVersion, got %v", err)
	}
}

func TestLoadRequiresMigrator(t *testing.T) {
	s := NewMemoryStorage(0)
	if err := s.Set(KeyGameData, `{"gold":10}`); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var out map[string]int
	if _, err := Load(s, KeyGameData, 1, &out, nil); !errors.Is(err, ErrNoMigration) {
		t.Fatalf("expected ErrNoMigration, got %v", err)
	}
}

func TestLoadTeamMigratesLegacyBlob(t *testing.T) {
	s := NewMemoryStorage(0)
	legacy := `{"name":"夜行","members":[{"id":"u-1","name":"阿狸"},{"id":"u-2","name":"汤圆"}]}`
	if err := s.Set(KeyTeam, legacy); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	team, err := LoadTeam(s)
	if err != nil {
		t.Fatalf("load team failed: %v", err)
	}
	if team.Name != "夜行" || team.LeaderID != "u-1" || len(team.Members) != 2 {
		t.Fatalf("unexpected migrated team %+v", team)
	}

	raw, _ := s.Get(KeyTeam)
	if !strings.HasPrefix(raw, `{"v":1`) {
		t.Fatalf("expected migrated envelope written back, got %s", raw)
	}
}

func TestTeamMembership(t *testing.T) {
	team, err := NewTeam("夜行", MemberSummary{UserID: "u-1", Name: "阿狸"}, testNow)
	if err != nil {
		t.Fatalf("new team failed: %v", err)
	}

	if err := team.AddMember(MemberSummary{UserID: "u-1", Name: "阿狸"}, testNow); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
	if err := team.AddMember(MemberSummary{UserID: " ", Name: "x"}, testNow); !errors.Is(err, ErrInvalidMember) {
		t.Fatalf("expected ErrInvalidMember, got %v", err)
	}
	for i := 2; i <= MaxTeamMembers; i++ {
		member := MemberSummary{UserID: "u-" + string(rune('0'+i)), Name: "队员"}
		if err := team.AddMember(member, testNow); err != nil {
			t.Fatalf("add member %d failed: %v", i, err)
		}
	}
	if err := team.AddMember(MemberSummary{UserID: "u-9", Name: "迟到"}, testNow); !errors.Is(err, ErrTeamFull) {
		t.Fatalf("expected ErrTeamFull, got %v", err)
	}

	if !team.RemoveMember("u-1") {
		t.Fatalf("expected leader removed")
	}
	if team.LeaderID != "u-2" {
		t.Fatalf("expected leadership passed to u-2, got %q", team.LeaderID)
	}
	if team.RemoveMember("nobody") {
		t.Fatalf("expected removing unknown member to report false")
	}

	s := NewMemoryStorage(0)
	if err := SaveTeam(s, team, testNow); err != nil {
		t.Fatalf("save team failed: %v", err)
	}
	loaded, err := LoadTeam(s)
	if err != nil || loaded == nil || len(loaded.Members) != MaxTeamMembers-1 {
		t.Fatalf("unexpected loaded team %+v err=%v", loaded, err)
	}
}

func TestTaskProgressAdvance(t *testing.T) {
	task := TaskProgress{TaskID: "read_strategy", Target: 3}

	if task.Advance(2, testNow) {
		t.Fatalf("expected task not yet complete")
	}
	if !task.Advance(5, testNow) {
		t.Fatalf("expected task completed")
	}
	if task.Current != 3 || !task.Done() {
		t.Fatalf("expected progress clamped to target, got %+v", task)
	}
	if task.Advance(1, testNow.Add(time.Hour)) {
		t.Fatalf("expected completed task to stay unchanged")
	}
	if !task.CompletedAt.Equal(testNow) {
		t.Fatalf("expected completion time unchanged, got %v", task.CompletedAt)
	}
}

func TestTaskBookResetsOnNewDay(t *testing.T) {
	s := NewMemoryStorage(0)
	book, err := LoadTasks(s, "2024-05-01")
	if err != nil {
		t.Fatalf("load tasks failed: %v", err)
	}
	if done, err := book.Advance("checkin", 1, testNow); err != nil || !done {
		t.Fatalf("expected checkin task completed, got %v %v", done, err)
	}
	if _, err := book.Advance("nope", 1, testNow); !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("expected ErrUnknownTask, got %v", err)
	}
	if err := SaveTasks(s, book, testNow); err != nil {
		t.Fatalf("save tasks failed: %v", err)
	}

	same, err := LoadTasks(s, "2024-05-01")
	if err != nil || same.Completed() != 1 {
		t.Fatalf("expected progress kept for same day, got %d %v", same.Completed(), err)
	}
	next, err := LoadTasks(s, "2024-05-02")
	if err != nil || next.Completed() != 0 || len(next.Tasks) != len(DailyTasks) {
		t.Fatalf("expected fresh task book for next day, got %+v %v", next, err)
	}
	if DailyTasks[0].Done() {
		t.Fatalf("expected template untouched")
	}
}
