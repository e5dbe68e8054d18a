package eastereggs

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jinxiguild/internal/clientstate"
	"github.com/jinxiguild/internal/notify"
	"go.uber.org/zap"
)

const stateVersion = 1

// EventKind 页面事件类型
type EventKind int

const (
	KeyDown EventKind = iota + 1
	Click
	DoubleClick
	FullscreenDwell
	ViewportResize
	Scroll
)

// Event 页面事件，按 Kind 使用对应字段。
type Event struct {
	Kind EventKind
	At   time.Time

	Key         string        // KeyDown
	Target      string        // Click
	Interactive bool          // DoubleClick：落在按钮、链接、输入框上
	Duration    time.Duration // FullscreenDwell

	OuterWidth, InnerWidth   int // ViewportResize
	OuterHeight, InnerHeight int
}

// Record 单个彩蛋的持久化记录
type Record struct {
	ID           EggID      `json:"id"`
	Discovered   bool       `json:"discovered"`
	DiscoveredAt *time.Time `json:"discoveredAt,omitempty"`
}

type persistedState struct {
	Eggs          []Record `json:"eggs"`
	NotifiedTiers []int    `json:"notifiedTiers"`
}

// Tracker 彩蛋状态机，可并发调用。
type Tracker struct {
	mu       sync.Mutex
	storage  clientstate.Storage
	bus      *notify.Bus
	logger   *zap.Logger
	records  map[EggID]*Record
	notified map[int]bool

	keys       []string
	logoClicks []time.Time
	scrolls    []time.Time
}

// NewTracker 创建 Tracker 并从本地存储恢复已发现的彩蛋。
func NewTracker(storage clientstate.Storage, bus *notify.Bus, logger *zap.Logger) (*Tracker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{
		storage:  storage,
		bus:      bus,
		logger:   logger,
		records:  make(map[EggID]*Record, len(eggTable)),
		notified: make(map[int]bool),
	}
	for _, id := range AllEggs() {
		t.records[id] = &Record{ID: id}
	}

	var state persistedState
	ok, err := clientstate.Load(storage, clientstate.KeyEasterEggs, stateVersion, &state, migrateState)
	if err != nil {
		return nil, fmt.Errorf("load easter eggs: %w", err)
	}
	if ok {
		for _, rec := range state.Eggs {
			if current, known := t.records[rec.ID]; known && rec.Discovered {
				current.Discovered = true
				current.DiscoveredAt = rec.DiscoveredAt
			}
		}
		for _, threshold := range state.NotifiedTiers {
			t.notified[threshold] = true
		}
	}
	return t, nil
}

// Handle 处理一个页面事件，返回本次新发现的彩蛋。
func (t *Tracker) Handle(ev Event) (EggID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, triggered := t.match(ev)
	if !triggered {
		return "", false
	}
	if !t.discoverLocked(id, ev.At) {
		return "", false
	}
	return id, true
}

// Discover 直接标记彩蛋，已发现时返回 false。
func (t *Tracker) Discover(id EggID, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.discoverLocked(id, now)
}

func (t *Tracker) match(ev Event) (EggID, bool) {
	switch ev.Kind {
	case KeyDown:
		t.keys = append(t.keys, strings.ToLower(ev.Key))
		if len(t.keys) > konamiSequenceSize {
			t.keys = t.keys[len(t.keys)-konamiSequenceSize:]
		}
		if len(t.keys) == konamiSequenceSize && [konamiSequenceSize]string(t.keys) == konamiSequence {
			t.keys = t.keys[:0]
			return EggKonami, true
		}
	case Click:
		switch ev.Target {
		case TargetFooterMark:
			return EggFooterMark, true
		case TargetLogo:
			t.logoClicks = withinWindow(append(t.logoClicks, ev.At), ev.At, LogoClickWindow)
			if len(t.logoClicks) >= LogoClickCount {
				t.logoClicks = t.logoClicks[:0]
				return EggLogoClicks, true
			}
		}
	case DoubleClick:
		if !ev.Interactive {
			return EggDoubleClick, true
		}
	case FullscreenDwell:
		if ev.Duration >= FullscreenMinDwell {
			return EggFullscreen, true
		}
	case ViewportResize:
		if ev.OuterWidth-ev.InnerWidth > DevtoolsGapPx || ev.OuterHeight-ev.InnerHeight > DevtoolsGapPx {
			return EggDevtools, true
		}
	case Scroll:
		t.scrolls = withinWindow(append(t.scrolls, ev.At), ev.At, RapidScrollWindow)
		if len(t.scrolls) >= RapidScrollCount {
			t.scrolls = t.scrolls[:0]
			return EggRapidScroll, true
		}
	}
	return "", false
}

// withinWindow 只保留 now 之前 window 以内的时间点
func withinWindow(times []time.Time, now time.Time, window time.Duration) []time.Time {
	cut := 0
	for cut < len(times) && now.Sub(times[cut]) > window {
		cut++
	}
	return times[cut:]
}

func (t *Tracker) discoverLocked(id EggID, now time.Time) bool {
	rec, ok := t.records[id]
	if !ok || rec.Discovered {
		return false
	}
	at := now
	rec.Discovered = true
	rec.DiscoveredAt = &at

	t.publish(notify.Notice{
		Level:   notify.LevelSuccess,
		Title:   "发现彩蛋",
		Message: fmt.Sprintf("你发现了「%s」", id.Label()),
		At:      now,
	})

	count := t.discoveredLocked()
	for _, tier := range tiers {
		if count >= tier.Threshold && !t.notified[tier.Threshold] {
			t.notified[tier.Threshold] = true
			t.publish(notify.Notice{
				Level:   notify.LevelSuccess,
				Title:   tier.Title,
				Message: fmt.Sprintf("已发现 %d/%d 个彩蛋", count, len(eggTable)),
				At:      now,
			})
		}
	}

	if err := clientstate.Save(t.storage, clientstate.KeyEasterEggs, stateVersion, t.snapshotLocked(), now); err != nil {
		t.logger.Warn("persist easter eggs failed", zap.String("egg", string(id)), zap.Error(err))
	}
	return true
}

func (t *Tracker) publish(n notify.Notice) {
	if t.bus != nil {
		t.bus.Publish(n)
	}
}

// Records 按展示顺序返回全部彩蛋记录
func (t *Tracker) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked().Eggs
}

// DiscoveredCount 已发现数量
func (t *Tracker) DiscoveredCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.discoveredLocked()
}

func (t *Tracker) discoveredLocked() int {
	count := 0
	for _, rec := range t.records {
		if rec.Discovered {
			count++
		}
	}
	return count
}

func (t *Tracker) snapshotLocked() persistedState {
	state := persistedState{Eggs: make([]Record, 0, len(eggTable)), NotifiedTiers: []int{}}
	for _, id := range AllEggs() {
		state.Eggs = append(state.Eggs, *t.records[id])
	}
	for _, tier := range tiers {
		if t.notified[tier.Threshold] {
			state.NotifiedTiers = append(state.NotifiedTiers, tier.Threshold)
		}
	}
	return state
}

// 版本 0 为扁平的 [{id, discovered, discoveredAt}] 列表，已达到的档位视为提示过
func migrateState(from int, data json.RawMessage) (json.RawMessage, error) {
	if from != 0 {
		return nil, clientstate.ErrNoMigration
	}
	var eggs []Record
	if err := json.Unmarshal(data, &eggs); err != nil {
		return nil, err
	}

	count := 0
	for _, rec := range eggs {
		if rec.Discovered {
			count++
		}
	}
	state := persistedState{Eggs: eggs, NotifiedTiers: []int{}}
	for _, tier := range tiers {
		if count >= tier.Threshold {
			state.NotifiedTiers = append(state.NotifiedTiers, tier.Threshold)
		}
	}
	return json.Marshal(state)
}
