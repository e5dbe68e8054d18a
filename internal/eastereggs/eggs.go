// Package eastereggs 跟踪页面彩蛋的发现进度。
//
// Tracker 接收页面事件，每个彩蛋有独立的触发条件；发现是幂等的，
// 发现数量跨过档位时通过 notify.Bus 发出一次升级提示，状态写入本地存储。
package eastereggs

import "time"

// EggID 彩蛋标识
type EggID string

const (
	EggKonami      EggID = "konami"
	EggLogoClicks  EggID = "logo_clicks"
	EggFullscreen  EggID = "fullscreen_dwell"
	EggDevtools    EggID = "devtools"
	EggDoubleClick EggID = "double_click"
	EggFooterMark  EggID = "footer_mark"
	EggRapidScroll EggID = "rapid_scroll"
)

// 触发阈值
const (
	LogoClickCount     = 7
	LogoClickWindow    = 3 * time.Second
	FullscreenMinDwell = 30 * time.Second
	DevtoolsGapPx      = 160
	RapidScrollCount   = 20
	RapidScrollWindow  = 2 * time.Second
	TargetLogo         = "logo"
	TargetFooterMark   = "footer-mark"
	konamiSequenceSize = 10
)

var konamiSequence = [konamiSequenceSize]string{
	"arrowup", "arrowup", "arrowdown", "arrowdown",
	"arrowleft", "arrowright", "arrowleft", "arrowright",
	"b", "a",
}

type eggInfo struct {
	id    EggID
	label string
}

// 展示顺序
var eggTable = []eggInfo{
	{EggKonami, "秘籍指令"},
	{EggLogoClicks, "执着的点击"},
	{EggFullscreen, "沉浸观影"},
	{EggDevtools, "技术宅"},
	{EggDoubleClick, "双击探索"},
	{EggFooterMark, "隐藏印记"},
	{EggRapidScroll, "极速滚动"},
}

// AllEggs 返回全部彩蛋标识
func AllEggs() []EggID {
	ids := make([]EggID, 0, len(eggTable))
	for _, info := range eggTable {
		ids = append(ids, info.id)
	}
	return ids
}

// Label 彩蛋中文名
func (id EggID) Label() string {
	for _, info := range eggTable {
		if info.id == id {
			return info.label
		}
	}
	return string(id)
}

// Tier 发现数量档位
type Tier struct {
	Threshold int
	Title     string
}

var tiers = []Tier{
	{Threshold: 3, Title: "彩蛋猎人"},
	{Threshold: 6, Title: "彩蛋大师"},
	{Threshold: 7, Title: "全图鉴达成"},
}

// Tiers 返回档位定义
func Tiers() []Tier {
	return append([]Tier(nil), tiers...)
}
