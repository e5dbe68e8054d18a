package guild

import (
	"errors"
	"strings"
)

// ErrUnknownCategory 表示攻略分类不在固定枚举内。
var ErrUnknownCategory = errors.New("unknown strategy category")

// Category 攻略分类，取值固定为下列八种。
type Category int

const (
	CategoryBeginner Category = iota
	CategoryWeapon
	CategoryPet
	CategoryEquipment
	CategoryDungeon
	CategoryPvP
	CategoryGuildWar
	CategoryEvent

	categoryCount
)

type categoryInfo struct {
	key   string
	label string
	color string
}

var categoryTable = [...]categoryInfo{
	CategoryBeginner:  {key: "beginner", label: "新手入门", color: "#4caf50"},
	CategoryWeapon:    {key: "weapon", label: "武器攻略", color: "#f44336"},
	CategoryPet:       {key: "pet", label: "宠物培养", color: "#ff9800"},
	CategoryEquipment: {key: "equipment", label: "装备强化", color: "#9c27b0"},
	CategoryDungeon:   {key: "dungeon", label: "副本攻略", color: "#3f51b5"},
	CategoryPvP:       {key: "pvp", label: "竞技技巧", color: "#e91e63"},
	CategoryGuildWar:  {key: "guild_war", label: "公会战", color: "#795548"},
	CategoryEvent:     {key: "event", label: "活动指南", color: "#00bcd4"},
}

// 新增分类而未补齐表项时编译失败。
var _ = [1]struct{}{}[len(categoryTable)-int(categoryCount)]

// Categories 按声明顺序返回全部分类。
func Categories() []Category {
	items := make([]Category, 0, categoryCount)
	for c := Category(0); c < categoryCount; c++ {
		items = append(items, c)
	}
	return items
}

// ParseCategory 将请求中的分类键解析为枚举值。
func ParseCategory(raw string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	for i, info := range categoryTable {
		if info.key == key {
			return Category(i), nil
		}
	}
	return 0, ErrUnknownCategory
}

// Valid 报告值是否落在枚举范围内。
func (c Category) Valid() bool {
	return c >= 0 && c < categoryCount
}

func (c Category) String() string {
	if !c.Valid() {
		return ""
	}
	return categoryTable[c].key
}

// Label 返回分类中文名。
func (c Category) Label() string {
	if !c.Valid() {
		return ""
	}
	return categoryTable[c].label
}

// Color 返回分类展示色。
func (c Category) Color() string {
	if !c.Valid() {
		return ""
	}
	return categoryTable[c].color
}
