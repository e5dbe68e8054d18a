package main

import (
	"context"
	"fmt"
	"log"
	"time"
	_ "time/tzdata"

	"github.com/jinxiguild/internal/config"
	"github.com/jinxiguild/internal/db"
	"github.com/jinxiguild/internal/logger"
	"github.com/jinxiguild/internal/service"
	"gorm.io/gorm"
)

type demoMember struct {
	id   string
	name string
	// 过去若干天中未签到的天数偏移
	skips map[int]bool
}

var demoMembers = []demoMember{
	{id: "demo-ali", name: "阿狸", skips: map[int]bool{}},
	{id: "demo-tangyuan", name: "汤圆", skips: map[int]bool{3: true, 9: true}},
	{id: "demo-xiaoyu", name: "小鱼", skips: map[int]bool{1: true, 2: true, 5: true}},
	{id: "demo-huizhang", name: "会长", skips: map[int]bool{0: true}},
}

var demoStrategies = []service.StrategyInput{
	{
		Title:      "新手七日成长路线",
		Content:    "第一天先完成主线任务，**每日签到**不要断。\n\n第三天开始刷副本攒强化石。",
		Author:     "会长",
		AuthorID:   "demo-huizhang",
		Category:   "beginner",
		Difficulty: 1,
		Tags:       []string{"新手", "成长"},
	},
	{
		Title:      "公会战站位与集火",
		Content:    "前排坦克顶住，后排优先集火对方治疗。开局 30 秒内不要交大招。",
		Author:     "阿狸",
		AuthorID:   "demo-ali",
		Category:   "guild_war",
		Difficulty: 4,
		Tags:       []string{"公会战", "团战"},
	},
	{
		Title:      "宠物洗练性价比",
		Content:    "资质低于 1200 的宠物不建议洗练，优先喂经验到 40 级再考虑。",
		Author:     "小鱼",
		AuthorID:   "demo-xiaoyu",
		Category:   "pet",
		Difficulty: 2,
		Tags:       []string{"宠物"},
	},
}

// 演示数据生成器
func main() {
	cfg := config.Load()
	if err := db.Init(db.Options{
		Driver:   cfg.DatabaseDriver,
		Path:     cfg.DatabasePath,
		DSN:      cfg.DatabaseDSN,
		LogLevel: logger.GormLevel(cfg.LogLevel),
	}); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	loc, err := time.LoadLocation(cfg.CheckinTimezone)
	if err != nil {
		log.Fatal("无效的签到时区:", err)
	}

	fmt.Println("开始生成演示数据...")
	ctx := context.Background()

	checkins, err := seedCheckins(ctx, db.DB, loc, time.Now(), 14)
	if err != nil {
		log.Fatal("生成签到数据失败:", err)
	}
	strategies, err := seedStrategies(ctx, db.DB)
	if err != nil {
		log.Fatal("生成攻略失败:", err)
	}
	messages, err := seedMessages(ctx, db.DB)
	if err != nil {
		log.Fatal("生成留言失败:", err)
	}

	fmt.Println("演示数据生成完成！")
	fmt.Printf("签到: %d 条\n", checkins)
	fmt.Printf("攻略: %d 篇\n", strategies)
	fmt.Printf("留言: %d 条\n", messages)
}

// seedCheckins 通过签到服务回放过去 days 天的签到，返回成功次数。
func seedCheckins(ctx context.Context, gdb *gorm.DB, loc *time.Location, now time.Time, days int) (int, error) {
	current := now
	svc := service.NewCheckinService(gdb, loc).WithClock(func() time.Time { return current })

	count := 0
	for offset := days - 1; offset >= 0; offset-- {
		current = now.AddDate(0, 0, -offset)
		for _, member := range demoMembers {
			if member.skips[offset] {
				continue
			}
			result, err := svc.Perform(ctx, member.id, member.name)
			if err != nil {
				return count, fmt.Errorf("checkin %s: %w", member.id, err)
			}
			if result.Success {
				count++
			}
		}
	}
	return count, nil
}

// seedStrategies 已有攻略时跳过
func seedStrategies(ctx context.Context, gdb *gorm.DB) (int, error) {
	var existing int64
	if err := gdb.WithContext(ctx).Model(&db.Strategy{}).Count(&existing).Error; err != nil {
		return 0, err
	}
	if existing > 0 {
		fmt.Println("攻略已存在，跳过创建")
		return 0, nil
	}

	svc := service.NewStrategyService(gdb)
	for i, input := range demoStrategies {
		if _, err := svc.Create(ctx, input); err != nil {
			return i, fmt.Errorf("create strategy %q: %w", input.Title, err)
		}
	}
	return len(demoStrategies), nil
}

func seedMessages(ctx context.Context, gdb *gorm.DB) (int, error) {
	var existing int64
	if err := gdb.WithContext(ctx).Model(&db.Message{}).Count(&existing).Error; err != nil {
		return 0, err
	}
	if existing > 0 {
		fmt.Println("留言已存在，跳过创建")
		return 0, nil
	}

	svc := service.NewMessageService(gdb)
	welcome, err := svc.Create(ctx, service.MessageInput{UserID: "demo-huizhang", Author: "会长", Content: "欢迎新成员！周六晚八点公会战集合。"})
	if err != nil {
		return 0, err
	}
	if err := svc.SetPinned(ctx, welcome.ID, true); err != nil {
		return 1, err
	}
	if _, err := svc.Reply(ctx, welcome.ID, service.MessageInput{UserID: "demo-ali", Author: "阿狸", Content: "收到，准时上线"}); err != nil {
		return 1, err
	}
	if _, err := svc.Create(ctx, service.MessageInput{UserID: "demo-xiaoyu", Author: "小鱼", Content: "有人一起刷副本吗？"}); err != nil {
		return 1, err
	}
	return 2, nil
}
