package clientstate

import (
	"errors"
	"time"
)

const tasksVersion = 1

// ErrUnknownTask 任务不存在
var ErrUnknownTask = errors.New("unknown task")

// TaskProgress 单个每日任务的进度
type TaskProgress struct {
	TaskID      string     `json:"taskId"`
	Title       string     `json:"title"`
	Current     int        `json:"current"`
	Target      int        `json:"target"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Done 报告任务是否已完成
func (p *TaskProgress) Done() bool {
	return p.CompletedAt != nil
}

// Advance 推进 n 步，返回本次是否刚好完成。已完成的任务不再变化。
func (p *TaskProgress) Advance(n int, now time.Time) bool {
	if p.Done() || n <= 0 {
		return false
	}
	p.Current += n
	if p.Current >= p.Target {
		p.Current = p.Target
		completed := now
		p.CompletedAt = &completed
		return true
	}
	return false
}

// TaskBook 某一天的任务进度，日期变化时整体重置。
type TaskBook struct {
	Date  string          `json:"date"`
	Tasks []*TaskProgress `json:"tasks"`
}

// DailyTasks 每日任务模板
var DailyTasks = []TaskProgress{
	{TaskID: "checkin", Title: "完成每日签到", Target: 1},
	{TaskID: "read_strategy", Title: "阅读3篇攻略", Target: 3},
	{TaskID: "like_strategy", Title: "为攻略点赞", Target: 1},
	{TaskID: "post_message", Title: "在留言墙留言", Target: 1},
}

// NewTaskBook 按模板生成 date 当天的任务
func NewTaskBook(date string) *TaskBook {
	book := &TaskBook{Date: date, Tasks: make([]*TaskProgress, 0, len(DailyTasks))}
	for _, tpl := range DailyTasks {
		task := tpl
		book.Tasks = append(book.Tasks, &task)
	}
	return book
}

// Advance 推进指定任务，返回本次是否刚好完成。
func (b *TaskBook) Advance(taskID string, n int, now time.Time) (bool, error) {
	for _, task := range b.Tasks {
		if task.TaskID == taskID {
			return task.Advance(n, now), nil
		}
	}
	return false, ErrUnknownTask
}

// Completed 已完成任务数
func (b *TaskBook) Completed() int {
	count := 0
	for _, task := range b.Tasks {
		if task.Done() {
			count++
		}
	}
	return count
}

// SaveTasks 写入任务进度
func SaveTasks(s Storage, book *TaskBook, now time.Time) error {
	return Save(s, KeyTasks, tasksVersion, book, now)
}

// LoadTasks 读取 date 当天的任务进度；不存在或已跨天时返回新的任务表。
func LoadTasks(s Storage, date string) (*TaskBook, error) {
	var book TaskBook
	ok, err := Load(s, KeyTasks, tasksVersion, &book, nil)
	if err != nil {
		return nil, err
	}
	if !ok || book.Date != date {
		return NewTaskBook(date), nil
	}
	return &book, nil
}
