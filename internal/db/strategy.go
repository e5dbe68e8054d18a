package db

import (
	"time"

	"gorm.io/datatypes"
)

// 攻略状态
const (
	StrategyStatusPublished = "published"
	StrategyStatusDraft     = "draft"
	StrategyStatusArchived  = "archived"
)

// 反应类型：点赞 / 收藏
const (
	ReactionLike     = "like"
	ReactionFavorite = "favorite"
)

// MediaFile 描述攻略附带的图片或视频。
type MediaFile struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Strategy 用户投稿的攻略。
// 点赞/收藏集合存放在 StrategyReaction 中，这里只冗余计数用于排序。
type Strategy struct {
	ID            uint                           `gorm:"primaryKey" json:"id"`
	Title         string                         `gorm:"size:255;not null" json:"title"`
	Content       string                         `gorm:"type:text;not null" json:"content"`
	Author        string                         `gorm:"size:64;not null" json:"author"`
	AuthorID      string                         `gorm:"size:64;index" json:"authorId"`
	Category      string                         `gorm:"size:32;index;not null" json:"category"`
	Difficulty    int                            `gorm:"not null;index" json:"difficulty"`
	Tags          datatypes.JSONSlice[string]    `json:"tags"`
	MediaFiles    datatypes.JSONSlice[MediaFile] `json:"mediaFiles"`
	LikeCount     int                            `gorm:"not null;default:0" json:"likes"`
	FavoriteCount int                            `gorm:"not null;default:0" json:"favorites"`
	CommentCount  int                            `gorm:"not null;default:0" json:"commentCount"`
	ViewCount     int64                          `gorm:"not null;default:0" json:"viewCount"`
	IsPinned      bool                           `gorm:"not null;default:false;index" json:"isPinned"`
	Status        string                         `gorm:"size:16;not null;default:'published';index" json:"status"`
	Comments      []StrategyComment              `gorm:"constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	CreatedAt     time.Time                      `json:"createdAt"`
	UpdatedAt     time.Time                      `json:"updatedAt"`
}

// TableName 指定自定义表名。
func (Strategy) TableName() string {
	return "strategies"
}

// StrategyReaction 记录用户对攻略的点赞/收藏，存在即代表已点赞/已收藏。
type StrategyReaction struct {
	ID         uint   `gorm:"primaryKey"`
	StrategyID uint   `gorm:"not null;index:idx_strategy_reaction,unique"`
	UserID     string `gorm:"size:64;not null;index:idx_strategy_reaction,unique"`
	Kind       string `gorm:"size:16;not null;index:idx_strategy_reaction,unique"`
	CreatedAt  time.Time
}

// TableName 指定自定义表名。
func (StrategyReaction) TableName() string {
	return "strategy_reactions"
}

// StrategyComment 攻略评论，按时间顺序展示。
type StrategyComment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StrategyID uint      `gorm:"not null;index" json:"strategyId"`
	UserID     string    `gorm:"size:64;not null" json:"userId"`
	UserName   string    `gorm:"size:64;not null" json:"userName"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"timestamp"`
}

// TableName 指定自定义表名。
func (StrategyComment) TableName() string {
	return "strategy_comments"
}
