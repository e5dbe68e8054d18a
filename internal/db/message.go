package db

import "time"

// Message 留言墙上的一条留言。
type Message struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    string            `gorm:"size:64;index" json:"userId"`
	Author    string            `gorm:"size:64;not null" json:"author"`
	Content   string            `gorm:"type:text;not null" json:"content"`
	IsPinned  bool              `gorm:"not null;default:false;index" json:"isPinned"`
	Replies   []MessageReply    `gorm:"constraint:OnDelete:CASCADE" json:"replies"`
	Reactions []MessageReaction `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// TableName 指定自定义表名。
func (Message) TableName() string {
	return "messages"
}

// MessageReply 对留言的回复。
type MessageReply struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"not null;index" json:"messageId"`
	UserID    string    `gorm:"size:64" json:"userId"`
	Author    string    `gorm:"size:64;not null" json:"author"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定自定义表名。
func (MessageReply) TableName() string {
	return "message_replies"
}

// MessageReaction 用户对留言的表情回应，同一用户同一表情只记一次。
type MessageReaction struct {
	ID        uint   `gorm:"primaryKey"`
	MessageID uint   `gorm:"not null;index:idx_message_reaction,unique"`
	UserID    string `gorm:"size:64;not null;index:idx_message_reaction,unique"`
	Emoji     string `gorm:"size:16;not null;index:idx_message_reaction,unique"`
	CreatedAt time.Time
}

// TableName 指定自定义表名。
func (MessageReaction) TableName() string {
	return "message_reactions"
}
