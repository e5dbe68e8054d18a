package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jinxiguild/internal/db"
	"gorm.io/gorm"
)

const (
	MaxMessageAuthorLength  = 30
	MaxMessageContentLength = 500

	defaultMessageLimit = 20
	maxMessageLimit     = 100
)

var (
	ErrMessageNotFound       = errors.New("message not found")
	ErrMessageAuthorInvalid  = errors.New("message author is empty or too long")
	ErrMessageContentInvalid = errors.New("message content is empty or too long")
	ErrUnsupportedEmoji      = errors.New("unsupported emoji")
)

// MessageEmojis 留言可用的表情回应。
var MessageEmojis = []string{"👍", "❤️", "😂", "😮", "🎉", "🔥"}

// MessageService 负责留言墙的发布、回复、表情回应与管理操作。
type MessageService struct {
	db *gorm.DB
}

// MessageInput 发布留言或回复时提交的字段。
type MessageInput struct {
	UserID  string
	Author  string
	Content string
}

// MessageView 留言及其聚合后的表情计数。
type MessageView struct {
	db.Message
	Reactions map[string]int `json:"reactions"`
}

// MessageListResult 聚合分页数据。
type MessageListResult struct {
	Messages []MessageView
	Total    int64
	Limit    int
	Offset   int
	HasMore  bool
}

// NewMessageService 构造 MessageService。
func NewMessageService(gdb *gorm.DB) *MessageService {
	return &MessageService{db: gdb}
}

// List 返回留言，置顶在前，其余按时间倒序。
func (s *MessageService) List(ctx context.Context, limit, offset int) (*MessageListResult, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}
	if offset < 0 {
		offset = 0
	}

	result := &MessageListResult{Limit: limit, Offset: offset}
	if err := s.db.WithContext(ctx).Model(&db.Message{}).Count(&result.Total).Error; err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	var messages []db.Message
	if err := s.db.WithContext(ctx).
		Preload("Replies", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC, id ASC") }).
		Preload("Reactions").
		Order("is_pinned DESC").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	result.Messages = make([]MessageView, 0, len(messages))
	for _, message := range messages {
		result.Messages = append(result.Messages, newMessageView(message))
	}
	result.HasMore = int64(offset+len(messages)) < result.Total
	return result, nil
}

// Create 发布一条留言。
func (s *MessageService) Create(ctx context.Context, input MessageInput) (*db.Message, error) {
	author, content, err := validateMessageInput(input)
	if err != nil {
		return nil, err
	}

	message := db.Message{UserID: strings.TrimSpace(input.UserID), Author: author, Content: content}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	message.Replies = []db.MessageReply{}
	return &message, nil
}

// Reply 回复留言。
func (s *MessageService) Reply(ctx context.Context, messageID uint, input MessageInput) (*db.MessageReply, error) {
	author, content, err := validateMessageInput(input)
	if err != nil {
		return nil, err
	}

	reply := db.MessageReply{
		MessageID: messageID,
		UserID:    strings.TrimSpace(input.UserID),
		Author:    author,
		Content:   content,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureMessageExists(tx, messageID); err != nil {
			return err
		}
		return tx.Create(&reply).Error
	})
	if err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("reply message: %w", err)
	}
	return &reply, nil
}

// ToggleReaction 切换用户对留言的表情回应，返回该表情的最新计数。
func (s *MessageService) ToggleReaction(ctx context.Context, messageID uint, userID, emoji string) (*ToggleResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	emoji = strings.TrimSpace(emoji)
	if !IsMessageEmoji(emoji) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEmoji, emoji)
	}

	result := &ToggleResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureMessageExists(tx, messageID); err != nil {
			return err
		}

		removed := tx.Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).Delete(&db.MessageReaction{})
		if removed.Error != nil {
			return removed.Error
		}
		if removed.RowsAffected == 0 {
			if err := tx.Create(&db.MessageReaction{MessageID: messageID, UserID: userID, Emoji: emoji}).Error; err != nil {
				return err
			}
			result.Active = true
		}

		var count int64
		if err := tx.Model(&db.MessageReaction{}).Where("message_id = ? AND emoji = ?", messageID, emoji).Count(&count).Error; err != nil {
			return err
		}
		result.Count = int(count)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("toggle reaction: %w", err)
	}
	return result, nil
}

// SetPinned 设置留言置顶状态，调用方负责管理员校验。
func (s *MessageService) SetPinned(ctx context.Context, messageID uint, pinned bool) error {
	res := s.db.WithContext(ctx).Model(&db.Message{}).Where("id = ?", messageID).UpdateColumn("is_pinned", pinned)
	if res.Error != nil {
		return fmt.Errorf("pin message: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ensureMessageExists(s.db.WithContext(ctx), messageID)
	}
	return nil
}

// Delete 删除留言及其回复和表情，调用方负责管理员校验。
func (s *MessageService) Delete(ctx context.Context, messageID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureMessageExists(tx, messageID); err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", messageID).Delete(&db.MessageReply{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", messageID).Delete(&db.MessageReaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&db.Message{}, messageID).Error
	})
	if err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			return err
		}
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// IsMessageEmoji 判断表情是否在允许列表内。
func IsMessageEmoji(emoji string) bool {
	for _, allowed := range MessageEmojis {
		if allowed == emoji {
			return true
		}
	}
	return false
}

func newMessageView(message db.Message) MessageView {
	view := MessageView{Message: message, Reactions: make(map[string]int)}
	for _, reaction := range message.Reactions {
		view.Reactions[reaction.Emoji]++
	}
	if view.Replies == nil {
		view.Replies = []db.MessageReply{}
	}
	return view
}

func validateMessageInput(input MessageInput) (string, string, error) {
	author := cleanText(input.Author)
	if author == "" || utf8.RuneCountInString(author) > MaxMessageAuthorLength {
		return "", "", ErrMessageAuthorInvalid
	}
	content := cleanText(input.Content)
	if content == "" || utf8.RuneCountInString(content) > MaxMessageContentLength {
		return "", "", ErrMessageContentInvalid
	}
	return author, content, nil
}

func ensureMessageExists(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&db.Message{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
