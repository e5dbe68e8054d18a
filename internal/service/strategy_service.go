package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jinxiguild/internal/db"
	"github.com/jinxiguild/internal/guild"
	"gorm.io/gorm"
)

// 攻略投稿的长度与数量限制（按字符计）。
const (
	MaxStrategyTitleLength   = 100
	MaxStrategyContentLength = 10000
	MaxStrategyAuthorLength  = 30
	MaxStrategyTags          = 10
	MaxStrategyTagLength     = 20
	MaxStrategyMediaFiles    = 10
	MaxCommentLength         = 500

	MaxImageSize int64 = 5 << 20
	MaxVideoSize int64 = 50 << 20

	MediaTypeImage = "image"
	MediaTypeVideo = "video"

	defaultStrategyLimit = 12
	maxStrategyLimit     = 50
	strategyExcerptRunes = 120
)

var (
	ErrStrategyNotFound        = errors.New("strategy not found")
	ErrStrategyTitleInvalid    = errors.New("strategy title is empty or too long")
	ErrStrategyContentInvalid  = errors.New("strategy content is empty or too long")
	ErrStrategyAuthorInvalid   = errors.New("strategy author is empty or too long")
	ErrStrategyCategoryInvalid = errors.New("strategy category is invalid")
	ErrStrategyDifficulty      = errors.New("strategy difficulty must be between 1 and 5")
	ErrStrategyTooManyTags     = errors.New("too many tags")
	ErrStrategyTagInvalid      = errors.New("tag is empty or too long")
	ErrStrategyDuplicateTag    = errors.New("duplicate tag")
	ErrStrategyTooManyMedia    = errors.New("too many media files")
	ErrStrategyMediaInvalid    = errors.New("media file is invalid")
	ErrStrategyMediaTooLarge   = errors.New("media file is too large")
	ErrCommentInvalid          = errors.New("comment is empty or too long")
)

// StrategyService 负责攻略墙的增删改查与点赞、收藏、评论、置顶。
type StrategyService struct {
	db *gorm.DB
}

// StrategyFilter 描述列表筛选、排序与分页。
type StrategyFilter struct {
	Category   string
	Difficulty int
	Search     string
	SortBy     string
	SortOrder  string
	Limit      int
	Offset     int
}

// StrategyListItem 列表项附带纯文本摘要。
type StrategyListItem struct {
	db.Strategy
	Excerpt string `json:"excerpt"`
}

// StrategyListResult 聚合分页数据。
type StrategyListResult struct {
	Strategies []StrategyListItem
	Total      int64
	Limit      int
	Offset     int
	HasMore    bool
}

// StrategyInput 创建攻略时可提交的字段。
type StrategyInput struct {
	Title      string
	Content    string
	Author     string
	AuthorID   string
	Category   string
	Difficulty int
	Tags       []string
	MediaFiles []db.MediaFile
}

// ToggleResult 是点赞/收藏/表情切换后的状态。
type ToggleResult struct {
	Active bool
	Count  int
}

// NewStrategyService 构造 StrategyService。
func NewStrategyService(gdb *gorm.DB) *StrategyService {
	return &StrategyService{db: gdb}
}

var strategySortColumns = map[string]string{
	"created_at": "created_at",
	"createdAt":  "created_at",
	"likes":      "like_count",
	"favorites":  "favorite_count",
	"views":      "view_count",
	"comments":   "comment_count",
	"difficulty": "difficulty",
}

// List 返回已发布攻略，置顶攻略始终排在最前。
func (s *StrategyService) List(ctx context.Context, filter StrategyFilter) (*StrategyListResult, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultStrategyLimit
	}
	if limit > maxStrategyLimit {
		limit = maxStrategyLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := s.db.WithContext(ctx).Model(&db.Strategy{}).Where("status = ?", db.StrategyStatusPublished)

	if category := strings.TrimSpace(filter.Category); category != "" && category != "all" {
		parsed, err := guild.ParseCategory(category)
		if err != nil {
			return nil, ErrStrategyCategoryInvalid
		}
		query = query.Where("category = ?", parsed.String())
	}
	if filter.Difficulty != 0 {
		if !guild.ValidDifficulty(filter.Difficulty) {
			return nil, ErrStrategyDifficulty
		}
		query = query.Where("difficulty = ?", filter.Difficulty)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := fmt.Sprintf("%%%s%%", search)
		query = query.Where("title LIKE ? OR content LIKE ? OR author LIKE ? OR tags LIKE ?", like, like, like, like)
	}

	result := &StrategyListResult{Limit: limit, Offset: offset}
	if err := query.Session(&gorm.Session{}).Count(&result.Total).Error; err != nil {
		return nil, fmt.Errorf("count strategies: %w", err)
	}

	column, ok := strategySortColumns[strings.TrimSpace(filter.SortBy)]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(strings.TrimSpace(filter.SortOrder), "asc") {
		direction = "ASC"
	}

	var strategies []db.Strategy
	if err := query.Session(&gorm.Session{}).
		Order("is_pinned DESC").
		Order(fmt.Sprintf("%s %s", column, direction)).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&strategies).Error; err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}

	result.Strategies = make([]StrategyListItem, 0, len(strategies))
	for _, strategy := range strategies {
		result.Strategies = append(result.Strategies, StrategyListItem{
			Strategy: strategy,
			Excerpt:  MarkdownExcerpt(strategy.Content, strategyExcerptRunes),
		})
	}
	result.HasMore = int64(offset+len(strategies)) < result.Total
	return result, nil
}

// Get 返回攻略详情及评论（按时间正序）。
func (s *StrategyService) Get(ctx context.Context, id uint) (*db.Strategy, error) {
	var strategy db.Strategy
	if err := s.db.WithContext(ctx).
		Preload("Comments", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC, id ASC") }).
		First(&strategy, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStrategyNotFound
		}
		return nil, fmt.Errorf("get strategy: %w", err)
	}
	return &strategy, nil
}

// Create 校验并保存新攻略。
func (s *StrategyService) Create(ctx context.Context, input StrategyInput) (*db.Strategy, error) {
	strategy, err := buildStrategy(input)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(strategy).Error; err != nil {
		return nil, fmt.Errorf("create strategy: %w", err)
	}
	return strategy, nil
}

// ReactionState 返回用户是否已点赞、已收藏。
func (s *StrategyService) ReactionState(ctx context.Context, id uint, userID string) (liked, favorited bool, err error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, false, nil
	}

	var kinds []string
	if err := s.db.WithContext(ctx).Model(&db.StrategyReaction{}).
		Where("strategy_id = ? AND user_id = ?", id, userID).
		Pluck("kind", &kinds).Error; err != nil {
		return false, false, fmt.Errorf("load reactions: %w", err)
	}
	for _, kind := range kinds {
		switch kind {
		case db.ReactionLike:
			liked = true
		case db.ReactionFavorite:
			favorited = true
		}
	}
	return liked, favorited, nil
}

// ToggleLike 切换点赞：已点赞则取消，否则点赞。
func (s *StrategyService) ToggleLike(ctx context.Context, id uint, userID string) (*ToggleResult, error) {
	return s.toggleReaction(ctx, id, userID, db.ReactionLike, "like_count")
}

// ToggleFavorite 切换收藏。
func (s *StrategyService) ToggleFavorite(ctx context.Context, id uint, userID string) (*ToggleResult, error) {
	return s.toggleReaction(ctx, id, userID, db.ReactionFavorite, "favorite_count")
}

func (s *StrategyService) toggleReaction(ctx context.Context, id uint, userID, kind, counter string) (*ToggleResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	result := &ToggleResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureStrategyExists(tx, id); err != nil {
			return err
		}

		removed := tx.Where("strategy_id = ? AND user_id = ? AND kind = ?", id, userID, kind).Delete(&db.StrategyReaction{})
		if removed.Error != nil {
			return removed.Error
		}

		delta := gorm.Expr(counter + " - 1")
		if removed.RowsAffected == 0 {
			if err := tx.Create(&db.StrategyReaction{StrategyID: id, UserID: userID, Kind: kind}).Error; err != nil {
				return err
			}
			delta = gorm.Expr(counter + " + 1")
			result.Active = true
		}

		if err := tx.Model(&db.Strategy{}).Where("id = ?", id).UpdateColumn(counter, delta).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&db.StrategyReaction{}).Where("strategy_id = ? AND kind = ?", id, kind).Count(&count).Error; err != nil {
			return err
		}
		result.Count = int(count)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStrategyNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("toggle %s: %w", kind, err)
	}
	return result, nil
}

// AddComment 追加一条评论。
func (s *StrategyService) AddComment(ctx context.Context, id uint, userID, userName, content string) (*db.StrategyComment, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	userName = cleanText(userName)
	if userName == "" || utf8.RuneCountInString(userName) > maxUserNameLength {
		return nil, ErrInvalidUserName
	}
	content = cleanText(content)
	if content == "" || utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, ErrCommentInvalid
	}

	comment := db.StrategyComment{StrategyID: id, UserID: userID, UserName: userName, Content: content}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureStrategyExists(tx, id); err != nil {
			return err
		}
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&db.Strategy{}).Where("id = ?", id).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		if errors.Is(err, ErrStrategyNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("add comment: %w", err)
	}
	return &comment, nil
}

// SetPinned 设置置顶状态，调用方负责管理员校验。
func (s *StrategyService) SetPinned(ctx context.Context, id uint, pinned bool) error {
	res := s.db.WithContext(ctx).Model(&db.Strategy{}).Where("id = ?", id).UpdateColumn("is_pinned", pinned)
	if res.Error != nil {
		return fmt.Errorf("pin strategy: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return s.existsOrNotFound(ctx, id)
	}
	return nil
}

// Delete 删除攻略及其点赞、收藏、评论、浏览记录，调用方负责管理员校验。
func (s *StrategyService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureStrategyExists(tx, id); err != nil {
			return err
		}
		for _, model := range []any{&db.StrategyReaction{}, &db.StrategyComment{}, &db.StrategyVisit{}} {
			if err := tx.Where("strategy_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&db.Strategy{}, id).Error
	})
	if err != nil {
		if errors.Is(err, ErrStrategyNotFound) {
			return err
		}
		return fmt.Errorf("delete strategy: %w", err)
	}
	return nil
}

func (s *StrategyService) existsOrNotFound(ctx context.Context, id uint) error {
	return ensureStrategyExists(s.db.WithContext(ctx), id)
}

func ensureStrategyExists(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&db.Strategy{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrStrategyNotFound
	}
	return nil
}

func buildStrategy(input StrategyInput) (*db.Strategy, error) {
	title := cleanText(input.Title)
	if title == "" || utf8.RuneCountInString(title) > MaxStrategyTitleLength {
		return nil, ErrStrategyTitleInvalid
	}

	content := strings.TrimSpace(input.Content)
	if content == "" || utf8.RuneCountInString(content) > MaxStrategyContentLength {
		return nil, ErrStrategyContentInvalid
	}

	author := cleanText(input.Author)
	if author == "" || utf8.RuneCountInString(author) > MaxStrategyAuthorLength {
		return nil, ErrStrategyAuthorInvalid
	}

	category, err := guild.ParseCategory(input.Category)
	if err != nil {
		return nil, ErrStrategyCategoryInvalid
	}

	if !guild.ValidDifficulty(input.Difficulty) {
		return nil, ErrStrategyDifficulty
	}

	tags, err := normalizeTags(input.Tags)
	if err != nil {
		return nil, err
	}

	media, err := validateMediaFiles(input.MediaFiles)
	if err != nil {
		return nil, err
	}

	return &db.Strategy{
		Title:      title,
		Content:    content,
		Author:     author,
		AuthorID:   strings.TrimSpace(input.AuthorID),
		Category:   category.String(),
		Difficulty: input.Difficulty,
		Tags:       tags,
		MediaFiles: media,
		Status:     db.StrategyStatusPublished,
	}, nil
}

func normalizeTags(raw []string) ([]string, error) {
	if len(raw) > MaxStrategyTags {
		return nil, ErrStrategyTooManyTags
	}

	tags := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, item := range raw {
		tag := cleanText(item)
		if tag == "" || utf8.RuneCountInString(tag) > MaxStrategyTagLength {
			return nil, fmt.Errorf("%w: %q", ErrStrategyTagInvalid, item)
		}
		key := strings.ToLower(tag)
		if _, exists := seen[key]; exists {
			return nil, fmt.Errorf("%w: %q", ErrStrategyDuplicateTag, tag)
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
	}
	return tags, nil
}

func validateMediaFiles(files []db.MediaFile) ([]db.MediaFile, error) {
	if len(files) > MaxStrategyMediaFiles {
		return nil, ErrStrategyTooManyMedia
	}

	media := make([]db.MediaFile, 0, len(files))
	for _, file := range files {
		file.URL = strings.TrimSpace(file.URL)
		if file.URL == "" || file.Size < 0 {
			return nil, ErrStrategyMediaInvalid
		}
		switch file.Type {
		case MediaTypeImage:
			if file.Size > MaxImageSize {
				return nil, fmt.Errorf("%w: %s", ErrStrategyMediaTooLarge, file.Name)
			}
		case MediaTypeVideo:
			if file.Size > MaxVideoSize {
				return nil, fmt.Errorf("%w: %s", ErrStrategyMediaTooLarge, file.Name)
			}
		default:
			return nil, fmt.Errorf("%w: unsupported type %q", ErrStrategyMediaInvalid, file.Type)
		}
		file.Name = cleanText(file.Name)
		media = append(media, file)
	}
	return media, nil
}
