package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jinxiguild/internal/db"
	"github.com/jinxiguild/internal/guild"
	"github.com/jinxiguild/internal/service"
)

type strategyPayload struct {
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Author     string         `json:"author"`
	AuthorID   string         `json:"authorId"`
	Category   string         `json:"category"`
	Difficulty int            `json:"difficulty"`
	Tags       []string       `json:"tags"`
	MediaFiles []db.MediaFile `json:"mediaFiles"`
}

// actionData 是 strategy-actions / message-actions 中 data 字段的并集
type actionData struct {
	Author  string `json:"author"`
	Content string `json:"content"`
	Emoji   string `json:"emoji"`
	Pinned  *bool  `json:"pinned"`
}

type strategyActionPayload struct {
	Action     string     `json:"action"`
	StrategyID uint       `json:"strategyId"`
	UserID     string     `json:"userId"`
	UserName   string     `json:"userName"`
	Data       actionData `json:"data"`
	Password   string     `json:"password"`
}

// strategyErrorMessages 把校验错误映射为前端可直接展示的文案
var strategyErrorMessages = []struct {
	err     error
	message string
}{
	{service.ErrStrategyTitleInvalid, "标题不能为空且不超过100个字符"},
	{service.ErrStrategyContentInvalid, "内容不能为空且不超过10000个字符"},
	{service.ErrStrategyAuthorInvalid, "作者不能为空且不超过30个字符"},
	{service.ErrStrategyCategoryInvalid, "攻略分类无效"},
	{service.ErrStrategyDifficulty, "难度必须在1到5之间"},
	{service.ErrStrategyTooManyTags, "标签最多10个"},
	{service.ErrStrategyTagInvalid, "标签不能为空且不超过20个字符"},
	{service.ErrStrategyDuplicateTag, "标签不能重复"},
	{service.ErrStrategyTooManyMedia, "媒体文件最多10个"},
	{service.ErrStrategyMediaTooLarge, "图片不超过5MB，视频不超过50MB"},
	{service.ErrStrategyMediaInvalid, "媒体文件无效"},
	{service.ErrMediaUnsupported, "不支持的文件类型"},
	{service.ErrMediaMissing, "未找到上传的文件"},
	{service.ErrCommentInvalid, "评论不能为空且不超过500个字符"},
	{service.ErrInvalidUserID, "缺少用户标识"},
	{service.ErrInvalidUserName, "昵称不能为空且不超过20个字符"},
}

func strategyErrorMessage(err error) (string, bool) {
	for _, item := range strategyErrorMessages {
		if errors.Is(err, item.err) {
			return item.message, true
		}
	}
	return "", false
}

func (a *API) respondStrategyError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, service.ErrStrategyNotFound) {
		respondError(c, http.StatusNotFound, "攻略不存在")
		return
	}
	if message, ok := strategyErrorMessage(err); ok {
		respondError(c, http.StatusBadRequest, message)
		return
	}
	a.internalError(c, fallback, err)
}

// ListStrategies 返回攻略列表
func (a *API) ListStrategies(c *gin.Context) {
	filter := service.StrategyFilter{
		Category:   c.Query("category"),
		Difficulty: queryInt(c, "difficulty", 0),
		Search:     c.Query("search"),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
		Limit:      queryInt(c, "limit", 0),
		Offset:     queryInt(c, "offset", 0),
	}

	result, err := a.strategies.List(c.Request.Context(), filter)
	if err != nil {
		a.respondStrategyError(c, err, "获取攻略列表失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"data": gin.H{
			"strategies": result.Strategies,
			"pagination": gin.H{
				"total":   result.Total,
				"limit":   result.Limit,
				"offset":  result.Offset,
				"hasMore": result.HasMore,
			},
		},
	})
}

// CreateStrategy 发布攻略
func (a *API) CreateStrategy(c *gin.Context) {
	var payload strategyPayload
	if !bindJSON(c, &payload, "请求参数格式错误") {
		return
	}
	authorID, _ := a.resolveUser(c, payload.AuthorID, "")

	strategy, err := a.strategies.Create(c.Request.Context(), service.StrategyInput{
		Title:      payload.Title,
		Content:    payload.Content,
		Author:     payload.Author,
		AuthorID:   authorID,
		Category:   payload.Category,
		Difficulty: payload.Difficulty,
		Tags:       payload.Tags,
		MediaFiles: payload.MediaFiles,
	})
	if err != nil {
		a.respondStrategyError(c, err, "发布攻略失败")
		return
	}

	respondSuccess(c, http.StatusCreated, gin.H{"data": strategy})
}

// GetStrategy 返回攻略详情及当前用户的点赞/收藏状态
func (a *API) GetStrategy(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的攻略ID")
		return
	}

	strategy, err := a.strategies.Get(c.Request.Context(), id)
	if err != nil {
		a.respondStrategyError(c, err, "获取攻略失败")
		return
	}

	userID, _ := a.resolveUser(c, c.Query("userId"), "")
	liked, favorited, err := a.strategies.ReactionState(c.Request.Context(), id, userID)
	if err != nil {
		a.internalError(c, "获取攻略失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"data":        strategy,
		"isLiked":     liked,
		"isFavorited": favorited,
	})
}

// UploadStrategyMedia 上传攻略图片或视频
func (a *API) UploadStrategyMedia(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "未找到上传的文件")
		return
	}

	media, err := a.media.Save(file)
	if err != nil {
		a.respondStrategyError(c, err, "保存文件失败")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"data": media})
}

// ListStrategyCategories 返回攻略分类与难度定义
func (a *API) ListStrategyCategories(c *gin.Context) {
	categories := make([]gin.H, 0, len(guild.Categories()))
	for _, category := range guild.Categories() {
		categories = append(categories, gin.H{
			"key":   category.String(),
			"label": category.Label(),
			"color": category.Color(),
		})
	}

	difficulties := make([]gin.H, 0, guild.MaxDifficulty)
	for level := guild.MinDifficulty; level <= guild.MaxDifficulty; level++ {
		difficulties = append(difficulties, gin.H{"level": level, "label": guild.DifficultyLabel(level)})
	}

	respondSuccess(c, http.StatusOK, gin.H{"categories": categories, "difficulties": difficulties})
}

// StrategyAction 处理点赞、收藏、评论、浏览、置顶、删除
func (a *API) StrategyAction(c *gin.Context) {
	var payload strategyActionPayload
	if !bindJSON(c, &payload, "请求参数格式错误") {
		return
	}
	if payload.StrategyID == 0 {
		respondError(c, http.StatusBadRequest, "无效的攻略ID")
		return
	}

	ctx := c.Request.Context()
	id := payload.StrategyID

	switch strings.ToLower(strings.TrimSpace(payload.Action)) {
	case "like", "favorite":
		userID, _ := a.resolveUser(c, payload.UserID, payload.UserName)
		toggle := a.strategies.ToggleLike
		if strings.EqualFold(payload.Action, "favorite") {
			toggle = a.strategies.ToggleFavorite
		}
		result, err := toggle(ctx, id, userID)
		if err != nil {
			a.respondStrategyError(c, err, "操作失败")
			return
		}
		respondSuccess(c, http.StatusOK, gin.H{"active": result.Active, "count": result.Count})

	case "comment":
		userID, userName := a.resolveUser(c, payload.UserID, payload.UserName)
		if author := strings.TrimSpace(payload.Data.Author); author != "" {
			userName = author
		}
		comment, err := a.strategies.AddComment(ctx, id, userID, userName, payload.Data.Content)
		if err != nil {
			a.respondStrategyError(c, err, "评论失败")
			return
		}
		respondSuccess(c, http.StatusOK, gin.H{"comment": comment})

	case "view":
		userID, _ := a.resolveUser(c, payload.UserID, "")
		result, err := a.views.RecordView(ctx, id, userID, a.now())
		if err != nil {
			a.respondStrategyError(c, err, "记录浏览失败")
			return
		}
		respondSuccess(c, http.StatusOK, gin.H{"viewCount": result.ViewCount, "counted": result.Counted})

	case "pin":
		if !a.requireAdmin(c, payload.Password) {
			return
		}
		pinned := true
		if payload.Data.Pinned != nil {
			pinned = *payload.Data.Pinned
		}
		if err := a.strategies.SetPinned(ctx, id, pinned); err != nil {
			a.respondStrategyError(c, err, "置顶失败")
			return
		}
		respondSuccess(c, http.StatusOK, gin.H{"isPinned": pinned})

	case "delete":
		if !a.requireAdmin(c, payload.Password) {
			return
		}
		if err := a.strategies.Delete(ctx, id); err != nil {
			a.respondStrategyError(c, err, "删除失败")
			return
		}
		respondSuccess(c, http.StatusOK, gin.H{"message": "攻略已删除"})

	default:
		respondError(c, http.StatusBadRequest, "不支持的操作")
	}
}
