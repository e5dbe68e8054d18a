package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jinxiguild/internal/service"
)

type messagePayload struct {
	UserID  string `json:"userId"`
	Author  string `json:"author"`
	Content string `json:"content"`
}

type messageActionPayload struct {
	MessageID uint       `json:"messageId"`
	Action    string     `json:"action"`
	UserID    string     `json:"userId"`
	Data      actionData `json:"data"`
	Password  string     `json:"password"`
}

func (a *API) respondMessageError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrMessageNotFound):
		respondError(c, http.StatusNotFound, "留言不存在")
	case errors.Is(err, service.ErrMessageAuthorInvalid):
		respondError(c, http.StatusBadRequest, "昵称不能为空且不超过30个字符")
	case errors.Is(err, service.ErrMessageContentInvalid):
		respondError(c, http.StatusBadRequest, "留言不能为空且不超过500个字符")
	case errors.Is(err, service.ErrUnsupportedEmoji):
		respondError(c, http.StatusBadRequest, "不支持的表情")
	case errors.Is(err, service.ErrInvalidUserID):
		respondError(c, http.StatusBadRequest, "缺少用户标识")
	default:
		a.internalError(c, fallback, err)
	}
}

// ListMessages 返回留言墙
func (a *API) ListMessages(c *gin.Context) {
	result, err := a.messages.List(c.Request.Context(), queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		a.internalError(c, "获取留言失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"data": gin.H{
			"messages": result.Messages,
			"emojis":   service.MessageEmojis,
			"pagination": gin.H{
				"total":   result.Total,
				"limit":   result.Limit,
				"offset":  result.Offset,
				"hasMore": result.HasMore,
			},
		},
	})
}

// CreateMessage 发布留言
func (a *API) CreateMessage(c *gin.Context) {
	var payload messagePayload
	if !bindJSON(c, &payload, "请求参数格式错误") {
		return
	}
	userID, author := a.resolveUser(c, payload.UserID, payload.Author)

	message, err := a.messages.Create(c.Request.Context(), service.MessageInput{
		UserID:  userID,
		Author:  author,
		Content: payload.Content,
	})
	if err != nil {
		a.respondMessageError(c, err, "发布留言失败")
		return
	}

	respondSuccess(c, http.StatusCreated, gin.H{"data": message})
}

// MessageAction 处理回复、表情、置顶、删除
func (a *API) MessageAction(c *gin.Context) {
	var payload messageActionPayload
	if !bindJSON(c, &payload, "请求参数格式错误") {
		return
	}
	if payload.MessageID == 0 {
		respondError(c, http.StatusBadRequest, "无效的留言ID")
		return
	}

	ctx := c.Request.Context()
	id := payload.MessageID

	switch strings.ToLower(strings.TrimSpace(payload.Action)) {
	case "reply":
		userID, author := a.resolveUser(c, payload.UserID, payload.Data.Author)
		reply, err := a.messages.Reply(ctx, id, service.MessageInput{UserID: userID, Author: author, Content: payload.Data.Content})
		if err != nil {
			a.respondMessageError(c, err, "回复失败")
			return
		}
		respondSuccess(c, http.StatusOK, gin.H{"reply": reply})

	case "reaction":
		userID, _ := a.resolveUser(c, payload.UserID, "")
		result, err := a.messages.ToggleReaction(ctx, id, userID, payload.Data.Emoji)
		if err != nil {
			a.respondMessageError(c, err, "操作失败")
			return
		}
		respondSuccess(c, http.StatusOK, gin.H{"emoji": payload.Data.Emoji, "active": result.Active, "count": result.Count})

	case "pin":
		if !a.requireAdmin(c, payload.Password) {
			return
		}
		pinned := true
		if payload.Data.Pinned != nil {
			pinned = *payload.Data.Pinned
		}
		if err := a.messages.SetPinned(ctx, id, pinned); err != nil {
			a.respondMessageError(c, err, "置顶失败")
			return
		}
		respondSuccess(c, http.StatusOK, gin.H{"isPinned": pinned})

	case "delete":
		if !a.requireAdmin(c, payload.Password) {
			return
		}
		if err := a.messages.Delete(ctx, id); err != nil {
			a.respondMessageError(c, err, "删除失败")
			return
		}
		respondSuccess(c, http.StatusOK, gin.H{"message": "留言已删除"})

	default:
		respondError(c, http.StatusBadRequest, "不支持的操作")
	}
}
