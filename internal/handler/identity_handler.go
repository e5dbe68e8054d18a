package handler

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sessionKeyUserID   = "user_id"
	sessionKeyUserName = "user_name"
	maxDisplayName     = 20
)

type identityPayload struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// GetIdentity 返回会话中的身份，首次访问时签发新的 userId。
func (a *API) GetIdentity(c *gin.Context) {
	userID, userName := a.sessionIdentity(c)
	respondSuccess(c, http.StatusOK, gin.H{"userId": userID, "userName": userName})
}

// UpdateIdentity 保存昵称；带上客户端已持久化的 userId 时沿用该 ID。
func (a *API) UpdateIdentity(c *gin.Context) {
	var payload identityPayload
	if !bindJSON(c, &payload, "请求参数格式错误") {
		return
	}

	name := strings.TrimSpace(payload.UserName)
	if name == "" || utf8.RuneCountInString(name) > maxDisplayName {
		respondError(c, http.StatusBadRequest, "昵称不能为空且不超过20个字符")
		return
	}

	session := sessions.Default(c)
	userID := strings.TrimSpace(payload.UserID)
	if userID == "" {
		userID, _ = a.sessionIdentity(c)
	}
	session.Set(sessionKeyUserID, userID)
	session.Set(sessionKeyUserName, name)
	if err := session.Save(); err != nil {
		a.internalError(c, "保存身份失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"userId": userID, "userName": name})
}

// sessionIdentity 读取会话身份，缺失时生成 uuid 并写回会话。
func (a *API) sessionIdentity(c *gin.Context) (string, string) {
	session := sessions.Default(c)
	userID, _ := session.Get(sessionKeyUserID).(string)
	userName, _ := session.Get(sessionKeyUserName).(string)
	if userID != "" {
		return userID, userName
	}

	userID = uuid.NewString()
	session.Set(sessionKeyUserID, userID)
	if err := session.Save(); err != nil {
		a.logger.Warn("save session identity failed", zap.Error(err))
	}
	return userID, userName
}

// resolveUser 优先使用请求显式携带的 userId，否则回退到会话身份。
func (a *API) resolveUser(c *gin.Context, explicitID, explicitName string) (string, string) {
	userID := strings.TrimSpace(explicitID)
	userName := strings.TrimSpace(explicitName)
	if userID != "" {
		return userID, userName
	}

	sessionID, sessionName := a.sessionIdentity(c)
	if userName == "" {
		userName = sessionName
	}
	return sessionID, userName
}
