package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jinxiguild/internal/service"
	"go.uber.org/zap"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

func respondSuccess(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// requireAdmin 校验管理员密码，失败时直接写响应。
// 密码缺失或错误返回 401 且 needPassword=true，便于前端重新弹出输入框。
func (a *API) requireAdmin(c *gin.Context, password string) bool {
	err := a.admin.Verify(password)
	switch {
	case err == nil:
		return true
	case errors.Is(err, service.ErrAdminDisabled):
		respondError(c, http.StatusForbidden, "管理功能未启用")
	case errors.Is(err, service.ErrAdminPasswordRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "请输入管理员密码", "needPassword": true})
	default:
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "管理员密码错误", "needPassword": true})
	}
	return false
}

// internalError 记录日志并返回 500，不向客户端暴露底层错误。
func (a *API) internalError(c *gin.Context, message string, err error) {
	a.logger.Error(message,
		zap.Error(err),
		zap.String("path", c.FullPath()),
		zap.String("method", c.Request.Method),
	)
	_ = c.Error(err)
	respondError(c, http.StatusInternalServerError, message)
}
