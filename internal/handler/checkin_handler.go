package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinxiguild/internal/service"
)

type checkinPayload struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// CheckinStatus 查询今日签到状态
func (a *API) CheckinStatus(c *gin.Context) {
	userID, _ := a.resolveUser(c, c.Query("userId"), "")

	status, err := a.checkins.Status(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidUserID) {
			respondError(c, http.StatusBadRequest, "缺少用户标识")
			return
		}
		a.internalError(c, "获取签到状态失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"userId":         userID,
		"today":          status.Today,
		"checkedInToday": status.CheckedInToday,
		"streakActive":   status.StreakActive,
		"stats":          status.Stats,
	})
}

// PerformCheckin 执行签到；今天已签到时返回 success=false 与提示文案
func (a *API) PerformCheckin(c *gin.Context) {
	var payload checkinPayload
	if !bindJSON(c, &payload, "请求参数格式错误") {
		return
	}
	userID, userName := a.resolveUser(c, payload.UserID, payload.UserName)

	result, err := a.checkins.Perform(c.Request.Context(), userID, userName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidUserID):
			respondError(c, http.StatusBadRequest, "缺少用户标识")
		case errors.Is(err, service.ErrInvalidUserName):
			respondError(c, http.StatusBadRequest, "昵称不能为空且不超过20个字符")
		default:
			a.internalError(c, "签到失败，请稍后重试", err)
		}
		return
	}

	if !result.Success {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": result.Message})
		return
	}

	a.leaderboard.Invalidate(c.Request.Context())
	respondSuccess(c, http.StatusOK, gin.H{
		"message":        result.Message,
		"rewardPoints":   result.RewardPoints,
		"continuousDays": result.ContinuousDays,
		"isContinuous":   result.IsContinuous,
		"stats":          result.Stats,
	})
}

// CheckinHistory 返回指定月份的签到记录
func (a *API) CheckinHistory(c *gin.Context) {
	userID, _ := a.resolveUser(c, c.Query("userId"), "")

	records, err := a.checkins.History(c.Request.Context(), userID, c.Query("month"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidUserID):
			respondError(c, http.StatusBadRequest, "缺少用户标识")
		case errors.Is(err, service.ErrInvalidMonth):
			respondError(c, http.StatusBadRequest, "月份格式应为 YYYY-MM")
		default:
			a.internalError(c, "获取签到记录失败", err)
		}
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"records": records})
}

// GetLeaderboard 返回排行榜
func (a *API) GetLeaderboard(c *gin.Context) {
	raw := c.DefaultQuery("type", string(service.DimensionTotal))
	dim, err := service.ParseDimension(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "不支持的排行榜类型")
		return
	}

	board, err := a.leaderboard.Get(c.Request.Context(), dim, queryInt(c, "limit", 0))
	if err != nil {
		a.internalError(c, "获取排行榜失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"data": board})
}
