package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinxiguild/internal/service"
)

type settingsPayload struct {
	GuildName         string `json:"guildName"`
	AnnouncementTitle string `json:"announcementTitle"`
	AnnouncementHTML  string `json:"announcementHtml"`
	RecruitEmail      string `json:"recruitEmail"`
	Password          string `json:"password"`
}

// GetSettings 返回公会名称与公告
func (a *API) GetSettings(c *gin.Context) {
	settings, err := a.settings.Get(c.Request.Context())
	if err != nil {
		a.internalError(c, "获取公会设置失败", err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"data": settings})
}

// UpdateSettings 更新公会设置，需要管理员密码
func (a *API) UpdateSettings(c *gin.Context) {
	var payload settingsPayload
	if !bindJSON(c, &payload, "请求参数格式错误") {
		return
	}
	if !a.requireAdmin(c, payload.Password) {
		return
	}

	updated, err := a.settings.Update(c.Request.Context(), service.GuildSettings{
		GuildName:         payload.GuildName,
		AnnouncementTitle: payload.AnnouncementTitle,
		AnnouncementHTML:  payload.AnnouncementHTML,
		RecruitEmail:      payload.RecruitEmail,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGuildNameInvalid):
			respondError(c, http.StatusBadRequest, "公会名称不超过30个字符")
		case errors.Is(err, service.ErrAnnouncementTitleInvalid):
			respondError(c, http.StatusBadRequest, "公告标题不超过60个字符")
		case errors.Is(err, service.ErrAnnouncementTooLong):
			respondError(c, http.StatusBadRequest, "公告内容过长")
		case errors.Is(err, service.ErrRecruitEmailInvalid):
			respondError(c, http.StatusBadRequest, "招募邮箱格式不正确")
		default:
			a.internalError(c, "保存公会设置失败", err)
		}
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"data": updated})
}

// SubmitRecruit 提交入会申请，依次尝试邮件、表单中转与本地邮件客户端
func (a *API) SubmitRecruit(c *gin.Context) {
	var payload service.Application
	if !bindJSON(c, &payload, "请求参数格式错误") {
		return
	}

	result, err := a.recruit.Submit(c.Request.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecruitNameRequired):
			respondError(c, http.StatusBadRequest, "请填写昵称")
		case errors.Is(err, service.ErrRecruitContactRequired):
			respondError(c, http.StatusBadRequest, "请填写联系方式")
		case errors.Is(err, service.ErrRecruitFieldTooLong):
			respondError(c, http.StatusBadRequest, "申请内容过长")
		default:
			a.internalError(c, "提交申请失败", err)
		}
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"data": result})
}
