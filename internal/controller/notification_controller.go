package controller

import (
	"learning_backend/internal/service"
	"learning_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	Service *service.NotificationService
}

func NewNotificationController(svc *service.NotificationService) *NotificationController {
	return &NotificationController{Service: svc}
}

// @Summary 拉取新公告
// @Description 返回上次查看之后发布的公告，并把查看时间推进到当前
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.PollResult}
// @Router /notifications [get]
func (c *NotificationController) Poll(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)

	res, err := c.Service.Poll(ctx.Request.Context(), user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary 清空未读计数
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /notifications/clear [post]
func (c *NotificationController) Clear(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)

	if err := c.Service.Clear(ctx.Request.Context(), user.UserID); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"newAnnouncementsCount": 0})
}
