package controller

import (
	"errors"
	"learning_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

const takenQuizzesPath = "/api/learner/taken-quizzes"

// respondError 把业务错误映射为 HTTP 状态，其余按 500 记录
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrAlreadyCompleted):
		util.ErrorWithData(ctx, http.StatusConflict, err.Error(), gin.H{"redirect": takenQuizzesPath})
	case errors.Is(err, util.ErrDuplicateAnswer):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrNotPlayable):
		util.UnprocessableEntity(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidChoice),
		errors.Is(err, util.ErrInvalidQuestion),
		errors.Is(err, util.ErrCourseNotFound):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrQuizNotFound),
		errors.Is(err, util.ErrQuestionNotFound),
		errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, util.ErrLearnerNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrUnauthorized):
		util.Unauthorized(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, ok := util.ParseID(ctx.Param(name))
	if !ok {
		util.BadRequest(ctx, "invalid "+name)
	}
	return id, ok
}
