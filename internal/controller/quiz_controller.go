package controller

import (
	"learning_backend/internal/service"
	"learning_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// QuizController 学员作答相关接口
type QuizController struct {
	Submission *service.QuizSubmissionService
	Learner    *service.LearnerQuizService
}

func NewQuizController(submission *service.QuizSubmissionService, learner *service.LearnerQuizService) *QuizController {
	return &QuizController{Submission: submission, Learner: learner}
}

// @Summary 可参加的测验
// @Description 感兴趣课程下、尚未完成且有题目的测验，按名称排序
// @Tags 学员测验
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /learner/quizzes [get]
func (c *QuizController) ListAvailable(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)

	quizzes, err := c.Learner.AvailableQuizzes(user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, quizzes)
}

// @Summary 测验作答状态
// @Description 返回当前题目和进度；已完成时返回完成记录
// @Tags 学员测验
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=service.QuizState}
// @Failure 404 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /learner/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	quizID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	state, err := c.Submission.State(ctx.Request.Context(), user.UserID, quizID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

// @Summary 提交答案
// @Tags 学员测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Param body body service.SubmitAnswerReq true "题目和选项"
// @Success 200 {object} util.Response{data=service.SubmissionResult}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /learner/quizzes/{id}/answers [post]
func (c *QuizController) SubmitAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	quizID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req service.SubmitAnswerReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Submission.SubmitAnswer(ctx.Request.Context(), user.UserID, quizID, req.QuestionID, req.AnswerID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 已完成的测验
// @Tags 学员测验
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /learner/taken-quizzes [get]
func (c *QuizController) ListTaken(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)

	taken, err := c.Learner.TakenQuizzes(user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, taken)
}

// @Summary 更新感兴趣的课程
// @Tags 学员测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.InterestsReq true "课程ID列表"
// @Success 200 {object} util.Response
// @Router /learner/interests [put]
func (c *QuizController) UpdateInterests(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)

	var req service.InterestsReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	courses, err := c.Learner.UpdateInterests(user.UserID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}
