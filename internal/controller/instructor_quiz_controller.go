package controller

import (
	"learning_backend/internal/service"
	"learning_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type InstructorQuizController struct {
	Service *service.InstructorQuizService
}

func NewInstructorQuizController(svc *service.InstructorQuizService) *InstructorQuizController {
	return &InstructorQuizController{Service: svc}
}

// @Summary 创建测验
// @Tags 讲师测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.QuizReq true "测验信息"
// @Success 201 {object} util.Response
// @Router /instructor/quizzes [post]
func (c *InstructorQuizController) CreateQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)

	var req service.QuizReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Service.CreateQuiz(user.UserID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// @Summary 我的测验列表
// @Description 附带题目数和完成人数
// @Tags 讲师测验
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /instructor/quizzes [get]
func (c *InstructorQuizController) ListQuizzes(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)

	rows, err := c.Service.ListQuizzes(user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, rows)
}

// @Summary 测验详情
// @Tags 讲师测验
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /instructor/quizzes/{id} [get]
func (c *InstructorQuizController) GetQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	quizID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	quiz, err := c.Service.GetQuiz(user.UserID, user.Role, quizID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// @Summary 修改测验
// @Tags 讲师测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Param body body service.QuizReq true "测验信息"
// @Success 200 {object} util.Response
// @Router /instructor/quizzes/{id} [put]
func (c *InstructorQuizController) UpdateQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	quizID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req service.QuizReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.Service.UpdateQuiz(user.UserID, user.Role, quizID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// @Summary 删除测验
// @Description 同时删除题目、选项、作答和完成记录
// @Tags 讲师测验
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /instructor/quizzes/{id} [delete]
func (c *InstructorQuizController) DeleteQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	quizID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.Service.DeleteQuiz(user.UserID, user.Role, quizID); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 添加题目
// @Description 每题 2 到 10 个选项，至少一个正确
// @Tags 讲师测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Param body body service.QuestionReq true "题目"
// @Success 201 {object} util.Response
// @Router /instructor/quizzes/{id}/questions [post]
func (c *InstructorQuizController) AddQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	quizID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req service.QuestionReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.Service.AddQuestion(user.UserID, user.Role, quizID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, question)
}

// @Summary 修改题目
// @Tags 讲师测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Param questionId path int true "题目ID"
// @Param body body service.QuestionReq true "题目"
// @Success 200 {object} util.Response
// @Router /instructor/quizzes/{id}/questions/{questionId} [put]
func (c *InstructorQuizController) UpdateQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	quizID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	questionID, ok := pathID(ctx, "questionId")
	if !ok {
		return
	}

	var req service.QuestionReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.Service.UpdateQuestion(user.UserID, user.Role, quizID, questionID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// @Summary 删除题目
// @Tags 讲师测验
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Param questionId path int true "题目ID"
// @Success 200 {object} util.Response
// @Router /instructor/quizzes/{id}/questions/{questionId} [delete]
func (c *InstructorQuizController) DeleteQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	quizID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	questionID, ok := pathID(ctx, "questionId")
	if !ok {
		return
	}

	if err := c.Service.DeleteQuestion(user.UserID, user.Role, quizID, questionID); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 测验成绩
// @Description 完成记录按时间倒序，附带人数和平均分
// @Tags 讲师测验
// @Produce json
// @Security BearerAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=repository.QuizResults}
// @Router /instructor/quizzes/{id}/results [get]
func (c *InstructorQuizController) Results(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	quizID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	res, err := c.Service.Results(user.UserID, user.Role, quizID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
