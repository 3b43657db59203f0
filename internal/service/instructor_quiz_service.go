package service

import (
	"errors"
	"learning_backend/internal/model"
	"learning_backend/internal/repository"
	"learning_backend/internal/util"
	"strings"

	"gorm.io/gorm"
)

const (
	minAnswersPerQuestion = 2
	maxAnswersPerQuestion = 10
)

type InstructorQuizService struct {
	Quizzes *repository.QuizRepository
	Courses *repository.CourseRepository
}

func NewInstructorQuizService(quizzes *repository.QuizRepository, courses *repository.CourseRepository) *InstructorQuizService {
	return &InstructorQuizService{Quizzes: quizzes, Courses: courses}
}

type QuizReq struct {
	Name     string `json:"name" binding:"required,max=255"`
	CourseID uint   `json:"courseId" binding:"required"`
}

type AnswerReq struct {
	Text      string `json:"text" binding:"required,max=255"`
	IsCorrect bool   `json:"isCorrect"`
}

type QuestionReq struct {
	Text    string      `json:"text" binding:"required,max=255"`
	Answers []AnswerReq `json:"answers" binding:"dive"`
}

// Validate 每题 2 到 10 个非空选项，至少一个正确
func (r QuestionReq) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return util.ErrInvalidQuestion
	}
	if len(r.Answers) < minAnswersPerQuestion || len(r.Answers) > maxAnswersPerQuestion {
		return util.ErrInvalidQuestion
	}
	hasCorrect := false
	for _, a := range r.Answers {
		if strings.TrimSpace(a.Text) == "" {
			return util.ErrInvalidQuestion
		}
		hasCorrect = hasCorrect || a.IsCorrect
	}
	if !hasCorrect {
		return util.ErrInvalidQuestion
	}
	return nil
}

func (r QuestionReq) answers() []model.Answer {
	answers := make([]model.Answer, 0, len(r.Answers))
	for _, a := range r.Answers {
		answers = append(answers, model.Answer{Text: a.Text, IsCorrect: a.IsCorrect})
	}
	return answers
}

func (s *InstructorQuizService) CreateQuiz(ownerID uint, req QuizReq) (*model.Quiz, error) {
	course, err := s.findCourse(req.CourseID)
	if err != nil {
		return nil, err
	}

	quiz := &model.Quiz{Name: req.Name, OwnerID: ownerID, CourseID: course.ID}
	if err := s.Quizzes.CreateQuiz(quiz); err != nil {
		return nil, err
	}
	quiz.Course = course
	return quiz, nil
}

func (s *InstructorQuizService) ListQuizzes(ownerID uint) ([]repository.QuizListRow, error) {
	return s.Quizzes.ListOwnedQuizzes(ownerID)
}

// GetQuiz 讲师查看自己的测验，含题目和选项（带正误）
func (s *InstructorQuizService) GetQuiz(actorID uint, role model.Role, quizID uint) (*model.Quiz, error) {
	quiz, err := s.ownedQuiz(actorID, role, quizID)
	if err != nil {
		return nil, err
	}
	err = s.Quizzes.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("text ASC").Order("id ASC")
	}).Preload("Questions.Answers", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(quiz, quiz.ID).Error
	return quiz, err
}

// UpdateQuiz 只允许修改名称和课程，所有者不变
func (s *InstructorQuizService) UpdateQuiz(actorID uint, role model.Role, quizID uint, req QuizReq) (*model.Quiz, error) {
	quiz, err := s.ownedQuiz(actorID, role, quizID)
	if err != nil {
		return nil, err
	}
	course, err := s.findCourse(req.CourseID)
	if err != nil {
		return nil, err
	}

	quiz.Name = req.Name
	quiz.CourseID = course.ID
	quiz.Course = course
	if err := s.Quizzes.UpdateQuiz(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *InstructorQuizService) DeleteQuiz(actorID uint, role model.Role, quizID uint) error {
	if _, err := s.ownedQuiz(actorID, role, quizID); err != nil {
		return err
	}
	return s.Quizzes.DeleteQuiz(quizID)
}

func (s *InstructorQuizService) AddQuestion(actorID uint, role model.Role, quizID uint, req QuestionReq) (*model.Question, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.ownedQuiz(actorID, role, quizID); err != nil {
		return nil, err
	}

	question := &model.Question{QuizID: quizID, Text: req.Text, Answers: req.answers()}
	if err := s.Quizzes.CreateQuestion(question); err != nil {
		return nil, err
	}
	return question, nil
}

// UpdateQuestion 整体替换题干和选项，原选项上的作答随之删除
func (s *InstructorQuizService) UpdateQuestion(actorID uint, role model.Role, quizID, questionID uint, req QuestionReq) (*model.Question, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	question, err := s.ownedQuestion(actorID, role, quizID, questionID)
	if err != nil {
		return nil, err
	}

	question.Text = req.Text
	if err := s.Quizzes.ReplaceQuestion(question, req.answers()); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *InstructorQuizService) DeleteQuestion(actorID uint, role model.Role, quizID, questionID uint) error {
	if _, err := s.ownedQuestion(actorID, role, quizID, questionID); err != nil {
		return err
	}
	return s.Quizzes.DeleteQuestion(questionID)
}

func (s *InstructorQuizService) Results(actorID uint, role model.Role, quizID uint) (*repository.QuizResults, error) {
	if _, err := s.ownedQuiz(actorID, role, quizID); err != nil {
		return nil, err
	}
	return s.Quizzes.Results(quizID)
}

// ownedQuiz 非所有者按不存在处理，管理员不受限制
func (s *InstructorQuizService) ownedQuiz(actorID uint, role model.Role, quizID uint) (*model.Quiz, error) {
	quiz, err := findQuiz(s.Quizzes, quizID)
	if err != nil {
		return nil, err
	}
	if role != model.RoleAdmin && quiz.OwnerID != actorID {
		return nil, util.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *InstructorQuizService) ownedQuestion(actorID uint, role model.Role, quizID, questionID uint) (*model.Question, error) {
	if _, err := s.ownedQuiz(actorID, role, quizID); err != nil {
		return nil, err
	}
	question, err := s.Quizzes.FindQuestionInQuiz(quizID, questionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	}
	return question, err
}

func (s *InstructorQuizService) findCourse(id uint) (*model.Course, error) {
	course, err := s.Courses.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	return course, err
}
