package repository

import (
	"learning_backend/internal/model"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

// WithTx 返回绑定到事务的副本
func (r *QuizRepository) WithTx(tx *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: tx}
}

func (r *QuizRepository) CreateQuiz(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindQuizByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := r.DB.Preload("Course").First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) UpdateQuiz(quiz *model.Quiz) error {
	return r.DB.Model(quiz).Select("name", "course_id").Updates(quiz).Error
}

// DeleteQuiz 级联删除题目、选项、学员作答和完成记录
func (r *QuizRepository) DeleteQuiz(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		questionIDs := tx.Model(&model.Question{}).Select("id").Where("quiz_id = ?", id)

		if err := tx.Where("question_id IN (?)", questionIDs).Delete(&model.LearnerAnswer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id IN (?)", questionIDs).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&model.TakenQuiz{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Quiz{}, id).Error
	})
}

type QuizListRow struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	CourseID       uint      `json:"courseId"`
	OwnerID        uint      `json:"ownerId"`
	CreatedAt      time.Time `json:"createdAt"`
	QuestionsCount int64     `json:"questionsCount"`
	TakenCount     int64     `json:"takenCount"`
}

// ListOwnedQuizzes 讲师自己的测验，附带题目数和完成人数
func (r *QuizRepository) ListOwnedQuizzes(ownerID uint) ([]QuizListRow, error) {
	var rows []QuizListRow
	err := r.DB.Table("quizzes q").
		Select("q.id, q.name, q.course_id, q.owner_id, q.created_at, "+
			"(SELECT COUNT(*) FROM questions qs WHERE qs.quiz_id = q.id AND qs.deleted_at IS NULL) AS questions_count, "+
			"(SELECT COUNT(*) FROM taken_quizzes tq WHERE tq.quiz_id = q.id) AS taken_count").
		Where("q.owner_id = ? AND q.deleted_at IS NULL", ownerID).
		Order("q.name ASC").
		Scan(&rows).Error
	return rows, err
}

// ListAvailableForLearner 学员感兴趣课程下、尚未完成且至少有一道题的测验
func (r *QuizRepository) ListAvailableForLearner(learnerID uint) ([]model.Quiz, error) {
	interests := r.DB.Table("learner_interests").Select("course_id").Where("learner_id = ?", learnerID)
	taken := r.DB.Model(&model.TakenQuiz{}).Select("quiz_id").Where("learner_id = ?", learnerID)
	withQuestions := r.DB.Model(&model.Question{}).Select("quiz_id")

	var quizzes []model.Quiz
	err := r.DB.Preload("Course").
		Where("course_id IN (?)", interests).
		Where("id NOT IN (?)", taken).
		Where("id IN (?)", withQuestions).
		Order("name ASC").
		Find(&quizzes).Error
	return quizzes, err
}

func (r *QuizRepository) CountQuestions(quizID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).Where("quiz_id = ?", quizID).Count(&count).Error
	return count, err
}

// FindQuestionInQuiz 题目必须属于该测验，附带选项
func (r *QuizRepository) FindQuestionInQuiz(quizID, questionID uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.Preload("Answers", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Where("quiz_id = ?", quizID).First(&q, questionID).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuizRepository) LoadAnswers(question *model.Question) error {
	return r.DB.Where("question_id = ?", question.ID).Order("id ASC").Find(&question.Answers).Error
}

// UnansweredQuestions 按题干升序（再按 id）返回学员尚未作答的题目。
// 已答集合经 learner_answers -> answers -> questions 关联限定在该测验内
func (r *QuizRepository) UnansweredQuestions(learnerID, quizID uint) ([]model.Question, error) {
	answered := r.DB.Table("learner_answers la").
		Select("a.question_id").
		Joins("JOIN answers a ON a.id = la.answer_id").
		Joins("JOIN questions q ON q.id = a.question_id").
		Where("la.learner_id = ? AND q.quiz_id = ?", learnerID, quizID)

	var questions []model.Question
	err := r.DB.Where("quiz_id = ?", quizID).
		Where("id NOT IN (?)", answered).
		Order("text ASC").
		Order("id ASC").
		Find(&questions).Error
	return questions, err
}

func (r *QuizRepository) CreateQuestion(question *model.Question) error {
	return r.DB.Create(question).Error
}

// ReplaceQuestion 更新题干并整体替换选项；被替换选项上的学员作答一并删除
func (r *QuizRepository) ReplaceQuestion(question *model.Question, answers []model.Answer) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Question{}).Where("id = ?", question.ID).Update("text", question.Text).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", question.ID).Delete(&model.LearnerAnswer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", question.ID).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		for i := range answers {
			answers[i].ID = 0
			answers[i].QuestionID = question.ID
		}
		if err := tx.Create(&answers).Error; err != nil {
			return err
		}
		question.Answers = answers
		return nil
	})
}

func (r *QuizRepository) DeleteQuestion(questionID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", questionID).Delete(&model.LearnerAnswer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", questionID).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Question{}, questionID).Error
	})
}

type QuizResults struct {
	TakenQuizzes []TakenQuizRow `json:"takenQuizzes"`
	Total        int64          `json:"total"`
	AverageScore *float64       `json:"averageScore"`
}

type TakenQuizRow struct {
	ID          uint      `json:"id"`
	LearnerID   uint      `json:"learnerId"`
	LearnerName string    `json:"learnerName"`
	Score       float64   `json:"score"`
	Date        time.Time `json:"date"`
}

// Results 完成记录按时间倒序，附带平均分（无人完成时为 null）
func (r *QuizRepository) Results(quizID uint) (*QuizResults, error) {
	res := &QuizResults{}
	err := r.DB.Table("taken_quizzes tq").
		Select("tq.id, tq.learner_id, u.name AS learner_name, tq.score, tq.date").
		Joins("JOIN users u ON u.id = tq.learner_id").
		Where("tq.quiz_id = ?", quizID).
		Order("tq.date DESC").
		Scan(&res.TakenQuizzes).Error
	if err != nil {
		return nil, err
	}

	res.Total = int64(len(res.TakenQuizzes))
	if res.Total > 0 {
		sum := decimal.Zero
		for _, t := range res.TakenQuizzes {
			sum = sum.Add(decimal.NewFromFloat(t.Score))
		}
		avg, _ := sum.Div(decimal.NewFromInt(res.Total)).RoundBank(2).Float64()
		res.AverageScore = &avg
	}
	return res, nil
}
