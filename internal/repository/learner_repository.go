package repository

import (
	"errors"
	"learning_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LearnerRepository struct {
	DB *gorm.DB
}

func NewLearnerRepository(db *gorm.DB) *LearnerRepository {
	return &LearnerRepository{DB: db}
}

func (r *LearnerRepository) WithTx(tx *gorm.DB) *LearnerRepository {
	return &LearnerRepository{DB: tx}
}

// EnsureLearner 学员档案在首次使用时创建
func (r *LearnerRepository) EnsureLearner(userID uint) (*model.Learner, error) {
	learner := model.Learner{UserID: userID}
	err := r.DB.Where(model.Learner{UserID: userID}).FirstOrCreate(&learner).Error
	return &learner, err
}

// Lock 对学员行加锁，同一学员的提交在此排队
func (r *LearnerRepository) Lock(userID uint) (*model.Learner, error) {
	var learner model.Learner
	err := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).First(&learner).Error
	return &learner, err
}

// FindTakenQuiz 未完成时返回 nil, nil
func (r *LearnerRepository) FindTakenQuiz(learnerID, quizID uint) (*model.TakenQuiz, error) {
	var taken model.TakenQuiz
	err := r.DB.Where("learner_id = ? AND quiz_id = ?", learnerID, quizID).First(&taken).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &taken, nil
}

func (r *LearnerRepository) HasAnswered(learnerID, questionID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.LearnerAnswer{}).
		Where("learner_id = ? AND question_id = ?", learnerID, questionID).
		Count(&count).Error
	return count > 0, err
}

func (r *LearnerRepository) CreateAnswer(answer *model.LearnerAnswer) error {
	return r.DB.Create(answer).Error
}

// CountAnsweredInQuiz 学员在该测验内已作答的题目数
func (r *LearnerRepository) CountAnsweredInQuiz(learnerID, quizID uint) (int64, error) {
	var count int64
	err := r.DB.Table("learner_answers la").
		Joins("JOIN questions q ON q.id = la.question_id").
		Where("la.learner_id = ? AND q.quiz_id = ? AND q.deleted_at IS NULL", learnerID, quizID).
		Count(&count).Error
	return count, err
}

// CountCorrectInQuiz 答对的题目数（按题目去重）
func (r *LearnerRepository) CountCorrectInQuiz(learnerID, quizID uint) (int64, error) {
	var count int64
	err := r.DB.Table("learner_answers la").
		Select("COUNT(DISTINCT a.question_id)").
		Joins("JOIN answers a ON a.id = la.answer_id").
		Joins("JOIN questions q ON q.id = a.question_id").
		Where("la.learner_id = ? AND q.quiz_id = ? AND a.is_correct = ?", learnerID, quizID, true).
		Where("q.deleted_at IS NULL AND a.deleted_at IS NULL").
		Scan(&count).Error
	return count, err
}

func (r *LearnerRepository) CreateTakenQuiz(taken *model.TakenQuiz) error {
	return r.DB.Create(taken).Error
}

// ListTakenQuizzes 按测验名称排序
func (r *LearnerRepository) ListTakenQuizzes(learnerID uint) ([]model.TakenQuiz, error) {
	var taken []model.TakenQuiz
	err := r.DB.Preload("Quiz.Course").
		Joins("JOIN quizzes ON quizzes.id = taken_quizzes.quiz_id").
		Where("taken_quizzes.learner_id = ?", learnerID).
		Order("quizzes.name ASC").
		Find(&taken).Error
	return taken, err
}

func (r *LearnerRepository) FindWithInterests(userID uint) (*model.Learner, error) {
	var learner model.Learner
	err := r.DB.Preload("Interests").Where("user_id = ?", userID).First(&learner).Error
	return &learner, err
}

func (r *LearnerRepository) ReplaceInterests(learner *model.Learner, courses []model.Course) error {
	return r.DB.Model(learner).Association("Interests").Replace(courses)
}
