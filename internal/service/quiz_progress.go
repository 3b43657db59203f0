package service

import (
	"context"
	"learning_backend/internal/model"
	"learning_backend/internal/repository"
	"learning_backend/internal/util"
	"math"

	"gorm.io/gorm"
)

// UnansweredQuestions 学员在该测验中尚未作答的题目，按题干排序；db 可以是事务句柄
func UnansweredQuestions(ctx context.Context, db *gorm.DB, learnerID, quizID uint) ([]model.Question, error) {
	return repository.NewQuizRepository(db.WithContext(ctx)).UnansweredQuestions(learnerID, quizID)
}

// ProgressPercent 100 - round((unanswered-1)/total*100)，取整为四舍六入五成双。
// 一题未答时结果也不为 0，前端一直按这个值显示
func ProgressPercent(total, unanswered int) (int, error) {
	if total <= 0 {
		return 0, util.ErrNotPlayable
	}
	ratio := float64(unanswered-1) / float64(total) * 100
	return 100 - int(math.RoundToEven(ratio)), nil
}

// CurrentQuestion 下一道要展示的题目，全部答完时为 nil
func CurrentQuestion(unanswered []model.Question) *model.Question {
	if len(unanswered) == 0 {
		return nil
	}
	return &unanswered[0]
}
