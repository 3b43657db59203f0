package service

import (
	"context"
	"errors"
	"fmt"
	"learning_backend/internal/model"
	"learning_backend/internal/repository"
	"learning_backend/internal/util"
	"learning_backend/pkg/lock"
	"learning_backend/pkg/logger"
	"learning_backend/pkg/monitoring"
	"learning_backend/pkg/tracing"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type QuizStatus string

const (
	StatusNotStarted QuizStatus = "NOT_STARTED"
	StatusInProgress QuizStatus = "IN_PROGRESS"
	StatusCompleted  QuizStatus = "COMPLETED"
)

type SubmissionOutcome string

const (
	OutcomeContinue  SubmissionOutcome = "continue"
	OutcomeCompleted SubmissionOutcome = "completed"
)

// 及格线，固定规则
var passScore = decimal.NewFromInt(50)

// AnswerOption 展示给学员的选项，不含正误
type AnswerOption struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type QuestionView struct {
	ID      uint           `json:"id"`
	Text    string         `json:"text"`
	Answers []AnswerOption `json:"answers"`
}

type QuizState struct {
	QuizID    uint             `json:"quizId"`
	QuizName  string           `json:"quizName"`
	Status    QuizStatus       `json:"status"`
	Question  *QuestionView    `json:"question,omitempty"`
	Progress  int              `json:"progress"`
	Total     int              `json:"total"`
	Answered  int              `json:"answered"`
	TakenQuiz *model.TakenQuiz `json:"takenQuiz,omitempty"`
}

// SubmissionResult Continue 时带下一题和进度，Completed 时带得分
type SubmissionResult struct {
	Outcome      SubmissionOutcome `json:"outcome"`
	NextQuestion *QuestionView     `json:"nextQuestion,omitempty"`
	// Progress 为本次作答前的进度，不是下一题的进度
	Progress     int               `json:"progress"`
	Score        float64           `json:"score"`
	Passed       bool              `json:"passed"`
	Message      string            `json:"message,omitempty"`
	TakenQuiz    *model.TakenQuiz  `json:"takenQuiz,omitempty"`
}

type SubmitAnswerReq struct {
	QuestionID uint `json:"questionId" binding:"required"`
	AnswerID   uint `json:"answerId" binding:"required"`
}

type QuizSubmissionService struct {
	DB       *gorm.DB
	Quizzes  *repository.QuizRepository
	Learners *repository.LearnerRepository
	Locker   lock.Locker
	Now      func() time.Time
}

func NewQuizSubmissionService(db *gorm.DB, quizzes *repository.QuizRepository, learners *repository.LearnerRepository, locker lock.Locker) *QuizSubmissionService {
	if locker == nil {
		locker = lock.Noop{}
	}
	return &QuizSubmissionService{
		DB:       db,
		Quizzes:  quizzes,
		Learners: learners,
		Locker:   locker,
		Now:      time.Now,
	}
}

func submitLockKey(learnerID, quizID uint) string {
	return fmt.Sprintf("quiz:submit:%d:%d", learnerID, quizID)
}

// State 学员打开测验页面时看到的状态
func (s *QuizSubmissionService) State(ctx context.Context, learnerID, quizID uint) (*QuizState, error) {
	ctx, span := tracing.Tracer().Start(ctx, "QuizSubmissionService.State")
	defer span.End()
	span.SetAttributes(attribute.Int("learner.id", int(learnerID)), attribute.Int("quiz.id", int(quizID)))

	db := s.DB.WithContext(ctx)
	quizzes := s.Quizzes.WithTx(db)
	learners := s.Learners.WithTx(db)

	quiz, err := findQuiz(quizzes, quizID)
	if err != nil {
		return nil, err
	}

	state := &QuizState{QuizID: quiz.ID, QuizName: quiz.Name}

	taken, err := learners.FindTakenQuiz(learnerID, quizID)
	if err != nil {
		return nil, err
	}
	if taken != nil {
		return completedState(state, taken, quizzes)
	}

	total, err := quizzes.CountQuestions(quizID)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, util.ErrNotPlayable
	}

	unanswered, err := UnansweredQuestions(ctx, db, learnerID, quizID)
	if err != nil {
		return nil, err
	}

	if len(unanswered) == 0 {
		// 题目被删导致作答已齐但没有完成记录，这里补上
		res, err := s.finalizeDangling(ctx, learnerID, quiz)
		if err != nil {
			return nil, err
		}
		return completedState(state, res.TakenQuiz, quizzes)
	}

	current := CurrentQuestion(unanswered)
	if err := quizzes.LoadAnswers(current); err != nil {
		return nil, err
	}
	if len(current.Answers) < 2 {
		return nil, util.ErrNotPlayable
	}

	progress, err := ProgressPercent(int(total), len(unanswered))
	if err != nil {
		return nil, err
	}

	state.Total = int(total)
	state.Answered = int(total) - len(unanswered)
	state.Status = StatusInProgress
	if state.Answered == 0 {
		state.Status = StatusNotStarted
	}
	state.Question = toQuestionView(current)
	state.Progress = progress
	return state, nil
}

func completedState(state *QuizState, taken *model.TakenQuiz, quizzes *repository.QuizRepository) (*QuizState, error) {
	total, err := quizzes.CountQuestions(state.QuizID)
	if err != nil {
		return nil, err
	}
	state.Status = StatusCompleted
	state.TakenQuiz = taken
	state.Total = int(total)
	state.Answered = int(total)
	state.Progress = 100
	return state, nil
}

// SubmitAnswer 记录一次作答。整个过程在一个事务里并锁住学员行：
// 已完成、不可作答、选项不匹配、重复作答都不会写入任何数据
func (s *QuizSubmissionService) SubmitAnswer(ctx context.Context, learnerID, quizID, questionID, answerID uint) (result *SubmissionResult, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "QuizSubmissionService.SubmitAnswer")
	defer span.End()
	span.SetAttributes(
		attribute.Int("learner.id", int(learnerID)),
		attribute.Int("quiz.id", int(quizID)),
		attribute.Int("question.id", int(questionID)),
	)

	defer func() {
		outcome := submissionOutcome(result, err)
		monitoring.QuizSubmissions.WithLabelValues(outcome).Inc()
		if err != nil && outcome == "error" {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	unlock := lock.Acquire(ctx, s.Locker, submitLockKey(learnerID, quizID))
	defer unlock()

	if err := s.ensureLearner(ctx, learnerID); err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quizzes := s.Quizzes.WithTx(tx)
		learners := s.Learners.WithTx(tx)

		if _, err := learners.Lock(learnerID); err != nil {
			return fmt.Errorf("lock learner: %w", err)
		}

		quiz, err := findQuiz(quizzes, quizID)
		if err != nil {
			return err
		}

		taken, err := learners.FindTakenQuiz(learnerID, quizID)
		if err != nil {
			return err
		}
		if taken != nil {
			return util.ErrAlreadyCompleted
		}

		total, err := quizzes.CountQuestions(quizID)
		if err != nil {
			return err
		}
		if total == 0 {
			return util.ErrNotPlayable
		}

		question, err := quizzes.FindQuestionInQuiz(quizID, questionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrInvalidChoice
		}
		if err != nil {
			return err
		}
		if !hasAnswer(question, answerID) {
			return util.ErrInvalidChoice
		}
		if len(question.Answers) < 2 {
			return util.ErrNotPlayable
		}

		before, err := UnansweredQuestions(ctx, tx, learnerID, quizID)
		if err != nil {
			return err
		}

		answered, err := learners.HasAnswered(learnerID, questionID)
		if err != nil {
			return err
		}
		if answered {
			// 上一次提交写入了最后一题但没有生成完成记录，重试时补上
			if len(before) == 0 {
				result, err = s.finalize(ctx, tx, learnerID, quiz, total)
				return err
			}
			return util.ErrDuplicateAnswer
		}

		la := &model.LearnerAnswer{LearnerID: learnerID, QuestionID: questionID, AnswerID: answerID}
		if err := learners.CreateAnswer(la); err != nil {
			if util.IsDuplicateKey(err) {
				return util.ErrDuplicateAnswer
			}
			return err
		}

		remaining, err := UnansweredQuestions(ctx, tx, learnerID, quizID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			result, err = s.finalize(ctx, tx, learnerID, quiz, total)
			return err
		}

		progress, err := ProgressPercent(int(total), len(before))
		if err != nil {
			return err
		}
		next := CurrentQuestion(remaining)
		if err := quizzes.LoadAnswers(next); err != nil {
			return err
		}
		result = &SubmissionResult{
			Outcome:      OutcomeContinue,
			NextQuestion: toQuestionView(next),
			Progress:     progress,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// finalizeDangling 在独立事务中为作答已齐的尝试生成完成记录
func (s *QuizSubmissionService) finalizeDangling(ctx context.Context, learnerID uint, quiz *model.Quiz) (*SubmissionResult, error) {
	unlock := lock.Acquire(ctx, s.Locker, submitLockKey(learnerID, quiz.ID))
	defer unlock()

	if err := s.ensureLearner(ctx, learnerID); err != nil {
		return nil, err
	}

	var result *SubmissionResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		learners := s.Learners.WithTx(tx)
		if _, err := learners.Lock(learnerID); err != nil {
			return fmt.Errorf("lock learner: %w", err)
		}
		taken, err := learners.FindTakenQuiz(learnerID, quiz.ID)
		if err != nil {
			return err
		}
		if taken != nil {
			result = &SubmissionResult{
				Outcome:   OutcomeCompleted,
				Score:     taken.Score,
				Passed:    decimal.NewFromFloat(taken.Score).GreaterThanOrEqual(passScore),
				TakenQuiz: taken,
			}
			return nil
		}
		total, err := s.Quizzes.WithTx(tx).CountQuestions(quiz.ID)
		if err != nil {
			return err
		}
		if total == 0 {
			return util.ErrNotPlayable
		}
		result, err = s.finalize(ctx, tx, learnerID, quiz, total)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// finalize 计算得分并写入唯一的完成记录
func (s *QuizSubmissionService) finalize(ctx context.Context, tx *gorm.DB, learnerID uint, quiz *model.Quiz, total int64) (*SubmissionResult, error) {
	learners := s.Learners.WithTx(tx)

	correct, err := learners.CountCorrectInQuiz(learnerID, quiz.ID)
	if err != nil {
		return nil, err
	}

	score := ComputeScore(correct, total)
	scoreValue, _ := score.Float64()

	taken := &model.TakenQuiz{
		LearnerID: learnerID,
		QuizID:    quiz.ID,
		Score:     scoreValue,
		Date:      s.Now().UTC(),
	}
	if err := learners.CreateTakenQuiz(taken); err != nil {
		if util.IsDuplicateKey(err) {
			return nil, util.ErrAlreadyCompleted
		}
		return nil, err
	}

	passed := score.GreaterThanOrEqual(passScore)
	monitoring.QuizScores.Observe(scoreValue)
	logger.Log.Info("quiz completed",
		zap.Uint("learner_id", learnerID),
		zap.Uint("quiz_id", quiz.ID),
		zap.String("score", score.StringFixed(2)),
		zap.Bool("passed", passed),
	)

	return &SubmissionResult{
		Outcome:   OutcomeCompleted,
		Score:     scoreValue,
		Passed:    passed,
		Message:   completionMessage(quiz.Name, score, passed),
		TakenQuiz: taken,
	}, nil
}

// ComputeScore correct*100/total，保留两位小数（银行家舍入）
func ComputeScore(correct, total int64) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(correct * 100).Div(decimal.NewFromInt(total)).RoundBank(2)
}

func completionMessage(quizName string, score decimal.Decimal, passed bool) string {
	if passed {
		return fmt.Sprintf("Congratulations! You completed the quiz %s with success! You scored %s points.", quizName, formatScore(score))
	}
	return fmt.Sprintf("Better luck next time! Your score for the quiz %s was %s.", quizName, formatScore(score))
}

// formatScore 整数分显示为 75.0，其余保留实际小数位
func formatScore(score decimal.Decimal) string {
	if score.Equal(score.Truncate(0)) {
		return score.StringFixed(1)
	}
	return score.String()
}

func (s *QuizSubmissionService) ensureLearner(ctx context.Context, userID uint) error {
	_, err := s.Learners.WithTx(s.DB.WithContext(ctx)).EnsureLearner(userID)
	if err != nil && !util.IsDuplicateKey(err) {
		return fmt.Errorf("ensure learner: %w", err)
	}
	return nil
}

func findQuiz(quizzes *repository.QuizRepository, quizID uint) (*model.Quiz, error) {
	quiz, err := quizzes.FindQuizByID(quizID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	return quiz, err
}

func hasAnswer(q *model.Question, answerID uint) bool {
	for _, a := range q.Answers {
		if a.ID == answerID {
			return true
		}
	}
	return false
}

func toQuestionView(q *model.Question) *QuestionView {
	v := &QuestionView{ID: q.ID, Text: q.Text, Answers: make([]AnswerOption, 0, len(q.Answers))}
	for _, a := range q.Answers {
		v.Answers = append(v.Answers, AnswerOption{ID: a.ID, Text: a.Text})
	}
	return v
}

func submissionOutcome(result *SubmissionResult, err error) string {
	switch {
	case err == nil && result != nil:
		return string(result.Outcome)
	case errors.Is(err, util.ErrAlreadyCompleted):
		return "already_completed"
	case errors.Is(err, util.ErrInvalidChoice):
		return "invalid_choice"
	case errors.Is(err, util.ErrDuplicateAnswer):
		return "duplicate_answer"
	case errors.Is(err, util.ErrNotPlayable):
		return "not_playable"
	case errors.Is(err, util.ErrQuizNotFound):
		return "not_found"
	}
	return "error"
}
