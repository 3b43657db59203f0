package service

import (
	"learning_backend/internal/model"
	"learning_backend/internal/repository"
	"learning_backend/internal/util"
)

type LearnerQuizService struct {
	Quizzes  *repository.QuizRepository
	Learners *repository.LearnerRepository
	Courses  *repository.CourseRepository
}

func NewLearnerQuizService(quizzes *repository.QuizRepository, learners *repository.LearnerRepository, courses *repository.CourseRepository) *LearnerQuizService {
	return &LearnerQuizService{Quizzes: quizzes, Learners: learners, Courses: courses}
}

type InterestsReq struct {
	CourseIDs []uint `json:"courseIds"`
}

// AvailableQuizzes 感兴趣课程下、未完成且有题目的测验
func (s *LearnerQuizService) AvailableQuizzes(learnerID uint) ([]model.Quiz, error) {
	if _, err := s.ensureLearner(learnerID); err != nil {
		return nil, err
	}
	return s.Quizzes.ListAvailableForLearner(learnerID)
}

func (s *LearnerQuizService) TakenQuizzes(learnerID uint) ([]model.TakenQuiz, error) {
	return s.Learners.ListTakenQuizzes(learnerID)
}

// UpdateInterests 用给定课程整体替换学员的兴趣
func (s *LearnerQuizService) UpdateInterests(learnerID uint, req InterestsReq) ([]model.Course, error) {
	ids := uniqueIDs(req.CourseIDs)
	courses, err := s.Courses.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(courses) != len(ids) {
		return nil, util.ErrCourseNotFound
	}

	learner, err := s.ensureLearner(learnerID)
	if err != nil {
		return nil, err
	}
	if err := s.Learners.ReplaceInterests(learner, courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (s *LearnerQuizService) ensureLearner(userID uint) (*model.Learner, error) {
	learner, err := s.Learners.EnsureLearner(userID)
	if err != nil && util.IsDuplicateKey(err) {
		return s.Learners.FindWithInterests(userID)
	}
	return learner, err
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
