package service

import (
	"context"
	"errors"
	"learning_backend/internal/model"
	"learning_backend/internal/repository"
	"learning_backend/internal/testutil"
	"learning_backend/internal/util"
	"testing"

	"gorm.io/gorm"
)

func newInstructorService(t *testing.T) (*gorm.DB, *InstructorQuizService) {
	t.Helper()
	db := testutil.NewDB(t)
	return db, NewInstructorQuizService(repository.NewQuizRepository(db), repository.NewCourseRepository(db))
}

func twoAnswers(correct bool) []AnswerReq {
	return []AnswerReq{{Text: "yes", IsCorrect: correct}, {Text: "no"}}
}

func TestQuestionReqValidate(t *testing.T) {
	eleven := make([]AnswerReq, 11)
	for i := range eleven {
		eleven[i] = AnswerReq{Text: "a", IsCorrect: i == 0}
	}
	cases := []struct {
		name string
		req  QuestionReq
		ok   bool
	}{
		{"two answers one correct", QuestionReq{Text: "q", Answers: twoAnswers(true)}, true},
		{"multiple correct", QuestionReq{Text: "q", Answers: []AnswerReq{{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}}}, true},
		{"one answer", QuestionReq{Text: "q", Answers: []AnswerReq{{Text: "a", IsCorrect: true}}}, false},
		{"eleven answers", QuestionReq{Text: "q", Answers: eleven}, false},
		{"ten answers", QuestionReq{Text: "q", Answers: eleven[:10]}, true},
		{"none correct", QuestionReq{Text: "q", Answers: twoAnswers(false)}, false},
		{"blank text", QuestionReq{Text: "  ", Answers: twoAnswers(true)}, false},
		{"blank answer text", QuestionReq{Text: "q", Answers: []AnswerReq{{Text: "", IsCorrect: true}, {Text: "  "}}}, false},
	}
	for _, c := range cases {
		err := c.req.Validate()
		if c.ok && err != nil {
			t.Errorf("%s: unexpected error %v", c.name, err)
		}
		if !c.ok && !errors.Is(err, util.ErrInvalidQuestion) {
			t.Errorf("%s: got %v, want ErrInvalidQuestion", c.name, err)
		}
	}
}

func TestInstructorAuthoringFlow(t *testing.T) {
	db, svc := newInstructorService(t)
	owner := testutil.CreateUser(t, db, "teacher", model.RoleInstructor)
	course := testutil.CreateCourse(t, db, "Math")

	quiz, err := svc.CreateQuiz(owner.ID, QuizReq{Name: "Algebra", CourseID: course.ID})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if _, err := svc.CreateQuiz(owner.ID, QuizReq{Name: "x", CourseID: 999}); !errors.Is(err, util.ErrCourseNotFound) {
		t.Fatalf("unknown course: got %v", err)
	}

	q, err := svc.AddQuestion(owner.ID, owner.Role, quiz.ID, QuestionReq{Text: "2+2", Answers: twoAnswers(true)})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	if len(q.Answers) != 2 {
		t.Fatalf("answers = %d, want 2", len(q.Answers))
	}

	updated, err := svc.UpdateQuestion(owner.ID, owner.Role, quiz.ID, q.ID, QuestionReq{
		Text:    "2+3",
		Answers: []AnswerReq{{Text: "5", IsCorrect: true}, {Text: "6"}, {Text: "7"}},
	})
	if err != nil {
		t.Fatalf("update question: %v", err)
	}
	if updated.Text != "2+3" || len(updated.Answers) != 3 {
		t.Fatalf("updated = %+v", updated)
	}
	var answerCount int64
	db.Model(&model.Answer{}).Where("question_id = ?", q.ID).Count(&answerCount)
	if answerCount != 3 {
		t.Fatalf("answers in db = %d, want 3", answerCount)
	}

	rows, err := svc.ListQuizzes(owner.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].QuestionsCount != 1 || rows[0].TakenCount != 0 {
		t.Fatalf("rows = %+v", rows)
	}

	other := testutil.CreateCourse(t, db, "Physics")
	renamed, err := svc.UpdateQuiz(owner.ID, owner.Role, quiz.ID, QuizReq{Name: "Algebra II", CourseID: other.ID})
	if err != nil {
		t.Fatalf("update quiz: %v", err)
	}
	if renamed.Name != "Algebra II" || renamed.CourseID != other.ID || renamed.OwnerID != owner.ID {
		t.Fatalf("renamed = %+v", renamed)
	}

	detail, err := svc.GetQuiz(owner.ID, owner.Role, quiz.ID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(detail.Questions) != 1 || len(detail.Questions[0].Answers) != 3 {
		t.Fatalf("detail = %+v", detail)
	}
}

func TestInstructorOwnershipScope(t *testing.T) {
	db, svc := newInstructorService(t)
	owner := testutil.CreateUser(t, db, "teacher", model.RoleInstructor)
	stranger := testutil.CreateUser(t, db, "other", model.RoleInstructor)
	admin := testutil.CreateUser(t, db, "admin", model.RoleAdmin)
	course := testutil.CreateCourse(t, db, "Math")
	quiz := testutil.AlgebraBasics(t, db, owner, course)

	if _, err := svc.Results(stranger.ID, stranger.Role, quiz.ID); !errors.Is(err, util.ErrQuizNotFound) {
		t.Fatalf("stranger results: got %v, want ErrQuizNotFound", err)
	}
	if err := svc.DeleteQuiz(stranger.ID, stranger.Role, quiz.ID); !errors.Is(err, util.ErrQuizNotFound) {
		t.Fatalf("stranger delete: got %v, want ErrQuizNotFound", err)
	}
	if _, err := svc.Results(admin.ID, admin.Role, quiz.ID); err != nil {
		t.Fatalf("admin results: %v", err)
	}
	if _, err := svc.UpdateQuestion(owner.ID, owner.Role, quiz.ID, 999, QuestionReq{Text: "q", Answers: twoAnswers(true)}); !errors.Is(err, util.ErrQuestionNotFound) {
		t.Fatalf("unknown question: got %v, want ErrQuestionNotFound", err)
	}
}

func TestInstructorResultsAndCascadeDelete(t *testing.T) {
	db, svc := newInstructorService(t)
	owner := testutil.CreateUser(t, db, "teacher", model.RoleInstructor)
	course := testutil.CreateCourse(t, db, "Math")
	quiz := testutil.AlgebraBasics(t, db, owner, course)
	sub := NewQuizSubmissionService(db, repository.NewQuizRepository(db), repository.NewLearnerRepository(db), nil)

	q1 := testutil.Question(t, quiz, "2+2")
	q2 := testutil.Question(t, quiz, "3+3")
	for i, correct := range []bool{true, false} {
		learner := testutil.CreateLearner(t, db, []string{"ann", "ben"}[i], *course)
		ctx := context.Background()
		if _, err := sub.SubmitAnswer(ctx, learner.ID, quiz.ID, q1.ID, testutil.Choice(t, q1, true).ID); err != nil {
			t.Fatalf("submit: %v", err)
		}
		if _, err := sub.SubmitAnswer(ctx, learner.ID, quiz.ID, q2.ID, testutil.Choice(t, q2, correct).ID); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	res, err := svc.Results(owner.ID, owner.Role, quiz.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if res.Total != 2 || res.AverageScore == nil || *res.AverageScore != 75 {
		t.Fatalf("results = %+v, want 2 takers averaging 75", res)
	}
	if res.TakenQuizzes[0].LearnerName == "" {
		t.Fatalf("learner name missing: %+v", res.TakenQuizzes[0])
	}

	if err := svc.DeleteQuiz(owner.ID, owner.Role, quiz.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, m := range []interface{}{&model.LearnerAnswer{}, &model.TakenQuiz{}, &model.Question{}, &model.Answer{}} {
		var n int64
		db.Model(m).Count(&n)
		if n != 0 {
			t.Fatalf("%T rows left after delete: %d", m, n)
		}
	}
	if _, err := svc.Results(owner.ID, owner.Role, quiz.ID); !errors.Is(err, util.ErrQuizNotFound) {
		t.Fatalf("deleted quiz: got %v", err)
	}
}

func TestResultsWithoutTakers(t *testing.T) {
	db, svc := newInstructorService(t)
	owner := testutil.CreateUser(t, db, "teacher", model.RoleInstructor)
	quiz := testutil.AlgebraBasics(t, db, owner, testutil.CreateCourse(t, db, "Math"))

	res, err := svc.Results(owner.ID, owner.Role, quiz.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if res.Total != 0 || res.AverageScore != nil {
		t.Fatalf("results = %+v, want empty with nil average", res)
	}
}
