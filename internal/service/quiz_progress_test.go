package service

import (
	"context"
	"errors"
	"learning_backend/internal/model"
	"learning_backend/internal/testutil"
	"learning_backend/internal/util"
	"testing"

	"gorm.io/gorm"
)

func TestProgressPercent(t *testing.T) {
	cases := []struct {
		total, unanswered, want int
	}{
		{total: 2, unanswered: 2, want: 50},
		{total: 2, unanswered: 1, want: 100},
		{total: 4, unanswered: 4, want: 25},
		{total: 4, unanswered: 1, want: 100},
		{total: 1, unanswered: 1, want: 100},
		// 12.5 和 37.5 按银行家舍入分别取 12、38
		{total: 8, unanswered: 2, want: 88},
		{total: 8, unanswered: 4, want: 62},
		{total: 3, unanswered: 3, want: 33},
	}
	for _, c := range cases {
		got, err := ProgressPercent(c.total, c.unanswered)
		if err != nil {
			t.Fatalf("ProgressPercent(%d, %d): %v", c.total, c.unanswered, err)
		}
		if got != c.want {
			t.Errorf("ProgressPercent(%d, %d) = %d, want %d", c.total, c.unanswered, got, c.want)
		}
	}

	if _, err := ProgressPercent(0, 0); !errors.Is(err, util.ErrNotPlayable) {
		t.Fatalf("zero questions: got %v, want ErrNotPlayable", err)
	}
}

func TestCurrentQuestion(t *testing.T) {
	if q := CurrentQuestion(nil); q != nil {
		t.Fatalf("expected nil for empty list, got %+v", q)
	}
	qs := []model.Question{{Text: "a"}, {Text: "b"}}
	if q := CurrentQuestion(qs); q == nil || q.Text != "a" {
		t.Fatalf("expected first question, got %+v", q)
	}
}

func TestUnansweredQuestionsOrderedByText(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "teacher", model.RoleInstructor)
	course := testutil.CreateCourse(t, db, "Math")
	learner := testutil.CreateLearner(t, db, "alice", *course)

	quiz := testutil.CreateQuiz(t, db, owner, course, "Mixed",
		testutil.QuestionSpec{Text: "c", Answers: []string{"x", "y"}, Correct: []int{0}},
		testutil.QuestionSpec{Text: "a", Answers: []string{"x", "y"}, Correct: []int{0}},
		testutil.QuestionSpec{Text: "b", Answers: []string{"x", "y"}, Correct: []int{0}},
	)
	other := testutil.AlgebraBasics(t, db, owner, course)

	ctx := context.Background()
	got, err := UnansweredQuestions(ctx, db, learner.ID, quiz.ID)
	if err != nil {
		t.Fatalf("UnansweredQuestions: %v", err)
	}
	assertTexts(t, got, "a", "b", "c")

	// 其他测验的作答不影响本测验
	q := testutil.Question(t, other, "2+2")
	answer(t, db, learner.ID, q, testutil.Choice(t, q, true))

	a := testutil.Question(t, quiz, "a")
	answer(t, db, learner.ID, a, testutil.Choice(t, a, false))

	got, err = UnansweredQuestions(ctx, db, learner.ID, quiz.ID)
	if err != nil {
		t.Fatalf("UnansweredQuestions: %v", err)
	}
	assertTexts(t, got, "b", "c")

	for _, text := range []string{"b", "c"} {
		q := testutil.Question(t, quiz, text)
		answer(t, db, learner.ID, q, testutil.Choice(t, q, true))
	}
	got, err = UnansweredQuestions(ctx, db, learner.ID, quiz.ID)
	if err != nil {
		t.Fatalf("UnansweredQuestions: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no unanswered questions, got %d", len(got))
	}
}

func TestProgressAfterKAnswers(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "teacher", model.RoleInstructor)
	course := testutil.CreateCourse(t, db, "Math")
	learner := testutil.CreateLearner(t, db, "bob", *course)

	var specs []testutil.QuestionSpec
	for _, text := range []string{"q1", "q2", "q3", "q4", "q5"} {
		specs = append(specs, testutil.QuestionSpec{Text: text, Answers: []string{"x", "y"}, Correct: []int{1}})
	}
	quiz := testutil.CreateQuiz(t, db, owner, course, "Five", specs...)
	n := len(specs)

	for k := 0; k < n; k++ {
		unanswered, err := UnansweredQuestions(context.Background(), db, learner.ID, quiz.ID)
		if err != nil {
			t.Fatalf("UnansweredQuestions: %v", err)
		}
		if len(unanswered) != n-k {
			t.Fatalf("after %d answers: %d unanswered, want %d", k, len(unanswered), n-k)
		}
		got, _ := ProgressPercent(n, len(unanswered))
		want, _ := ProgressPercent(n, n-k)
		if got != want {
			t.Fatalf("after %d answers progress %d, want %d", k, got, want)
		}

		current := CurrentQuestion(unanswered)
		q := testutil.Question(t, quiz, current.Text)
		answer(t, db, learner.ID, q, testutil.Choice(t, q, true))
	}
}

func answer(t *testing.T, db *gorm.DB, learnerID uint, q *model.Question, a *model.Answer) {
	t.Helper()
	la := &model.LearnerAnswer{LearnerID: learnerID, QuestionID: q.ID, AnswerID: a.ID}
	if err := db.Create(la).Error; err != nil {
		t.Fatalf("record answer: %v", err)
	}
}

func assertTexts(t *testing.T, qs []model.Question, want ...string) {
	t.Helper()
	if len(qs) != len(want) {
		t.Fatalf("got %d questions, want %d", len(qs), len(want))
	}
	for i := range want {
		if qs[i].Text != want[i] {
			t.Fatalf("question %d = %q, want %q", i, qs[i].Text, want[i])
		}
	}
}
