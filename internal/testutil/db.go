// Package testutil 测试共用的内存数据库和数据构造
package testutil

import (
	"fmt"
	"learning_backend/internal/model"
	"learning_backend/internal/repository"
	"learning_backend/pkg/database"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 每个测试一个独立的内存库，单连接保证事务串行
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig(logger.Silent))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, name string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{
		Name:                   name,
		Email:                  fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Role:                   role,
		LastAnnouncementsCheck: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := repository.NewUserRepository(db).Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateLearner 创建学员用户和档案，并关注给定课程
func CreateLearner(t *testing.T, db *gorm.DB, name string, interests ...model.Course) *model.User {
	t.Helper()
	u := CreateUser(t, db, name, model.RoleLearner)
	learner := &model.Learner{UserID: u.ID, Interests: interests}
	if err := db.Create(learner).Error; err != nil {
		t.Fatalf("create learner: %v", err)
	}
	return u
}

func CreateCourse(t *testing.T, db *gorm.DB, name string) *model.Course {
	t.Helper()
	c := &model.Course{Name: name}
	if err := repository.NewCourseRepository(db).Create(c); err != nil {
		t.Fatalf("create course: %v", err)
	}
	return c
}

// QuestionSpec 题干加选项；Correct 为正确选项下标
type QuestionSpec struct {
	Text    string
	Answers []string
	Correct []int
}

// CreateQuiz 按给定题目创建测验，返回带题目和选项的 Quiz
func CreateQuiz(t *testing.T, db *gorm.DB, owner *model.User, course *model.Course, name string, questions ...QuestionSpec) *model.Quiz {
	t.Helper()
	quiz := &model.Quiz{Name: name, OwnerID: owner.ID, CourseID: course.ID}
	for _, qs := range questions {
		q := model.Question{Text: qs.Text}
		for i, text := range qs.Answers {
			a := model.Answer{Text: text}
			for _, c := range qs.Correct {
				if c == i {
					a.IsCorrect = true
				}
			}
			q.Answers = append(q.Answers, a)
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := db.Create(quiz).Error; err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return quiz
}

// Question 按题干查找
func Question(t *testing.T, quiz *model.Quiz, text string) *model.Question {
	t.Helper()
	for i := range quiz.Questions {
		if quiz.Questions[i].Text == text {
			return &quiz.Questions[i]
		}
	}
	t.Fatalf("question %q not in quiz %q", text, quiz.Name)
	return nil
}

// Choice 按正误取题目的一个选项
func Choice(t *testing.T, q *model.Question, correct bool) *model.Answer {
	t.Helper()
	for i := range q.Answers {
		if q.Answers[i].IsCorrect == correct {
			return &q.Answers[i]
		}
	}
	t.Fatalf("question %q has no answer with correct=%v", q.Text, correct)
	return nil
}

func CreateAnnouncement(t *testing.T, db *gorm.DB, author *model.User, content string, postedAt time.Time) *model.Announcement {
	t.Helper()
	a := &model.Announcement{UserID: author.ID, Content: content, PostedAt: postedAt.UTC()}
	if err := repository.NewAnnouncementRepository(db).Create(a); err != nil {
		t.Fatalf("create announcement: %v", err)
	}
	return a
}

// AlgebraBasics 两道题的示例测验：「2+2」「3+3」
func AlgebraBasics(t *testing.T, db *gorm.DB, owner *model.User, course *model.Course) *model.Quiz {
	t.Helper()
	return CreateQuiz(t, db, owner, course, "Algebra Basics",
		QuestionSpec{Text: "2+2", Answers: []string{"3", "4"}, Correct: []int{1}},
		QuestionSpec{Text: "3+3", Answers: []string{"6", "9"}, Correct: []int{0}},
	)
}
