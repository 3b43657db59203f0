package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"learning_backend/internal/config"
	"learning_backend/internal/model"
	"learning_backend/internal/testutil"
	"learning_backend/internal/util"
	"learning_backend/pkg/logger"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const testSecret = "app-test-secret-app-test-secret-0123"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type harness struct {
	t   *testing.T
	db  *gorm.DB
	app *App
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		JWT:          config.JWTConfig{Secret: testSecret, ExpireTime: time.Hour},
		RateLimit:    config.RateLimitConfig{MaxRequests: 10000, WindowMinutes: 1},
		Notification: config.NotificationConfig{MaxPollRetries: 3},
	}
	db := testutil.NewDB(t)
	a := Build(cfg, db, nil)
	t.Cleanup(func() { a.rateLimiter.Stop() })
	return &harness{t: t, db: db, app: a}
}

func (h *harness) token(u *model.User) string {
	h.t.Helper()
	tok, err := util.GenerateJWT(u, testSecret, time.Hour)
	if err != nil {
		h.t.Fatalf("token: %v", err)
	}
	return tok
}

func (h *harness) do(method, path, token string, body interface{}) (int, envelope) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.app.Router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			h.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode data %s: %v", raw, err)
	}
	return v
}

func TestQuizFlowOverHTTP(t *testing.T) {
	h := newHarness(t)
	instructor := testutil.CreateUser(t, h.db, "teacher", model.RoleInstructor)
	learner := testutil.CreateUser(t, h.db, "alice", model.RoleLearner)
	course := testutil.CreateCourse(t, h.db, "Math")
	it, lt := h.token(instructor), h.token(learner)

	code, env := h.do(http.MethodPost, "/api/instructor/quizzes", it, gin.H{"name": "Algebra Basics", "courseId": course.ID})
	if code != http.StatusCreated {
		t.Fatalf("create quiz: %d %s", code, env.Message)
	}
	quiz := decode[model.Quiz](t, env.Data)

	type questionResp struct {
		ID      uint `json:"id"`
		Answers []struct {
			ID        uint `json:"id"`
			IsCorrect bool `json:"isCorrect"`
		} `json:"answers"`
	}
	questions := map[string]questionResp{}
	for _, q := range []struct{ text, right, wrong string }{{"2+2", "4", "5"}, {"3+3", "6", "7"}} {
		code, env = h.do(http.MethodPost, fmt.Sprintf("/api/instructor/quizzes/%d/questions", quiz.ID), it, gin.H{
			"text":    q.text,
			"answers": []gin.H{{"text": q.right, "isCorrect": true}, {"text": q.wrong}},
		})
		if code != http.StatusCreated {
			t.Fatalf("add question: %d %s", code, env.Message)
		}
		questions[q.text] = decode[questionResp](t, env.Data)
	}

	// 只有一个选项的题目被拒绝
	code, _ = h.do(http.MethodPost, fmt.Sprintf("/api/instructor/quizzes/%d/questions", quiz.ID), it, gin.H{
		"text": "bad", "answers": []gin.H{{"text": "x", "isCorrect": true}},
	})
	if code != http.StatusBadRequest {
		t.Fatalf("invalid question: status %d, want 400", code)
	}

	code, _ = h.do(http.MethodPut, "/api/learner/interests", lt, gin.H{"courseIds": []uint{course.ID}})
	if code != http.StatusOK {
		t.Fatalf("interests: %d", code)
	}

	code, env = h.do(http.MethodGet, "/api/learner/quizzes", lt, nil)
	if code != http.StatusOK || len(decode[[]model.Quiz](t, env.Data)) != 1 {
		t.Fatalf("available quizzes: %d %s", code, env.Data)
	}

	code, env = h.do(http.MethodGet, fmt.Sprintf("/api/learner/quizzes/%d", quiz.ID), lt, nil)
	if code != http.StatusOK {
		t.Fatalf("state: %d", code)
	}
	state := decode[map[string]interface{}](t, env.Data)
	if state["status"] != "NOT_STARTED" || state["progress"].(float64) != 50 {
		t.Fatalf("state = %v", state)
	}

	correct := func(text string) uint {
		for _, a := range questions[text].Answers {
			if a.IsCorrect {
				return a.ID
			}
		}
		t.Fatalf("no correct answer for %s", text)
		return 0
	}
	submit := func(text string, answerID uint) (int, envelope) {
		return h.do(http.MethodPost, fmt.Sprintf("/api/learner/quizzes/%d/answers", quiz.ID), lt,
			gin.H{"questionId": questions[text].ID, "answerId": answerID})
	}

	// 选项不属于该题
	if code, _ := submit("2+2", correct("3+3")); code != http.StatusBadRequest {
		t.Fatalf("invalid choice: status %d, want 400", code)
	}

	code, env = submit("2+2", correct("2+2"))
	if code != http.StatusOK {
		t.Fatalf("submit Q1: %d %s", code, env.Message)
	}
	res := decode[map[string]interface{}](t, env.Data)
	if res["outcome"] != "continue" || res["progress"].(float64) != 50 {
		t.Fatalf("Q1 result = %v", res)
	}

	if code, _ := submit("2+2", correct("2+2")); code != http.StatusConflict {
		t.Fatalf("duplicate answer: status %d, want 409", code)
	}

	code, env = submit("3+3", correct("3+3"))
	if code != http.StatusOK {
		t.Fatalf("submit Q2: %d %s", code, env.Message)
	}
	res = decode[map[string]interface{}](t, env.Data)
	if res["outcome"] != "completed" || res["score"].(float64) != 100 {
		t.Fatalf("Q2 result = %v", res)
	}

	code, env = submit("3+3", correct("3+3"))
	if code != http.StatusConflict {
		t.Fatalf("after completion: status %d, want 409", code)
	}
	if redirect := decode[map[string]string](t, env.Data)["redirect"]; redirect != "/api/learner/taken-quizzes" {
		t.Fatalf("redirect = %q", redirect)
	}

	code, env = h.do(http.MethodGet, "/api/learner/taken-quizzes", lt, nil)
	if code != http.StatusOK || len(decode[[]model.TakenQuiz](t, env.Data)) != 1 {
		t.Fatalf("taken: %d %s", code, env.Data)
	}

	code, env = h.do(http.MethodGet, fmt.Sprintf("/api/instructor/quizzes/%d/results", quiz.ID), it, nil)
	if code != http.StatusOK {
		t.Fatalf("results: %d", code)
	}
	results := decode[map[string]interface{}](t, env.Data)
	if results["total"].(float64) != 1 || results["averageScore"].(float64) != 100 {
		t.Fatalf("results = %v", results)
	}
}

func TestRoleGates(t *testing.T) {
	h := newHarness(t)
	learner := testutil.CreateUser(t, h.db, "alice", model.RoleLearner)
	admin := testutil.CreateUser(t, h.db, "root", model.RoleAdmin)

	if code, _ := h.do(http.MethodGet, "/api/learner/quizzes", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d, want 401", code)
	}
	if code, _ := h.do(http.MethodGet, "/api/instructor/quizzes", h.token(learner), nil); code != http.StatusForbidden {
		t.Fatalf("learner on instructor route: status %d, want 403", code)
	}
	if code, _ := h.do(http.MethodGet, "/api/instructor/quizzes", h.token(admin), nil); code != http.StatusOK {
		t.Fatalf("admin on instructor route: status %d, want 200", code)
	}
	if code, _ := h.do(http.MethodGet, "/api/learner/quizzes/abc", h.token(learner), nil); code != http.StatusBadRequest {
		t.Fatalf("bad id: status %d, want 400", code)
	}
	if code, _ := h.do(http.MethodGet, "/api/learner/quizzes/999", h.token(learner), nil); code != http.StatusNotFound {
		t.Fatalf("unknown quiz: status %d, want 404", code)
	}
}

func TestNotificationsOverHTTP(t *testing.T) {
	h := newHarness(t)
	admin := testutil.CreateUser(t, h.db, "root", model.RoleAdmin)
	user := testutil.CreateUser(t, h.db, "alice", model.RoleLearner)
	testutil.CreateAnnouncement(t, h.db, admin, "welcome", time.Now().Add(-time.Minute))
	tok := h.token(user)

	code, env := h.do(http.MethodGet, "/api/notifications", tok, nil)
	if code != http.StatusOK {
		t.Fatalf("poll: %d", code)
	}
	first := decode[map[string]interface{}](t, env.Data)
	if first["count"].(float64) != 1 {
		t.Fatalf("first poll = %v", first)
	}

	_, env = h.do(http.MethodGet, "/api/notifications", tok, nil)
	if second := decode[map[string]interface{}](t, env.Data); second["count"].(float64) != 0 {
		t.Fatalf("second poll = %v", second)
	}

	if code, _ := h.do(http.MethodPost, "/api/notifications/clear", tok, nil); code != http.StatusOK {
		t.Fatalf("clear: %d", code)
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	code, env := h.do(http.MethodGet, "/api/health", "", nil)
	if code != http.StatusOK {
		t.Fatalf("health: %d %s", code, env.Message)
	}
}

func TestApplyConfigUpdatesLogLevel(t *testing.T) {
	h := newHarness(t)
	h.app.ApplyConfig(&config.Config{
		Server:    config.ServerConfig{Mode: "release"},
		RateLimit: config.RateLimitConfig{MaxRequests: 5, WindowMinutes: 1},
	})
	if logger.Level() != zapcore.InfoLevel {
		t.Fatalf("log level = %v, want info", logger.Level())
	}
	if code, _ := h.do(http.MethodGet, "/api/health", "", nil); code != http.StatusOK {
		t.Fatalf("health after reload: %d", code)
	}
}
