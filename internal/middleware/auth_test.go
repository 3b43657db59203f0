package middleware

import (
	"learning_backend/internal/config"
	"learning_backend/internal/model"
	"learning_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret-test-secret-test-secret"

func newTestRouter(roles ...model.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}

	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/private", AuthMiddleware(cfg), RoleMiddleware(roles...), func(c *gin.Context) {
		util.Success(c, util.GetUserFromContext(c).UserID)
	})
	return r
}

func tokenFor(t *testing.T, id uint, role model.Role, secret string) string {
	t.Helper()
	token, err := util.GenerateJWT(&model.User{BaseModel: model.BaseModel{ID: id}, Role: role}, secret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func do(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newTestRouter(model.RoleLearner)

	if w := do(r, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status %d, want 401", w.Code)
	}
	if w := do(r, tokenFor(t, 1, model.RoleLearner, "another-secret")); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad signature: status %d, want 401", w.Code)
	}
	w := do(r, tokenFor(t, 1, model.RoleLearner, testSecret))
	if w.Code != http.StatusOK {
		t.Fatalf("valid token: status %d, want 200", w.Code)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatal("request id header missing")
	}
}

func TestRoleMiddleware(t *testing.T) {
	cases := []struct {
		name    string
		allowed model.Role
		role    model.Role
		want    int
	}{
		{"learner on learner route", model.RoleLearner, model.RoleLearner, http.StatusOK},
		{"instructor on learner route", model.RoleLearner, model.RoleInstructor, http.StatusForbidden},
		{"admin on learner route", model.RoleLearner, model.RoleAdmin, http.StatusForbidden},
		{"admin on instructor route", model.RoleInstructor, model.RoleAdmin, http.StatusOK},
		{"learner on instructor route", model.RoleInstructor, model.RoleLearner, http.StatusForbidden},
	}
	for _, c := range cases {
		r := newTestRouter(c.allowed)
		if w := do(r, tokenFor(t, 7, c.role, testSecret)); w.Code != c.want {
			t.Errorf("%s: status %d, want %d", c.name, w.Code, c.want)
		}
	}
}
