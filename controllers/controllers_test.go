package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/diceraja/config"
	"github.com/cppla/diceraja/controllers"
	"github.com/cppla/diceraja/internal/testdb"
	"github.com/cppla/diceraja/middleware"
	"github.com/cppla/diceraja/models"
	"github.com/cppla/diceraja/rewards"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	config.Set(config.AppConfig{JWTSecret: "controllers-test-secret"})
	os.Exit(m.Run())
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	clock  time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		db:    testdb.New(t),
		clock: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}

	engine := rewards.NewEngine(rewards.NewGormStore(s.db), rewards.Config{Location: time.UTC, Timeout: 2 * time.Second})
	auth := controllers.NewAuthController(s.db, config.Get())
	reward := controllers.NewRewardController(engine)
	reward.SetClock(func() time.Time { return s.clock })
	protect := middleware.Protect(s.db)

	r := gin.New()
	r.POST("/api/auth/register", auth.Register)
	r.POST("/api/auth/register-gamer", auth.RegisterGamer)
	r.POST("/api/auth/login", auth.Login)
	r.GET("/api/auth/me", protect, auth.Me)
	r.GET("/api/auth/logout", protect, auth.Logout)
	r.POST("/api/rewards/daily-claim", protect, reward.DailyClaim)
	r.GET("/api/rewards/daily-status", protect, reward.DailyStatus)
	s.router = r
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func userPayload(email string) map[string]interface{} {
	return map[string]interface{}{
		"name":     "Asha Rao",
		"email":    email,
		"phone":    "9876543210",
		"password": "secret123",
		"state":    "Maharashtra",
		"city":     "Pune",
	}
}

func gamerPayload(email string) map[string]interface{} {
	p := userPayload(email)
	p["group"] = models.GroupB
	p["termsAccepted"] = true
	p["policyAccepted"] = true
	return p
}

func (s *testServer) register(t *testing.T, path string, payload map[string]interface{}) string {
	t.Helper()
	code, body := s.do(t, http.MethodPost, path, "", payload)
	require.Equal(t, http.StatusCreated, code, body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, body)
	return d
}
