package controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/diceraja/models"
)

func TestDailyReward_RequiresAuth(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/api/rewards/daily-claim", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, false, body["success"])

	code, _ = s.do(t, http.MethodGet, "/api/rewards/daily-status", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestDailyReward_Scenario(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "/api/auth/register", userPayload("streak@example.com"))

	code, body := s.do(t, http.MethodGet, "/api/rewards/daily-status", token, nil)
	require.Equal(t, http.StatusOK, code, body)
	status := data(t, body)
	assert.Equal(t, true, status["canClaim"])
	assert.EqualValues(t, 100, status["nextReward"])
	assert.EqualValues(t, 0, status["streak"])
	assert.Nil(t, status["lastClaim"])
	assert.EqualValues(t, 0, status["tokens"])
	assert.Equal(t, true, status["isFirstClaim"])
	assert.NotContains(t, status, "history")

	code, body = s.do(t, http.MethodPost, "/api/rewards/daily-claim", token, nil)
	require.Equal(t, http.StatusOK, code, body)
	claim := data(t, body)
	assert.EqualValues(t, 100, claim["reward"])
	assert.EqualValues(t, 1, claim["streak"])
	assert.Equal(t, "First day reward claimed!", claim["message"])

	code, body = s.do(t, http.MethodPost, "/api/rewards/daily-claim", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "You've already claimed your daily reward today", body["error"])

	s.clock = s.clock.AddDate(0, 0, 1)
	code, body = s.do(t, http.MethodPost, "/api/rewards/daily-claim", token, nil)
	require.Equal(t, http.StatusOK, code, body)
	claim = data(t, body)
	assert.EqualValues(t, 200, claim["reward"])
	assert.EqualValues(t, 2, claim["streak"])
	assert.Equal(t, "Day 2 reward claimed!", claim["message"])

	// skip three days
	s.clock = s.clock.AddDate(0, 0, 4)
	code, body = s.do(t, http.MethodGet, "/api/rewards/daily-status", token, nil)
	require.Equal(t, http.StatusOK, code, body)
	status = data(t, body)
	assert.Equal(t, true, status["canClaim"])
	assert.EqualValues(t, 100, status["nextReward"])
	assert.EqualValues(t, 2, status["streak"])
	assert.EqualValues(t, 300, status["tokens"])
	assert.Equal(t, false, status["isFirstClaim"])
	assert.NotNil(t, status["lastClaim"])
	assert.Len(t, status["history"], 2)

	code, body = s.do(t, http.MethodPost, "/api/rewards/daily-claim", token, nil)
	require.Equal(t, http.StatusOK, code, body)
	claim = data(t, body)
	assert.EqualValues(t, 100, claim["reward"])
	assert.EqualValues(t, 1, claim["streak"])
}

func TestDailyReward_GamerBalance(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "/api/auth/register-gamer", gamerPayload("gamer@example.com"))

	code, body := s.do(t, http.MethodPost, "/api/rewards/daily-claim", token, nil)
	require.Equal(t, http.StatusOK, code, body)

	var g models.Gamer
	require.NoError(t, s.db.Where("email = ?", "gamer@example.com").First(&g).Error)
	assert.Equal(t, 100, g.Tokens)

	var st models.DailyReward
	require.NoError(t, s.db.Where("account_id = ?", g.ID).First(&st).Error)
	assert.Equal(t, "gamer", st.AccountKind, "kind comes from the token role")
}
