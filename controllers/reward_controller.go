package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/diceraja/accounts"
	"github.com/cppla/diceraja/middleware"
	"github.com/cppla/diceraja/rewards"
	"github.com/cppla/diceraja/utils"
)

// RewardController exposes the daily streak reward.
type RewardController struct {
	engine *rewards.Engine
	now    func() time.Time
}

// NewRewardController creates a controller claiming against engine on the wall clock.
func NewRewardController(engine *rewards.Engine) *RewardController {
	return &RewardController{engine: engine, now: time.Now}
}

// SetClock replaces the time source; tests use it to step across days.
func (r *RewardController) SetClock(now func() time.Time) {
	r.now = now
}

// DailyClaim redeems today's reward for the authenticated account.
func (r *RewardController) DailyClaim(ctx *gin.Context) {
	ref, ok := principalRef(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}

	res, err := r.engine.Claim(ctx.Request.Context(), ref, r.now())
	if err != nil {
		rewardError(ctx, err)
		return
	}
	utils.Success(ctx, res)
}

// DailyStatus reports what a claim would pay right now, plus balance and recent history.
func (r *RewardController) DailyStatus(ctx *gin.Context) {
	ref, ok := principalRef(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}

	res, err := r.engine.Status(ctx.Request.Context(), ref, r.now())
	if err != nil {
		rewardError(ctx, err)
		return
	}
	utils.Success(ctx, res)
}

// principalRef derives the account reference from the authenticated role, never from the request.
func principalRef(ctx *gin.Context) (accounts.Ref, bool) {
	account, ok := middleware.CurrentAccount(ctx)
	if !ok {
		return accounts.Ref{}, false
	}
	return accounts.Ref{Kind: accounts.KindForRole(account.Role), ID: account.ID}, true
}

func rewardError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, rewards.ErrAlreadyClaimed):
		utils.Error(ctx, http.StatusBadRequest, "You've already claimed your daily reward today")
	case errors.Is(err, rewards.ErrAccountNotFound):
		utils.Error(ctx, http.StatusNotFound, "Account not found")
	case errors.Is(err, rewards.ErrStoreUnavailable):
		utils.Error(ctx, http.StatusServiceUnavailable, "Reward service temporarily unavailable, please retry")
	default:
		utils.Sugar.Errorw("reward request failed", "path", ctx.FullPath(), "err", err)
		utils.Error(ctx, http.StatusInternalServerError, "Server Error")
	}
}
