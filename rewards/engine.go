// Package rewards implements the daily login streak: one claim per calendar
// day, consecutive days escalate the payout, a skipped day starts over.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/diceraja/accounts"
	"github.com/cppla/diceraja/models"
)

// HistoryLimit is how many recent history entries Status returns.
const HistoryLimit = 7

// Config tunes an Engine. Zero values fall back to defaults.
type Config struct {
	Table    Table
	Location *time.Location
	// Timeout bounds each store call; a deadline surfaces as ErrStoreUnavailable.
	Timeout time.Duration
	Logger  *zap.Logger
}

// Engine decides and applies daily reward claims.
type Engine struct {
	store   Store
	table   Table
	loc     *time.Location
	timeout time.Duration
	log     *zap.Logger
}

// ClaimResult describes a successful claim.
type ClaimResult struct {
	Reward       int       `json:"reward"`
	Streak       int       `json:"streak"`
	IsFirstClaim bool      `json:"-"`
	Message      string    `json:"message"`
	Date         time.Time `json:"-"`
}

// StatusResult is the read-only projection of what a claim would pay now.
type StatusResult struct {
	CanClaim     bool                   `json:"canClaim"`
	NextReward   int                    `json:"nextReward"`
	Streak       int                    `json:"streak"`
	LastClaim    *time.Time             `json:"lastClaim"`
	Tokens       int                    `json:"tokens"`
	IsFirstClaim bool                   `json:"isFirstClaim"`
	History      []models.RewardHistory `json:"history,omitempty"`
}

// NewEngine builds an Engine over store.
func NewEngine(store Store, cfg Config) *Engine {
	e := &Engine{
		store:   store,
		table:   cfg.Table,
		loc:     cfg.Location,
		timeout: cfg.Timeout,
		log:     cfg.Logger,
	}
	if len(e.table) == 0 {
		e.table = DefaultTable
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.timeout <= 0 {
		e.timeout = 5 * time.Second
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// Table returns the payout table in use.
func (e *Engine) Table() Table {
	return e.table
}

// Claim redeems today's reward for ref. A second claim on the same calendar
// day returns ErrAlreadyClaimed and changes nothing. A zero now means the wall clock.
func (e *Engine) Claim(ctx context.Context, ref accounts.Ref, now time.Time) (*ClaimResult, error) {
	if now.IsZero() {
		now = time.Now()
	}
	today := Day(now, e.loc)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var result ClaimResult
	err := e.store.Atomic(ctx, ref, func(tx Tx) error {
		state, err := tx.Find(ctx, ref)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if errors.Is(err, ErrNotFound) {
			state = nil
		}

		d := Decide(state, today, e.loc, e.table)
		if !d.CanClaim {
			return ErrAlreadyClaimed
		}

		entry := models.RewardHistory{Date: today, Tokens: d.Reward, StreakDay: d.NextStreak}
		if d.FirstClaim {
			state = &models.DailyReward{
				AccountID:     ref.ID,
				AccountKind:   string(ref.Kind),
				LastVisitDate: today,
				CurrentStreak: d.NextStreak,
				History:       []models.RewardHistory{entry},
			}
			if err := tx.Create(ctx, state); err != nil {
				return err
			}
		} else {
			state.CurrentStreak = d.NextStreak
			state.LastVisitDate = today
			state.History = append(state.History, entry)
			if err := tx.Save(ctx, state); err != nil {
				return err
			}
		}

		if err := tx.AddTokens(ctx, ref, d.Reward); err != nil {
			return err
		}

		result = ClaimResult{
			Reward:       d.Reward,
			Streak:       d.NextStreak,
			IsFirstClaim: d.FirstClaim,
			Message:      claimMessage(d),
			Date:         today,
		}
		return nil
	})
	if err != nil {
		return nil, e.classify(ctx, ref, "claim", err)
	}

	e.log.Info("daily reward claimed",
		zap.String("account", ref.String()),
		zap.Int("reward", result.Reward),
		zap.Int("streak", result.Streak),
		zap.Bool("first", result.IsFirstClaim),
	)
	return &result, nil
}

// Status reports what Claim would do at now without writing anything.
func (e *Engine) Status(ctx context.Context, ref accounts.Ref, now time.Time) (*StatusResult, error) {
	if now.IsZero() {
		now = time.Now()
	}
	today := Day(now, e.loc)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// Balance and state come from one locked read.
	var (
		tokens int
		state  *models.DailyReward
	)
	err := e.store.Atomic(ctx, ref, func(tx Tx) error {
		var err error
		if tokens, err = tx.Balance(ctx, ref); err != nil {
			return err
		}
		state, err = tx.Find(ctx, ref)
		if errors.Is(err, ErrNotFound) {
			state = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, e.classify(ctx, ref, "status", err)
	}
	if state == nil {
		d := Decide(nil, today, e.loc, e.table)
		return &StatusResult{
			CanClaim:     true,
			NextReward:   d.Reward,
			Streak:       0,
			LastClaim:    nil,
			Tokens:       tokens,
			IsFirstClaim: true,
		}, nil
	}

	d := Decide(state, today, e.loc, e.table)
	last := state.LastVisitDate
	return &StatusResult{
		CanClaim:     d.CanClaim,
		NextReward:   d.Reward,
		Streak:       state.CurrentStreak,
		LastClaim:    &last,
		Tokens:       tokens,
		IsFirstClaim: false,
		History:      state.RecentHistory(HistoryLimit),
	}, nil
}

// classify folds store errors into the engine's taxonomy.
func (e *Engine) classify(ctx context.Context, ref accounts.Ref, op string, err error) error {
	switch {
	case errors.Is(err, ErrAlreadyClaimed):
		return ErrAlreadyClaimed
	case errors.Is(err, ErrDuplicateKey), errors.Is(err, ErrConflict):
		// Lost the race to a concurrent claim for the same day.
		e.log.Debug("concurrent claim rejected", zap.String("account", ref.String()), zap.Error(err))
		return ErrAlreadyClaimed
	case errors.Is(err, ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, ErrStoreUnavailable):
		return err
	}
	if ctx.Err() != nil {
		err = fmt.Errorf("%w: %v", err, ctx.Err())
	}
	e.log.Error("reward store failure", zap.String("op", op), zap.String("account", ref.String()), zap.Error(err))
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

func claimMessage(d Decision) string {
	if d.FirstClaim {
		return "First day reward claimed!"
	}
	return fmt.Sprintf("Day %d reward claimed!", d.NextStreak)
}
