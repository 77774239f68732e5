package rewards

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/diceraja/accounts"
	"github.com/cppla/diceraja/models"
)

// GormStore persists reward state in the daily_rewards and reward_histories tables.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over db. db should be opened with TranslateError
// so unique violations surface as gorm.ErrDuplicatedKey.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Find(ctx context.Context, ref accounts.Ref) (*models.DailyReward, error) {
	return findState(s.db.WithContext(ctx), ref)
}

func (s *GormStore) Balance(ctx context.Context, ref accounts.Ref) (int, error) {
	return balanceOf(ctx, s.db, ref)
}

// Atomic wraps fn in a database transaction holding a row lock on the
// account, so claims for one account run one at a time.
func (s *GormStore) Atomic(ctx context.Context, ref accounts.Ref, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockAccount(tx, ref); err != nil {
			return err
		}
		return fn(&gormTx{db: tx})
	})
}

func lockAccount(tx *gorm.DB, ref accounts.Ref) error {
	var model interface{}
	switch ref.Kind {
	case accounts.KindStandard:
		model = &models.User{}
	case accounts.KindGamer:
		model = &models.Gamer{}
	default:
		return accounts.ErrUnknownKind
	}

	var ids []uint
	if err := tx.Model(model).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", ref.ID).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return accounts.ErrNotFound
	}
	return nil
}

func balanceOf(ctx context.Context, db *gorm.DB, ref accounts.Ref) (int, error) {
	repo, err := accounts.ForKind(db, ref.Kind)
	if err != nil {
		return 0, err
	}
	acc, err := repo.Find(ctx, ref.ID)
	if err != nil {
		return 0, err
	}
	return acc.Tokens, nil
}

func findState(db *gorm.DB, ref accounts.Ref) (*models.DailyReward, error) {
	var st models.DailyReward
	err := db.
		Preload("History", func(q *gorm.DB) *gorm.DB { return q.Order("id ASC") }).
		Where("account_kind = ? AND account_id = ?", string(ref.Kind), ref.ID).
		First(&st).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) Find(ctx context.Context, ref accounts.Ref) (*models.DailyReward, error) {
	return findState(t.db.WithContext(ctx), ref)
}

func (t *gormTx) Balance(ctx context.Context, ref accounts.Ref) (int, error) {
	return balanceOf(ctx, t.db, ref)
}

func (t *gormTx) Create(ctx context.Context, state *models.DailyReward) error {
	// Create inserts the history association in the same statement batch.
	if err := t.db.WithContext(ctx).Create(state).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

// Save compares-and-swaps on Version, then appends history entries that have no id yet.
func (t *gormTx) Save(ctx context.Context, state *models.DailyReward) error {
	db := t.db.WithContext(ctx)
	res := db.Model(&models.DailyReward{}).
		Where("id = ? AND version = ?", state.ID, state.Version).
		Updates(map[string]interface{}{
			"last_visit_date": state.LastVisitDate,
			"current_streak":  state.CurrentStreak,
			"version":         state.Version + 1,
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.Model(&models.DailyReward{}).Where("id = ?", state.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	state.Version++

	for i := range state.History {
		h := &state.History[i]
		if h.ID != 0 {
			continue
		}
		h.DailyRewardID = state.ID
		if err := db.Create(h).Error; err != nil {
			return err
		}
	}
	return nil
}

func (t *gormTx) AddTokens(ctx context.Context, ref accounts.Ref, amount int) error {
	repo, err := accounts.ForKind(t.db, ref.Kind)
	if err != nil {
		return err
	}
	return repo.AddTokens(ctx, ref.ID, amount)
}
