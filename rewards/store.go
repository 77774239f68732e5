package rewards

import (
	"context"

	"github.com/cppla/diceraja/accounts"
	"github.com/cppla/diceraja/models"
)

// Store persists reward state and credits account balances.
type Store interface {
	// Find returns a copy of the state for ref, or ErrNotFound.
	Find(ctx context.Context, ref accounts.Ref) (*models.DailyReward, error)
	// Balance returns the account's current token balance.
	Balance(ctx context.Context, ref accounts.Ref) (int, error)
	// Atomic runs fn with exclusive access to ref. Writes made through tx
	// become visible together when fn returns nil and are discarded otherwise.
	Atomic(ctx context.Context, ref accounts.Ref, fn func(tx Tx) error) error
}

// Tx is the view of Store inside Atomic. Reads see the transaction's own writes.
type Tx interface {
	Find(ctx context.Context, ref accounts.Ref) (*models.DailyReward, error)
	Balance(ctx context.Context, ref accounts.Ref) (int, error)
	// Create inserts a new state with its history; ErrDuplicateKey if one exists.
	Create(ctx context.Context, state *models.DailyReward) error
	// Save persists streak, last visit and any history entries not yet stored.
	// Returns ErrNotFound if the record vanished, ErrConflict if it moved.
	Save(ctx context.Context, state *models.DailyReward) error
	AddTokens(ctx context.Context, ref accounts.Ref, amount int) error
}
