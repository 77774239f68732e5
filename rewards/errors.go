package rewards

import (
	"errors"

	"github.com/cppla/diceraja/accounts"
)

var (
	// ErrAlreadyClaimed is the business outcome for a second claim on the same calendar day.
	ErrAlreadyClaimed = errors.New("already claimed today")

	// ErrNotFound is returned by Find and Save when no reward state exists for the key.
	ErrNotFound = errors.New("reward state not found")

	// ErrDuplicateKey is returned by Create when state already exists for the key.
	ErrDuplicateKey = errors.New("reward state already exists")

	// ErrConflict is returned by Save when the state changed since it was read.
	ErrConflict = errors.New("reward state modified concurrently")

	// ErrStoreUnavailable wraps transient persistence failures, timeouts included.
	ErrStoreUnavailable = errors.New("reward store unavailable")

	// ErrAccountNotFound is returned when the owning account does not exist.
	ErrAccountNotFound = accounts.ErrNotFound
)
