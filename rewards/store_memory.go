package rewards

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cppla/diceraja/accounts"
	"github.com/cppla/diceraja/models"
)

// MemoryStore keeps reward state and balances in process. Each account has
// its own lock; writes made inside Atomic are staged and applied on success.
type MemoryStore struct {
	mu       sync.Mutex
	states   map[accounts.Ref]*models.DailyReward
	balances map[accounts.Ref]int
	locks    map[accounts.Ref]chan struct{}
	nextID   uint
	nextHist uint
}

// NewMemoryStore returns an empty store. Accounts must be registered with SetBalance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:   map[accounts.Ref]*models.DailyReward{},
		balances: map[accounts.Ref]int{},
		locks:    map[accounts.Ref]chan struct{}{},
	}
}

// SetBalance registers ref as an existing account holding tokens.
func (s *MemoryStore) SetBalance(ref accounts.Ref, tokens int) {
	s.mu.Lock()
	s.balances[ref] = tokens
	s.mu.Unlock()
}

func (s *MemoryStore) Find(ctx context.Context, ref accounts.Ref) (*models.DailyReward, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[ref]
	if !ok {
		return nil, ErrNotFound
	}
	return st.Clone(), nil
}

func (s *MemoryStore) Balance(ctx context.Context, ref accounts.Ref) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.balances[ref]
	if !ok {
		return 0, ErrAccountNotFound
	}
	return n, nil
}

func (s *MemoryStore) Atomic(ctx context.Context, ref accounts.Ref, fn func(tx Tx) error) error {
	lock := s.keyLock(ref)
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for account lock: %v", ErrStoreUnavailable, ctx.Err())
	}
	defer func() { <-lock }()

	tx := &memoryTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

func (s *MemoryStore) keyLock(ref accounts.Ref) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[ref]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[ref] = l
	}
	return l
}

type memoryTx struct {
	store   *MemoryStore
	created []*models.DailyReward
	saved   []*models.DailyReward
	credits map[accounts.Ref]int
}

func (t *memoryTx) Find(ctx context.Context, ref accounts.Ref) (*models.DailyReward, error) {
	for _, st := range append(append([]*models.DailyReward(nil), t.saved...), t.created...) {
		if st.AccountKind == string(ref.Kind) && st.AccountID == ref.ID {
			return st.Clone(), nil
		}
	}
	return t.store.Find(ctx, ref)
}

func (t *memoryTx) Balance(ctx context.Context, ref accounts.Ref) (int, error) {
	n, err := t.store.Balance(ctx, ref)
	if err != nil {
		return 0, err
	}
	return n + t.credits[ref], nil
}

func (t *memoryTx) Create(ctx context.Context, state *models.DailyReward) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ref := refOf(state)
	s := t.store
	s.mu.Lock()
	_, exists := s.states[ref]
	s.mu.Unlock()
	if exists {
		return ErrDuplicateKey
	}
	t.created = append(t.created, state.Clone())
	return nil
}

func (t *memoryTx) Save(ctx context.Context, state *models.DailyReward) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := t.store
	s.mu.Lock()
	cur, exists := s.states[refOf(state)]
	s.mu.Unlock()
	if !exists || cur.ID != state.ID {
		return ErrNotFound
	}
	if cur.Version != state.Version {
		return ErrConflict
	}
	t.saved = append(t.saved, state.Clone())
	state.Version++
	return nil
}

func (t *memoryTx) AddTokens(ctx context.Context, ref accounts.Ref, amount int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := t.store
	s.mu.Lock()
	_, ok := s.balances[ref]
	s.mu.Unlock()
	if !ok {
		return ErrAccountNotFound
	}
	if t.credits == nil {
		t.credits = map[accounts.Ref]int{}
	}
	t.credits[ref] += amount
	return nil
}

func (t *memoryTx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate everything before applying anything.
	for _, st := range t.created {
		if _, exists := s.states[refOf(st)]; exists {
			return ErrDuplicateKey
		}
	}
	for _, st := range t.saved {
		cur, exists := s.states[refOf(st)]
		if !exists {
			return ErrNotFound
		}
		if cur.Version != st.Version {
			return ErrConflict
		}
	}
	for ref := range t.credits {
		if _, ok := s.balances[ref]; !ok {
			return ErrAccountNotFound
		}
	}

	now := time.Now()
	for _, st := range t.created {
		s.nextID++
		st.ID = s.nextID
		st.CreatedAt = now
		st.UpdatedAt = now
		s.assignHistoryIDs(st)
		s.states[refOf(st)] = st
	}
	for _, st := range t.saved {
		ref := refOf(st)
		st.Version++
		st.CreatedAt = s.states[ref].CreatedAt
		st.UpdatedAt = now
		s.assignHistoryIDs(st)
		s.states[ref] = st
	}
	for ref, amount := range t.credits {
		s.balances[ref] += amount
	}
	return nil
}

func (s *MemoryStore) assignHistoryIDs(st *models.DailyReward) {
	for i := range st.History {
		if st.History[i].ID == 0 {
			s.nextHist++
			st.History[i].ID = s.nextHist
			st.History[i].DailyRewardID = st.ID
		}
	}
}

func refOf(st *models.DailyReward) accounts.Ref {
	return accounts.Ref{Kind: accounts.Kind(st.AccountKind), ID: st.AccountID}
}
