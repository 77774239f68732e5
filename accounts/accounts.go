// Package accounts exposes the two account collections (users and gamers)
// behind one reference type so reward code never branches on the table.
package accounts

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/diceraja/models"
)

// Kind discriminates which account collection an id belongs to.
type Kind string

const (
	KindStandard Kind = "standard"
	KindGamer    Kind = "gamer"
)

// ErrNotFound is returned when the referenced account does not exist.
var ErrNotFound = errors.New("account not found")

// ErrUnknownKind is returned for a Kind with no registered repository.
var ErrUnknownKind = errors.New("unknown account kind")

// Ref identifies one account across both collections.
type Ref struct {
	Kind Kind
	ID   uint
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// KindForRole maps a principal's role to its account collection.
func KindForRole(role string) Kind {
	if role == models.RoleGamer {
		return KindGamer
	}
	return KindStandard
}

// Account is the kind-agnostic view of a user or gamer.
type Account struct {
	ID       uint
	Kind     Kind
	Role     string
	Name     string
	Email    string
	Tokens   int
	IsActive bool
}

// Repository reads and credits accounts of one kind.
type Repository interface {
	Find(ctx context.Context, id uint) (*Account, error)
	// AddTokens increments the balance by amount; ErrNotFound if no row matched.
	AddTokens(ctx context.Context, id uint, amount int) error
}

// ForKind returns the GORM repository for kind bound to db (which may be a transaction).
func ForKind(db *gorm.DB, kind Kind) (Repository, error) {
	switch kind {
	case KindStandard:
		return &userRepository{db: db}, nil
	case KindGamer:
		return &gamerRepository{db: db}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Find(ctx context.Context, id uint) (*Account, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Account{
		ID:       u.ID,
		Kind:     KindStandard,
		Role:     u.Role,
		Name:     u.Name,
		Email:    u.Email,
		Tokens:   u.Tokens,
		IsActive: u.IsActive,
	}, nil
}

func (r *userRepository) AddTokens(ctx context.Context, id uint, amount int) error {
	return addTokens(r.db.WithContext(ctx).Model(&models.User{}), id, amount)
}

type gamerRepository struct {
	db *gorm.DB
}

func (r *gamerRepository) Find(ctx context.Context, id uint) (*Account, error) {
	var g models.Gamer
	if err := r.db.WithContext(ctx).First(&g, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Account{
		ID:       g.ID,
		Kind:     KindGamer,
		Role:     g.Role,
		Name:     g.Name,
		Email:    g.Email,
		Tokens:   g.Tokens,
		IsActive: g.IsActive,
	}, nil
}

func (r *gamerRepository) AddTokens(ctx context.Context, id uint, amount int) error {
	return addTokens(r.db.WithContext(ctx).Model(&models.Gamer{}), id, amount)
}

// addTokens issues a single relative UPDATE so concurrent credits never lose writes.
func addTokens(q *gorm.DB, id uint, amount int) error {
	res := q.Where("id = ?", id).UpdateColumn("tokens", gorm.Expr("tokens + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
