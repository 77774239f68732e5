// Package testdb opens throwaway in-memory SQLite databases for tests.
package testdb

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/diceraja/models"
)

// New returns a migrated database private to the calling test.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection serialises transactions the way row locks would.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Gamer{}, &models.DailyReward{}, &models.RewardHistory{}))
	return db
}

// CreateUser inserts a standard account with the given balance.
func CreateUser(t testing.TB, db *gorm.DB, email string, tokens int) *models.User {
	t.Helper()
	u := &models.User{
		Name:         "Test User",
		Email:        email,
		Phone:        "9876543210",
		PasswordHash: "x",
		State:        "Maharashtra",
		City:         "Pune",
		Tokens:       tokens,
		IsActive:     true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateGamer inserts an active gamer with the given balance.
func CreateGamer(t testing.TB, db *gorm.DB, email string, tokens int) *models.Gamer {
	t.Helper()
	g := &models.Gamer{
		Name:           "Test Gamer",
		Email:          email,
		Phone:          "9876543210",
		PasswordHash:   "x",
		State:          "Karnataka",
		City:           "Bengaluru",
		Group:          models.GroupA,
		TermsAccepted:  true,
		PolicyAccepted: true,
		JoiningFees:    1000,
		Tokens:         tokens,
		IsActive:       true,
	}
	require.NoError(t, db.Create(g).Error)
	return g
}
