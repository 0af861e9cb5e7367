package services

import (
	"testing"

	"github.com/buba6c/onesms-v1-sub003/internal/database"
	"github.com/buba6c/onesms-v1-sub003/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFindUserByID_Cache(t *testing.T) {
	setupLedgerTestDB()
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(100.0)

	// First load populates the cache.
	found, err := FindUserByID(user.ID)
	assert.NoError(t, err)
	assert.Equal(t, user.Username, found.Username)
	assert.True(t, mr.Exists("user:1"))

	// A ledger mutation invalidates it.
	_, err = Freeze(user.ID, 5.0, newTestOrder("order-1", 5.0), systemMeta)
	assert.NoError(t, err)
	assert.False(t, mr.Exists("user:1"))

	// The next load sees the post-freeze balances.
	found, err = FindUserByID(user.ID)
	assert.NoError(t, err)
	assert.Equal(t, 95.0, found.Balance)
	assert.Equal(t, 5.0, found.FrozenBalance)
}

func TestFindUserByID_NotFound(t *testing.T) {
	setupLedgerTestDB()
	mr := setupLedgerTestRedis()
	defer mr.Close()

	_, err := FindUserByID(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUser_RejectsBalanceFields(t *testing.T) {
	setupLedgerTestDB()
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(100.0)

	_, err := UpdateUser(user.ID, map[string]interface{}{"balance": 999.0}, "admin")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ledger operations")

	_, err = UpdateUser(user.ID, map[string]interface{}{"frozen_balance": 999.0}, "admin")
	assert.Error(t, err)

	// Balances untouched.
	var updated models.User
	database.DB.First(&updated, user.ID)
	assert.Equal(t, 100.0, updated.Balance)
	assert.Equal(t, 0.0, updated.FrozenBalance)
}

func TestUpdateUser_BumpsVersion(t *testing.T) {
	setupLedgerTestDB()
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(100.0)

	_, err := UpdateUser(user.ID, map[string]interface{}{"role": "admin"}, "admin")
	assert.NoError(t, err)

	var updated models.User
	database.DB.First(&updated, user.ID)
	assert.Equal(t, "admin", updated.Role)
	assert.Equal(t, user.Version+1, updated.Version)
}

func TestUpdateUser_NotFound(t *testing.T) {
	setupLedgerTestDB()
	mr := setupLedgerTestRedis()
	defer mr.Close()

	_, err := UpdateUser(999, map[string]interface{}{"role": "admin"}, "admin")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFindUsers(t *testing.T) {
	setupLedgerTestDB()
	mr := setupLedgerTestRedis()
	defer mr.Close()

	for _, name := range []string{"alpha", "beta", "gamma"} {
		database.DB.Create(&models.User{Username: name, Password: "x", IsActive: true, Version: 1})
	}

	users, total, err := FindUsers(1, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, users, 2)

	users, _, err = FindUsers(2, 2)
	assert.NoError(t, err)
	assert.Len(t, users, 1)
}
