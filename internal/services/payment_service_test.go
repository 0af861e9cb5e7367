package services

import (
	"testing"

	"github.com/buba6c/onesms-v1-sub003/internal/database"
	"github.com/buba6c/onesms-v1-sub003/internal/models"

	"github.com/stretchr/testify/assert"
)

func setupPaymentTestDB() {
	setupLedgerTestDB()
	database.DB.Migrator().DropTable(&models.PaymentConfig{}, &models.DepositOrder{})
	database.DB.AutoMigrate(&models.PaymentConfig{}, &models.DepositOrder{})
}

func TestCreateDepositOrder(t *testing.T) {
	setupPaymentTestDB()
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(0.0)

	order, err := CreateDepositOrder(user.ID, 50.0, "pm-uuid")
	assert.NoError(t, err)
	assert.Equal(t, models.DepositStatusPending, order.Status)
	assert.Equal(t, 50.0, order.Amount)
	assert.Len(t, order.ID, 32)

	_, err = CreateDepositOrder(user.ID, 0, "pm-uuid")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCompleteDepositOrder(t *testing.T) {
	setupPaymentTestDB()
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(10.0)

	order, err := CreateDepositOrder(user.ID, 50.0, "pm-uuid")
	assert.NoError(t, err)

	err = CompleteDepositOrder(order.ID, systemMeta)
	assert.NoError(t, err)

	var updated models.User
	database.DB.First(&updated, user.ID)
	assert.Equal(t, 60.0, updated.Balance)
	assert.Equal(t, 0.0, updated.FrozenBalance)

	var stored models.DepositOrder
	database.DB.First(&stored, "id = ?", order.ID)
	assert.Equal(t, models.DepositStatusPaid, stored.Status)
	assert.NotNil(t, stored.CompletedAt)

	var entry models.LedgerEntry
	database.DB.Last(&entry)
	assert.Equal(t, models.LedgerOpDeposit, entry.Operation)
	assert.Equal(t, 10.0, entry.BalanceBefore)
	assert.Equal(t, 60.0, entry.BalanceAfter)
}

func TestCompleteDepositOrder_DuplicateCallback(t *testing.T) {
	setupPaymentTestDB()
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(0.0)

	order, err := CreateDepositOrder(user.ID, 50.0, "pm-uuid")
	assert.NoError(t, err)

	assert.NoError(t, CompleteDepositOrder(order.ID, systemMeta))

	// The gateway retries its callback: the user must not be credited twice.
	err = CompleteDepositOrder(order.ID, systemMeta)
	assert.ErrorIs(t, err, ErrDepositAlreadyPaid)

	var updated models.User
	database.DB.First(&updated, user.ID)
	assert.Equal(t, 50.0, updated.Balance)
	assert.Equal(t, int64(1), countLedgerEntries())
}

func TestCompleteDepositOrder_Cancelled(t *testing.T) {
	setupPaymentTestDB()
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(0.0)

	order, err := CreateDepositOrder(user.ID, 50.0, "pm-uuid")
	assert.NoError(t, err)
	assert.NoError(t, CancelDepositOrder(order.ID))

	err = CompleteDepositOrder(order.ID, systemMeta)
	assert.ErrorIs(t, err, ErrDepositCancelled)

	var updated models.User
	database.DB.First(&updated, user.ID)
	assert.Equal(t, 0.0, updated.Balance)
}

func TestCompleteDepositOrder_NotFound(t *testing.T) {
	setupPaymentTestDB()
	mr := setupLedgerTestRedis()
	defer mr.Close()

	err := CompleteDepositOrder("missing", systemMeta)
	assert.ErrorIs(t, err, ErrDepositNotFound)
}

func TestCancelDepositOrder(t *testing.T) {
	setupPaymentTestDB()
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(0.0)

	order, err := CreateDepositOrder(user.ID, 50.0, "pm-uuid")
	assert.NoError(t, err)

	assert.NoError(t, CancelDepositOrder(order.ID))

	// Terminal deposit orders cannot be cancelled again.
	err = CancelDepositOrder(order.ID)
	assert.ErrorIs(t, err, ErrInvalidDepositStatus)
}

func TestPaymentConfigCRUD(t *testing.T) {
	setupPaymentTestDB()
	mr := setupLedgerTestRedis()
	defer mr.Close()

	cfg, err := CreatePaymentConfig("Epay", "epay", map[string]interface{}{
		"base_url":    "https://pay.example.com",
		"merchant_id": "1001",
		"key":         "secret",
	}, true)
	assert.NoError(t, err)
	assert.NotEmpty(t, cfg.UUID)

	enabled, err := GetPaymentMethods()
	assert.NoError(t, err)
	assert.Len(t, enabled, 1)

	disable := false
	_, err = UpdatePaymentConfig(cfg.ID, "", nil, &disable)
	assert.NoError(t, err)

	enabled, err = GetPaymentMethods()
	assert.NoError(t, err)
	assert.Len(t, enabled, 0)

	all, err := GetAllPaymentConfigs()
	assert.NoError(t, err)
	assert.Len(t, all, 1)

	assert.NoError(t, DeletePaymentConfig(cfg.ID))
	all, err = GetAllPaymentConfigs()
	assert.NoError(t, err)
	assert.Len(t, all, 0)
}
