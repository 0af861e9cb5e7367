package services

import (
	"errors"
	"testing"

	"github.com/buba6c/onesms-v1-sub003/internal/database"
	"github.com/buba6c/onesms-v1-sub003/internal/models"
	"github.com/buba6c/onesms-v1-sub003/internal/provider"
	"github.com/buba6c/onesms-v1-sub003/pkg/logger"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// stubDriver is an in-memory provider.Driver for exercising the purchase
// flow without network calls.
type stubDriver struct {
	purchaseResult *provider.PurchaseResult
	purchaseErr    error
	statusResult   *provider.StatusResult
	statusErr      error
	cancelErr      error
	cancelled      []string
}

func (s *stubDriver) SetConfig(config map[string]interface{}) error { return nil }

func (s *stubDriver) Purchase(service, country string) (*provider.PurchaseResult, error) {
	if s.purchaseErr != nil {
		return nil, s.purchaseErr
	}
	return s.purchaseResult, nil
}

func (s *stubDriver) Cancel(activationID string) error {
	s.cancelled = append(s.cancelled, activationID)
	return s.cancelErr
}

func (s *stubDriver) CheckStatus(activationID string) (*provider.StatusResult, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return s.statusResult, nil
}

func setupOrderTest(t *testing.T, drv *stubDriver) {
	t.Helper()
	setupLedgerTestDB()
	logger.Log = zap.NewNop()
	SetProviderDriver(drv)
	t.Cleanup(func() { SetProviderDriver(nil) })
}

func TestPurchaseNumber(t *testing.T) {
	drv := &stubDriver{
		purchaseResult: &provider.PurchaseResult{ActivationID: "act-1", PhoneNumber: "+79001234567"},
	}
	setupOrderTest(t, drv)
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(100.0)

	order, err := PurchaseNumber(PurchaseRequest{
		UserID:  user.ID,
		Kind:    models.OrderKindActivation,
		Service: "tg",
		Country: "0",
		Price:   5.0,
	}, systemMeta)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusWaiting, order.Status)
	assert.Equal(t, "+79001234567", order.PhoneNumber)
	assert.Equal(t, "act-1", order.ActivationID)

	// The reservation is held while the activation is live.
	var updated models.User
	database.DB.First(&updated, user.ID)
	assert.Equal(t, 95.0, updated.Balance)
	assert.Equal(t, 5.0, updated.FrozenBalance)

	var stored models.Order
	database.DB.First(&stored, "id = ?", order.ID)
	assert.Equal(t, 5.0, stored.FrozenAmount)
	assert.False(t, stored.ExpiresAt.IsZero())
}

func TestPurchaseNumber_NoNumbers(t *testing.T) {
	drv := &stubDriver{purchaseErr: provider.ErrNoNumbers}
	setupOrderTest(t, drv)
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(100.0)

	_, err := PurchaseNumber(PurchaseRequest{
		UserID:  user.ID,
		Kind:    models.OrderKindActivation,
		Service: "tg",
		Country: "0",
		Price:   5.0,
	}, systemMeta)
	assert.ErrorIs(t, err, provider.ErrNoNumbers)

	// The reservation was released, not leaked.
	var updated models.User
	database.DB.First(&updated, user.ID)
	assert.Equal(t, 100.0, updated.Balance)
	assert.Equal(t, 0.0, updated.FrozenBalance)

	var order models.Order
	database.DB.First(&order)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	assert.Equal(t, 0.0, order.FrozenAmount)
}

func TestPurchaseNumber_ProviderFailure(t *testing.T) {
	drv := &stubDriver{purchaseErr: errors.New("connection reset")}
	setupOrderTest(t, drv)
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(100.0)

	_, err := PurchaseNumber(PurchaseRequest{
		UserID:  user.ID,
		Kind:    models.OrderKindActivation,
		Service: "tg",
		Country: "0",
		Price:   5.0,
	}, systemMeta)
	assert.ErrorIs(t, err, ErrProviderFailure)

	var updated models.User
	database.DB.First(&updated, user.ID)
	assert.Equal(t, 100.0, updated.Balance)
	assert.Equal(t, 0.0, updated.FrozenBalance)
}

func TestPurchaseNumber_InsufficientBalance(t *testing.T) {
	drv := &stubDriver{
		purchaseResult: &provider.PurchaseResult{ActivationID: "act-1", PhoneNumber: "+79001234567"},
	}
	setupOrderTest(t, drv)
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(2.0)

	_, err := PurchaseNumber(PurchaseRequest{
		UserID:  user.ID,
		Kind:    models.OrderKindActivation,
		Service: "tg",
		Country: "0",
		Price:   5.0,
	}, systemMeta)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	var n int64
	database.DB.Model(&models.Order{}).Count(&n)
	assert.Equal(t, int64(0), n)
}

func TestCheckOrder_SMSReceived(t *testing.T) {
	drv := &stubDriver{
		purchaseResult: &provider.PurchaseResult{ActivationID: "act-1", PhoneNumber: "+79001234567"},
		statusResult:   &provider.StatusResult{State: provider.StateReceived, Code: "123456"},
	}
	setupOrderTest(t, drv)
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(100.0)

	order, err := PurchaseNumber(PurchaseRequest{
		UserID:  user.ID,
		Kind:    models.OrderKindActivation,
		Service: "tg",
		Country: "0",
		Price:   5.0,
	}, systemMeta)
	assert.NoError(t, err)

	checked, err := CheckOrder(order.ID, systemMeta)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, checked.Status)
	assert.Equal(t, "123456", checked.SMSCode)
	assert.True(t, checked.Charged)
	assert.Equal(t, 0.0, checked.FrozenAmount)

	// The charge is final: credits are not returned.
	var updated models.User
	database.DB.First(&updated, user.ID)
	assert.Equal(t, 95.0, updated.Balance)
	assert.Equal(t, 0.0, updated.FrozenBalance)
}

func TestCheckOrder_ProviderCancelled(t *testing.T) {
	drv := &stubDriver{
		purchaseResult: &provider.PurchaseResult{ActivationID: "act-1", PhoneNumber: "+79001234567"},
		statusResult:   &provider.StatusResult{State: provider.StateCancelled},
	}
	setupOrderTest(t, drv)
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(100.0)

	order, err := PurchaseNumber(PurchaseRequest{
		UserID:  user.ID,
		Kind:    models.OrderKindActivation,
		Service: "tg",
		Country: "0",
		Price:   5.0,
	}, systemMeta)
	assert.NoError(t, err)

	checked, err := CheckOrder(order.ID, systemMeta)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, checked.Status)

	var updated models.User
	database.DB.First(&updated, user.ID)
	assert.Equal(t, 100.0, updated.Balance)
	assert.Equal(t, 0.0, updated.FrozenBalance)
}

func TestCheckOrder_TerminalIsStable(t *testing.T) {
	drv := &stubDriver{
		purchaseResult: &provider.PurchaseResult{ActivationID: "act-1", PhoneNumber: "+79001234567"},
		statusResult:   &provider.StatusResult{State: provider.StateReceived, Code: "123456"},
	}
	setupOrderTest(t, drv)
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(100.0)

	order, err := PurchaseNumber(PurchaseRequest{
		UserID: user.ID, Kind: models.OrderKindActivation,
		Service: "tg", Country: "0", Price: 5.0,
	}, systemMeta)
	assert.NoError(t, err)

	_, err = CheckOrder(order.ID, systemMeta)
	assert.NoError(t, err)

	// Re-checking a completed order doesn't touch the provider or balances.
	drv.statusErr = errors.New("should not be called")
	checked, err := CheckOrder(order.ID, systemMeta)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, checked.Status)
}

func TestCancelOrder(t *testing.T) {
	drv := &stubDriver{
		purchaseResult: &provider.PurchaseResult{ActivationID: "act-1", PhoneNumber: "+79001234567"},
	}
	setupOrderTest(t, drv)
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(100.0)

	order, err := PurchaseNumber(PurchaseRequest{
		UserID: user.ID, Kind: models.OrderKindActivation,
		Service: "tg", Country: "0", Price: 5.0,
	}, systemMeta)
	assert.NoError(t, err)

	cancelled, err := CancelOrder(order.ID, systemMeta)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Contains(t, drv.cancelled, "act-1")

	var updated models.User
	database.DB.First(&updated, user.ID)
	assert.Equal(t, 100.0, updated.Balance)
	assert.Equal(t, 0.0, updated.FrozenBalance)

	// Cancelling again is a no-op.
	again, err := CancelOrder(order.ID, systemMeta)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, again.Status)

	database.DB.First(&updated, user.ID)
	assert.Equal(t, 100.0, updated.Balance)
}

func TestCancelOrder_ProviderCancelFailureStillRefunds(t *testing.T) {
	drv := &stubDriver{
		purchaseResult: &provider.PurchaseResult{ActivationID: "act-1", PhoneNumber: "+79001234567"},
		cancelErr:      errors.New("provider unreachable"),
	}
	setupOrderTest(t, drv)
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(100.0)

	order, err := PurchaseNumber(PurchaseRequest{
		UserID: user.ID, Kind: models.OrderKindActivation,
		Service: "tg", Country: "0", Price: 5.0,
	}, systemMeta)
	assert.NoError(t, err)

	cancelled, err := CancelOrder(order.ID, systemMeta)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	var updated models.User
	database.DB.First(&updated, user.ID)
	assert.Equal(t, 100.0, updated.Balance)
}
