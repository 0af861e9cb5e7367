package services

import (
	"testing"
	"time"

	"github.com/buba6c/onesms-v1-sub003/internal/database"
	"github.com/buba6c/onesms-v1-sub003/internal/models"
	"github.com/buba6c/onesms-v1-sub003/pkg/logger"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func setupSweeperTest(t *testing.T, drv *stubDriver) {
	t.Helper()
	setupLedgerTestDB()
	logger.Log = zap.NewNop()
	SetProviderDriver(drv)
	t.Cleanup(func() { SetProviderDriver(nil) })
}

func freezeWithExpiry(t *testing.T, userID uint, orderID string, amount float64, expiresAt time.Time) {
	t.Helper()
	order := newTestOrder(orderID, amount)
	order.ExpiresAt = expiresAt
	order.ActivationID = "act-" + orderID
	_, err := Freeze(userID, amount, order, systemMeta)
	assert.NoError(t, err)
}

func TestSweepOnce(t *testing.T) {
	drv := &stubDriver{}
	setupSweeperTest(t, drv)
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(100.0)

	freezeWithExpiry(t, user.ID, "expired-1", 5.0, time.Now().Add(-time.Minute))
	freezeWithExpiry(t, user.ID, "expired-2", 3.0, time.Now().Add(-time.Hour))
	freezeWithExpiry(t, user.ID, "live-1", 7.0, time.Now().Add(time.Hour))

	sweeper := NewExpirySweeper(time.Minute)
	stats, err := sweeper.SweepOnce()
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.Scanned)
	assert.Equal(t, 2, stats.Refunded)
	assert.Equal(t, 0, stats.Errors)

	// Expired orders were cancelled at the provider too.
	assert.Contains(t, drv.cancelled, "act-expired-1")
	assert.Contains(t, drv.cancelled, "act-expired-2")
	assert.NotContains(t, drv.cancelled, "act-live-1")

	// Only the live reservation remains held.
	var updated models.User
	database.DB.First(&updated, user.ID)
	assert.Equal(t, 93.0, updated.Balance)
	assert.Equal(t, 7.0, updated.FrozenBalance)

	for _, id := range []string{"expired-1", "expired-2"} {
		var order models.Order
		database.DB.First(&order, "id = ?", id)
		assert.Equal(t, models.OrderStatusTimeout, order.Status)
		assert.Equal(t, 0.0, order.FrozenAmount)
	}

	var live models.Order
	database.DB.First(&live, "id = ?", "live-1")
	assert.Equal(t, models.OrderStatusPending, live.Status)
	assert.Equal(t, 7.0, live.FrozenAmount)
}

func TestSweepOnce_Empty(t *testing.T) {
	drv := &stubDriver{}
	setupSweeperTest(t, drv)
	mr := setupLedgerTestRedis()
	defer mr.Close()

	sweeper := NewExpirySweeper(time.Minute)
	stats, err := sweeper.SweepOnce()
	assert.NoError(t, err)
	assert.Equal(t, 0, stats.Scanned)
}

func TestSweepOnce_RacingResolution(t *testing.T) {
	drv := &stubDriver{}
	setupSweeperTest(t, drv)
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(100.0)
	freezeWithExpiry(t, user.ID, "expired-1", 5.0, time.Now().Add(-time.Minute))

	// The order resolves between one sweep and the next: the second sweep
	// must not refund again.
	sweeper := NewExpirySweeper(time.Minute)
	stats, err := sweeper.SweepOnce()
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Refunded)

	stats, err = sweeper.SweepOnce()
	assert.NoError(t, err)
	assert.Equal(t, 0, stats.Scanned)

	var updated models.User
	database.DB.First(&updated, user.ID)
	assert.Equal(t, 100.0, updated.Balance)
	assert.Equal(t, 0.0, updated.FrozenBalance)
}

func TestSweepOnce_ProviderCancelFailureStillRefunds(t *testing.T) {
	drv := &stubDriver{cancelErr: assert.AnError}
	setupSweeperTest(t, drv)
	mr := setupLedgerTestRedis()
	defer mr.Close()

	user := seedUser(100.0)
	freezeWithExpiry(t, user.ID, "expired-1", 5.0, time.Now().Add(-time.Minute))

	sweeper := NewExpirySweeper(time.Minute)
	stats, err := sweeper.SweepOnce()
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Refunded)

	var updated models.User
	database.DB.First(&updated, user.ID)
	assert.Equal(t, 100.0, updated.Balance)
}

func TestSweeperStartStop(t *testing.T) {
	drv := &stubDriver{}
	setupSweeperTest(t, drv)
	mr := setupLedgerTestRedis()
	defer mr.Close()

	sweeper := NewExpirySweeper(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		sweeper.Start()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	sweeper.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
