package services

import (
	"time"

	"github.com/buba6c/onesms-v1-sub003/internal/database"
	"github.com/buba6c/onesms-v1-sub003/internal/models"
	"github.com/buba6c/onesms-v1-sub003/pkg/logger"

	"go.uber.org/zap"
)

// ExpirySweeper periodically force-refunds orders that passed their deadline
// without being resolved. It takes no locks of its own: two overlapping
// sweeps, or a sweep racing a synchronous check, are safe because RefundOrder
// is idempotent. Each order is refunded in its own transaction, so a sweep
// that dies mid-batch has fully processed some orders and untouched the rest.
type ExpirySweeper struct {
	Interval time.Duration
	stopChan chan struct{}
}

// SweepStats summarizes one sweep pass.
type SweepStats struct {
	Scanned         int
	Refunded        int
	AlreadyResolved int
	Errors          int
}

func NewExpirySweeper(interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{
		Interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called.
func (s *ExpirySweeper) Start() {
	logger.Log.Info("ExpirySweeper started", zap.Duration("interval", s.Interval))
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats, err := s.SweepOnce()
			if err != nil {
				logger.Log.Error("sweep failed", zap.Error(err))
				continue
			}
			if stats.Scanned > 0 {
				logger.Log.Info("sweep finished",
					zap.Int("scanned", stats.Scanned),
					zap.Int("refunded", stats.Refunded),
					zap.Int("already_resolved", stats.AlreadyResolved),
					zap.Int("errors", stats.Errors))
			}
		case <-s.stopChan:
			return
		}
	}
}

// Stop terminates the loop.
func (s *ExpirySweeper) Stop() {
	close(s.stopChan)
}

// SweepOnce refunds every expired, still-active order. The provider cancel
// is best effort and happens before the refund transaction, never inside it.
func (s *ExpirySweeper) SweepOnce() (*SweepStats, error) {
	var expired []models.Order
	if err := database.DB.
		Where("status IN ? AND expires_at < ?",
			[]models.OrderStatus{models.OrderStatusPending, models.OrderStatusWaiting}, time.Now()).
		Find(&expired).Error; err != nil {
		return nil, err
	}

	stats := &SweepStats{Scanned: len(expired)}

	for _, order := range expired {
		if order.ActivationID != "" {
			if drv, err := getProviderDriver(); err == nil {
				if err := drv.Cancel(order.ActivationID); err != nil {
					logger.Log.Warn("provider cancel failed during sweep",
						zap.String("order_id", order.ID), zap.Error(err))
				}
			}
		}

		res, err := RefundOrder(order.ID, models.OrderStatusTimeout, systemMeta)
		if err != nil {
			stats.Errors++
			logger.Log.Error("sweep refund failed",
				zap.String("order_id", order.ID), zap.Error(err))
			continue
		}
		if res.Applied {
			stats.Refunded++
		} else {
			// Resolved between our scan and the refund. Fine.
			stats.AlreadyResolved++
		}
	}

	return stats, nil
}
