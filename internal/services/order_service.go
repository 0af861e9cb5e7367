package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/buba6c/onesms-v1-sub003/config"
	"github.com/buba6c/onesms-v1-sub003/internal/database"
	"github.com/buba6c/onesms-v1-sub003/internal/models"
	"github.com/buba6c/onesms-v1-sub003/internal/provider"
	"github.com/buba6c/onesms-v1-sub003/internal/provider/smshub"
	"github.com/buba6c/onesms-v1-sub003/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProviderFailure = errors.New("provider call failed")
	ErrOrderForbidden  = errors.New("order belongs to another user")
)

// providerDriver is the process-wide SMS provider client. Tests swap it for
// a stub via SetProviderDriver.
var providerDriver provider.Driver

// SetProviderDriver overrides the provider client.
func SetProviderDriver(d provider.Driver) {
	providerDriver = d
}

func getProviderDriver() (provider.Driver, error) {
	if providerDriver != nil {
		return providerDriver, nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	d := smshub.NewSmshubDriver()
	if err := d.SetConfig(map[string]interface{}{
		"base_url": cfg.ProviderBaseURL,
		"api_key":  cfg.ProviderAPIKey,
	}); err != nil {
		return nil, err
	}
	providerDriver = d
	return providerDriver, nil
}

// OrderFilter defines criteria for querying orders
type OrderFilter struct {
	UserID    *uint
	Status    *models.OrderStatus
	Kind      *models.OrderKind
	StartTime *time.Time
	EndTime   *time.Time
	Page      int
	Limit     int
}

// PurchaseRequest describes one number purchase
type PurchaseRequest struct {
	UserID  uint
	Kind    models.OrderKind
	Service string
	Country string
	Price   float64
}

// PurchaseNumber runs the full purchase flow: freeze the credits (one
// transaction, user row locked), then call the provider with no lock held,
// then persist the provider references. A provider failure or timeout
// releases the reservation before the error is surfaced, so a hung provider
// can never leave credits frozen indefinitely.
func PurchaseNumber(req PurchaseRequest, meta LedgerMetadata) (*models.Order, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:        newOrderID(),
		Kind:      req.Kind,
		Service:   req.Service,
		Country:   req.Country,
		Price:     req.Price,
		Status:    models.OrderStatusPending,
		ExpiresAt: time.Now().Add(cfg.OrderTTL),
	}

	if _, err := Freeze(req.UserID, req.Price, order, meta); err != nil {
		return nil, err
	}

	drv, err := getProviderDriver()
	if err != nil {
		releaseAfterProviderFailure(order.ID)
		return nil, err
	}

	res, err := drv.Purchase(req.Service, req.Country)
	if err != nil {
		releaseAfterProviderFailure(order.ID)
		if errors.Is(err, provider.ErrNoNumbers) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	// Record the provider references. The reservation stays held either way:
	// if this write fails we cancel at the provider and refund.
	updates := map[string]interface{}{
		"phone_number":  res.PhoneNumber,
		"activation_id": res.ActivationID,
		"status":        models.OrderStatusWaiting,
		"updated_at":    time.Now(),
	}
	if err := database.DB.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
		if cancelErr := drv.Cancel(res.ActivationID); cancelErr != nil {
			logger.Log.Warn("provider cancel after persist failure",
				zap.String("order_id", order.ID), zap.Error(cancelErr))
		}
		releaseAfterProviderFailure(order.ID)
		return nil, err
	}

	order.PhoneNumber = res.PhoneNumber
	order.ActivationID = res.ActivationID
	order.Status = models.OrderStatusWaiting
	return order, nil
}

// releaseAfterProviderFailure refunds the freshly frozen reservation. A
// failure here means the user keeps a frozen balance the reconciliation
// monitor will flag, so it is logged loudly rather than swallowed.
func releaseAfterProviderFailure(orderID string) {
	if _, err := RefundOrder(orderID, models.OrderStatusCancelled, systemMeta); err != nil {
		logger.Log.Error("failed to release reservation after provider failure",
			zap.String("order_id", orderID), zap.Error(err))
	}
}

// CheckOrder polls the provider for the order's activation state and
// resolves the reservation when the state is final. Safe to race the
// sweeper: resolution goes through the idempotent ledger operations.
func CheckOrder(orderID string, meta LedgerMetadata) (*models.Order, error) {
	order, err := GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}

	if order.Status.IsTerminal() {
		return order, nil
	}
	if order.ActivationID == "" {
		return order, nil
	}

	drv, err := getProviderDriver()
	if err != nil {
		return nil, err
	}

	status, err := drv.CheckStatus(order.ActivationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	switch status.State {
	case provider.StateReceived:
		if err := database.DB.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("sms_code", status.Code).Error; err != nil {
			return nil, err
		}
		if _, err := CommitOrder(order.ID, meta); err != nil {
			return nil, err
		}
	case provider.StateCancelled:
		if _, err := RefundOrder(order.ID, models.OrderStatusCancelled, meta); err != nil {
			return nil, err
		}
	}

	return GetOrderByID(orderID)
}

// CancelOrder cancels an active order on the user's request: best-effort
// provider cancel, then refund. Cancelling an already-resolved order is a
// no-op and returns the order unchanged.
func CancelOrder(orderID string, meta LedgerMetadata) (*models.Order, error) {
	order, err := GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.IsTerminal() && order.ActivationID != "" {
		if drv, derr := getProviderDriver(); derr == nil {
			if cancelErr := drv.Cancel(order.ActivationID); cancelErr != nil {
				logger.Log.Warn("provider cancel failed",
					zap.String("order_id", order.ID), zap.Error(cancelErr))
			}
		}
	}

	if _, err := RefundOrder(orderID, models.OrderStatusCancelled, meta); err != nil {
		return nil, err
	}

	return GetOrderByID(orderID)
}

// FindOrders queries orders with filtering and pagination
func FindOrders(filter OrderFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := database.DB.Model(&models.Order{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.StartTime != nil {
		query = query.Where("created_at >= ?", *filter.StartTime)
	}
	if filter.EndTime != nil {
		query = query.Where("created_at <= ?", *filter.EndTime)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("created_at desc").Limit(filter.Limit).Offset(offset).Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// GetOrderByID fetches one order
func GetOrderByID(orderID string) (*models.Order, error) {
	var order models.Order
	if err := database.DB.First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func newOrderID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
