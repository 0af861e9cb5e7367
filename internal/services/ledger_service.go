package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/buba6c/onesms-v1-sub003/config"
	"github.com/buba6c/onesms-v1-sub003/internal/database"
	"github.com/buba6c/onesms-v1-sub003/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Errors returned by the ledger operations. Storage errors are returned
// as-is so the surrounding transaction rolls back and the caller can retry.
var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient available balance")
	ErrDuplicateFreeze     = errors.New("order already holds a frozen reservation")
	ErrRefundExceedsFrozen = errors.New("refund amount exceeds frozen balance")
	ErrInvalidFinalStatus  = errors.New("refund final status must be cancelled or timeout")
)

// driftEpsilon absorbs float rounding when comparing monetary amounts.
const driftEpsilon = 1e-6

// LedgerMetadata carries audit context for a ledger mutation.
type LedgerMetadata struct {
	Operator   string // Username or "system"
	OperatorID uint   // 0 for system
}

var systemMeta = LedgerMetadata{Operator: "system"}

// LedgerResult reports what a ledger operation did. Applied is false when
// the operation was a safe no-op against an already-resolved order.
type LedgerResult struct {
	Applied       bool    `json:"applied"`
	OrderID       string  `json:"order_id,omitempty"`
	Amount        float64 `json:"amount"`
	BalanceAfter  float64 `json:"balance_after"`
	FrozenAfter   float64 `json:"frozen_after"`
	OrdersCleaned int     `json:"orders_cleaned,omitempty"` // RefundDirect only
	AmountZeroed  float64 `json:"amount_zeroed,omitempty"`  // RefundDirect only
}

// Freeze reserves credits for a new order: Balance -= amount,
// FrozenBalance += amount, and the order row is created with
// FrozenAmount = amount, all in one transaction holding the user row lock.
// The total of the two balance fields is unchanged.
func Freeze(userID uint, amount float64, order *models.Order, meta LedgerMetadata) (*LedgerResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var result *LedgerResult
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		// Reject a second reservation against the same order instead of
		// double-freezing. Correct callers never hit this.
		var existing models.Order
		if err := tx.First(&existing, "id = ?", order.ID).Error; err == nil {
			return ErrDuplicateFreeze
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if user.AvailableBalance() < amount-driftEpsilon {
			return ErrInsufficientBalance
		}

		balanceBefore := user.Balance
		frozenBefore := user.FrozenBalance
		user.Balance -= amount
		user.FrozenBalance += amount
		user.Version++
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		order.UserID = userID
		order.FrozenAmount = amount
		if order.Status == "" {
			order.Status = models.OrderStatusPending
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		entry := models.LedgerEntry{
			UserID:        userID,
			OrderID:       &order.ID,
			Operation:     models.LedgerOpFreeze,
			Amount:        amount,
			BalanceBefore: balanceBefore,
			BalanceAfter:  user.Balance,
			FrozenBefore:  frozenBefore,
			FrozenAfter:   user.FrozenBalance,
			Reason:        fmt.Sprintf("Freeze for order %s", order.ID),
			Operator:      meta.Operator,
			OperatorID:    meta.OperatorID,
		}
		if err := writeLedgerEntry(tx, &entry); err != nil {
			return err
		}

		result = &LedgerResult{
			Applied:      true,
			OrderID:      order.ID,
			Amount:       amount,
			BalanceAfter: user.Balance,
			FrozenAfter:  user.FrozenBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateUserCache(userID)
	return result, nil
}

// CommitOrder finalizes a successful order. The frozen reservation is
// released without returning credits to Balance: they were spent.
// Calling it on an already-resolved order returns Applied=false, not an
// error, so a late provider confirmation racing the sweeper stays safe.
func CommitOrder(orderID string, meta LedgerMetadata) (*LedgerResult, error) {
	return resolveOrder(orderID, models.OrderStatusCompleted, meta)
}

// RefundOrder cancels or expires an order, returning the frozen reservation
// to Balance. finalStatus must be cancelled or timeout. Same no-op
// idempotency as CommitOrder.
func RefundOrder(orderID string, finalStatus models.OrderStatus, meta LedgerMetadata) (*LedgerResult, error) {
	if finalStatus != models.OrderStatusCancelled && finalStatus != models.OrderStatusTimeout {
		return nil, ErrInvalidFinalStatus
	}
	return resolveOrder(orderID, finalStatus, meta)
}

// resolveOrder is the shared commit/refund path. The order's FrozenAmount is
// re-read under the transaction's row lock, so two concurrent resolutions of
// the same order get exactly one winner; the loser observes FrozenAmount == 0
// and returns the no-op result.
func resolveOrder(orderID string, finalStatus models.OrderStatus, meta LedgerMetadata) (*LedgerResult, error) {
	var result *LedgerResult
	var cachedUserID uint

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if order.FrozenAmount <= 0 {
			// Already resolved by another caller.
			result = &LedgerResult{Applied: false, OrderID: order.ID}
			return nil
		}

		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, order.UserID).Error; err != nil {
			return err
		}
		cachedUserID = user.ID

		amount := order.FrozenAmount
		balanceBefore := user.Balance
		frozenBefore := user.FrozenBalance

		operation := models.LedgerOpCommit
		if finalStatus != models.OrderStatusCompleted {
			operation = models.LedgerOpRefund
			user.Balance += amount
		}
		user.FrozenBalance -= amount
		if user.FrozenBalance < 0 && user.FrozenBalance > -driftEpsilon {
			user.FrozenBalance = 0
		}
		user.Version++
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		order.FrozenAmount = 0
		order.Status = finalStatus
		if finalStatus == models.OrderStatusCompleted {
			order.Charged = true
		}
		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		entry := models.LedgerEntry{
			UserID:        user.ID,
			OrderID:       &order.ID,
			Operation:     operation,
			Amount:        amount,
			BalanceBefore: balanceBefore,
			BalanceAfter:  user.Balance,
			FrozenBefore:  frozenBefore,
			FrozenAfter:   user.FrozenBalance,
			Reason:        fmt.Sprintf("%s order %s (%s)", operation, order.ID, finalStatus),
			Operator:      meta.Operator,
			OperatorID:    meta.OperatorID,
		}
		if err := writeLedgerEntry(tx, &entry); err != nil {
			return err
		}

		result = &LedgerResult{
			Applied:      true,
			OrderID:      order.ID,
			Amount:       amount,
			BalanceAfter: user.Balance,
			FrozenAfter:  user.FrozenBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Applied {
		invalidateUserCache(cachedUserID)
	}
	return result, nil
}

// RefundDirect refunds frozen credits by amount when no order reference is
// available (a purchase that failed before its order row could be keyed).
// Within the same transaction it also zeroes any of the user's active orders
// whose reservations are covered by the amount; skipping that cleanup is
// what used to leave orphaned reservations behind and desynchronize the
// frozen balance from the order table.
func RefundDirect(userID uint, amount float64, reason string, meta LedgerMetadata) (*LedgerResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var result *LedgerResult
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if amount > user.FrozenBalance+driftEpsilon {
			return ErrRefundExceedsFrozen
		}

		balanceBefore := user.Balance
		frozenBefore := user.FrozenBalance
		user.Balance += amount
		user.FrozenBalance -= amount
		if user.FrozenBalance < 0 && user.FrozenBalance > -driftEpsilon {
			user.FrozenBalance = 0
		}
		user.Version++
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		// Zero the active reservations this refund covers, oldest first.
		var active []models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND frozen_amount > 0", userID).
			Order("created_at asc").
			Find(&active).Error; err != nil {
			return err
		}

		cleaned := 0
		zeroed := 0.0
		for i := range active {
			o := &active[i]
			if zeroed+o.FrozenAmount > amount+driftEpsilon {
				continue
			}
			zeroed += o.FrozenAmount
			o.FrozenAmount = 0
			o.Status = models.OrderStatusCancelled
			if err := tx.Save(o).Error; err != nil {
				return err
			}
			cleaned++
		}

		if reason == "" {
			reason = "direct refund"
		}
		if cleaned > 0 {
			reason = fmt.Sprintf("%s (zeroed %d order(s), %.8f)", reason, cleaned, zeroed)
		}

		entry := models.LedgerEntry{
			UserID:        userID,
			Operation:     models.LedgerOpRefundDirect,
			Amount:        amount,
			BalanceBefore: balanceBefore,
			BalanceAfter:  user.Balance,
			FrozenBefore:  frozenBefore,
			FrozenAfter:   user.FrozenBalance,
			Reason:        reason,
			Operator:      meta.Operator,
			OperatorID:    meta.OperatorID,
		}
		if err := writeLedgerEntry(tx, &entry); err != nil {
			return err
		}

		result = &LedgerResult{
			Applied:       true,
			Amount:        amount,
			BalanceAfter:  user.Balance,
			FrozenAfter:   user.FrozenBalance,
			OrdersCleaned: cleaned,
			AmountZeroed:  zeroed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateUserCache(userID)
	return result, nil
}

// Deposit credits the user's available balance. It is the only balance
// write outside the four reservation operations and never touches
// FrozenBalance.
func Deposit(userID uint, amount float64, reason string, meta LedgerMetadata) (*LedgerResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var result *LedgerResult
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		balanceBefore := user.Balance
		user.Balance += amount
		user.Version++
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		entry := models.LedgerEntry{
			UserID:        userID,
			Operation:     models.LedgerOpDeposit,
			Amount:        amount,
			BalanceBefore: balanceBefore,
			BalanceAfter:  user.Balance,
			FrozenBefore:  user.FrozenBalance,
			FrozenAfter:   user.FrozenBalance,
			Reason:        reason,
			Operator:      meta.Operator,
			OperatorID:    meta.OperatorID,
		}
		if err := writeLedgerEntry(tx, &entry); err != nil {
			return err
		}

		result = &LedgerResult{
			Applied:      true,
			Amount:       amount,
			BalanceAfter: user.Balance,
			FrozenAfter:  user.FrozenBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateUserCache(userID)
	return result, nil
}

// writeLedgerEntry stamps, hashes and appends one audit row. Must be called
// inside the transaction performing the mutation it records.
func writeLedgerEntry(tx *gorm.DB, entry *models.LedgerEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.Operator == "" {
		entry.Operator = "system"
	}

	cfg, _ := config.LoadConfig()
	secret := "default-secret"
	if cfg != nil && cfg.LedgerHashSecret != "" {
		secret = cfg.LedgerHashSecret
	}
	entry.Hash = entry.GenerateHash(secret)

	return tx.Create(entry).Error
}
