package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/buba6c/onesms-v1-sub003/internal/database"
	"github.com/buba6c/onesms-v1-sub003/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Health classification for a user's frozen balance.
const (
	HealthStatusHealthy = "HEALTHY"
	HealthStatusDrifted = "DRIFTED"
)

// UserHealthReport compares a user's frozen balance against the sum of
// their active orders' reservations. Read-only: building a report never
// mutates anything.
type UserHealthReport struct {
	UserID         uint      `json:"user_id"`
	Username       string    `json:"username"`
	ExpectedFrozen float64   `json:"expected_frozen"` // sum of active orders' frozen_amount
	ActualFrozen   float64   `json:"actual_frozen"`   // user.frozen_balance
	Discrepancy    float64   `json:"discrepancy"`     // actual - expected
	Status         string    `json:"status"`
	ActiveOrders   int       `json:"active_orders"`
	OrphanedOrders []string  `json:"orphaned_orders,omitempty"` // terminal status but frozen_amount > 0
	CheckedAt      time.Time `json:"checked_at"`
}

// HealthSummary aggregates a full scan.
type HealthSummary struct {
	UsersChecked int                `json:"users_checked"`
	UsersDrifted int                `json:"users_drifted"`
	Drifted      []UserHealthReport `json:"drifted"`
	CheckedAt    time.Time          `json:"checked_at"`
}

// RepairResult records an administrative frozen-balance overwrite.
type RepairResult struct {
	UserID       uint    `json:"user_id"`
	FrozenBefore float64 `json:"frozen_before"`
	FrozenAfter  float64 `json:"frozen_after"`
	Adjustment   float64 `json:"adjustment"`
}

// CheckUser builds the health report for a single user. Known root causes
// of drift: a direct refund that skipped order cleanup, a sweeper that
// never ran, or a crash between the freeze and the order write.
func CheckUser(userID uint) (*UserHealthReport, error) {
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	report := &UserHealthReport{
		UserID:    user.ID,
		Username:  user.Username,
		CheckedAt: time.Now(),
	}

	var orders []models.Order
	if err := database.DB.Where("user_id = ? AND frozen_amount > 0", userID).Find(&orders).Error; err != nil {
		return nil, err
	}

	for _, o := range orders {
		report.ExpectedFrozen += o.FrozenAmount
		if o.Status.IsTerminal() {
			// A terminal order still carrying a reservation is an invariant
			// violation in its own right; name the row.
			report.OrphanedOrders = append(report.OrphanedOrders, o.ID)
		} else {
			report.ActiveOrders++
		}
	}

	report.ActualFrozen = user.FrozenBalance
	report.Discrepancy = report.ActualFrozen - report.ExpectedFrozen

	if math.Abs(report.Discrepancy) < driftEpsilon && len(report.OrphanedOrders) == 0 {
		report.Status = HealthStatusHealthy
	} else {
		report.Status = HealthStatusDrifted
	}

	return report, nil
}

// CheckAllUsers scans every user and returns the drifted ones.
func CheckAllUsers() (*HealthSummary, error) {
	var userIDs []uint
	if err := database.DB.Model(&models.User{}).Pluck("id", &userIDs).Error; err != nil {
		return nil, err
	}

	summary := &HealthSummary{CheckedAt: time.Now()}
	for _, id := range userIDs {
		report, err := CheckUser(id)
		if err != nil {
			return nil, err
		}
		summary.UsersChecked++
		if report.Status != HealthStatusHealthy {
			summary.UsersDrifted++
			summary.Drifted = append(summary.Drifted, *report)
		}
	}

	return summary, nil
}

// RepairFrozenBalance overwrites the user's frozen balance with the sum of
// their active orders' reservations. Manual, audited, admin-only: it is the
// single sanctioned write path for repairing drift and is never called by
// the purchase, sweep or webhook flows.
func RepairFrozenBalance(userID uint, meta LedgerMetadata) (*RepairResult, error) {
	var result *RepairResult
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		var expected float64
		row := tx.Model(&models.Order{}).
			Where("user_id = ? AND frozen_amount > 0 AND status IN ?",
				userID, []models.OrderStatus{models.OrderStatusPending, models.OrderStatusWaiting}).
			Select("COALESCE(SUM(frozen_amount), 0)").Row()
		if err := row.Scan(&expected); err != nil {
			return err
		}

		frozenBefore := user.FrozenBalance
		if math.Abs(frozenBefore-expected) < driftEpsilon {
			result = &RepairResult{
				UserID:       userID,
				FrozenBefore: frozenBefore,
				FrozenAfter:  frozenBefore,
			}
			return nil
		}

		user.FrozenBalance = expected
		user.Version++
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		entry := models.LedgerEntry{
			UserID:        userID,
			Operation:     models.LedgerOpRepair,
			Amount:        math.Abs(expected - frozenBefore),
			BalanceBefore: user.Balance,
			BalanceAfter:  user.Balance,
			FrozenBefore:  frozenBefore,
			FrozenAfter:   expected,
			Reason:        fmt.Sprintf("admin repair: frozen balance recomputed from %d active order(s)", countActive(tx, userID)),
			Operator:      meta.Operator,
			OperatorID:    meta.OperatorID,
		}
		if err := writeLedgerEntry(tx, &entry); err != nil {
			return err
		}

		result = &RepairResult{
			UserID:       userID,
			FrozenBefore: frozenBefore,
			FrozenAfter:  expected,
			Adjustment:   expected - frozenBefore,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateUserCache(userID)
	return result, nil
}

func countActive(tx *gorm.DB, userID uint) int64 {
	var n int64
	tx.Model(&models.Order{}).
		Where("user_id = ? AND frozen_amount > 0", userID).
		Count(&n)
	return n
}
