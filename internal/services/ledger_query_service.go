package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/buba6c/onesms-v1-sub003/internal/database"
	"github.com/buba6c/onesms-v1-sub003/internal/models"
)

// LedgerFilter defines criteria for filtering ledger entries
type LedgerFilter struct {
	UserID    *uint
	OrderID   *string
	Operation *models.LedgerOperation
	StartTime *time.Time
	EndTime   *time.Time
	MinAmount *float64
	MaxAmount *float64
	Page      int
	Limit     int
}

// FindLedgerEntries retrieves a paginated list of ledger entries with filtering
func FindLedgerEntries(filter LedgerFilter) ([]models.LedgerEntry, int64, error) {
	var entries []models.LedgerEntry
	var total int64

	query := database.DB.Model(&models.LedgerEntry{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.Operation != nil {
		query = query.Where("operation = ?", *filter.Operation)
	}
	if filter.StartTime != nil {
		query = query.Where("created_at >= ?", *filter.StartTime)
	}
	if filter.EndTime != nil {
		query = query.Where("created_at <= ?", *filter.EndTime)
	}
	if filter.MinAmount != nil {
		query = query.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("amount <= ?", *filter.MaxAmount)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("created_at desc").Limit(filter.Limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// GenerateLedgerCSV generates a CSV file content for ledger entries
func GenerateLedgerCSV(entries []models.LedgerEntry) ([]byte, error) {
	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	// Write header
	header := []string{
		"ID", "Time", "User ID", "Order ID", "Operation", "Amount",
		"Balance Before", "Balance After", "Frozen Before", "Frozen After",
		"Reason", "Operator", "Hash",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	// Write data
	for _, e := range entries {
		orderID := ""
		if e.OrderID != nil {
			orderID = *e.OrderID
		}
		record := []string{
			fmt.Sprintf("%d", e.ID),
			e.CreatedAt.Format(time.RFC3339Nano),
			fmt.Sprintf("%d", e.UserID),
			orderID,
			string(e.Operation),
			fmt.Sprintf("%.8f", e.Amount),
			fmt.Sprintf("%.8f", e.BalanceBefore),
			fmt.Sprintf("%.8f", e.BalanceAfter),
			fmt.Sprintf("%.8f", e.FrozenBefore),
			fmt.Sprintf("%.8f", e.FrozenAfter),
			e.Reason,
			e.Operator,
			e.Hash,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}
