package models

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// LedgerOperation is a closed set: every consumer switches over all values.
type LedgerOperation string

const (
	LedgerOpFreeze       LedgerOperation = "freeze"
	LedgerOpCommit       LedgerOperation = "commit"
	LedgerOpRefund       LedgerOperation = "refund"
	LedgerOpRefundDirect LedgerOperation = "refund_direct"
	LedgerOpDeposit      LedgerOperation = "deposit"
	LedgerOpRepair       LedgerOperation = "repair"
)

// Valid reports whether op is one of the known operations.
func (op LedgerOperation) Valid() bool {
	switch op {
	case LedgerOpFreeze, LedgerOpCommit, LedgerOpRefund, LedgerOpRefundDirect, LedgerOpDeposit, LedgerOpRepair:
		return true
	}
	return false
}

// LedgerEntry is the append-only audit log of every balance mutation.
// Rows are created exactly once per mutation and never updated or deleted;
// they are the sole source of truth when diagnosing frozen-balance drift.
type LedgerEntry struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	CreatedAt     time.Time       `gorm:"precision:3" json:"created_at"` // Millisecond precision
	UserID        uint            `gorm:"index;not null" json:"user_id"`
	OrderID       *string         `gorm:"type:varchar(32);index" json:"order_id"` // nil for direct operations
	Operation     LedgerOperation `gorm:"type:varchar(20);index;not null" json:"operation"`
	Amount        float64         `gorm:"type:decimal(20,8);not null" json:"amount"`
	BalanceBefore float64         `gorm:"type:decimal(20,8);not null" json:"balance_before"`
	BalanceAfter  float64         `gorm:"type:decimal(20,8);not null" json:"balance_after"`
	FrozenBefore  float64         `gorm:"type:decimal(20,8);not null" json:"frozen_before"`
	FrozenAfter   float64         `gorm:"type:decimal(20,8);not null" json:"frozen_after"`
	Reason        string          `gorm:"type:text" json:"reason"`
	Operator      string          `gorm:"type:varchar(100)" json:"operator"` // Username or 'system'
	OperatorID    uint            `gorm:"index;default:0" json:"operator_id"`
	Hash          string          `gorm:"type:varchar(64);default:''" json:"hash"` // HMAC SHA256
}

// GenerateHash generates a tamper-proof hash for the ledger entry
func (e *LedgerEntry) GenerateHash(secret string) string {
	orderID := ""
	if e.OrderID != nil {
		orderID = *e.OrderID
	}
	data := fmt.Sprintf("%d|%d|%s|%s|%.8f|%.8f|%.8f|%.8f|%.8f|%s|%s|%d",
		e.UserID, e.CreatedAt.UnixNano(), orderID, e.Operation,
		e.Amount, e.BalanceBefore, e.BalanceAfter, e.FrozenBefore, e.FrozenAfter,
		e.Reason, e.Operator, e.OperatorID)

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
