package ledger

import (
	"time"

	"github.com/buba6c/onesms-v1-sub003/internal/models"
)

type LedgerListItem struct {
	ID            uint                   `json:"id"`
	CreatedAt     time.Time              `json:"created_at"`
	UserID        uint                   `json:"user_id"`
	OrderID       *string                `json:"order_id"`
	Operation     models.LedgerOperation `json:"operation"`
	Amount        float64                `json:"amount"`
	BalanceBefore float64                `json:"balance_before"`
	BalanceAfter  float64                `json:"balance_after"`
	FrozenBefore  float64                `json:"frozen_before"`
	FrozenAfter   float64                `json:"frozen_after"`
	Reason        string                 `json:"reason"`
	Operator      string                 `json:"operator"`
	Hash          string                 `json:"hash"`
}

type LedgerListResponse struct {
	Entries []LedgerListItem `json:"entries"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
}

type RefundDirectInput struct {
	UserID uint    `json:"user_id" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Reason string  `json:"reason" binding:"required"`
}
