package models

import "time"

type OrderKind string

const (
	OrderKindActivation OrderKind = "activation"
	OrderKindRental     OrderKind = "rental"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // created, waiting for provider to assign a number
	OrderStatusWaiting   OrderStatus = "waiting"   // number assigned, waiting for SMS
	OrderStatusCompleted OrderStatus = "completed" // SMS received, charge finalized
	OrderStatusCancelled OrderStatus = "cancelled" // cancelled by user or failed purchase
	OrderStatusTimeout   OrderStatus = "timeout"   // expired, force-refunded by the sweeper
)

// IsTerminal reports whether the status is a final sink. Terminal orders
// always have FrozenAmount == 0 and further Commit/Refund calls no-op.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled || s == OrderStatusTimeout
}

// Order is the permanent record of one credit reservation (activation or
// rental). Rows are never deleted; resolution is recorded in Status,
// FrozenAmount and Charged.
type Order struct {
	ID           string      `gorm:"primarykey;type:varchar(32)" json:"id"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	UserID       uint        `gorm:"index;not null" json:"user_id"`
	Kind         OrderKind   `gorm:"type:varchar(20);not null;default:'activation'" json:"kind"`
	Status       OrderStatus `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`
	Service      string      `gorm:"type:varchar(50)" json:"service"`
	Country      string      `gorm:"type:varchar(10)" json:"country"`
	Price        float64     `gorm:"type:decimal(20,8);not null" json:"price"`
	FrozenAmount float64     `gorm:"type:decimal(20,8);not null;default:0" json:"frozen_amount"`
	Charged      bool        `gorm:"default:false" json:"charged"`
	PhoneNumber  string      `gorm:"type:varchar(32)" json:"phone_number"`
	ActivationID string      `gorm:"type:varchar(64);index" json:"activation_id"` // provider-side reference
	SMSCode      string      `gorm:"type:varchar(64)" json:"sms_code"`
	ExpiresAt    time.Time   `gorm:"index" json:"expires_at"`
}

func (Order) TableName() string {
	return "orders"
}
