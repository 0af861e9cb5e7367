package order

import (
	"time"

	"github.com/buba6c/onesms-v1-sub003/internal/models"
)

type CreateOrderInput struct {
	Kind    string  `json:"kind" binding:"required,oneof=activation rental"`
	Service string  `json:"service" binding:"required"`
	Country string  `json:"country" binding:"required"`
	Price   float64 `json:"price" binding:"required,gt=0"`
}

type OrderResponse struct {
	ID           string             `json:"id"`
	Kind         models.OrderKind   `json:"kind"`
	Status       models.OrderStatus `json:"status"`
	Service      string             `json:"service"`
	Country      string             `json:"country"`
	Price        float64            `json:"price"`
	FrozenAmount float64            `json:"frozen_amount"`
	Charged      bool               `json:"charged"`
	PhoneNumber  string             `json:"phone_number,omitempty"`
	SMSCode      string             `json:"sms_code,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	ExpiresAt    time.Time          `json:"expires_at"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int64           `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

func toOrderResponse(o *models.Order) OrderResponse {
	return OrderResponse{
		ID:           o.ID,
		Kind:         o.Kind,
		Status:       o.Status,
		Service:      o.Service,
		Country:      o.Country,
		Price:        o.Price,
		FrozenAmount: o.FrozenAmount,
		Charged:      o.Charged,
		PhoneNumber:  o.PhoneNumber,
		SMSCode:      o.SMSCode,
		CreatedAt:    o.CreatedAt,
		ExpiresAt:    o.ExpiresAt,
	}
}
