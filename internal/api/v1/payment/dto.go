package payment

type PaymentMethodItem struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

type CreateDepositInput struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	PaymentUUID string  `json:"payment_uuid" binding:"required"`
	Channel     string  `json:"channel"`
	ReturnURL   string  `json:"return_url"`
}

type CreateDepositResponse struct {
	OrderID string  `json:"order_id"`
	Amount  float64 `json:"amount"`
	JumpURL string  `json:"jump_url"`
}
