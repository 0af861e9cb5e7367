package user

// UserResponse is the account view returned by auth and profile endpoints.
type UserResponse struct {
	ID        uint    `json:"id"`
	Username  string  `json:"username"`
	Role      string  `json:"role"`
	IsActive  bool    `json:"is_active"`
	Balance   float64 `json:"balance"`
	Frozen    float64 `json:"frozen_balance"`
	Available float64 `json:"available_balance"`
	Token     string  `json:"token,omitempty"`
}
