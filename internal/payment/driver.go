package payment

// Driver is the interface that all payment-gateway drivers must implement.
type Driver interface {
	// SetConfig sets the configuration for the driver
	SetConfig(config map[string]interface{}) error

	// Pay initiates a payment and returns the jump URL for the user's
	// browser. notifyURL already carries the payment config UUID.
	Pay(orderID string, amount float64, notifyURL string, returnURL string, params map[string]interface{}) (string, error)

	// Notify verifies the callback parameters
	// Returns: isValid, orderID, externalID, error
	Notify(params map[string]interface{}) (bool, string, string, error)
}
