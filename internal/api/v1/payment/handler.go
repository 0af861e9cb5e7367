package payment

import (
	"fmt"
	"net/http"

	"github.com/buba6c/onesms-v1-sub003/internal/models"
	"github.com/buba6c/onesms-v1-sub003/internal/services"
	"github.com/buba6c/onesms-v1-sub003/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListMethods godoc
// @Summary List enabled payment methods
// @Tags payment
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=[]PaymentMethodItem}
// @Router /payment/methods [get]
func ListMethods(c *gin.Context) {
	methods, err := services.GetPaymentMethods()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch payment methods"))
		return
	}

	items := make([]PaymentMethodItem, 0, len(methods))
	for _, m := range methods {
		items = append(items, PaymentMethodItem{UUID: m.UUID, Name: m.Name})
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Payment methods retrieved", items))
}

// CreateDeposit godoc
// @Summary Create a deposit order
// @Description Open a top-up order and return the gateway jump URL
// @Tags payment
// @Accept json
// @Produce json
// @Security Bearer
// @Param input body CreateDepositInput true "Deposit Input"
// @Success 201 {object} utils.Response{data=CreateDepositResponse}
// @Failure 400 {object} utils.Response
// @Router /payment/orders [post]
func CreateDeposit(c *gin.Context) {
	v, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}
	u := v.(models.User)

	var input CreateDepositInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	order, err := services.CreateDepositOrder(u.ID, input.Amount, input.PaymentUUID)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		return
	}

	notifyBaseURL := fmt.Sprintf("%s://%s/api/v1/payment/notify", scheme(c), c.Request.Host)
	jumpURL, err := services.GetPaymentJumpURL(order.ID, input.PaymentUUID, input.Channel, notifyBaseURL, input.ReturnURL)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse("Deposit order created", CreateDepositResponse{
		OrderID: order.ID,
		Amount:  order.Amount,
		JumpURL: jumpURL,
	}))
}

// Notify godoc
// @Summary Payment gateway callback
// @Description Verifies the gateway signature and credits the deposit
// @Tags payment
// @Produce plain
// @Param uuid path string true "Payment config UUID"
// @Success 200 {string} string "success"
// @Router /payment/notify/{uuid} [get]
func Notify(c *gin.Context) {
	paymentUUID := c.Param("uuid")

	params := make(map[string]interface{})
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	if err := services.HandlePaymentNotify(paymentUUID, params); err != nil {
		zap.L().Warn("payment notify rejected", zap.String("payment_uuid", paymentUUID), zap.Error(err))
		c.String(http.StatusBadRequest, "fail")
		return
	}

	// Gateways retry until they see the literal "success".
	c.String(http.StatusOK, "success")
}

func scheme(c *gin.Context) string {
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
