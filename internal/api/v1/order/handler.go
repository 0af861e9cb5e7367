package order

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/buba6c/onesms-v1-sub003/internal/models"
	"github.com/buba6c/onesms-v1-sub003/internal/provider"
	"github.com/buba6c/onesms-v1-sub003/internal/services"
	"github.com/buba6c/onesms-v1-sub003/internal/utils"

	"github.com/gin-gonic/gin"
)

func currentUser(c *gin.Context) (models.User, bool) {
	v, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return models.User{}, false
	}
	return v.(models.User), true
}

// loadOwnOrder fetches the order and enforces ownership (admins see all).
func loadOwnOrder(c *gin.Context, u models.User) (*models.Order, bool) {
	o, err := services.GetOrderByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "Order not found"))
		} else {
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch order"))
		}
		return nil, false
	}
	if o.UserID != u.ID && u.Role != "admin" {
		c.JSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Forbidden"))
		return nil, false
	}
	return o, true
}

// CreateOrder godoc
// @Summary Buy a phone number
// @Description Freeze the order price and purchase a number from the provider
// @Tags order
// @Accept json
// @Produce json
// @Security Bearer
// @Param input body CreateOrderInput true "Order Input"
// @Success 201 {object} utils.Response{data=OrderResponse}
// @Failure 400 {object} utils.Response
// @Failure 402 {object} utils.Response
// @Failure 502 {object} utils.Response
// @Router /orders [post]
func CreateOrder(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	var input CreateOrderInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	order, err := services.PurchaseNumber(services.PurchaseRequest{
		UserID:  u.ID,
		Kind:    models.OrderKind(input.Kind),
		Service: input.Service,
		Country: input.Country,
		Price:   input.Price,
	}, services.LedgerMetadata{Operator: u.Username, OperatorID: u.ID})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInsufficientBalance):
			c.JSON(http.StatusPaymentRequired, utils.NewErrorResponse(http.StatusPaymentRequired, err.Error()))
		case errors.Is(err, provider.ErrNoNumbers):
			c.JSON(http.StatusConflict, utils.NewErrorResponse(http.StatusConflict, err.Error()))
		case errors.Is(err, services.ErrProviderFailure):
			c.JSON(http.StatusBadGateway, utils.NewErrorResponse(http.StatusBadGateway, "Provider is unavailable, credits were not charged"))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to create order"))
		}
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse("Order created successfully", toOrderResponse(order)))
}

// CheckOrder godoc
// @Summary Check an order
// @Description Poll the provider for the SMS; finalizes the charge when the code arrived
// @Tags order
// @Produce json
// @Security Bearer
// @Param id path string true "Order ID"
// @Success 200 {object} utils.Response{data=OrderResponse}
// @Failure 404 {object} utils.Response
// @Failure 502 {object} utils.Response
// @Router /orders/{id}/check [get]
func CheckOrder(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	if _, ok := loadOwnOrder(c, u); !ok {
		return
	}

	order, err := services.CheckOrder(c.Param("id"), services.LedgerMetadata{Operator: u.Username, OperatorID: u.ID})
	if err != nil {
		if errors.Is(err, services.ErrProviderFailure) {
			c.JSON(http.StatusBadGateway, utils.NewErrorResponse(http.StatusBadGateway, "Provider is unavailable"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to check order"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Order status retrieved", toOrderResponse(order)))
}

// CancelOrder godoc
// @Summary Cancel an order
// @Description Cancel an active order and refund the reservation. No-op on resolved orders.
// @Tags order
// @Produce json
// @Security Bearer
// @Param id path string true "Order ID"
// @Success 200 {object} utils.Response{data=OrderResponse}
// @Failure 404 {object} utils.Response
// @Router /orders/{id}/cancel [post]
func CancelOrder(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	if _, ok := loadOwnOrder(c, u); !ok {
		return
	}

	order, err := services.CancelOrder(c.Param("id"), services.LedgerMetadata{Operator: u.Username, OperatorID: u.ID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to cancel order"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Order cancelled", toOrderResponse(order)))
}

// GetOrder godoc
// @Summary Get an order
// @Tags order
// @Produce json
// @Security Bearer
// @Param id path string true "Order ID"
// @Success 200 {object} utils.Response{data=OrderResponse}
// @Failure 404 {object} utils.Response
// @Router /orders/{id} [get]
func GetOrder(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	order, ok := loadOwnOrder(c, u)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Order retrieved", toOrderResponse(order)))
}

// ListOrders godoc
// @Summary List own orders
// @Tags order
// @Produce json
// @Security Bearer
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Success 200 {object} utils.Response{data=OrderListResponse}
// @Router /orders [get]
func ListOrders(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid page number"))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid limit number"))
		return
	}

	filter := services.OrderFilter{
		UserID: &u.ID,
		Page:   page,
		Limit:  limit,
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.OrderStatus(statusStr)
		filter.Status = &status
	}

	orders, total, err := services.FindOrders(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch orders"))
		return
	}

	items := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Orders retrieved successfully", OrderListResponse{
		Orders: items,
		Total:  total,
		Page:   page,
		Limit:  limit,
	}))
}
