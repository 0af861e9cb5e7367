package ledger

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/buba6c/onesms-v1-sub003/internal/models"
	"github.com/buba6c/onesms-v1-sub003/internal/services"
	"github.com/buba6c/onesms-v1-sub003/internal/utils"

	"github.com/gin-gonic/gin"
)

func parseFilter(c *gin.Context) (services.LedgerFilter, bool) {
	filter := services.LedgerFilter{Page: 1, Limit: 20}

	if pageStr := c.Query("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid page number"))
			return filter, false
		}
		filter.Page = page
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid limit number"))
			return filter, false
		}
		filter.Limit = limit
	}
	if userIDStr := c.Query("user_id"); userIDStr != "" {
		userID, err := strconv.ParseUint(userIDStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user_id"))
			return filter, false
		}
		uid := uint(userID)
		filter.UserID = &uid
	}
	if orderID := c.Query("order_id"); orderID != "" {
		filter.OrderID = &orderID
	}
	if opStr := c.Query("operation"); opStr != "" {
		op := models.LedgerOperation(opStr)
		if !op.Valid() {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid operation"))
			return filter, false
		}
		filter.Operation = &op
	}
	if startStr := c.Query("start_time"); startStr != "" {
		t, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid start_time"))
			return filter, false
		}
		filter.StartTime = &t
	}
	if endStr := c.Query("end_time"); endStr != "" {
		t, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid end_time"))
			return filter, false
		}
		filter.EndTime = &t
	}

	return filter, true
}

// ListEntries godoc
// @Summary List ledger entries
// @Description Paginated, filterable view of the append-only audit log. Admin only.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param user_id query int false "Filter by user"
// @Param order_id query string false "Filter by order"
// @Param operation query string false "Filter by operation"
// @Success 200 {object} utils.Response{data=LedgerListResponse}
// @Failure 400 {object} utils.Response
// @Router /admin/ledger [get]
func ListEntries(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	entries, total, err := services.FindLedgerEntries(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch ledger entries"))
		return
	}

	items := make([]LedgerListItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, LedgerListItem{
			ID:            e.ID,
			CreatedAt:     e.CreatedAt,
			UserID:        e.UserID,
			OrderID:       e.OrderID,
			Operation:     e.Operation,
			Amount:        e.Amount,
			BalanceBefore: e.BalanceBefore,
			BalanceAfter:  e.BalanceAfter,
			FrozenBefore:  e.FrozenBefore,
			FrozenAfter:   e.FrozenAfter,
			Reason:        e.Reason,
			Operator:      e.Operator,
			Hash:          e.Hash,
		})
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Ledger entries retrieved successfully", LedgerListResponse{
		Entries: items,
		Total:   total,
		Page:    filter.Page,
		Limit:   filter.Limit,
	}))
}

// ExportEntries godoc
// @Summary Export ledger entries as CSV
// @Tags admin
// @Produce text/csv
// @Security Bearer
// @Success 200 {string} string "CSV content"
// @Router /admin/ledger/export [get]
func ExportEntries(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}
	// Export ignores pagination
	filter.Page = 1
	filter.Limit = 100000

	entries, _, err := services.FindLedgerEntries(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to fetch ledger entries"))
		return
	}

	csvData, err := services.GenerateLedgerCSV(entries)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to generate CSV"))
		return
	}

	filename := fmt.Sprintf("ledger_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", csvData)
}

// RefundDirect godoc
// @Summary Issue a direct refund
// @Description Refund frozen credits by amount when no order can be keyed; zeroes covered reservations in the same transaction. Admin only.
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param input body RefundDirectInput true "Refund Input"
// @Success 200 {object} utils.Response{data=services.LedgerResult}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /admin/ledger/refund-direct [post]
func RefundDirect(c *gin.Context) {
	var input RefundDirectInput
	if !utils.BindAndValidate(c, &input) {
		return
	}

	operator := "admin"
	var operatorID uint
	if v, exists := c.Get("user"); exists {
		if u, ok := v.(models.User); ok {
			operator = u.Username
			operatorID = u.ID
		}
	}

	result, err := services.RefundDirect(input.UserID, input.Amount, input.Reason,
		services.LedgerMetadata{Operator: operator, OperatorID: operatorID})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, err.Error()))
		case errors.Is(err, services.ErrInvalidAmount), errors.Is(err, services.ErrRefundExceedsFrozen):
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to refund"))
		}
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Refund applied", result))
}
