package health

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/buba6c/onesms-v1-sub003/internal/models"
	"github.com/buba6c/onesms-v1-sub003/internal/services"
	"github.com/buba6c/onesms-v1-sub003/internal/utils"

	"github.com/gin-gonic/gin"
)

// CheckAll godoc
// @Summary Reconciliation report for all users
// @Description Read-only scan comparing every user's frozen balance against their active reservations. Admin only.
// @Tags admin
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=services.HealthSummary}
// @Router /admin/health [get]
func CheckAll(c *gin.Context) {
	summary, err := services.CheckAllUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to run reconciliation"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Reconciliation report generated", summary))
}

// CheckUser godoc
// @Summary Reconciliation report for one user
// @Tags admin
// @Produce json
// @Security Bearer
// @Param user_id path int true "User ID"
// @Success 200 {object} utils.Response{data=services.UserHealthReport}
// @Failure 404 {object} utils.Response
// @Router /admin/health/{user_id} [get]
func CheckUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	report, err := services.CheckUser(uint(userID))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "User not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to build report"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Health report generated", report))
}

// Repair godoc
// @Summary Repair a user's frozen balance
// @Description Overwrites frozen_balance with the recomputed sum of active reservations. Manual, audited. Admin only.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param user_id path int true "User ID"
// @Success 200 {object} utils.Response{data=services.RepairResult}
// @Failure 404 {object} utils.Response
// @Router /admin/health/{user_id}/repair [post]
func Repair(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
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

	result, err := services.RepairFrozenBalance(uint(userID),
		services.LedgerMetadata{Operator: operator, OperatorID: operatorID})
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse(http.StatusNotFound, "User not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to repair frozen balance"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Frozen balance repaired", result))
}
