package order

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	orders.POST("", CreateOrder)
	orders.GET("", ListOrders)
	orders.GET("/:id", GetOrder)
	orders.GET("/:id/check", CheckOrder)
	orders.POST("/:id/cancel", CancelOrder)
}
