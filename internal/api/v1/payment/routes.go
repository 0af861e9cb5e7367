package payment

import (
	"github.com/buba6c/onesms-v1-sub003/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the authed payment endpoints.
func RegisterRoutes(router *gin.RouterGroup) {
	p := router.Group("/payment")
	p.Use(middleware.AuthMiddleware())
	p.GET("/methods", ListMethods)
	p.POST("/orders", CreateDeposit)
}

// RegisterNotifyRoutes mounts the unauthenticated gateway callback.
func RegisterNotifyRoutes(router *gin.RouterGroup) {
	// Gateways differ on GET vs POST callbacks.
	router.Any("/payment/notify/:uuid", Notify)
}
