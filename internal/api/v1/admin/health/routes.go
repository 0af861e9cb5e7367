package health

import "github.com/gin-gonic/gin"

// RegisterRoutes registers reconciliation endpoints on an admin route group.
func RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", CheckAll)
	router.GET("/health/:user_id", CheckUser)
	router.POST("/health/:user_id/repair", Repair)
}
