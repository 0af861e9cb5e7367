package ledger

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ledger", ListEntries)
	router.GET("/ledger/export", ExportEntries)
	router.POST("/ledger/refund-direct", RefundDirect)
}
