package admin

import (
	handlershared "github.com/nutri-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getContextUintWithKeys(c *gin.Context, key, invalidMsg, typeInvalidMsg string) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, key, invalidMsg, typeInvalidMsg)
}

func getAdminID(c *gin.Context) (uint, bool) {
	return getContextUintWithKeys(c, "admin_id", "invalid admin id", "invalid admin id type")
}
