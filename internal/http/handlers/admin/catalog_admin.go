package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/nutri-next/internal/http/response"
	"github.com/nutri-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListFlavors 口味选项列表
func (h *Handler) AdminListFlavors(c *gin.Context) {
	flavors, err := h.ProductService.ListFlavors()
	if err != nil {
		respondError(c, response.CodeInternal, "option fetch failed", err)
		return
	}
	response.Success(c, flavors)
}

// AdminListWeights 重量选项列表
func (h *Handler) AdminListWeights(c *gin.Context) {
	weights, err := h.ProductService.ListWeights()
	if err != nil {
		respondError(c, response.CodeInternal, "option fetch failed", err)
		return
	}
	response.Success(c, weights)
}

// AdminDeleteFlavor 删除口味选项（被变体引用时拒绝）
func (h *Handler) AdminDeleteFlavor(c *gin.Context) {
	optionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || optionID == 0 {
		respondError(c, response.CodeBadRequest, "invalid option id", nil)
		return
	}

	if err := h.ProductService.DeleteFlavor(uint(optionID)); err != nil {
		if errors.Is(err, service.ErrOptionInUse) {
			respondError(c, response.CodeBadRequest, "option referenced by variants", nil)
			return
		}
		respondError(c, response.CodeInternal, "option delete failed", err)
		return
	}

	response.Success(c, nil)
}

// AdminDeleteWeight 删除重量选项（被变体引用时拒绝）
func (h *Handler) AdminDeleteWeight(c *gin.Context) {
	optionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || optionID == 0 {
		respondError(c, response.CodeBadRequest, "invalid option id", nil)
		return
	}

	if err := h.ProductService.DeleteWeight(uint(optionID)); err != nil {
		if errors.Is(err, service.ErrOptionInUse) {
			respondError(c, response.CodeBadRequest, "option referenced by variants", nil)
			return
		}
		respondError(c, response.CodeInternal, "option delete failed", err)
		return
	}

	response.Success(c, nil)
}

// AdminInvalidateProductCache 手动失效商品详情缓存
func (h *Handler) AdminInvalidateProductCache(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		respondError(c, response.CodeBadRequest, "invalid product slug", nil)
		return
	}

	h.ProductService.InvalidateProductDetail(c.Request.Context(), slug)
	response.Success(c, nil)
}
