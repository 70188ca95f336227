package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/nutri-next/internal/http/response"
	"github.com/nutri-next/internal/repository"
	"github.com/nutri-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetProducts 获取商品列表
func (h *Handler) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	search := strings.TrimSpace(c.Query("search"))
	sort := strings.TrimSpace(c.Query("sort"))

	products, total, err := h.ProductService.ListProducts(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     search,
		Sort:       sort,
		OnlyActive: true,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, products, pagination)
}

// GetProductBySlug 获取商品详情（含口味/重量字典与可购组合）
func (h *Handler) GetProductBySlug(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		respondError(c, response.CodeBadRequest, "invalid product slug", nil)
		return
	}

	detail, err := h.ProductService.GetProductDetail(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}

	response.Success(c, detail)
}

// GetProductVariants 获取商品变体列表
// 路由与详情共用 :slug 占位符，此处取值为商品 ID。
func (h *Handler) GetProductVariants(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("slug"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return
	}

	variants, err := h.ProductService.ListVariantsByProduct(uint(productID))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}

	response.Success(c, variants)
}

// GetProductSelection 解析口味/重量选择，返回命中或回退后的变体
func (h *Handler) GetProductSelection(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		respondError(c, response.CodeBadRequest, "invalid product slug", nil)
		return
	}

	flavorID, ok := parseOptionalUintQuery(c, "flavor_id")
	if !ok {
		return
	}
	weightID, ok := parseOptionalUintQuery(c, "weight_id")
	if !ok {
		return
	}

	selection, err := h.ProductService.ResolveSelection(slug, flavorID, weightID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}

	response.Success(c, selection)
}

func parseOptionalUintQuery(c *gin.Context, name string) (*uint, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		respondError(c, response.CodeBadRequest, "invalid "+name, nil)
		return nil, false
	}
	id := uint(value)
	return &id, true
}
