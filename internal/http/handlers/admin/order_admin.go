package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/nutri-next/internal/http/response"
	"github.com/nutri-next/internal/repository"
	"github.com/nutri-next/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateOrderStatusRequest 管理端状态变更请求
type UpdateOrderStatusRequest struct {
	Status     string `json:"status" binding:"required"`
	Reason     string `json:"reason"`
	Carrier    string `json:"carrier"`
	TrackingNo string `json:"tracking_no"`
}

// AppendTrackingRequest 追加物流轨迹请求
type AppendTrackingRequest struct {
	Status     string     `json:"status" binding:"required"`
	Location   string     `json:"location"`
	OccurredAt *time.Time `json:"occurred_at"`
}

var adminOrderStatusErrorRules = []struct {
	target   error
	code     int
	msg      string
	verbatim bool
}{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	// 迁移被拒绝时透出错误文本，里面带有当前状态与目标状态。
	{target: service.ErrInvalidTransition, code: response.CodeBadRequest, verbatim: true},
	{target: service.ErrCancelReasonRequired, code: response.CodeBadRequest, msg: "cancel reason required"},
	{target: service.ErrTrackingInfoRequired, code: response.CodeBadRequest, msg: "carrier and tracking number required"},
	{target: service.ErrTrackingNotAvailable, code: response.CodeBadRequest, msg: "tracking not available"},
}

func respondOrderStatusError(c *gin.Context, err error) {
	for _, rule := range adminOrderStatusErrorRules {
		if errors.Is(err, rule.target) {
			msg := rule.msg
			if rule.verbatim {
				msg = err.Error()
			}
			respondError(c, rule.code, msg, nil)
			return
		}
	}
	respondError(c, response.CodeInternal, "order update failed", err)
}

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	status := strings.TrimSpace(c.Query("status"))
	userIDStr := strings.TrimSpace(c.Query("user_id"))
	orderNo := strings.TrimSpace(c.Query("order_no"))
	createdFromRaw := strings.TrimSpace(c.Query("created_from"))
	createdToRaw := strings.TrimSpace(c.Query("created_to"))

	createdFrom, err := parseTimeNullable(createdFromRaw)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	createdTo, err := parseTimeNullable(createdToRaw)
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	var userID uint
	if userIDStr != "" {
		if parsed, err := strconv.ParseUint(userIDStr, 10, 64); err == nil {
			userID = uint(parsed)
		}
	}

	orders, total, err := h.OrderService.ListOrdersForAdmin(repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      userID,
		Status:      status,
		OrderNo:     orderNo,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, orders, pagination)
}

// AdminGetOrder 管理端订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	order, err := h.OrderService.GetOrderForAdmin(uint(orderID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		default:
			respondError(c, response.CodeInternal, "order fetch failed", err)
		}
		return
	}

	response.Success(c, order)
}

// AdminGetOrderStatus 管理端订单状态视图（当前状态 + 合法目标状态）
func (h *Handler) AdminGetOrderStatus(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	view, err := h.OrderService.GetOrderStatusView(uint(orderID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		default:
			respondError(c, response.CodeInternal, "order fetch failed", err)
		}
		return
	}

	response.Success(c, view)
}

// AdminUpdateOrderStatus 管理端状态流转
func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	if _, ok := getAdminID(c); !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	order, err := h.OrderService.UpdateOrderStatus(uint(orderID), service.UpdateOrderStatusInput{
		Status:         req.Status,
		Reason:         req.Reason,
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNo,
	})
	if err != nil {
		respondOrderStatusError(c, err)
		return
	}

	response.Success(c, order)
}

// AdminAppendTrackingUpdate 追加物流轨迹（仅发货后）
func (h *Handler) AdminAppendTrackingUpdate(c *gin.Context) {
	if _, ok := getAdminID(c); !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	var req AppendTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	update, err := h.OrderService.AppendTrackingUpdate(uint(orderID), service.AppendTrackingInput{
		Status:     req.Status,
		Location:   req.Location,
		OccurredAt: req.OccurredAt,
	})
	if err != nil {
		respondOrderStatusError(c, err)
		return
	}

	response.Success(c, update)
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
