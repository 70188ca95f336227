package public

import (
	"errors"

	"github.com/nutri-next/internal/http/response"
	"github.com/nutri-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
// verbatim 为真时直接透出错误自身文本（状态迁移类错误需要带上当前/目标状态）。
type mappedHandlerError struct {
	target   error
	code     int
	msg      string
	verbatim bool
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			msg := rule.msg
			if rule.verbatim {
				msg = err.Error()
			}
			respondError(c, rule.code, msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var orderCommonErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, msg: "invalid order item"},
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, msg: "invalid quantity"},
	{target: service.ErrVariantNotFound, code: response.CodeBadRequest, msg: "variant not found"},
	{target: service.ErrProductNotFound, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrOutOfStock, code: response.CodeBadRequest, msg: "insufficient stock"},
	{target: service.ErrCouponNotFound, code: response.CodeBadRequest, msg: "coupon not found"},
	{target: service.ErrCouponInactive, code: response.CodeBadRequest, msg: "coupon inactive"},
	{target: service.ErrCouponExpired, code: response.CodeBadRequest, msg: "coupon expired"},
	{target: service.ErrCouponExhausted, code: response.CodeBadRequest, msg: "coupon usage limit reached"},
	{target: service.ErrCouponMinimumNotMet, code: response.CodeBadRequest, msg: "order amount below coupon minimum"},
	{target: service.ErrCouponInvalid, code: response.CodeBadRequest, msg: "coupon invalid"},
}

var orderCancelErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrCancelReasonRequired, code: response.CodeBadRequest, msg: "cancel reason required"},
	{target: service.ErrCancellationNotAllowed, code: response.CodeBadRequest, msg: "order cancellation not allowed"},
	{target: service.ErrInvalidTransition, code: response.CodeBadRequest, verbatim: true},
}

func respondOrderPreviewError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderCommonErrorRules, response.CodeInternal, "order preview failed")
}

func respondOrderCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderCommonErrorRules, response.CodeInternal, "order create failed")
}

func respondOrderCancelError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderCancelErrorRules, response.CodeInternal, "order update failed")
}
