package service

import (
	"fmt"
	"strings"

	"github.com/nutri-next/internal/constants"
)

// allowedTransitions 订单状态迁移表。
// delivered / cancelled / refunded 为终态，没有出边。
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusPaid:       true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusPaid:      true,
		constants.OrderStatusShipped:   true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusPaid: {
		constants.OrderStatusShipped:   true,
		constants.OrderStatusCancelled: true,
		constants.OrderStatusRefunded:  true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
	},
}

// statusCanonicalOrder 状态的展示与遍历顺序
var statusCanonicalOrder = []string{
	constants.OrderStatusPending,
	constants.OrderStatusProcessing,
	constants.OrderStatusPaid,
	constants.OrderStatusShipped,
	constants.OrderStatusDelivered,
	constants.OrderStatusCancelled,
	constants.OrderStatusRefunded,
}

func normalizeOrderStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

func isValidOrderStatus(status string) bool {
	for _, s := range statusCanonicalOrder {
		if s == status {
			return true
		}
	}
	return false
}

func isTerminalOrderStatus(status string) bool {
	switch status {
	case constants.OrderStatusDelivered, constants.OrderStatusCancelled, constants.OrderStatusRefunded:
		return true
	}
	return false
}

func isTransitionAllowed(current, target string) bool {
	nexts, ok := allowedTransitions[current]
	if !ok {
		return false
	}
	return nexts[target]
}

// invalidTransitionError 带上当前与目标状态，拒绝时响应里要能看到这两个值
func invalidTransitionError(current, target string) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
}

// NextStatuses 返回当前状态的全部合法目标状态（固定顺序）
func NextStatuses(current string) []string {
	nexts, ok := allowedTransitions[normalizeOrderStatus(current)]
	if !ok {
		return []string{}
	}
	result := make([]string, 0, len(nexts))
	for _, s := range statusCanonicalOrder {
		if nexts[s] {
			result = append(result, s)
		}
	}
	return result
}

// customerCancellable 客户自助取消仅限 pending / processing
func customerCancellable(status string) bool {
	return status == constants.OrderStatusPending || status == constants.OrderStatusProcessing
}
