package service

import "github.com/groupvial/internal/constants"

// allowedOrderTransitions 订单状态流转表
var allowedOrderTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusConfirmed: true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusShipped:   true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
	},
}

// allowedPaymentTransitions 支付状态流转表
var allowedPaymentTransitions = map[string]map[string]bool{
	constants.PaymentStatusPending: {
		constants.PaymentStatusPaid: true,
	},
	constants.PaymentStatusPaid: {
		constants.PaymentStatusRefunded: true,
	},
}

func isTransitionAllowed(table map[string]map[string]bool, current, target string) bool {
	nexts, ok := table[current]
	if !ok {
		return false
	}
	return nexts[target]
}

// orderStatusTimeColumn 状态对应的时间字段
func orderStatusTimeColumn(status string) string {
	switch status {
	case constants.OrderStatusConfirmed:
		return "confirmed_at"
	case constants.OrderStatusShipped:
		return "shipped_at"
	case constants.OrderStatusDelivered:
		return "delivered_at"
	case constants.OrderStatusCancelled:
		return "cancelled_at"
	}
	return ""
}
