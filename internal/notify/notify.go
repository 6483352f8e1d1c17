package notify

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"
)

// ErrHandleRequired 缺少联系账号
var ErrHandleRequired = errors.New("notify: messaging handle required")

// Summary 下单后返回给前端的摘要与跳转链接
type Summary struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	DeepLink string `json:"deep_link,omitempty"`
}

// SummaryText 生成订单摘要文本
func SummaryText(order *models.Order, batchName string) string {
	if order == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s\n", order.OrderCode)
	fmt.Fprintf(&b, "Name: %s\n", order.CustomerName)
	fmt.Fprintf(&b, "Contact: %s\n", order.ContactHandle)
	if batchName != "" {
		fmt.Fprintf(&b, "Batch: %s\n", batchName)
	}
	for _, item := range order.Items {
		fmt.Fprintf(&b, "- %s x%d %s @ %s = %s\n",
			item.ProductName, item.Quantity, unitLabel(item.Unit, item.Quantity),
			FormatPeso(item.UnitPrice), FormatPeso(item.TotalPrice))
	}
	fmt.Fprintf(&b, "Total: %s", FormatPeso(order.TotalAmount))
	if notes := strings.TrimSpace(order.Notes); notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s", notes)
	}
	return b.String()
}

// FormatPeso 按比索格式化金额，千分位逗号
func FormatPeso(amount models.Money) string {
	raw := amount.String()
	sign := ""
	if strings.HasPrefix(raw, "-") {
		sign = "-"
		raw = raw[1:]
	}
	whole, frac, _ := strings.Cut(raw, ".")
	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}
	return fmt.Sprintf("%s%s%s.%s", sign, constants.CurrencySymbolPHP, grouped.String(), frac)
}

// DeepLink 按消息渠道生成预填文本的跳转链接
func DeepLink(provider, handle, text string) (string, error) {
	handle = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
	if handle == "" {
		return "", ErrHandleRequired
	}
	escaped := url.QueryEscape(text)
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case constants.MessagingTelegram:
		return fmt.Sprintf("https://t.me/%s?text=%s", url.PathEscape(handle), escaped), nil
	case constants.MessagingMessenger:
		return fmt.Sprintf("https://m.me/%s?text=%s", url.PathEscape(handle), escaped), nil
	case constants.MessagingWhatsApp, "":
		digits := phoneDigits(handle)
		if digits == "" {
			return "", ErrHandleRequired
		}
		return fmt.Sprintf("https://wa.me/%s?text=%s", digits, escaped), nil
	default:
		return "", fmt.Errorf("notify: unknown provider %q", provider)
	}
}

// Build 生成摘要与跳转链接；链接生成失败时仍返回摘要文本
func Build(order *models.Order, batchName, provider, handle string) (Summary, error) {
	summary := Summary{
		Text:     SummaryText(order, batchName),
		Provider: strings.ToLower(strings.TrimSpace(provider)),
	}
	if summary.Provider == "" {
		summary.Provider = constants.MessagingWhatsApp
	}
	link, err := DeepLink(summary.Provider, handle, summary.Text)
	if err != nil {
		return summary, err
	}
	summary.DeepLink = link
	return summary, nil
}

func unitLabel(unit string, qty int) string {
	if qty == 1 {
		return unit
	}
	if unit == constants.UnitBox {
		return "boxes"
	}
	return unit + "s"
}

// 菲律宾本地号码 09xx 转为国际格式 639xx
func phoneDigits(handle string) string {
	var b strings.Builder
	for _, r := range handle {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") && len(digits) == 11 {
		digits = "63" + digits[1:]
	}
	return digits
}
