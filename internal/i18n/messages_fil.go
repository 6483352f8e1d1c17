package i18n

// 后台专用提示未翻译，回退英文
var messagesFIL = map[string]string{
	"error.bad_request":      "Hindi wasto ang mga parameter ng request",
	"error.unauthorized":     "Mag-sign in muna",
	"error.forbidden":        "Wala kang pahintulot na gawin ito",
	"error.not_found":        "Hindi nahanap",
	"error.internal":         "May error sa server",
	"error.feature_disabled": "Naka-off ang feature na ito sa ngayon",
	"error.rate_limited":     "Masyadong maraming request, subukang muli pagkalipas ng %d segundo",

	"error.token_invalid":    "Hindi wasto o expired na ang token",
	"error.user_sync_failed": "Hindi ma-load ang iyong account",

	"error.product_not_found":     "Hindi nahanap ang produkto",
	"error.product_not_available": "Hindi available ang produkto",
	"error.product_fetch_failed":  "Hindi ma-load ang mga produkto",

	"error.batch_not_found":            "Hindi nahanap ang batch",
	"error.batch_fetch_failed":         "Hindi ma-load ang mga batch",
	"error.batch_not_accepting_orders": "Hindi na tumatanggap ng order ang batch na ito",
	"error.membership_not_found":       "Hindi nahanap ang produkto sa batch",
	"error.membership_not_in_batch":    "Hindi kabilang ang produkto sa batch na ito",
	"error.capacity_insufficient":      "Kulang na ang natitirang vial sa batch na ito",

	"error.region_not_found": "Hindi nahanap ang sub-group",
	"error.region_inactive":  "Hindi aktibo ang sub-group",

	"error.cart_not_found":          "Wala na o expired na ang cart",
	"error.cart_empty":              "Walang laman ang iyong cart",
	"error.cart_line_invalid":       "Hindi wasto ang item sa cart",
	"error.cart_too_many_lines":     "Masyadong maraming item sa cart",
	"error.customer_name_required":  "Kailangan ang pangalan",
	"error.contact_handle_required": "Kailangan ang contact handle",
	"error.order_create_failed":     "Hindi nailagay ang order",
	"error.captcha_required":        "Kailangan ang captcha",
	"error.captcha_invalid":         "Mali ang captcha",

	"error.order_not_found":     "Hindi nahanap ang order",
	"error.order_fetch_failed":  "Hindi ma-load ang mga order",
	"error.order_cannot_cancel": "Hindi na maaaring i-cancel ang order",
}
