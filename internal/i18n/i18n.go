package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// 支持的语言
const (
	LocaleEN  = "en-US"
	LocaleFIL = "fil-PH"
)

// DefaultLocale 缺省语言，其他语言缺词时回退到这里
const DefaultLocale = LocaleEN

var catalogs = map[string]map[string]string{
	LocaleEN:  messagesEN,
	LocaleFIL: messagesFIL,
}

// ResolveLocale 解析请求语言：?lang= 优先，其次 X-Locale，最后 Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	candidates := []string{
		c.Query("lang"),
		c.GetHeader("X-Locale"),
	}
	for _, part := range strings.Split(c.GetHeader("Accept-Language"), ",") {
		tag, _, _ := strings.Cut(part, ";")
		candidates = append(candidates, tag)
	}
	for _, raw := range candidates {
		if locale := NormalizeLocale(raw); locale != "" {
			return locale
		}
	}
	return DefaultLocale
}

// NormalizeLocale 归一化语言标签，不支持时返回空
func NormalizeLocale(raw string) string {
	tag := strings.ToLower(strings.TrimSpace(raw))
	if tag == "" {
		return ""
	}
	tag = strings.ReplaceAll(tag, "_", "-")
	primary, _, _ := strings.Cut(tag, "-")
	switch primary {
	case "en":
		return LocaleEN
	case "fil", "tl":
		return LocaleFIL
	}
	return ""
}

// T 翻译 key，缺失时依次回退默认语言与 key 本身
func T(locale, key string) string {
	if catalog, ok := catalogs[locale]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	if msg, ok := catalogs[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}
