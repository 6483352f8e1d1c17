package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestResolveLocale(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		url    string
		header map[string]string
		want   string
	}{
		{name: "default", url: "/", want: LocaleEN},
		{name: "query", url: "/?lang=tl", want: LocaleFIL},
		{name: "header", url: "/", header: map[string]string{"X-Locale": "fil_PH"}, want: LocaleFIL},
		{name: "accept language", url: "/", header: map[string]string{"Accept-Language": "ja-JP,fil;q=0.8,en;q=0.5"}, want: LocaleFIL},
		{name: "unsupported", url: "/?lang=zh-CN", want: LocaleEN},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, tc.url, nil)
		for k, v := range tc.header {
			c.Request.Header.Set(k, v)
		}
		if got := ResolveLocale(c); got != tc.want {
			t.Fatalf("%s: want %s got %s", tc.name, tc.want, got)
		}
	}
}

func TestTFallsBack(t *testing.T) {
	if got := T(LocaleFIL, "error.cart_empty"); got != messagesFIL["error.cart_empty"] {
		t.Fatalf("unexpected fil message: %s", got)
	}
	if got := T(LocaleFIL, "error.setting_invalid"); got != messagesEN["error.setting_invalid"] {
		t.Fatalf("missing fil key should fall back to en, got %s", got)
	}
	if got := T("xx", "error.unknown_key"); got != "error.unknown_key" {
		t.Fatalf("unknown key should echo key, got %s", got)
	}
	if got := Sprintf(LocaleEN, "error.rate_limited", 30); got != "Too many requests, please retry in 30 seconds" {
		t.Fatalf("unexpected formatted message: %s", got)
	}
}

func TestFilipinoKeysExistInEnglish(t *testing.T) {
	for key := range messagesFIL {
		if _, ok := messagesEN[key]; !ok {
			t.Fatalf("key %s has no english message", key)
		}
	}
}
