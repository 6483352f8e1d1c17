package service

import (
	"regexp"
	"sync"
	"testing"
)

var orderCodePattern = regexp.MustCompile(`^GV\d{20}$`)

func TestGenerateOrderCodeFormat(t *testing.T) {
	code := generateOrderCode(defaultOrderCodePrefix)
	if !orderCodePattern.MatchString(code) {
		t.Fatalf("unexpected order code format: %q", code)
	}
}

func TestGenerateOrderCodeRapidCallsAreDistinct(t *testing.T) {
	first := generateOrderCode("GV")
	second := generateOrderCode("GV")
	if first == second {
		t.Fatalf("two rapid calls returned the same code %q", first)
	}

	seen := make(map[string]struct{}, 500)
	for i := 0; i < 500; i++ {
		code := generateOrderCode("GV")
		if !orderCodePattern.MatchString(code) {
			t.Fatalf("unexpected order code format: %q", code)
		}
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate order code %q after %d calls", code, i)
		}
		seen[code] = struct{}{}
	}
}

func TestGenerateOrderCodeConcurrentCallsAreDistinct(t *testing.T) {
	const workers = 100
	codes := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = generateOrderCode("GV")
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, workers)
	for _, code := range codes {
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate order code %q", code)
		}
		seen[code] = struct{}{}
	}
}
