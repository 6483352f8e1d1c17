package service

import (
	"errors"
	"testing"

	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/constants"
)

func TestCaptchaServiceVerifyOnce(t *testing.T) {
	svc := NewCaptchaService(config.CaptchaConfig{})
	challenge, err := svc.GenerateImageChallenge()
	if err != nil {
		t.Fatalf("generate challenge failed: %v", err)
	}
	if challenge.CaptchaID == "" || challenge.ImageBase64 == "" {
		t.Fatalf("invalid challenge: %+v", challenge)
	}
	if challenge.ExpiresIn <= 0 {
		t.Fatalf("expected positive expires_in, got %d", challenge.ExpiresIn)
	}
	answer := svc.imageStore().Get(challenge.CaptchaID, false)
	if len(answer) != 5 {
		t.Fatalf("expected default length 5, got %q", answer)
	}

	scene := constants.CaptchaSceneGuestCheckout
	if err := svc.Verify(scene, CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID}, ""); !errors.Is(err, ErrCaptchaRequired) {
		t.Fatalf("expected captcha required, got %v", err)
	}
	if err := svc.Verify(scene, CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID, CaptchaCode: answer}, "127.0.0.1"); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if err := svc.Verify(scene, CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID, CaptchaCode: answer}, "127.0.0.1"); !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("captcha must not be reusable, got %v", err)
	}
}

func TestNormalizeCaptchaImageConfig(t *testing.T) {
	cfg := normalizeCaptchaImageConfig(config.CaptchaImageConfig{Length: 6, Width: 1000, ExpireSeconds: 60})
	if cfg.Length != 6 || cfg.Width != 240 || cfg.ExpireSeconds != 60 || cfg.MaxStore != 10240 {
		t.Fatalf("unexpected normalized config: %+v", cfg)
	}
}
