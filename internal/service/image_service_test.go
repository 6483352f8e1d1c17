package service

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageServiceResolve(t *testing.T) {
	store := storage.NewLocalStore(t.TempDir(), "/uploads")
	svc := NewImageService(store, config.StorageConfig{})
	ctx := context.Background()

	url, err := svc.Resolve(ctx, testPNGDataURL(t), "region")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/region/"), url)

	url, err = svc.Resolve(ctx, "  ", "product")
	require.NoError(t, err)
	assert.Empty(t, url)

	url, err = svc.Resolve(ctx, "/uploads/product/2026/01/a.png", "product")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/product/2026/01/a.png", url)

	cases := map[string]string{
		"not base64":   "data:image/png;charset=utf-8,abc",
		"text payload": "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello world")),
		"bad scheme":   "ftp://example.com/a.png",
		"no host":      "https://",
	}
	for name, raw := range cases {
		_, err := svc.Resolve(ctx, raw, "product")
		assert.ErrorIs(t, err, ErrImageInvalid, name)
	}
}

func TestImageServiceLimits(t *testing.T) {
	store := storage.NewLocalStore(t.TempDir(), "/uploads")
	ctx := context.Background()

	small := NewImageService(store, config.StorageConfig{MaxSize: 16})
	_, err := small.Resolve(ctx, testPNGDataURL(t), "product")
	assert.ErrorIs(t, err, ErrImageTooLarge)

	jpegOnly := NewImageService(store, config.StorageConfig{AllowedTypes: []string{"image/jpeg"}})
	_, err = jpegOnly.Resolve(ctx, testPNGDataURL(t), "product")
	assert.ErrorIs(t, err, ErrImageTypeNotAllowed)
}
