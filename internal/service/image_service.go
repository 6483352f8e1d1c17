package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/storage"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
)

const defaultImageMaxSize = 5 << 20

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageService 商品图片处理：接收 base64 data URL 或外部 http(s) 地址
type ImageService struct {
	store        storage.Store
	maxSize      int64
	allowedTypes []string
}

// NewImageService 创建图片服务
func NewImageService(store storage.Store, cfg config.StorageConfig) *ImageService {
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = defaultImageMaxSize
	}
	return &ImageService{store: store, maxSize: maxSize, allowedTypes: cfg.AllowedTypes}
}

// Resolve 解析图片输入并返回最终可访问地址；空输入返回空
func (s *ImageService) Resolve(ctx context.Context, raw, scene string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return "", nil
	case strings.HasPrefix(raw, "data:"):
		data, declared, err := decodeDataURL(raw)
		if err != nil {
			return "", err
		}
		return s.save(ctx, data, declared, scene)
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return "", ErrImageInvalid
		}
		return u.String(), nil
	case strings.HasPrefix(raw, "/"):
		// 已存储的本地地址原样保留
		return raw, nil
	default:
		return "", ErrImageInvalid
	}
}

// SaveFile 保存后台上传的图片文件
func (s *ImageService) SaveFile(ctx context.Context, file *multipart.FileHeader, scene string) (string, error) {
	if file == nil {
		return "", ErrImageInvalid
	}
	if file.Size > s.maxSize {
		return "", ErrImageTooLarge
	}
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, s.maxSize+1))
	if err != nil {
		return "", err
	}
	return s.save(ctx, data, "", scene)
}

func (s *ImageService) save(ctx context.Context, data []byte, declared, scene string) (string, error) {
	if len(data) == 0 {
		return "", ErrImageInvalid
	}
	if int64(len(data)) > s.maxSize {
		return "", ErrImageTooLarge
	}
	contentType := http.DetectContentType(data)
	if declared != "" && !strings.HasPrefix(declared, "image/") {
		return "", ErrImageInvalid
	}
	if !s.isAllowed(contentType) {
		return "", ErrImageTypeNotAllowed
	}
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", ErrImageTypeNotAllowed
	}
	if _, _, err := decodeImageDimensions(bytes.NewReader(data), contentType); err != nil {
		return "", ErrImageInvalid
	}
	now := time.Now()
	key := fmt.Sprintf("%s/%s/%s/%s%s", normalizeImageScene(scene), now.Format("2006"), now.Format("01"), uuid.New().String(), ext)
	return s.store.Put(ctx, key, contentType, data)
}

func (s *ImageService) isAllowed(contentType string) bool {
	if len(s.allowedTypes) == 0 {
		_, ok := imageExtensions[contentType]
		return ok
	}
	for _, t := range s.allowedTypes {
		if strings.EqualFold(strings.TrimSpace(t), contentType) {
			return true
		}
	}
	return false
}

// decodeDataURL 解析 data:<mime>;base64,<payload>
func decodeDataURL(raw string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return nil, "", ErrImageInvalid
	}
	mediaType, encoding, _ := strings.Cut(header, ";")
	if !strings.EqualFold(encoding, "base64") {
		return nil, "", ErrImageInvalid
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", ErrImageInvalid
		}
	}
	return data, strings.ToLower(strings.TrimSpace(mediaType)), nil
}

func normalizeImageScene(raw string) string {
	switch value := strings.ToLower(strings.TrimSpace(raw)); value {
	case "product", "region":
		return value
	default:
		return "common"
	}
}

func decodeImageDimensions(src io.ReadSeeker, contentType string) (int, int, error) {
	if strings.EqualFold(contentType, "image/webp") {
		width, height, err := decodeWebPDimensions(src)
		if err != nil {
			return 0, 0, fmt.Errorf("无法解析 WebP 图片: %w", err)
		}
		return width, height, nil
	}

	if _, err := src.Seek(0, 0); err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return 0, 0, fmt.Errorf("无法解析图片: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func decodeWebPDimensions(src io.ReadSeeker) (int, int, error) {
	if _, err := src.Seek(0, 0); err != nil {
		return 0, 0, err
	}

	header := make([]byte, 12)
	if _, err := io.ReadFull(src, header); err != nil {
		return 0, 0, err
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WEBP" {
		return 0, 0, fmt.Errorf("无效的 WebP 文件头")
	}

	for {
		chunkHeader := make([]byte, 8)
		if _, err := io.ReadFull(src, chunkHeader); err != nil {
			return 0, 0, err
		}
		chunkType := string(chunkHeader[0:4])
		chunkSize := int(binary.LittleEndian.Uint32(chunkHeader[4:8]))
		if chunkSize < 0 {
			return 0, 0, fmt.Errorf("无效的 WebP chunk")
		}

		data := make([]byte, chunkSize)
		if _, err := io.ReadFull(src, data); err != nil {
			return 0, 0, err
		}

		if chunkType == "VP8X" {
			if len(data) < 10 {
				return 0, 0, fmt.Errorf("VP8X chunk 长度不足")
			}
			width := 1 + int(data[4]) + int(data[5])<<8 + int(data[6])<<16
			height := 1 + int(data[7]) + int(data[8])<<8 + int(data[9])<<16
			return width, height, nil
		}
		if chunkType == "VP8 " {
			if len(data) < 10 {
				return 0, 0, fmt.Errorf("VP8 chunk 长度不足")
			}
			width := int(binary.LittleEndian.Uint16(data[6:8]) & 0x3FFF)
			height := int(binary.LittleEndian.Uint16(data[8:10]) & 0x3FFF)
			return width, height, nil
		}
		if chunkType == "VP8L" {
			if len(data) < 5 {
				return 0, 0, fmt.Errorf("VP8L chunk 长度不足")
			}
			if data[0] != 0x2f {
				return 0, 0, fmt.Errorf("VP8L 签名无效")
			}
			bits := binary.LittleEndian.Uint32(data[1:5])
			width := int(bits&0x3FFF) + 1
			height := int((bits>>14)&0x3FFF) + 1
			return width, height, nil
		}

		if chunkSize%2 == 1 {
			if _, err := src.Seek(1, io.SeekCurrent); err != nil {
				return 0, 0, err
			}
		}
	}
}
