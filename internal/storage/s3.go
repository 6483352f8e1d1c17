package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/constants"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectAPI S3 客户端的最小接口
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store S3 兼容对象存储（AWS S3 / MinIO）
type S3Store struct {
	client     ObjectAPI
	bucket     string
	publicBase string
}

// NewS3Store 创建 S3 存储；未配置密钥时使用默认凭证链
func NewS3Store(ctx context.Context, cfg config.S3Config, publicBase string) (*S3Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewS3StoreWithClient(client, cfg, region, publicBase), nil
}

// NewS3StoreWithClient 使用已有客户端创建存储
func NewS3StoreWithClient(client ObjectAPI, cfg config.S3Config, region, publicBase string) *S3Store {
	return &S3Store{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: resolveS3PublicBase(cfg, region, publicBase),
	}
}

// Driver 驱动名
func (s *S3Store) Driver() string { return constants.StorageDriverS3 }

// Put 上传对象并返回公开地址
func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(clean),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return s.publicBase + "/" + clean, nil
}

// Delete 删除对象
func (s *S3Store) Delete(ctx context.Context, key string) error {
	clean, err := cleanKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(clean),
	})
	return err
}

// resolveS3PublicBase 公开访问前缀：显式配置 > 自定义端点 > AWS 默认域名
func resolveS3PublicBase(cfg config.S3Config, region, publicBase string) string {
	publicBase = strings.TrimRight(strings.TrimSpace(publicBase), "/")
	if strings.HasPrefix(publicBase, "http://") || strings.HasPrefix(publicBase, "https://") {
		return publicBase
	}
	if cfg.Endpoint != "" {
		if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
			if cfg.UsePathStyle {
				return fmt.Sprintf("%s://%s/%s", u.Scheme, u.Host, cfg.Bucket)
			}
			return fmt.Sprintf("%s://%s.%s", u.Scheme, cfg.Bucket, u.Host)
		}
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
}
