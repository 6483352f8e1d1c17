package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/constants"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid 令牌无效
var ErrTokenInvalid = errors.New("无效的 token")

// Identity 已认证的身份（来自外部认证或本地令牌）
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// Auth0Claims Auth0 令牌中的自定义声明
type Auth0Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Scope string `json:"scope"`
}

// Validate 满足 validator.CustomClaims 接口
func (c *Auth0Claims) Validate(context.Context) error {
	return nil
}

// LocalClaims 本地签发令牌声明（开发与自托管使用）
type LocalClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// AuthService 认证服务
type AuthService struct {
	cfg       config.AuthConfig
	validator *validator.Validator
}

// NewAuthService 创建认证服务；auth0 模式下初始化 JWKS 校验器
func NewAuthService(cfg config.AuthConfig) (*AuthService, error) {
	s := &AuthService{cfg: cfg}
	if cfg.Mode != constants.AuthModeAuth0 {
		if strings.TrimSpace(cfg.LocalSecret) == "" {
			return nil, fmt.Errorf("auth.local_secret is required in local mode")
		}
		return s, nil
	}
	issuerURL, err := url.Parse("https://" + strings.TrimSpace(cfg.Auth0Domain) + "/")
	if err != nil || strings.TrimSpace(cfg.Auth0Domain) == "" {
		return nil, fmt.Errorf("failed to parse the issuer url: %v", err)
	}
	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)
	v, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.Auth0Audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &Auth0Claims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up the jwt validator: %w", err)
	}
	s.validator = v
	return s, nil
}

// Mode 当前认证模式
func (s *AuthService) Mode() string {
	return s.cfg.Mode
}

// ValidateToken 校验令牌并返回 *Identity，签名与 jwtmiddleware.ValidateToken 一致
func (s *AuthService) ValidateToken(ctx context.Context, token string) (interface{}, error) {
	if s.validator != nil {
		raw, err := s.validator.ValidateToken(ctx, token)
		if err != nil {
			return nil, err
		}
		claims, ok := raw.(*validator.ValidatedClaims)
		if !ok || strings.TrimSpace(claims.RegisteredClaims.Subject) == "" {
			return nil, ErrTokenInvalid
		}
		identity := &Identity{Subject: claims.RegisteredClaims.Subject}
		if custom, ok := claims.CustomClaims.(*Auth0Claims); ok && custom != nil {
			identity.Email = custom.Email
			identity.Name = custom.Name
		}
		return identity, nil
	}
	return s.ParseLocalToken(token)
}

// GenerateLocalToken 签发本地 HS256 令牌
func (s *AuthService) GenerateLocalToken(identity Identity, expireHours int) (string, time.Time, error) {
	if strings.TrimSpace(identity.Subject) == "" {
		return "", time.Time{}, ErrInvalidArgument
	}
	if expireHours <= 0 {
		expireHours = s.cfg.LocalExpireHours
	}
	if expireHours <= 0 {
		expireHours = 24
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(expireHours) * time.Hour)
	claims := LocalClaims{
		Email: identity.Email,
		Name:  identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			Issuer:    s.cfg.LocalIssuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.LocalSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseLocalToken 解析本地令牌
func (s *AuthService) ParseLocalToken(tokenString string) (*Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.cfg.LocalIssuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.LocalIssuer))
	}
	parser := jwt.NewParser(opts...)
	token, err := parser.ParseWithClaims(tokenString, &LocalClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.LocalSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*LocalClaims)
	if !ok || !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenInvalid
	}
	return &Identity{Subject: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}
