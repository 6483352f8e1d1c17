package router

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/groupvial/internal/authz"
	"github.com/groupvial/internal/config"
	handlershared "github.com/groupvial/internal/http/handlers/shared"
	"github.com/groupvial/internal/http/response"
	"github.com/groupvial/internal/i18n"
	"github.com/groupvial/internal/logger"
	"github.com/groupvial/internal/metrics"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/service"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Accept-Language",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			"Idempotency-Key",
			requestIDHeader,
		}
	}

	return cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials) != ""
		},
		AllowMethods:     allowedMethods,
		AllowHeaders:     allowedHeaders,
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           time.Duration(cfg.MaxAge) * time.Second,
	})
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

// MetricsMiddleware HTTP 请求指标
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// IdentitySyncer 将令牌身份同步为本地用户
type IdentitySyncer interface {
	EnsureFromIdentity(ctx context.Context, identity service.Identity) (*models.User, error)
}

type authFailureKey struct{}

type authFailure struct {
	err error
}

// AuthMiddleware 令牌鉴权中间件：校验令牌后同步本地用户，写入 user_id 与 user_role
func AuthMiddleware(validate jwtmiddleware.ValidateToken, users IdentitySyncer) gin.HandlerFunc {
	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		if failure, ok := r.Context().Value(authFailureKey{}).(*authFailure); ok {
			failure.err = err
		}
	}
	middleware := jwtmiddleware.New(validate, jwtmiddleware.WithErrorHandler(errorHandler))

	return func(c *gin.Context) {
		failure := &authFailure{}
		passed := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			identity, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*service.Identity)
			if !ok || identity == nil {
				abortUnauthorized(c, "error.token_invalid")
				return
			}
			user, err := users.EnsureFromIdentity(r.Context(), *identity)
			if err != nil {
				logger.Errorw("auth_user_sync_failed",
					"subject", identity.Subject,
					"request_id", getRequestID(c),
					"error", err,
				)
				abortUnauthorized(c, "error.user_sync_failed")
				return
			}
			c.Set(handlershared.ContextUserIDKey, user.ID)
			c.Set(handlershared.ContextUserRoleKey, user.Role)
			c.Next()
		}

		req := c.Request.WithContext(context.WithValue(c.Request.Context(), authFailureKey{}, failure))
		middleware.CheckJWT(handler).ServeHTTP(c.Writer, req)
		if passed {
			return
		}

		switch {
		case errors.Is(failure.err, jwtmiddleware.ErrJWTMissing):
			abortUnauthorized(c, "error.auth_header_missing")
		case failure.err != nil && strings.Contains(failure.err.Error(), "authorization header"):
			abortUnauthorized(c, "error.auth_header_invalid")
		default:
			logger.Debugw("auth_token_rejected", "request_id", getRequestID(c), "error", failure.err)
			abortUnauthorized(c, "error.token_invalid")
		}
	}
}

func abortUnauthorized(c *gin.Context, key string) {
	response.Unauthorized(c, i18n.T(i18n.ResolveLocale(c), key))
	c.Abort()
}

// RoleMiddleware 基于角色的路由鉴权
func RoleMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("rbac_service_unavailable")
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		role := strings.TrimSpace(c.GetString(handlershared.ContextUserRoleKey))
		if role == "" {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceRole(role, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("rbac_enforce_failed",
				"role", role,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if !allowed {
			logger.Warnw("rbac_permission_denied",
				"user_id", c.GetUint(handlershared.ContextUserIDKey),
				"role", role,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, i18n.T(i18n.ResolveLocale(c), "error.forbidden"))
			c.Abort()
			return
		}

		c.Next()
	}
}
