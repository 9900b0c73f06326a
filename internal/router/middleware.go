package router

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dispatch-next/internal/authz"
	"github.com/dispatch-next/internal/config"
	"github.com/dispatch-next/internal/http/response"
	"github.com/dispatch-next/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"
const userIDContextKey = "user_id"
const userRoleContextKey = "user_role"

// AuthClaims bearer token claims. Tokens are issued by the external
// auth service; this service only validates signature and expiry.
type AuthClaims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// CORSMiddleware cross-origin middleware
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			"X-Request-ID",
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
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

// RequestIDMiddleware request ID middleware
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

// LoggerMiddleware structured request log middleware
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	sugar := log.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			entry.Errorw("request", "errors", c.Errors.String())
			return
		}
		entry.Infow("request")
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

// JWTAuthMiddleware bearer token validation middleware
func JWTAuthMiddleware(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" {
			response.Unauthorized(c, "jwt secret not configured")
			c.Abort()
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "authorization header missing")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			response.Unauthorized(c, "authorization header invalid")
			c.Abort()
			return
		}

		tokenString := parts[1]
		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		claims := &AuthClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		})
		if err != nil || !token.Valid {
			response.Unauthorized(c, "token invalid")
			c.Abort()
			return
		}
		userID := strings.TrimSpace(claims.UserID)
		if userID == "" {
			userID = strings.TrimSpace(claims.Subject)
		}
		if userID == "" {
			response.Unauthorized(c, "token invalid")
			c.Abort()
			return
		}

		c.Set(userIDContextKey, userID)
		c.Set(userRoleContextKey, strings.TrimSpace(claims.Role))
		c.Next()
	}
}

// RBACMiddleware role-based access middleware. The token role is the
// primary subject; per-user grants stored by the authz service are
// consulted as a fallback.
func RBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("rbac_service_unavailable")
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}

		userID := CurrentUserID(c)
		if userID == "" {
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed := false
		if role := CurrentUserRole(c); role != "" {
			normalizedRole, err := authz.NormalizeRole(role)
			if err == nil {
				ok, enforceErr := authzService.Enforce(normalizedRole, resource, c.Request.Method)
				if enforceErr != nil {
					logger.Errorw("rbac_enforce_failed",
						"user_id", userID,
						"role", role,
						"method", c.Request.Method,
						"path", c.Request.URL.Path,
						"error", enforceErr,
					)
				}
				allowed = ok
			}
		}
		if !allowed {
			ok, err := authzService.EnforceUser(userID, resource, c.Request.Method)
			if err != nil {
				logger.Errorw("rbac_enforce_user_failed",
					"user_id", userID,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"error", err,
				)
			}
			allowed = ok
		}

		if !allowed {
			logger.Warnw("rbac_permission_denied",
				"user_id", userID,
				"role", CurrentUserRole(c),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, "forbidden")
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUserID returns the authenticated user id
func CurrentUserID(c *gin.Context) string {
	value, ok := c.Get(userIDContextKey)
	if !ok {
		return ""
	}
	if userID, ok := value.(string); ok {
		return userID
	}
	return ""
}

// CurrentUserRole returns the authenticated user's token role
func CurrentUserRole(c *gin.Context) string {
	value, ok := c.Get(userRoleContextKey)
	if !ok {
		return ""
	}
	if role, ok := value.(string); ok {
		return role
	}
	return ""
}
