// Package middleware 提供 HTTP 中间件
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"z-novel-assistant/pkg/logger"
	"z-novel-assistant/pkg/utils"
)

const identityKey = "identity"

// TokenVerifier 校验 Bearer token
type TokenVerifier interface {
	Verify(token string) (*utils.Identity, error)
}

// Auth 认证中间件，校验通过后注入 Identity
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abortUnauthorized(c, "invalid authorization format")
			return
		}

		id, err := verifier.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, utils.ErrExpiredToken) {
				msg = "token expired"
			}
			abortUnauthorized(c, msg)
			return
		}

		c.Set(identityKey, id)
		c.Set("user_id", id.UID)
		ctx := logger.WithContext(c.Request.Context(), logger.UserIDKey, id.UID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetIdentity 读取 Auth 注入的身份
func GetIdentity(c *gin.Context) (*utils.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*utils.Identity)
	return id, ok && id != nil
}

// abortUnauthorized 终止请求并返回 401
func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":     http.StatusUnauthorized,
		"message":  msg,
		"trace_id": c.GetString("trace_id"),
	})
}
