package jwt

import (
	"strings"

	"VectorOps/pkg/back"
	"VectorOps/pkg/util/myjwt"
	"VectorOps/pkg/xerr"

	"github.com/gin-gonic/gin"
)

const (
	CtxUUID     = "uuid"
	CtxUsername = "username"
	CtxToken    = "token"
)

// TokenParser 由 myjwt.Issuer 实现
type TokenParser interface {
	ParseToken(tokenString string) (*myjwt.CustomClaims, error)
}

func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := BearerToken(c)
		if !ok {
			back.Error(c, xerr.Unauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}

		claims, err := parser.ParseToken(tokenString)
		if err != nil {
			back.Error(c, xerr.Unauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set(CtxUUID, claims.Uuid)
		c.Set(CtxUsername, claims.Username)
		c.Set(CtxToken, tokenString)
		c.Next()
	}
}

// BearerToken 从 Authorization 头中取出 token
func BearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return tok, tok != ""
}

// Optional 在 enforce=false 时放行所有请求，否则等同于 Auth
func Optional(parser TokenParser, enforce bool) gin.HandlerFunc {
	if !enforce {
		return func(c *gin.Context) { c.Next() }
	}
	return Auth(parser)
}
