package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by bridge tokens
type Claims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// JWTAuth validates HS256 bearer tokens and stores the client id under "client".
// Websocket clients that cannot set headers may pass ?token= instead.
// An empty secret disables the check.
func JWTAuth(secret string) gin.HandlerFunc {
	if secret == "" {
		return func(c *gin.Context) { c.Next() }
	}
	secretBytes := []byte(secret)

	return func(c *gin.Context) {
		token := bearerFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
			return secretBytes, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		claims, ok := parsed.Claims.(*Claims)
		if !ok || !parsed.Valid {
			abortUnauthorized(c, "token invalid")
			return
		}

		c.Set("client", claims.ClientID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
