package middleware

import (
	"strings"

	apperr "matcha/backend/internal/errors"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
)

const userIDKey = "user_id"

// Identity resolves the caller's user id from a signed bearer token and
// stores it on the request context. Token issuance belongs to the account
// service; this middleware only verifies and extracts.
//
// The token is read from the Authorization header, or from a `token` query
// parameter for websocket clients that cannot set headers.
func Identity(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			apperr.Abort(c, apperr.ErrUnauthenticated)
			return
		}

		userID, err := parseUserID(raw, key)
		if err != nil || userID == 0 {
			apperr.Abort(c, apperr.ErrUnauthenticated)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user for the request, 0 if absent.
func UserID(c *gin.Context) uint64 {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0
	}
	id, _ := v.(uint64)
	return id
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

func parseUserID(raw string, key []byte) (uint64, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return key, nil
	})
	if err != nil {
		return 0, err
	}

	// numeric claims decode as float64
	id, ok := claims[userIDKey].(float64)
	if !ok || id <= 0 {
		return 0, apperr.ErrUnauthenticated
	}
	return uint64(id), nil
}
