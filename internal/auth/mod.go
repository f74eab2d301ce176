package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"rentora-api-io/api/pkg/util"
)

const claimsContextKey = "auth_claims"

func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ExtractToken(c)
		if tokenString == "" {
			util.HandleError(c, 401, errors.New("request does not contain an access token"))
			c.Abort()
			return
		}

		claims, err := ValidateToken(tokenString)
		if err != nil {
			util.HandleError(c, 401, err)
			c.Abort()
			return
		}

		if !IsTokenValid(util.REDIS(), tokenString) {
			util.HandleError(c, 401, errors.New("token has been revoked, please login again"))
			c.Abort()
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the authenticated claims stored by Auth().
func ClaimsFrom(c *gin.Context) (*JWTClaim, error) {
	value, ok := c.Get(claimsContextKey)
	if !ok {
		return nil, errors.New("no authenticated session on this request")
	}

	claims, ok := value.(*JWTClaim)
	if !ok {
		return nil, errors.New("malformed session claims")
	}
	return claims, nil
}

func ExtractToken(c *gin.Context) string {
	bearer := c.GetHeader("Authorization")
	if strings.HasPrefix(bearer, "Bearer ") {
		return strings.TrimPrefix(bearer, "Bearer ")
	}
	return ""
}

// IsTokenValid checks the token is not on the revocation blacklist.
func IsTokenValid(db *redis.Client, tokenString string) bool {
	_, err := db.Get(context.Background(), tokenString).Result()
	if err == redis.Nil {
		return true
	}
	if err != nil {
		log.Printf("Error while checking blacklist: %s", err)
		return false
	}

	return false
}

func GenerateSecureToken(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}
