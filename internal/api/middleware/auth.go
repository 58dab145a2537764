package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/CandorWorks/LinkBridge/backend/internal/domain/account"
)

// AccountKey is the gin context key holding the authenticated account.
const AccountKey = "account"

// APIKeyHeader is the request header carrying the client credential.
const APIKeyHeader = "X-Api-Key"

// Auth authenticates requests against the account store. The key is read
// from the X-Api-Key header, falling back to a Bearer token for clients
// that only speak Authorization.
func Auth(store *account.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(APIKeyHeader)
		if key == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing api key"})
			c.Abort()
			return
		}

		acct, ok := store.Authenticate(key)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			c.Abort()
			return
		}

		c.Set(AccountKey, acct)
		c.Next()
	}
}

// AccountFrom retrieves the authenticated account set by Auth.
func AccountFrom(c *gin.Context) (*account.Account, bool) {
	v, ok := c.Get(AccountKey)
	if !ok {
		return nil, false
	}
	acct, ok := v.(*account.Account)
	return acct, ok
}
