package api

import (
	"net/http"
	"strings"

	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/config"
	"github.com/Yash-912/LogiMetrics-sub001/cli/tracker/types"
	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// KeyAuth authenticates requests against the static API key table. The key
// travels in X-API-Key, an Authorization bearer, or the api_key query
// parameter (the only option for browser websockets).
func KeyAuth(keys []config.APIKey) gin.HandlerFunc {
	table := make(map[string]types.Principal, len(keys))
	for _, k := range keys {
		table[k.Key] = types.Principal{ID: k.Principal, CompanyID: k.CompanyID, Admin: k.Admin}
	}

	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if key == "" {
			key = c.Query("api_key")
		}

		principal, ok := table[key]
		if key == "" || !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or unknown API key"})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func principalFrom(c *gin.Context) types.Principal {
	if v, ok := c.Get(principalKey); ok {
		return v.(types.Principal)
	}
	return types.Principal{}
}
