package middleware

import "github.com/gin-gonic/gin"

// ClientIDHeader lets a desktop client identify itself for telemetry.
const ClientIDHeader = "X-Client-ID"

const clientIDKey = contextKey("clientID")

// ClientIdentity stores the caller's identity: the X-Client-ID header, or the client IP.
func ClientIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(ClientIDHeader)
		if id == "" {
			id = c.ClientIP()
		}
		c.Set(string(clientIDKey), id)
		c.Next()
	}
}

// GetClientIDFromContext retrieves the caller identity set by ClientIdentity.
func GetClientIDFromContext(c *gin.Context) (string, bool) {
	val, exists := c.Get(string(clientIDKey))
	if !exists {
		return "", false
	}
	id, ok := val.(string)
	return id, ok && id != ""
}
