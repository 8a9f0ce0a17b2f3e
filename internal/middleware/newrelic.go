package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicAttributes enriches the transaction started by nrgin with the
// caller ID and the route template, and reports handler errors on it.
func NewRelicAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		txn := nrgin.Transaction(c)
		if txn == nil {
			return
		}

		if id := c.GetHeader(UserIDHeader); id != "" {
			txn.AddAttribute("user_id", id)
		}
		if route := c.FullPath(); route != "" {
			txn.AddAttribute("route", route)
		}
		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
