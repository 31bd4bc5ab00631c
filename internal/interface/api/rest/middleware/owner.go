package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	HeaderUserID = "UserId"
	CtxOwner     = "owner"

	CodeOwnerRequired = "owner_required"
	MsgOwnerRequired  = "UserId header required"
)

// Owner reads the opaque owner id from the UserId header. There is no
// authentication behind it; it only scopes the request.
func Owner() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if owner == "" {
			c.AbortWithStatusJSON(
				http.StatusBadRequest,
				gin.H{"error": MsgOwnerRequired, "code": CodeOwnerRequired},
			)
			return
		}

		c.Set(CtxOwner, owner)
		c.Next()
	}
}

func OwnerFrom(c *gin.Context) string { return c.GetString(CtxOwner) }
