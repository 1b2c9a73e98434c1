package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS で返すヘッダーの値。
const (
	corsAllowMethods  = "GET, POST, PUT, DELETE, PATCH, OPTIONS, HEAD"
	corsAllowHeaders  = "Authorization, Content-Type, Accept, X-Requested-With"
	corsExposeHeaders = "Authorization, Content-Type, X-Total-Count"
	corsMaxAge        = "3600"
)

// CORS は指定されたオリジンからのクロスオリジンリクエストを許可するGinミドルウェアを返す。
// フロントエンドからのAPIアクセスを許可するためにgatewayサービスで使用する。
// "*" を含む場合は任意のオリジンを許可する。Authorizationヘッダーを使うため、
// Access-Control-Allow-Origin には常にリクエストのオリジンをそのまま返す。
func CORS(allowedOrigins []string) gin.HandlerFunc {
	originsSet := make(map[string]struct{}, len(allowedOrigins))
	allowAny := false
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAny = true
			continue
		}
		originsSet[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		_, ok := originsSet[origin]
		if origin != "" && (ok || allowAny) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", corsAllowMethods)
			c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
			c.Header("Access-Control-Expose-Headers", corsExposeHeaders)
			c.Header("Access-Control-Max-Age", corsMaxAge)
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
