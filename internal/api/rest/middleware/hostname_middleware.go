package middleware

import (
	"github.com/gin-gonic/gin"
)

// HostnameKey ключ в контексте gin, под которым хранится домен витрины
const HostnameKey = "storefrontHostname"

// HostnameMiddleware определяет домен витрины, от имени которой пришел запрос.
// За прокси оригинальный домен приходит в заголовках; порядок поиска:
// X-Hostname, X-Forwarded-Host, затем Host самого запроса.
func HostnameMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		hostname := c.GetHeader("X-Hostname")
		if hostname == "" {
			hostname = c.GetHeader("X-Forwarded-Host")
		}
		if hostname == "" {
			hostname = c.Request.Host
		}

		c.Set(HostnameKey, hostname)
		c.Next()
	}
}

// HostnameFromContext возвращает домен витрины, определенный HostnameMiddleware
func HostnameFromContext(c *gin.Context) string {
	return c.GetString(HostnameKey)
}
