package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avdeevm/blogapi/config"
	"github.com/avdeevm/blogapi/utils"
)

// HostFilter rejects requests whose Host header is not in the configured
// allow list. With no AllowedHosts configured every host is accepted.
func HostFilter() gin.HandlerFunc {
	cfg := config.Get()
	allowed := make(map[string]struct{}, len(cfg.AllowedHosts))
	for _, h := range cfg.AllowedHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			allowed[h] = struct{}{}
		}
	}
	open := len(allowed) == 0

	return func(ctx *gin.Context) {
		if open {
			ctx.Next()
			return
		}
		host := strings.ToLower(ctx.Request.Host)
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if _, ok := allowed[host]; !ok {
			utils.Error(ctx, http.StatusBadRequest, 40010, "host not allowed")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
