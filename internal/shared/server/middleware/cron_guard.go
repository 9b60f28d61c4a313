package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"skillgap-backend/internal/shared/apperr"
	"skillgap-backend/internal/shared/server/respond"
	"skillgap-backend/internal/shared/telemetry"
)

// CronGuard restricts the unauthenticated batch routes to trusted callers.
// With a secret configured the X-Cron-Secret header must match; with CIDRs
// configured the peer address must fall inside one of them. Forwarding
// headers are ignored. A list where no entry parses admits nobody. With
// neither, the routes rely on network placement alone.
func CronGuard(secret string, allowedCIDRs []string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	var nets []*net.IPNet
	for _, raw := range allowedCIDRs {
		_, n, err := net.ParseCIDR(strings.TrimSpace(raw))
		if err != nil {
			telemetry.Error("cron_guard.bad_cidr", map[string]any{"cidr": raw, "err": err})
			continue
		}
		nets = append(nets, n)
	}
	restricted := false
	for _, raw := range allowedCIDRs {
		if strings.TrimSpace(raw) != "" {
			restricted = true
			break
		}
	}

	return func(c *gin.Context) {
		if secret != "" {
			got := c.GetHeader("X-Cron-Secret")
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				respond.Error(c, http.StatusUnauthorized, apperr.KindAuthentication, "Invalid cron secret")
				return
			}
		}
		if restricted {
			ip := net.ParseIP(c.RemoteIP())
			if ip == nil || !containsIP(nets, ip) {
				respond.Error(c, http.StatusForbidden, apperr.KindAuthentication, "Caller is not on a trusted network")
				return
			}
		}
		c.Next()
	}
}

func containsIP(nets []*net.IPNet, ip net.IP) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
