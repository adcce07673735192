package mw

import (
	"net/http"

	"github.com/tellsiddh/collections/internal/logger"
	"github.com/tellsiddh/collections/internal/utils"
)

// AllowOnlyCIDRS lets through only clients whose address falls in one of
// the allowed IPs or ranges. An empty list disables the check.
// trustProxy selects the address from forwarding headers.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	set, invalid := utils.NewPrefixSet(allowed)
	if len(invalid) > 0 {
		log.Warn("ignoring invalid CIDR entries", logger.Strings("entries", invalid))
	}
	if set.Len() == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !set.Contains(ip) {
				log.Debug("client address rejected",
					logger.String("ip", ip.String()),
					logger.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
