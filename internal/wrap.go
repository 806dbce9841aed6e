package internal

import (
	"net/http"
	"strings"

	"go.elastic.co/apm/module/apmhttp"

	"github.com/titpetric/ocpbootstrap/internal/log"
)

// WrapAll wraps a http.Handler with all needed handlers for the probe endpoint
func WrapAll(h http.Handler) http.Handler {
	h = WrapWithIP(h)
	h = apmhttp.Wrap(h)
	return h
}

// ClientIP returns the client address, preferring proxy headers
func ClientIP(r *http.Request) string {
	headers := []string{
		http.CanonicalHeaderKey("X-Forwarded-For"),
		http.CanonicalHeaderKey("X-Real-IP"),
	}
	for _, header := range headers {
		if addr := r.Header.Get(header); addr != "" {
			return strings.SplitN(addr, ", ", 2)[0]
		}
	}
	return strings.SplitN(r.RemoteAddr, ":", 2)[0]
}

// WrapWithIP wraps a http.Handler to inject the client IP into the context
func WrapWithIP(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if log.V(2) {
			log.Infof("probe %s %s from %s", r.Method, r.URL.Path, ip)
		}

		ctx := SetIPToContext(r.Context(), ip)
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}
