package internal

import (
	"context"
)

type ipKey struct{}

// SetIPToContext stores the client IP in ctx
func SetIPToContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipKey{}, ip)
}

// GetIPFromContext returns the client IP stored in ctx, if any
func GetIPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(ipKey{}).(string); ok {
		return ip
	}
	return ""
}
