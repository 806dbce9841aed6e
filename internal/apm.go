package internal

import (
	"context"

	"go.elastic.co/apm"
)

// CaptureError reports err to Elastic APM, a no-op when err is nil
func CaptureError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	apm.CaptureError(ctx, err).Send()
}
