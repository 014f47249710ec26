package probe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"periodicd/internal/platform/httpclient"
	"periodicd/pkg/periodic"
)

// HTTP checks rawURL with a GET. 2xx and 3xx are healthy.
func HTTP(client *httpclient.Client, rawURL string) periodic.WorkFunc[Report] {
	target := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		target = u.Redacted()
	}
	return func(ctx context.Context) (Report, error) {
		if client == nil {
			return Report{}, fmt.Errorf("%w: http %s: nil client", ErrBroken, target)
		}
		start := time.Now()
		code, err := client.Check(ctx, rawURL)
		r := newReport(KindHTTP, target, start)
		if err != nil {
			return unhealthy(r, err), nil
		}
		r.Extra = map[string]any{"status": code}
		r.Healthy = code >= http.StatusOK && code < http.StatusBadRequest
		r.Detail = http.StatusText(code)
		return r, nil
	}
}
