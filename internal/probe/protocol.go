package probe

import (
	"context"
	"io"
	"net/http"
	"time"
)

// ProtocolResolver decides between https and http for a host by trying real requests.
type ProtocolResolver struct {
	Client *http.Client
}

// NewProtocolResolver returns a resolver whose attempts are each bounded by timeout.
func NewProtocolResolver(timeout time.Duration) *ProtocolResolver {
	if timeout <= 0 {
		timeout = DefaultProtocolTimeout
	}
	return &ProtocolResolver{Client: &http.Client{Timeout: timeout}}
}

// Resolve returns "https" when a secure request gets any response below 500,
// otherwise "http" when a plain request does. When neither answers it still
// returns "https".
func (p *ProtocolResolver) Resolve(ctx context.Context, host string) string {
	if p.answers(ctx, "https://"+host) {
		return "https"
	}
	if p.answers(ctx, "http://"+host) {
		return "http"
	}
	return "https"
}

func (p *ProtocolResolver) answers(ctx context.Context, target string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	return resp.StatusCode < http.StatusInternalServerError
}
