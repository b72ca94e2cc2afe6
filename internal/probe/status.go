package probe

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/hamed0406/sitecheck/internal/domain"
)

// Status is the outcome of one HTTP GET.
// Code is zero only when no response was received (Reachability is Offline).
type Status struct {
	Reachability domain.Reachability
	Code         int
	Received     bool
	Message      string
}

// StatusProber issues a single GET and classifies the answer.
type StatusProber struct {
	Client *http.Client
}

func NewStatusProber(timeout time.Duration) *StatusProber {
	if timeout <= 0 {
		timeout = DefaultStatusTimeout
	}
	return &StatusProber{
		Client: &http.Client{Timeout: timeout},
	}
}

// Check returns Online for codes below 400, Error for any other received
// code, and Offline when the request got no response at all.
func (s *StatusProber) Check(ctx context.Context, target string) Status {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Status{Reachability: domain.StatusOffline, Message: err.Error()}
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return Status{Reachability: domain.StatusOffline, Message: err.Error()}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	reach := domain.StatusOnline
	if resp.StatusCode >= http.StatusBadRequest {
		reach = domain.StatusError
	}
	return Status{
		Reachability: reach,
		Code:         resp.StatusCode,
		Received:     true,
		Message:      resp.Status,
	}
}
