package web2pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod/lib/launcher"
)

// The shutdown path reads the launched browser's process ID through this
// accessor; pin its shape so an API change surfaces here.
var _ func() int = (*launcher.Launcher)(nil).PID

func TestClassifyNavigationError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "deadline exceeded",
			err:  fmt.Errorf("waiting for load: %w", context.DeadlineExceeded),
			want: ErrNavigationTimeout,
		},
		{
			name: "dns not resolved",
			err:  errors.New("net::ERR_NAME_NOT_RESOLVED"),
			want: ErrDNSResolution,
		},
		{
			name: "dns timed out",
			err:  errors.New("net::ERR_DNS_TIMED_OUT"),
			want: ErrDNSResolution,
		},
		{
			name: "connection refused",
			err:  errors.New("net::ERR_CONNECTION_REFUSED"),
			want: ErrNavigation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := classifyNavigationError(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("classifyNavigationError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsDisconnect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"websocket failure", errors.New("websocket: close 1006"), true},
		{"closed connection", errors.New("use of closed network connection"), true},
		{"browser closed", errors.New("browser has been closed"), true},
		{"ordinary error", errors.New("element not found"), false},
	}

	for _, tt := range tests {
		if got := isDisconnect(tt.err); got != tt.want {
			t.Errorf("isDisconnect(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestRodRendererHealthyBeforeLaunch(t *testing.T) {
	t.Parallel()

	r := newRodRenderer(log.New(io.Discard))
	if r.Healthy() {
		t.Error("Healthy() = true before any launch")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() on unlaunched renderer error = %v", err)
	}
}
