package telegram

import (
	"net/http"
	"time"

	"github.com/m3rciful/triplog/core/netutil"
)

const (
	defaultClientTimeout = 30 * time.Second
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 2 * time.Second
	// headerSlack is added on top of the long poll timeout before giving
	// up on getUpdates headers.
	headerSlack = 5 * time.Second
)

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
// pollTimeout is the long poll wait; zero selects the default.
func BuildHTTPClient(pollTimeout time.Duration) *http.Client {
	if pollTimeout <= 0 {
		pollTimeout = defaultLongPollTimeout * time.Second
	}
	timeout := defaultClientTimeout
	if floor := pollTimeout + 2*headerSlack; timeout < floor {
		timeout = floor
	}
	return netutil.NewClient(netutil.ClientOptions{
		Timeout:       timeout,
		Retries:       defaultRetryAttempts,
		Backoff:       defaultRetryBackoff,
		HeaderTimeout: pollTimeout + headerSlack,
	})
}
