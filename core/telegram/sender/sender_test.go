package sender

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoRetriesTransientErrors(t *testing.T) {
	var sent []string
	s := New(Options{MaxRetries: 2, RetryBackoff: time.Millisecond, OnSent: func(a string) { sent = append(sent, a) }})
	calls := 0
	err := s.Do(context.Background(), "send.text", "sendMessage", func() error {
		calls++
		if calls == 1 {
			return &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"send.text"}, sent)
	assert.Zero(t, s.ErrorCount())
}

func TestDoReturnsPermanentError(t *testing.T) {
	s := New(Options{MaxRetries: 3, RetryBackoff: time.Millisecond})
	calls := 0
	boom := errors.New("telegram: bot was blocked by the user (403)")
	err := s.Do(context.Background(), "send.text", "sendMessage", func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(1), s.ErrorCount())
}

func TestDoRespectsDeadline(t *testing.T) {
	s := New(Options{MaxRetries: 5, RetryBackoff: time.Hour, MaxDuration: 20 * time.Millisecond})
	err := s.Do(context.Background(), "send.text", "", func() error {
		return &net.OpError{Op: "dial", Err: errors.New("refused")}
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClassifyAndSanitize(t *testing.T) {
	assert.Equal(t, "dial", classifyError(&net.OpError{Op: "dial", Err: errors.New("x")}))
	assert.Equal(t, "timeout", classifyError(context.DeadlineExceeded))
	assert.Equal(t, "http_4xx", classifyError(errors.New("telegram: bad request (400)")))
	assert.Equal(t, "unknown", classifyError(errors.New("boom")))
	assert.Equal(t, "Post https://api.telegram.org/bot<redacted>/sendMessage",
		sanitizeErrorMessage(errors.New("Post https://api.telegram.org/bot123:ABC-def_9/sendMessage")))
}
