package telegram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/triplog/core/config"
	"github.com/m3rciful/triplog/core/metrics"
	"github.com/m3rciful/triplog/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/new", commands.Command{Handler: noop, Description: "Record a trip", Aliases: []string{"add"}})
	reg.RegisterCommand("/refresh", commands.Command{Handler: noop, Description: "Reload", AdminOnly: true})
	reg.RegisterCommand("nohash", commands.Command{Handler: noop, Description: "skipped"})
	reg.RegisterCommand("/new", commands.Command{Handler: noop, Description: "duplicate"})

	assert.Len(t, reg.Commands(), 2)
	assert.Equal(t, []tele.Command{{Text: "/new", Description: "Record a trip"}}, reg.ListCommands(true))

	key, _, ok := reg.LookupCommand("add")
	require.True(t, ok)
	assert.Equal(t, "/new", key)
	_, _, ok = reg.LookupCommand("Tokyo Station")
	assert.False(t, ok)
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("act", noop))
	assert.Error(t, reg.RegisterCallback("act", noop))
	assert.Error(t, reg.RegisterCallback("", noop))

	_, ok := reg.GetCallback("act")
	assert.True(t, ok)
	assert.Equal(t, []string{"act"}, reg.ListCallbacks())
}

func TestBuildPoller(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "WEBHOOK", Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://example.org/hook"}})
	wh, ok := p.(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", wh.Listen)

	lp, ok := BuildPoller(PollerOptions{RunMode: coreconfig.RunModeLongpoll}).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, int64(defaultLongPollTimeout), int64(lp.Timeout.Seconds()))
}

func TestDefaultMiddlewares(t *testing.T) {
	names := func(mws []Middleware) []string {
		var out []string
		for _, m := range mws {
			out = append(out, m.Name)
		}
		return out
	}
	assert.Equal(t, []string{"recover", "logger", "metrics"}, names(DefaultMiddlewares(nil, nil, nil)))

	cfg := &coreconfig.Config{}
	cfg.Telegram.AllowedUsers = []int64{1}
	cfg.RateLimit.IntervalMS = 300
	assert.Equal(t, []string{"recover", "logger", "access", "rate_limit", "metrics"},
		names(DefaultMiddlewares(cfg, metrics.New(), nil)))
}

func TestDeleteWebhook(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, deleteWebhook(context.Background(), srv.Client(), srv.URL, "123:abc", true))
	assert.Equal(t, "/bot123:abc/deleteWebhook", gotPath)
	assert.Equal(t, "drop_pending_updates=true", gotBody)

	assert.Error(t, deleteWebhook(context.Background(), srv.Client(), srv.URL, " ", false))
}

func TestBuildHTTPClientCoversLongPoll(t *testing.T) {
	c := BuildHTTPClient(0)
	assert.Equal(t, defaultClientTimeout, c.Timeout)

	c = BuildHTTPClient(60 * time.Second)
	assert.Greater(t, c.Timeout.Seconds(), 60.0)
}
