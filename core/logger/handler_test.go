package logger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, format logFormat, fn func(*slog.Logger)) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	log := slog.New(newStructuredHandler(handlerConfig{
		level:  slog.LevelInfo,
		writer: aw,
		format: format,
	}))
	fn(log)
	require.NoError(t, aw.Flush())
	require.NoError(t, aw.Close())
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	line := capture(t, formatKV, func(l *slog.Logger) {
		LogEvent(ctx, l.With("component", CompEngine), slog.LevelInfo, "engine.transition",
			slog.String("status", "OK"),
			slog.String("state", "new.amount"),
		)
	})

	tokens := strings.Split(line, " ")
	require.GreaterOrEqual(t, len(tokens), 6, line)
	want := []string{"ts=", "level=INFO", "component=engine", "event=engine.transition", "status=ok", "rid=rid-123"}
	for i, prefix := range want {
		assert.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, want prefix %s", i, tokens[i], prefix)
	}
	assert.Contains(t, line, "user_id=7")
	assert.Contains(t, line, "chat_id=9")
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	ctx := WithRID(context.Background(), "rid-json")

	line := capture(t, formatJSON, func(l *slog.Logger) {
		LogEvent(ctx, l.With("component", CompRecords), slog.LevelError, "record.append",
			slog.String("status", "fail"),
			slog.Any("err", errors.New("boom")),
			slog.Duration("duration", 1500*time.Microsecond),
		)
	})

	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"service.records"`, `"event":"record.append"`, `"status":"fail"`, `"rid":"rid-json"`}
	pos := -1
	for _, p := range prefixes {
		idx := strings.Index(line, p)
		require.Greater(t, idx, pos, "%s out of order in %s", p, line)
		pos = idx
	}
	assert.Contains(t, line, `"err":"boom"`)
	assert.Contains(t, line, `"duration_ms":2`)
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	raw := BuildRID(123, 456, 789)
	ctx := WithRID(context.Background(), raw)

	kv := capture(t, formatKV, func(l *slog.Logger) {
		LogEvent(ctx, l, slog.LevelInfo, "rid.test")
	})
	assert.Contains(t, kv, "rid="+CompactRID(raw))
	assert.NotContains(t, kv, "rid_full=")
	assert.Contains(t, kv, "component=app")

	js := capture(t, formatJSON, func(l *slog.Logger) {
		LogEvent(ctx, l, slog.LevelInfo, "rid.test")
	})
	assert.Contains(t, js, `"rid":"`+CompactRID(raw)+`"`)
	assert.Contains(t, js, `"rid_full":"`+raw+`"`)
	assert.Contains(t, js, `"ts_unix_nano"`)
}

func TestStructuredHandlerDropsUnknownOutcome(t *testing.T) {
	line := capture(t, formatKV, func(l *slog.Logger) {
		LogEvent(context.Background(), l, slog.LevelInfo, "x",
			slog.String("outcome", "weird"),
			slog.String("cache", "HIT"),
		)
	})
	assert.NotContains(t, line, "outcome=")
	assert.Contains(t, line, "cache=hit")
}

func TestStructuredHandlerLevelFilter(t *testing.T) {
	line := capture(t, formatKV, func(l *slog.Logger) {
		LogEvent(context.Background(), l, slog.LevelDebug, "hidden")
	})
	assert.Empty(t, line)
}

func TestCompactRID(t *testing.T) {
	assert.Equal(t, "3f.co.lx", CompactRID("123:456:789"))
	assert.Equal(t, "not-a-rid", CompactRID("not-a-rid"))
	assert.Equal(t, "1:x:2", CompactRID("1:x:2"))
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "ab\tc", Sanitize("a\x00b\tc\u200b"))
	assert.Equal(t, "東京", SanitizeLimit("東京駅", 2))
	assert.Equal(t, "", SanitizeLimit("abc", 0))
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	assert.Equal(t, []bool{true, false, false, true}, got)

	s.Set(0, 0)
	assert.True(t, s.Allow())

	num, den := parseRatioSpec("2/5")
	assert.Equal(t, [2]int{2, 5}, [2]int{num, den})
	num, den = parseRatioSpec("10")
	assert.Equal(t, [2]int{1, 10}, [2]int{num, den})
	num, den = parseRatioSpec("off")
	assert.Equal(t, [2]int{0, 0}, [2]int{num, den})
}
