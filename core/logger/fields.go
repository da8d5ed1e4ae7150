package logger

import (
	"log/slog"
	"strings"
)

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

var (
	knownStatus  = set("ok", "fail", "skip", "retry", "rate_limited", "cancelled", "error")
	knownCache   = set("hit", "miss", "refresh")
	knownOutcome = set("ok", "fail", "cancelled", "rate_limited")
)

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

// normalizeEnums lowercases status, cache and outcome. Unknown cache and
// outcome values are dropped; unknown statuses pass through.
func normalizeEnums(fields map[string]any) {
	if s, ok := fields["status"].(string); ok {
		fields["status"] = strings.ToLower(s)
	}
	for key, known := range map[string]map[string]bool{"cache": knownCache, "outcome": knownOutcome} {
		s, ok := fields[key].(string)
		if !ok {
			continue
		}
		s = strings.ToLower(s)
		if known[s] {
			fields[key] = s
		} else {
			delete(fields, key)
		}
	}
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"handler",
	"state",
	"next_state",
	"action",
	"input",
	"op",
	"cb_key",
	"outcome",
	"duration_ms",
	"record_no",
	"count",
	"cache",
	"backend",
	"mode",
	"listen",
	"http_code",
	"db",
	"host",
	"port",
	"err",
	"cause",
	"retryable",
	"attempts",
}
