package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name          string
		cb            *tele.Callback
		unique, value string
	}{
		{"nil", nil, "", ""},
		{"encoded", &tele.Callback{Data: "\fact|confirm"}, "act", "confirm"},
		{"routed", &tele.Callback{Unique: "act", Data: "modify"}, "act", "modify"},
		{"no payload", &tele.Callback{Data: "\fping"}, "ping", ""},
		{"pipe in payload", &tele.Callback{Data: "\fact|a|b"}, "act", "a|b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, p := ParseCallbackData(tc.cb)
			assert.Equal(t, tc.unique, u)
			assert.Equal(t, tc.value, p)
		})
	}
}
