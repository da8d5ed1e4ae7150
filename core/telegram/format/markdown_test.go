package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeMarkdown(t *testing.T) {
	out, err := EscapeMarkdown("12.5 km (A-1) #3!", MarkdownV2)
	require.NoError(t, err)
	assert.Equal(t, `12\.5 km \(A\-1\) \#3\!`, out)

	out, err = EscapeMarkdown("a_b*c", MarkdownV1)
	require.NoError(t, err)
	assert.Equal(t, `a\_b\*c`, out)

	_, err = EscapeMarkdown("x", 3)
	assert.Error(t, err)

	assert.Equal(t, `*Daily report 2025/01/02*`, Bold(V2("Daily report 2025/01/02")))
	assert.Equal(t, `a\\b`, V2(`a\b`))
}
