package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "tripbot dev")
}

func TestMigrateRequiresConfig(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"migrate", "--config", "/nonexistent/config.yaml"})
	assert.Error(t, root.Execute())
}
