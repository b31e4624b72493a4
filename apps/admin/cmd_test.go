package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunHelp(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"help"}, &out))
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "migrate")
	assert.Contains(t, out.String(), "resetpassword")
}

func TestRunMissingCommand(t *testing.T) {
	var out bytes.Buffer
	err := run(nil, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "Usage:")
}

func TestRunUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"bogus"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestRunMigrateMissingArg(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"migrate"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "goose")
}
