package main

import (
	"errors"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumbers(t *testing.T) {
	vals, err := parseNumbers("1.5, 4", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 4}, vals)

	_, err = parseNumbers("1,2,3", 2)
	assert.Error(t, err)

	_, err = parseNumbers("1,x", 2)
	assert.Error(t, err)

	for _, raw := range []string{"NaN,1", "1,Inf", "-inf,2"} {
		_, err = parseNumbers(raw, 2)
		assert.Error(t, err, raw)
	}
}

func TestVideoID(t *testing.T) {
	fs := pflag.NewFlagSet("delete", pflag.ContinueOnError)
	require.NoError(t, fs.Parse([]string{"42"}))
	id, err := videoID(fs)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, args := range [][]string{{}, {"abc"}, {"0"}, {"1", "2"}} {
		fs := pflag.NewFlagSet("delete", pflag.ContinueOnError)
		require.NoError(t, fs.Parse(args))
		_, err := videoID(fs)
		assert.True(t, errors.Is(err, errUsage), "args %v", args)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	err := run([]string{"frobnicate"})
	assert.True(t, errors.Is(err, errUsage))
}

func TestRun_Help(t *testing.T) {
	assert.NoError(t, run(nil))
	assert.NoError(t, run([]string{"version"}))
}
