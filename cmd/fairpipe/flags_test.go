package main

import (
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgsInterspersed(t *testing.T) {
	tests := []struct {
		name string
		args []string
		out  string
		pos  []string
	}{
		{"flag first", []string{"-o", "x.nc", "in.nc"}, "x.nc", []string{"in.nc"}},
		{"flag last", []string{"in.nc", "-o", "x.nc"}, "x.nc", []string{"in.nc"}},
		{"no flag", []string{"in.nc"}, "", []string{"in.nc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			out := fs.String("o", "", "")
			pos, err := parseArgs(fs, tt.args, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.pos, pos)
			assert.Equal(t, tt.out, *out)
		})
	}
}

func TestParseArgsCount(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	_, err := parseArgs(fs, []string{"a.nc"}, 2)
	assert.EqualError(t, err, "expected 2 argument(s), got 1")

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	pos, err := parseArgs(fs, []string{"a.nc", "b.nc"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.nc", "b.nc"}, pos)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"coordinate", "metadata"}, splitList(" coordinate, ,metadata "))
	assert.Nil(t, splitList(""))
}
