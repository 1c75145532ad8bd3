package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentCmd(t *testing.T) {
	input := `{
		"SB":  ["fold"],
		"BB":  ["raise", "bet", "bet", "bet"],
		"EP":  ["call", "raise", "raise", "call"],
		"MP":  ["fold"],
		"CO":  ["call", "call", "call", "fold"],
		"BTN": ["call", "call", "check", "check"]
	}`

	tests := []struct {
		name   string
		cmd    SegmentCmd
		stdin  string
		file   bool
		want   string
		hasErr bool
	}{
		{
			name:  "stdin",
			stdin: input,
			want:  `{"preflop":["fold","raise","call","fold","call","call"],"flop":["bet","raise","call","call","bet","raise","call","check","bet","call","fold","check"],"turn":[],"river":[]}`,
		},
		{
			name: "file",
			file: true,
			want: `{"preflop":["fold","raise","call","fold","call","call"],"flop":["bet","raise","call","call","bet","raise","call","check","bet","call","fold","check"],"turn":[],"river":[]}`,
		},
		{
			name:  "simple",
			cmd:   SegmentCmd{Simple: true},
			stdin: `{"SB": ["bet"], "BB": ["check", "check", "call"]}`,
			want:  `{"preflop":["bet","check","check"],"flop":["call"],"turn":[],"river":[]}`,
		},
		{
			name:   "invalid",
			stdin:  `[1, 2]`,
			hasErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := tt.cmd
			if tt.file {
				cmd.File = filepath.Join(t.TempDir(), "actions.json")
				require.NoError(t, os.WriteFile(cmd.File, []byte(input), 0o644))
			}

			var out bytes.Buffer
			err := cmd.run(strings.NewReader(tt.stdin), &out)
			if tt.hasErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, out.String())
		})
	}
}

func TestServeLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "omahareader.hcl")
	require.NoError(t, os.WriteFile(path, []byte("server {\n  port = 6000\n}\n"), 0o644))

	for _, key := range []string{"PORT", "WAIT_TIME", "DEBUG_MODE", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cmd := ServeCmd{Config: path, Port: 7000, CaptureDir: dir, LogLevel: "debug"}
	cfg, err := cmd.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, dir, cfg.Engine.CaptureDir)
	assert.Equal(t, "debug", cfg.Server.LogLevel)

	cmd = ServeCmd{Config: path, LogLevel: "chatty"}
	_, err = cmd.loadConfig()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(io.Discard, "warn")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = newLogger(io.Discard, "nope")
	assert.Error(t, err)
}
