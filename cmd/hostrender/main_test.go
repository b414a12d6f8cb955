package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-host/fileio"
	"github.com/cwbudde/algo-host/internal/testutil"
)

func writeSine(t *testing.T, path string) {
	t.Helper()
	sine := testutil.Sine(1000, 8000, 0.5, 800)
	buf := testutil.Buffer(t, sine, sine)
	require.NoError(t, fileio.NewStore(nil).WriteAudio(context.Background(), path, buf, 8000, 16))
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), &out, &errOut, args)
	return out.String(), errOut.String(), err
}

func TestUnitsCommand(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "units")
	require.NoError(t, err)
	for _, name := range []string{"gain", "delay", "reverb", "sine-synth", "transpose", "passthrough"} {
		assert.Contains(t, out, name+"\n")
	}
}

func TestAudioCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	outPath := filepath.Join(dir, "out.wav")
	writeSine(t, in)

	cfgPath := filepath.Join(dir, "host.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("block_size: 100\nlog_level: debug\n"), 0o644))

	out, logs, err := execute(t,
		"audio", "--plugin", "Plug-Ins/Delay.component", "--in", in, "--out", outPath,
		"--config", cfgPath, "--tail", "1", "--bit-depth", "24",
		"--metrics-file", filepath.Join(dir, "metrics.prom"),
	)
	require.NoError(t, err)

	// 800 input frames plus one second at 8 kHz, in blocks of 100.
	assert.Contains(t, out, "8800 (88 blocks) at 8000 Hz, 2 channels")
	assert.Contains(t, logs, "render finished")
	assert.Contains(t, logs, "level=DEBUG")

	_, info, err := fileio.NewStore(nil).ReadAudio(context.Background(), outPath)
	require.NoError(t, err)
	assert.Equal(t, 24, info.BitDepth)
	assert.Equal(t, 8800, info.Frames)

	metrics, err := os.ReadFile(filepath.Join(dir, "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `hostrender_blocks_total{mode="audio"} 88`)
}

func TestGraphCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	writeSine(t, in)

	doc := `<FILTERGRAPH>
  <FILTER uid="1"><PLUGIN name="Audio Input"/></FILTER>
  <FILTER uid="2"><PLUGIN name="missing-plugin"/></FILTER>
  <FILTER uid="3"><PLUGIN name="Audio Output"/></FILTER>
  <CONNECTION srcFilter="1" srcChannel="0" dstFilter="3" dstChannel="0"/>
  <CONNECTION srcFilter="1" srcChannel="1" dstFilter="2" dstChannel="1"/>
</FILTERGRAPH>`
	graphPath := filepath.Join(dir, "g.filtergraph")
	require.NoError(t, os.WriteFile(graphPath, []byte(doc), 0o644))

	out, logs, err := execute(t, "graph", "--graph", graphPath, "--in", in, "--out", filepath.Join(dir, "out.wav"), "--log-format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "1 skipped")
	assert.Contains(t, logs, `"msg":"graph built"`)
}

func TestUsageErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		code int
	}{
		{name: "unknown flag", args: []string{"units", "--bogus"}, code: 2},
		{name: "invalid config", args: []string{"units", "--block-size", "0"}, code: 2},
		{name: "missing config", args: []string{"units", "--config", "/does/not/exist.yaml"}, code: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := execute(t, tt.args...)
			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr), "error %v is not an ExitError", err)
			assert.Equal(t, tt.code, exitErr.Code)
		})
	}
}

func TestRenderFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, _, err := execute(t, "audio", "--plugin", "gain", "--in", filepath.Join(dir, "missing.wav"), "--out", filepath.Join(dir, "out.wav"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "missing.wav"), err.Error())

	_, _, err = execute(t, "graph", "--graph", filepath.Join(dir, "g.filtergraph"), "--out", filepath.Join(dir, "out.wav"))
	assert.Error(t, err, "graph needs --in or --midi")

	_, _, err = execute(t, "midi", "--plugin", "sine-synth")
	assert.Error(t, err, "required flags")
}
