package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tinyCfg = `[net]
width=4
height=4
channels=1

[convolutional]
filters=2
size=3
pad=1
activation=relu

[avgpool]
`

func TestRunCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "tiny.cfg")
	require.NoError(t, os.WriteFile(cfgPath, []byte(tinyCfg), 0o600))

	var out, errOut bytes.Buffer
	require.NoError(t, run([]string{"version"}, &out, &errOut))
	assert.Contains(t, out.String(), version)

	out.Reset()
	require.NoError(t, run([]string{"summary", "-cfg", cfgPath}, &out, &errOut))
	assert.Contains(t, out.String(), "convolutional")
	assert.Contains(t, out.String(), "avgpool")

	out.Reset()
	require.NoError(t, run([]string{"forward", "-cfg", cfgPath, "-fill", "0.5"}, &out, &errOut))
	assert.Contains(t, out.String(), "output")

	model := filepath.Join(dir, "tiny.gnet")
	out.Reset()
	require.NoError(t, run([]string{"snapshot", "-cfg", cfgPath, "-out", model}, &out, &errOut))
	assert.Contains(t, out.String(), "3 layers")

	out.Reset()
	require.NoError(t, run([]string{"summary", "-model", model}, &out, &errOut))
	assert.Contains(t, out.String(), "layers: 3")
}

func TestRunErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Error(t, run([]string{"train"}, &out, &errOut))
	assert.Error(t, run([]string{"summary"}, &out, &errOut))
	assert.Error(t, run([]string{"summary", "-cfg", "a.cfg", "-model", "b.gnet"}, &out, &errOut))
	assert.Error(t, run([]string{"forward", "-bogus"}, &out, &errOut))
	assert.Error(t, run([]string{"forward", "-n", "-1", "-cfg", "a.cfg"}, &out, &errOut))

	out.Reset()
	require.NoError(t, run(nil, &out, &errOut))
	assert.Contains(t, out.String(), "Commands:")
}
