package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fishing-buddy.klederson.com/internal/config"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestDecodeCommand(t *testing.T) {
	out := execute(t, "decode", "003c0000000000000000000001", "00 3c", "zz")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "1: gyro(1.00, 0.00, 0.00) acc(0.00, 0.00, 0.00) hit=true -> show-hit", lines[0])
	assert.Contains(t, lines[1], "2: ")
	assert.Contains(t, lines[1], "packet too short")
	assert.Contains(t, lines[2], "3: invalid hex")
}

func TestDecodePacketsDebounces(t *testing.T) {
	calm := "0000000000000000000000" + "0000"
	input := "003c0000000000000000000001\n# comment\n\n" + strings.Repeat(calm+"\n", 50)

	var out bytes.Buffer
	require.NoError(t, decodePackets(&out, strings.NewReader(input)))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 51)
	assert.True(t, strings.HasSuffix(lines[0], "show-hit"))
	assert.True(t, strings.HasSuffix(lines[48], "no-change"))
	assert.True(t, strings.HasSuffix(lines[50], "show-measuring"))
}

func TestPairingFlagAndStatus(t *testing.T) {
	file := filepath.Join(t.TempDir(), "pairing.yaml")
	store, err := config.OpenPairingStore(file)
	require.NoError(t, err)
	require.NoError(t, store.SetPairedAddress("aa:bb:cc:dd:ee:ff"))

	out := execute(t, "status", "--pairing-file", file, "--adapter", "hci1")
	assert.Contains(t, out, "Paired:        AA:BB:CC:DD:EE:FF")
	assert.Contains(t, out, "Adapter:       hci1")
	assert.Contains(t, out, "Event feed:    off")

	out = execute(t, "unpair", "--pairing-file", file)
	assert.Equal(t, "Forgot AA:BB:CC:DD:EE:FF\n", out)

	out = execute(t, "unpair", "--pairing-file", file)
	assert.Equal(t, "No sensor is paired.\n", out)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("FISHING_BUDDY_WS_LISTEN", ":9999")
	out := execute(t, "status", "--pairing-file", filepath.Join(t.TempDir(), "p.yaml"))
	assert.Contains(t, out, "Paired:        none")
	assert.Contains(t, out, "Event feed:    :9999")
}
