package main

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giulio2002/dirseek/compare"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dirseek.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: pebble
path: /tmp/x
table: balances
dupwidth: 64
log:
  level: debug
`), 0644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "pebble", cfg.Backend)
	assert.Equal(t, "/tmp/x", cfg.Path)
	assert.Equal(t, "balances", cfg.Table)
	assert.Equal(t, 64, cfg.DupWidth)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	missing, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), missing)
}

func TestFlagsOverrideConfig(t *testing.T) {
	fs := flag.NewFlagSet("t", flag.ContinueOnError)
	var f flags
	f.register(fs)
	require.NoError(t, fs.Parse([]string{"-backend", "bolt", "-dupwidth", "32"}))

	cfg := defaultConfig()
	cfg.Table = "fromfile"
	f.apply(fs, &cfg)
	assert.Equal(t, "bolt", cfg.Backend)
	assert.Equal(t, "fromfile", cfg.Table)
	assert.Equal(t, 32, cfg.DupWidth)
	assert.True(t, cfg.DupSort)
}

func TestDecodeEncode(t *testing.T) {
	b, err := decode("0x00ff")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0xff}, b)

	b, err = decode("plain")
	require.NoError(t, err)
	assert.Equal(t, []byte("plain"), b)

	_, err = decode("0xzz")
	assert.Error(t, err)

	assert.Equal(t, "plain", encode([]byte("plain")))
	assert.Equal(t, "0x00ff", encode([]byte{0, 0xff}))
	assert.Equal(t, "0x", encode(nil))
	assert.Equal(t, "0x3078", encode([]byte("0x")))
}

func runCmd(t *testing.T, stdin string, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	code := run(append([]string{"-log-level", "error"}, args...), &out, strings.NewReader(stdin))
	return code, out.String()
}

func TestRunBolt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	base := []string{"-backend", "bolt", "-path", path}

	code, _ := runCmd(t, "", append(base, "put", "b", "2")...)
	require.Equal(t, 0, code)
	code, _ = runCmd(t, "a\t1\n# comment\nd\t4\n", append(base, "load", "-")...)
	require.Equal(t, 0, code)

	code, out := runCmd(t, "", append(base, "find", "ge", "c")...)
	require.Equal(t, 0, code)
	assert.Equal(t, "d\t4\n", out)

	code, out = runCmd(t, "", append(base, "find", "lt", "a")...)
	assert.Equal(t, 1, code)
	assert.Equal(t, "not found\n", out)

	code, out = runCmd(t, "", append(base, "scan", "le", "c", "2")...)
	require.Equal(t, 0, code)
	assert.Equal(t, "b\t2\na\t1\n", out)

	code, _ = runCmd(t, "", append(base, "find", "near", "a")...)
	assert.Equal(t, 2, code)
}

func TestRunBoltDupSort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	base := []string{"-backend", "bolt", "-path", path, "-dupsort", "-table", "dups"}

	code, _ := runCmd(t, "k\tv1\nk\tv3\nl\tv0\n", append(base, "load", "-")...)
	require.Equal(t, 0, code)

	code, out := runCmd(t, "", append(base, "dups", "k")...)
	require.Equal(t, 0, code)
	assert.Equal(t, "v1\nv3\n", out)

	code, out = runCmd(t, "", append(base, "finddup", "le", "k", "v2")...)
	require.Equal(t, 0, code)
	assert.Equal(t, "k\tv1\n", out)

	code, out = runCmd(t, "", append(base, "finddup", "gt", "k", "v3")...)
	assert.Equal(t, 1, code)
	assert.Equal(t, "not found\n", out)

	code, _ = runCmd(t, "", append(base, "-dupwidth", "64", "dups", "k")...)
	assert.Equal(t, 2, code)
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	require.Equal(t, 0, run([]string{"version"}, &out, nil))
	assert.True(t, strings.HasPrefix(out.String(), "dirseek v"))
}

// nativeHex renders x as a CLI argument holding a native-order uint64.
func nativeHex(x uint64) string {
	b := make([]byte, 8)
	if compare.Native == compare.BigEndian {
		binary.BigEndian.PutUint64(b, x)
	} else {
		binary.LittleEndian.PutUint64(b, x)
	}
	return "0x" + hex.EncodeToString(b)
}

func TestRunPebbleDupWidth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pebble")
	base := []string{"-backend", "pebble", "-path", path, "-table", "nums", "-dupwidth", "64", "-nosync"}

	for _, x := range []uint64{65536, 1, 256} {
		code, _ := runCmd(t, "", append(base, "put", "k", nativeHex(x))...)
		require.Equal(t, 0, code)
	}

	code, out := runCmd(t, "", append(base, "dups", "k")...)
	require.Equal(t, 0, code)
	assert.Equal(t, nativeHex(1)+"\n"+nativeHex(256)+"\n"+nativeHex(65536)+"\n", out)

	code, out = runCmd(t, "", append(base, "finddup", "gt", "k", nativeHex(1))...)
	require.Equal(t, 0, code)
	assert.Equal(t, "k\t"+nativeHex(256)+"\n", out)

	code, out = runCmd(t, "", append(base, "finddup", "le", "k", nativeHex(60000))...)
	require.Equal(t, 0, code)
	assert.Equal(t, "k\t"+nativeHex(256)+"\n", out)

	code, out = runCmd(t, "", append(base, "finddup", "gt", "k", nativeHex(65536))...)
	assert.Equal(t, 1, code)
	assert.Equal(t, "not found\n", out)
}
