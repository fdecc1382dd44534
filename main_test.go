package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestStressThenInspect(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "heapstore.toml")
	require.NoError(t, os.WriteFile(conf, []byte("[buffer_pool]\nmax_pages = 8\n\n[logging]\nlevel = \"ERROR\"\n"), 0o644))

	out := execute(t, "--config", conf, "stress", "--dir", dir, "--workers", "3", "--tuples", "40")
	assert.Contains(t, out, "inserted 120 tuples")
	assert.Equal(t, 8, cfg.BufferPool.MaxPages)

	out = execute(t, "--config", conf, "inspect", filepath.Join(dir, "stress.dat"), "--schema", "int,int", "--tuples")
	assert.Contains(t, out, "page 0: 120/")
	assert.Contains(t, out, "120 tuples")
	assert.Contains(t, out, "slot 0:")
}

func TestInspectMissingFile(t *testing.T) {
	rootCmd.SetArgs([]string{"inspect", filepath.Join(t.TempDir(), "nope.dat")})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	assert.Error(t, rootCmd.Execute())
}

func TestFlagKeysNameRealFlags(t *testing.T) {
	for key, flag := range flagKeys {
		t.Run(key, func(t *testing.T) {
			assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag))
		})
	}
}
