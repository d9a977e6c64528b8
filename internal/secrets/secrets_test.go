// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func file(data string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(data), Mode: 0o600}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		TrackerKey:             file("  tk_abc123  \n"),
		SemanticScholarKey:     file("sk_xyz789"),
		NCBIKey:                file("ncbi-456\n"),
		"whitespace-only":      file("   \n\t  "),
		".hidden-key":          file("secret"),
		"nested/" + TrackerKey: file("ignored"),
		"oversized":            file(strings.Repeat("x", maxSecretSize+1)),
	}

	core, logs := observer.New(zap.WarnLevel)
	got, err := LoadFS(fsys, zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, Secrets{
		TrackerKey:         "tk_abc123",
		SemanticScholarKey: "sk_xyz789",
		NCBIKey:            "ncbi-456",
	}, got)
	assert.Equal(t, []string{NCBIKey, TrackerKey, SemanticScholarKey}, got.Keys())
	assert.Equal(t, 1, logs.FilterMessage("secret file too large, skipped").Len())
	assert.Zero(t, logs.FilterMessage("secret file is readable by other users").Len())
}

func TestLoadFSWarnsOnOpenPermissions(t *testing.T) {
	fsys := fstest.MapFS{TrackerKey: {Data: []byte("tk"), Mode: 0o644}}

	core, logs := observer.New(zap.WarnLevel)
	got, err := LoadFS(fsys, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, "tk", got[TrackerKey])
	assert.Equal(t, 1, logs.FilterMessage("secret file is readable by other users").Len())
}

func TestLoadMissingDirectory(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, NCBIKey), []byte("ncbi\n"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	got, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, Secrets{NCBIKey: "ncbi"}, got)
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good-key"), []byte("value123"), 0o600))
	bad := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(bad, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(bad, 0o600) })

	core, logs := observer.New(zap.WarnLevel)
	got, err := Load(dir, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("could not read secret").Len())
	assert.Equal(t, Secrets{"good-key": "value123"}, got)
}

func TestFill(t *testing.T) {
	s := Secrets{TrackerKey: "from-file"}

	empty := ""
	Fill(&empty, s, TrackerKey)
	assert.Equal(t, "from-file", empty)

	explicit := "from-env"
	Fill(&explicit, s, TrackerKey)
	assert.Equal(t, "from-env", explicit)

	missing := ""
	Fill(&missing, s, NCBIKey)
	assert.Equal(t, "", missing)
}
