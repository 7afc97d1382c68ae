package finder

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(root, filepath.FromSlash(r))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("description: x\n"), 0o644))
	}
}

func TestDirs(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"template.yaml",
		"zeta/template.yml",
		"alpha/template.yaml",
		"alpha/template.yml",
		"linux/patch/template.yaml",
		"linux/patch/run.sh",
		".git/hooks/template.yaml",
		"drafts/wip/template.yaml",
		"notes/readme.md",
	)

	f, err := New(root, []string{"drafts/**"}, quietLogger)
	require.NoError(t, err)

	dirs, err := f.Dirs()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "linux/patch", "zeta"}, dirs)
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "linux/patch/template.yaml", "reboot/template.yaml")

	f, err := New(root, nil, quietLogger)
	require.NoError(t, err)

	units, err := f.Find()
	require.NoError(t, err)
	require.Len(t, units, 2)

	assert.Equal(t, "patch", units[0].Name)
	assert.Equal(t, "linux", units[0].RelativePath())
	assert.Equal(t, "reboot", units[1].Name)
	assert.Equal(t, ".", units[1].RelativePath())
}

func TestRootMustBeDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	f, err := New(file, nil, quietLogger)
	require.NoError(t, err)
	_, err = f.Dirs()
	assert.Error(t, err)

	f, err = New(filepath.Join(t.TempDir(), "missing"), nil, quietLogger)
	require.NoError(t, err)
	_, err = f.Dirs()
	assert.Error(t, err)
}

func TestInvalidExclude(t *testing.T) {
	_, err := New(t.TempDir(), []string{"drafts/[a"}, quietLogger)
	assert.Error(t, err)
}
