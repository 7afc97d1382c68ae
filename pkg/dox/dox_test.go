package dox

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgast/ssmdox/pkg/document"
	"github.com/cgast/ssmdox/pkg/textdiff"
)

const testTemplate = `schemaVersion: "2.2"
description: Restart the web tier
parameters:
  service:
    type: String
    default: nginx
mainSteps:
  - action: aws:runShellScript
    name: restart
    inputs:
      runCommand: !IncludeScript restart.sh
`

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// newTestDox lays out root/<rel>/<name>/template.yaml plus its script and
// returns the Dox for it.
func newTestDox(t *testing.T, root, rel, name string) *Dox {
	t.Helper()
	dir := filepath.Join(root, rel, name)
	writeFile(t, filepath.Join(dir, "template.yaml"), testTemplate)
	writeFile(t, filepath.Join(dir, "restart.sh"), "systemctl restart {{ service }}\necho restarted\n")

	d, err := New(dir, root, WithLogger(quietLogger))
	require.NoError(t, err)
	return d
}

func TestNew(t *testing.T) {
	root := t.TempDir()
	d, err := New(filepath.Join(root, "linux", "restart-web"), root)
	require.NoError(t, err)

	assert.Equal(t, "restart-web", d.Name)
	assert.Equal(t, filepath.Join(root, "linux", "restart-web"), d.Path)
	assert.Equal(t, root, d.Root)
	assert.False(t, d.Loaded())
}

func TestRelativePath(t *testing.T) {
	root := t.TempDir()
	tests := []struct {
		dir  string
		want string
	}{
		{filepath.Join(root, "doc"), "."},
		{filepath.Join(root, "linux", "doc"), "linux"},
		{filepath.Join(root, "team", "linux", "doc"), filepath.Join("team", "linux")},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			d, err := New(tt.dir, root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.RelativePath())
			assert.Equal(t, filepath.Join("/out", tt.want, "doc.json"), d.BuiltDocumentPath("/out"))
		})
	}
}

func TestContent(t *testing.T) {
	root := t.TempDir()
	d := newTestDox(t, root, "", "restart-web")

	doc, err := d.Content()
	require.NoError(t, err)
	assert.True(t, d.Loaded())

	inputs := doc.MainSteps[0].Inputs.(*document.RunShellScriptInputs)
	assert.Equal(t, []string{"systemctl restart {{ service }}", "echo restarted"}, inputs.RunCommand)

	// Loaded once: removing the source does not affect the cached document.
	require.NoError(t, os.RemoveAll(d.Path))
	again, err := d.Content()
	require.NoError(t, err)
	assert.Same(t, doc, again)
}

func TestContentErrors(t *testing.T) {
	t.Run("template not found", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))
		d, err := New(filepath.Join(root, "empty"), root, WithLogger(quietLogger))
		require.NoError(t, err)

		_, err = d.Content()
		var notFound *TemplateNotFoundError
		assert.True(t, errors.As(err, &notFound))
		assert.False(t, d.Loaded())
	})

	t.Run("validation", func(t *testing.T) {
		root := t.TempDir()
		dir := filepath.Join(root, "old")
		writeFile(t, filepath.Join(dir, "template.yaml"), "schemaVersion: \"1.2\"\ndescription: d\nparameters: {}\nmainSteps: []\n")
		d, err := New(dir, root, WithLogger(quietLogger))
		require.NoError(t, err)

		_, err = d.Content()
		var invalid *InvalidDocumentError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, filepath.Join(dir, "template.yaml"), invalid.Path)

		var verr *document.ValidationErrors
		require.True(t, errors.As(err, &verr))
		assert.True(t, verr.Has("schemaVersion"))

		var perr *ParseError
		assert.False(t, errors.As(err, &perr))
	})
}

func TestBuild(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "built")
	d := newTestDox(t, root, "linux", "restart-web")

	path, err := d.Build(out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "linux", "restart-web.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "}\n"))
	assert.True(t, strings.HasPrefix(string(data), "{\n    \"schemaVersion\": \"2.2\","))
	assert.Contains(t, string(data), `"systemctl restart {{ service }}"`)

	// Rebuilding overwrites unconditionally.
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	_, err = d.Build(out)
	require.NoError(t, err)
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestBuildThenCheck(t *testing.T) {
	root := t.TempDir()
	out := t.TempDir()
	d := newTestDox(t, root, "", "restart-web")

	_, err := d.Build(out)
	require.NoError(t, err)
	assert.NoError(t, d.Check(out))

	// A fresh unit reading the same sources agrees too.
	fresh, err := New(d.Path, root, WithLogger(quietLogger))
	require.NoError(t, err)
	assert.NoError(t, fresh.Check(out))
}

func TestCheckDrift(t *testing.T) {
	root := t.TempDir()
	out := t.TempDir()
	d := newTestDox(t, root, "", "restart-web")
	_, err := d.Build(out)
	require.NoError(t, err)

	tmpl := filepath.Join(d.Path, "template.yaml")
	writeFile(t, tmpl, strings.Replace(testTemplate, "Restart the web tier", "Restart the web tier safely", 1))

	fresh, err := New(d.Path, root, WithLogger(quietLogger))
	require.NoError(t, err)
	err = fresh.Check(out)

	var drift *DocumentDrift
	require.True(t, errors.As(err, &drift), "got %v", err)
	assert.Equal(t, d.BuiltDocumentPath(out), drift.DocumentPath)
	assert.Equal(t, d.Path, drift.DoxPath)
	assert.Equal(t, "Restart the web tier", drift.DocumentContent.Description)
	assert.Equal(t, "Restart the web tier safely", drift.DoxContent.Description)
	assert.Contains(t, drift.Report(), "safely")

	// The description is the only difference.
	patched := *drift.DoxContent
	patched.Description = drift.DocumentContent.Description
	assert.True(t, patched.Equal(drift.DocumentContent))
}

func TestCheckMissingArtifact(t *testing.T) {
	root := t.TempDir()
	d := newTestDox(t, root, "", "restart-web")

	err := d.Check(t.TempDir())
	var notFound *ArtifactNotFoundError
	require.True(t, errors.As(err, &notFound), "got %v", err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	var drift *DocumentDrift
	assert.False(t, errors.As(err, &drift))
}

func TestCheckInvalidArtifact(t *testing.T) {
	root := t.TempDir()
	out := t.TempDir()
	d := newTestDox(t, root, "", "restart-web")

	writeFile(t, d.BuiltDocumentPath(out), "{not json")
	var perr *ParseError
	assert.True(t, errors.As(d.Check(out), &perr))

	writeFile(t, d.BuiltDocumentPath(out), `{"schemaVersion": "2.2"}`)
	var invalid *InvalidDocumentError
	assert.True(t, errors.As(d.Check(out), &invalid))
}

func TestDiff(t *testing.T) {
	root := t.TempDir()
	out := t.TempDir()
	d := newTestDox(t, root, "", "restart-web")
	_, err := d.Build(out)
	require.NoError(t, err)

	lines, err := d.Diff(out)
	require.NoError(t, err)
	require.NotEmpty(t, lines)
	added, removed := textdiff.Stats(lines)
	assert.Zero(t, added)
	assert.Zero(t, removed)

	writeFile(t, filepath.Join(d.Path, "restart.sh"), "systemctl restart {{ service }}\necho restarted\necho bye\n")
	fresh, err := New(d.Path, root, WithLogger(quietLogger))
	require.NoError(t, err)
	lines, err = fresh.Diff(out)
	require.NoError(t, err)

	// The last script line gains a comma and a new line follows it.
	added, removed = textdiff.Stats(lines)
	assert.Equal(t, 2, added)
	assert.Equal(t, 1, removed)
	assert.Contains(t, textdiff.Format(lines), "+ "+strings.Repeat(" ", 20)+`"echo bye"`)
}

func TestDiffMissingArtifact(t *testing.T) {
	root := t.TempDir()
	d := newTestDox(t, root, "", "restart-web")

	_, err := d.Diff(t.TempDir())
	var notFound *ArtifactNotFoundError
	assert.True(t, errors.As(err, &notFound))
}
