package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clio-ai/clio/actions"
)

func TestCreateFile(t *testing.T) {
	root := t.TempDir()
	e := NewExecutor(root, nil)

	r := e.Execute(actions.Action{Kind: actions.KindCreateFile, Path: "hello.txt", Content: "hi"})
	require.True(t, r.OK, r.Message)

	data, err := os.ReadFile(filepath.Join(root, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))
}

func TestCreateFileRefusesOverwrite(t *testing.T) {
	root := t.TempDir()
	e := NewExecutor(root, nil)

	a := actions.Action{Kind: actions.KindCreateFile, Path: "a.txt", Content: "first"}
	require.True(t, e.Execute(a).OK)

	a.Content = "second"
	r := e.Execute(a)
	assert.False(t, r.OK)
	assert.Equal(t, FailAlreadyExists, r.Failure)

	data, _ := os.ReadFile(filepath.Join(root, "a.txt"))
	assert.Equal(t, "first", string(data), "failed create must not touch the file")

	a.Overwrite = true
	r = e.Execute(a)
	require.True(t, r.OK)
	data, _ = os.ReadFile(filepath.Join(root, "a.txt"))
	assert.Equal(t, "second", string(data))
}

func TestCreateFileMakesParentDirs(t *testing.T) {
	root := t.TempDir()
	e := NewExecutor(root, nil)

	r := e.Execute(actions.Action{Kind: actions.KindCreateFile, Path: "deep/nested/f.txt", Content: "x"})
	require.True(t, r.OK, r.Message)
	assert.FileExists(t, filepath.Join(root, "deep", "nested", "f.txt"))
}

func TestCreateDirIdempotent(t *testing.T) {
	root := t.TempDir()
	e := NewExecutor(root, nil)

	a := actions.Action{Kind: actions.KindCreateDir, Path: "src"}
	assert.True(t, e.Execute(a).OK)
	assert.True(t, e.Execute(a).OK, "creating an existing directory succeeds")
}

func TestReadFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "r.txt"), []byte("content\nhere"), 0o644))
	e := NewExecutor(root, nil)

	r := e.Execute(actions.Action{Kind: actions.KindReadFile, Path: "r.txt"})
	require.True(t, r.OK)
	assert.Equal(t, "content\nhere", r.Summary)

	r = e.Execute(actions.Action{Kind: actions.KindReadFile, Path: "missing.txt"})
	assert.False(t, r.OK)
	assert.Equal(t, FailNotFound, r.Failure)
}

func TestEditFilePatch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "e.txt"), []byte("alpha beta alpha"), 0o644))
	e := NewExecutor(root, nil)

	r := e.Execute(actions.Action{Kind: actions.KindEditFile, Path: "e.txt", Find: "alpha", Replace: "gamma"})
	require.True(t, r.OK)
	data, _ := os.ReadFile(filepath.Join(root, "e.txt"))
	assert.Equal(t, "gamma beta alpha", string(data), "only the first occurrence is replaced")
}

func TestEditFilePatchMismatch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "e.txt"), []byte("original"), 0o644))
	e := NewExecutor(root, nil)

	r := e.Execute(actions.Action{Kind: actions.KindEditFile, Path: "e.txt", Find: "absent", Replace: "x"})
	assert.False(t, r.OK)
	assert.Equal(t, FailPatchMismatch, r.Failure)

	data, _ := os.ReadFile(filepath.Join(root, "e.txt"))
	assert.Equal(t, "original", string(data), "mismatch must leave the file untouched")
}

func TestEditFileFullReplace(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "e.txt"), []byte("old"), 0o644))
	e := NewExecutor(root, nil)

	r := e.Execute(actions.Action{Kind: actions.KindEditFile, Path: "e.txt", Content: "brand new"})
	require.True(t, r.OK)
	data, _ := os.ReadFile(filepath.Join(root, "e.txt"))
	assert.Equal(t, "brand new", string(data))
}

func TestEditFileMissing(t *testing.T) {
	e := NewExecutor(t.TempDir(), nil)
	r := e.Execute(actions.Action{Kind: actions.KindEditFile, Path: "nope.txt", Content: "x"})
	assert.False(t, r.OK)
	assert.Equal(t, FailNotFound, r.Failure)
}

func TestDelete(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "d.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir", "sub"), 0o755))
	e := NewExecutor(root, nil)

	assert.True(t, e.Execute(actions.Action{Kind: actions.KindDelete, Path: "d.txt"}).OK)
	assert.NoFileExists(t, filepath.Join(root, "d.txt"))

	assert.True(t, e.Execute(actions.Action{Kind: actions.KindDelete, Path: "dir"}).OK)
	assert.NoDirExists(t, filepath.Join(root, "dir"))

	r := e.Execute(actions.Action{Kind: actions.KindDelete, Path: "d.txt"})
	assert.False(t, r.OK)
	assert.Equal(t, FailNotFound, r.Failure)
}

func TestListDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "adir"), 0o755))
	e := NewExecutor(root, nil)

	r := e.Execute(actions.Action{Kind: actions.KindListDir})
	require.True(t, r.OK)
	assert.Equal(t, "adir/\nb.txt", r.Summary)
}

func TestPathEscapeRejected(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "escape.txt")
	e := NewExecutor(root, nil)

	for _, path := range []string{"../escape.txt", "a/../../escape.txt", ".."} {
		r := e.Execute(actions.Action{Kind: actions.KindCreateFile, Path: path, Content: "x"})
		assert.False(t, r.OK, path)
		assert.Equal(t, FailPathEscape, r.Failure, path)
	}
	assert.NoFileExists(t, outside)
}

func TestAbsolutePathRerooted(t *testing.T) {
	root := t.TempDir()
	e := NewExecutor(root, nil)

	r := e.Execute(actions.Action{Kind: actions.KindCreateFile, Path: "/etc/config.txt", Content: "x"})
	require.True(t, r.OK, r.Message)
	assert.FileExists(t, filepath.Join(root, "etc", "config.txt"))
}

func TestRestrictedPatterns(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	e := NewExecutor(root, []string{".git", ".git/**", "**/*.pem"})

	r := e.Execute(actions.Action{Kind: actions.KindCreateFile, Path: ".git/hook.sh", Content: "x"})
	assert.False(t, r.OK)
	assert.Equal(t, FailRestricted, r.Failure)

	r = e.Execute(actions.Action{Kind: actions.KindDelete, Path: ".git"})
	assert.False(t, r.OK)
	assert.Equal(t, FailRestricted, r.Failure)

	r = e.Execute(actions.Action{Kind: actions.KindCreateFile, Path: "certs/server.pem", Content: "x"})
	assert.False(t, r.OK)
	assert.Equal(t, FailRestricted, r.Failure)

	r = e.Execute(actions.Action{Kind: actions.KindCreateFile, Path: "ok.txt", Content: "x"})
	assert.True(t, r.OK)
}

func TestExecuteAllContinuesPastFailures(t *testing.T) {
	root := t.TempDir()
	e := NewExecutor(root, nil)

	results := e.ExecuteAll([]actions.Action{
		{Kind: actions.KindCreateDir, Path: "src"},
		{Kind: actions.KindReadFile, Path: "missing.txt"},
		{Kind: actions.KindCreateFile, Path: "src/main.py", Content: "pass"},
	})

	require.Len(t, results, 3)
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.True(t, results[2].OK, "a failure must not stop later actions")
	assert.FileExists(t, filepath.Join(root, "src", "main.py"))
}
