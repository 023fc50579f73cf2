package repository_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ucmigrate/mountscan/repository"
)

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDetector_PythonProject(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "setup.py", `setup(name="uc-assessment", version="0.1")`)
	write(t, dir, "etl/job.py", "x = 1")

	target, err := repository.New().Detect(filepath.Join(dir, "etl"))
	require.NoError(t, err)

	assert.Equal(t, dir, target.Root)
	assert.Equal(t, "python", target.Kind)
	assert.Equal(t, "uc-assessment", target.Name)
}

func TestDetector_GitOrigin(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, ".git/config", "[core]\n\trepositoryformatversion = 0\n"+
		"[remote \"origin\"]\n\turl = git@example.com:org/etl.git\n\tfetch = +refs/heads/*:refs/remotes/origin/*\n")
	write(t, dir, "job.py", "x = 1")

	target, err := repository.New().Detect(dir)
	require.NoError(t, err)

	assert.Equal(t, "git", target.Kind)
	assert.Equal(t, "git@example.com:org/etl.git", target.Origin)
	assert.Equal(t, filepath.Base(dir), target.Name)
}

func TestDetector_GoProject(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "go.mod", "module example.com/etl\n\ngo 1.23\n")

	target, err := repository.New().Detect(dir)
	require.NoError(t, err)

	assert.Equal(t, "go", target.Kind)
	assert.Equal(t, "example.com/etl", target.Name)
}

func TestDetector_UnknownFallsBackToPath(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "data.txt", "no markers here")

	target, err := repository.New().Detect(dir)
	require.NoError(t, err)

	assert.Equal(t, "unknown", target.Kind)
	assert.Equal(t, filepath.Base(target.Root), target.Name)
}

func TestDetector_MissingPath(t *testing.T) {
	_, err := repository.New().Detect("/nonexistent/path")
	assert.Error(t, err)
}
