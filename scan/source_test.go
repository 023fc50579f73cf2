package scan_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ucmigrate/mountscan/scan"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLocalWalker_Content(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "etl/job.py", `x = "/mnt/src/a"`)
	writeFile(t, dir, "notes.md", "# notes")
	writeFile(t, dir, ".git/config", "[core]")

	walker := scan.NewLocalWalker([]string{dir})

	var relatives []string
	err := walker.Content(context.Background(), func(source scan.IssueSource, reader io.Reader) error {
		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
		assert.Equal(t, scan.SourceTypeFile, source.Type)
		relatives = append(relatives, source.RelativePath())
		return nil
	})

	require.NoError(t, err)
	sort.Strings(relatives)
	assert.Equal(t, []string{"etl/job.py", "notes.md"}, relatives)
}

func TestLocalWalker_FileCount(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "x = 1")
	writeFile(t, dir, "sub/b.py", "y = 2")
	writeFile(t, dir, ".git/HEAD", "ref: refs/heads/main")

	walker := scan.NewLocalWalker([]string{dir})
	assert.Equal(t, 2, walker.FileCount())
}

func TestLocalWalker_Progress(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "x = 1")
	writeFile(t, dir, "b.py", "y = 2")

	var maxCalls, currentCalls []int
	var files []string
	walker := scan.NewLocalWalker([]string{dir}, scan.WithProgress(scan.Progress{
		SetMax:         func(total int) { maxCalls = append(maxCalls, total) },
		SetCurrent:     func(done int) { currentCalls = append(currentCalls, done) },
		SetCurrentFile: func(name string) { files = append(files, name) },
	}))

	err := walker.Content(context.Background(), func(scan.IssueSource, io.Reader) error { return nil })
	require.NoError(t, err)

	// max is announced up front and reset at the end
	assert.Equal(t, []int{2, 0}, maxCalls)
	assert.Equal(t, []int{1, 2, 0}, currentCalls)
	assert.Equal(t, "", files[len(files)-1])
}

func TestLocalWalker_SourceMetadata(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "x = 1")

	walker := scan.NewLocalWalker([]string{dir}, scan.WithSourceMetadata(map[string]string{
		scan.MetaRepoOrigin: "git@example.com:org/repo.git",
	}))

	err := walker.Content(context.Background(), func(source scan.IssueSource, _ io.Reader) error {
		assert.Equal(t, "git@example.com:org/repo.git", source.Metadata[scan.MetaRepoOrigin])
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryProvider(t *testing.T) {
	provider := (&scan.MemoryProvider{}).
		Add(scan.NewFileSource("/a.py", "a.py"), "one").
		Add(scan.NewFileSource("/b.py", "b.py"), "two")

	var contents []string
	err := provider.Content(context.Background(), func(_ scan.IssueSource, reader io.Reader) error {
		data, _ := io.ReadAll(reader)
		contents = append(contents, string(data))
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, contents)
}
