package rewrite

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/ucmigrate/mountscan/scan"
)

// Reader opens the current content of an issue's source.
type Reader interface {
	Open(ctx context.Context, source scan.IssueSource) ([]byte, error)
}

// Writer stores rewritten content keyed by the same source identity used on
// input.
type Writer interface {
	Write(ctx context.Context, source scan.IssueSource, content []byte) error
}

// FileReader reads sources relative to a working directory.
type FileReader struct {
	fs         afs.Service
	workingDir string
}

// NewFileReader creates a reader rooted at workingDir.
func NewFileReader(workingDir string) *FileReader {
	return &FileReader{fs: afs.New(), workingDir: workingDir}
}

// Open implements Reader.
func (r *FileReader) Open(ctx context.Context, source scan.IssueSource) ([]byte, error) {
	relative := source.RelativePath()
	if relative == "" {
		return nil, fmt.Errorf("source has no relative file path: %v", source.Metadata)
	}
	return r.fs.DownloadWithURL(ctx, filepath.Join(r.workingDir, relative))
}

// FileWriter writes sources relative to a working directory.
type FileWriter struct {
	fs         afs.Service
	workingDir string
}

// NewFileWriter creates a writer rooted at workingDir.
func NewFileWriter(workingDir string) *FileWriter {
	return &FileWriter{fs: afs.New(), workingDir: workingDir}
}

// Write implements Writer.
func (w *FileWriter) Write(ctx context.Context, source scan.IssueSource, content []byte) error {
	relative := source.RelativePath()
	if relative == "" {
		return fmt.Errorf("source has no relative file path: %v", source.Metadata)
	}
	return w.fs.Upload(ctx, filepath.Join(w.workingDir, relative), file.DefaultFileOsMode, bytes.NewReader(content))
}
