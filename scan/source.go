package scan

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"log"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
)

// Provider streams content units to scan: an issue source paired with the
// unit's full text.
type Provider interface {
	Content(ctx context.Context, fn func(source IssueSource, reader io.Reader) error) error
}

// Progress receives inline observation callbacks during a walk. All fields
// are optional; callbacks are invoked synchronously and must not block.
type Progress struct {
	SetMax         func(total int)
	SetCurrent     func(done int)
	SetCurrentFile func(relativePath string)
}

func (p Progress) max(total int) {
	if p.SetMax != nil {
		p.SetMax(total)
	}
}

func (p Progress) current(done int) {
	if p.SetCurrent != nil {
		p.SetCurrent(done)
	}
}

func (p Progress) file(relativePath string) {
	if p.SetCurrentFile != nil {
		p.SetCurrentFile(relativePath)
	}
}

// LocalWalker streams every file under a set of directories, skipping .git
// trees. A file that cannot be read is logged and skipped.
type LocalWalker struct {
	fs       afs.Service
	dirs     []string
	progress Progress
	metadata map[string]string
}

// WalkerOption configures a LocalWalker.
type WalkerOption func(*LocalWalker)

// WithProgress attaches progress callbacks to the walk.
func WithProgress(progress Progress) WalkerOption {
	return func(w *LocalWalker) {
		w.progress = progress
	}
}

// WithSourceMetadata merges extra metadata, such as the repository origin,
// into every emitted issue source.
func WithSourceMetadata(metadata map[string]string) WalkerOption {
	return func(w *LocalWalker) {
		w.metadata = metadata
	}
}

// NewLocalWalker creates a walker over the given directories.
func NewLocalWalker(dirs []string, options ...WalkerOption) *LocalWalker {
	walker := &LocalWalker{
		fs:   afs.New(),
		dirs: dirs,
	}
	for _, option := range options {
		option(walker)
	}
	return walker
}

// FileCount returns the number of files the walker will visit.
func (w *LocalWalker) FileCount() int {
	count := 0
	for _, dir := range w.dirs {
		_ = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return nil
			}
			if entry.IsDir() {
				if entry.Name() == ".git" {
					return filepath.SkipDir
				}
				return nil
			}
			count++
			return nil
		})
	}
	return count
}

// Content implements Provider.
func (w *LocalWalker) Content(ctx context.Context, fn func(source IssueSource, reader io.Reader) error) error {
	w.progress.max(w.FileCount())
	defer func() {
		w.progress.file("")
		w.progress.current(0)
		w.progress.max(0)
	}()

	done := 0
	for _, dir := range w.dirs {
		prefix := strings.TrimRight(dir, "/") + "/"
		err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				log.Printf("unable to walk %s: %v", path, walkErr)
				return nil
			}
			if entry.IsDir() {
				if entry.Name() == ".git" {
					return filepath.SkipDir
				}
				return nil
			}
			done++
			defer w.progress.current(done)

			relative := strings.TrimPrefix(filepath.ToSlash(path), filepath.ToSlash(prefix))
			w.progress.file(relative)

			data, err := w.fs.DownloadWithURL(ctx, path)
			if err != nil {
				log.Printf("unable to open file %s: %v", path, err)
				return nil
			}
			source := NewFileSource(path, relative)
			for key, value := range w.metadata {
				source.Metadata[key] = value
			}
			return fn(source, bytes.NewReader(data))
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// MemoryProvider serves in-memory fixtures, mainly for tests.
type MemoryProvider struct {
	units []memoryUnit
}

type memoryUnit struct {
	source  IssueSource
	content string
}

// Add registers one content unit.
func (p *MemoryProvider) Add(source IssueSource, content string) *MemoryProvider {
	p.units = append(p.units, memoryUnit{source: source, content: content})
	return p
}

// Content implements Provider.
func (p *MemoryProvider) Content(_ context.Context, fn func(source IssueSource, reader io.Reader) error) error {
	for _, unit := range p.units {
		if err := fn(unit.source, strings.NewReader(unit.content)); err != nil {
			return err
		}
	}
	return nil
}
