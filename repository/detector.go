// Package repository identifies the project that contains a scan root so
// findings can carry repository provenance.
package repository

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/viant/afs"
	"golang.org/x/mod/modfile"
)

// Target describes the project a scan directory belongs to.
type Target struct {
	// Root is the project root directory.
	Root string
	// Kind is the project flavor: python, go, javascript, java, git or unknown.
	Kind string
	// Name is the project name extracted from its config file, when any.
	Name string
	// Origin is the git remote origin URL, when the target is under git.
	Origin string
}

// Detector locates project roots above scan directories.
type Detector struct {
	markers map[string]string
}

// New creates a detector with the default project markers.
func New() *Detector {
	return &Detector{
		markers: map[string]string{
			"pyproject.toml":   "python",
			"setup.py":         "python",
			"requirements.txt": "python",
			"go.mod":           "go",
			"package.json":     "javascript",
			"pom.xml":          "java",
			".git":             "git",
		},
	}
}

// Detect walks up from path to the nearest project marker and returns the
// target description. A path with no marker above it yields an unknown
// target rooted at the path itself.
func (d *Detector) Detect(path string) (*Target, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}
	startDir := absPath
	if !info.IsDir() {
		startDir = filepath.Dir(absPath)
	}

	target := &Target{Root: absPath, Kind: "unknown"}
	if root, kind := d.findRoot(startDir); root != "" {
		target.Root = root
		target.Kind = kind
		target.Name = projectName(root, kind)
	}
	if gitRoot := findGitRoot(startDir); gitRoot != "" {
		target.Origin = gitOrigin(gitRoot)
		if target.Kind == "unknown" {
			target.Root = gitRoot
			target.Kind = "git"
		}
	}
	if target.Name == "" {
		target.Name = filepath.Base(target.Root)
	}
	return target, nil
}

func (d *Detector) findRoot(startDir string) (string, string) {
	dir := startDir
	for {
		for marker, kind := range d.markers {
			if kind == "git" {
				continue
			}
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, kind
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ""
		}
		dir = parent
	}
}

func findGitRoot(startDir string) string {
	dir := startDir
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// gitOrigin reads the origin remote URL from .git/config.
func gitOrigin(gitRoot string) string {
	file, err := os.Open(filepath.Join(gitRoot, ".git", "config"))
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	inOrigin := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "[") {
			inOrigin = strings.Contains(line, `[remote "origin"]`)
			continue
		}
		if inOrigin && strings.HasPrefix(line, "url = ") {
			return strings.TrimPrefix(line, "url = ")
		}
	}
	return ""
}

var setupNameRegex = regexp.MustCompile(`name\s*=\s*["']([^"']+)["']`)
var packageNameRegex = regexp.MustCompile(`"name"\s*:\s*"([^"]+)"`)
var artifactIDRegex = regexp.MustCompile(`<artifactId>([^<]+)</artifactId>`)

func projectName(root, kind string) string {
	fs := afs.New()
	ctx := context.Background()
	switch kind {
	case "go":
		goModPath := filepath.Join(root, "go.mod")
		if content, _ := fs.DownloadWithURL(ctx, goModPath); len(content) > 0 {
			if mod, _ := modfile.Parse(goModPath, content, nil); mod != nil && mod.Module != nil {
				return mod.Module.Mod.Path
			}
		}
	case "python":
		for _, candidate := range []string{"pyproject.toml", "setup.py"} {
			content, _ := fs.DownloadWithURL(ctx, filepath.Join(root, candidate))
			if matches := setupNameRegex.FindSubmatch(content); len(matches) > 1 {
				return string(matches[1])
			}
		}
	case "javascript":
		content, _ := fs.DownloadWithURL(ctx, filepath.Join(root, "package.json"))
		if matches := packageNameRegex.FindSubmatch(content); len(matches) > 1 {
			return string(matches[1])
		}
	case "java":
		content, _ := fs.DownloadWithURL(ctx, filepath.Join(root, "pom.xml"))
		if matches := artifactIDRegex.FindSubmatch(content); len(matches) > 1 {
			return string(matches[1])
		}
	}
	return ""
}
