package rewrite

import (
	"context"
	"log"
	"strings"

	"github.com/minio/highwayhash"

	"github.com/ucmigrate/mountscan/scan"
)

var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// fingerprint identifies file content so an unchanged rewrite is not
// written back.
func fingerprint(data []byte) uint64 {
	hash, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0
	}
	_, _ = hash.Write(data)
	return hash.Sum64()
}

// Resolver applies accepted issues to their source files: it filters the
// issues down to the rewritable subset, groups them per file, rewrites each
// affected line, and writes each file back once.
type Resolver struct {
	reader        Reader
	writer        Writer
	function      string
	includeMaybes bool
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLookupFunction overrides the lookup call emitted into rewritten lines.
func WithLookupFunction(name string) ResolverOption {
	return func(r *Resolver) {
		r.function = name
	}
}

// WithMaybes controls whether MAYBE findings are rewritten too.
func WithMaybes(include bool) ResolverOption {
	return func(r *Resolver) {
		r.includeMaybes = include
	}
}

// NewResolver creates a resolver moving content from reader to writer.
func NewResolver(reader Reader, writer Writer, options ...ResolverOption) *Resolver {
	resolver := &Resolver{
		reader:        reader,
		writer:        writer,
		function:      scan.DefaultLookupFunction,
		includeMaybes: true,
	}
	for _, option := range options {
		option(resolver)
	}
	return resolver
}

// Filter returns the issues this resolver can act on: plain-file matching
// mount uses classified SIMPLE, plus MAYBE when enabled.
func (r *Resolver) Filter(issues []scan.Issue) []scan.Issue {
	var valid []scan.Issue
	for _, issue := range issues {
		if issue.Source.Type != scan.SourceTypeFile || issue.Type != scan.TypeMatchingMountUse {
			continue
		}
		if issue.Detail == scan.DetailSimple || (r.includeMaybes && issue.Detail == scan.DetailMaybe) {
			valid = append(valid, issue)
		}
	}
	return valid
}

// Apply rewrites every file referenced by the accepted issues. Content is
// buffered per file and written back once; a file whose content does not
// change is skipped. A file that cannot be read is logged and skipped,
// never failing the whole run.
func (r *Resolver) Apply(ctx context.Context, issues []scan.Issue) error {
	grouped := map[string][]scan.Issue{}
	var order []string
	for _, issue := range r.Filter(issues) {
		relative := issue.Source.RelativePath()
		if relative == "" {
			continue
		}
		if _, seen := grouped[relative]; !seen {
			order = append(order, relative)
		}
		grouped[relative] = append(grouped[relative], issue)
	}

	for _, relative := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		source := scan.IssueSource{
			Type:     scan.SourceTypeFile,
			Metadata: map[string]string{scan.MetaRelativeFilePath: relative},
		}
		data, err := r.reader.Open(ctx, source)
		if err != nil {
			log.Printf("unable to open file %s: %v", relative, err)
			continue
		}

		lines := strings.Split(string(data), "\n")
		for _, issue := range grouped[relative] {
			idx := issue.LineNumber - 1
			if idx < 0 || idx >= len(lines) {
				log.Printf("stale line number %d for %s, skipping", issue.LineNumber, relative)
				continue
			}
			lines[idx] = ReplaceWithLookup(issue.MatchedValue, lines[idx], r.function)
		}

		rewritten := []byte(strings.Join(lines, "\n"))
		if fingerprint(rewritten) == fingerprint(data) {
			log.Printf("no changes in %s, skipping write", relative)
			continue
		}
		log.Printf("replacing issues in file: %s", relative)
		if err := r.writer.Write(ctx, source, rewritten); err != nil {
			return err
		}
	}
	return nil
}
