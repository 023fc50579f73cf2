package scan

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ucmigrate/mountscan/mount"
	"github.com/ucmigrate/mountscan/pattern"
)

// DefaultLookupFunction is the call that replaces a hard-coded mount path;
// its presence on a line marks the line as already converted.
const DefaultLookupFunction = "get_uc_mount_target"

// defaultPrimaryExtension is the only extension whose findings can be
// rewritten; everything else is gated to a cannot-convert detail.
const defaultPrimaryExtension = ".py"

// scalaExtension triggers the file-level secondary-language issue.
const scalaExtension = ".scala"

// Scanner classifies mount references in source content. A scanner holds no
// per-file state and may be used from multiple goroutines.
type Scanner struct {
	registry       *mount.Registry
	engine         pattern.Engine
	rules          []Rule
	primaryExt     string
	lookupFunction string
	workers        int
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithEngine overrides the pattern engine.
func WithEngine(engine pattern.Engine) ScannerOption {
	return func(s *Scanner) {
		s.engine = engine
	}
}

// WithRules replaces the generic rule table. The given order is preserved.
func WithRules(rules []Rule) ScannerOption {
	return func(s *Scanner) {
		s.rules = rules
	}
}

// WithPrimaryExtension sets the extension exempt from the file-type gate.
func WithPrimaryExtension(ext string) ScannerOption {
	return func(s *Scanner) {
		s.primaryExt = ext
	}
}

// WithLookupFunction sets the lookup call name used for the
// already-converted check.
func WithLookupFunction(name string) ScannerOption {
	return func(s *Scanner) {
		s.lookupFunction = name
	}
}

// WithWorkers enables concurrent scanning across files. Intra-file issue
// order is preserved; cross-file order is not.
func WithWorkers(n int) ScannerOption {
	return func(s *Scanner) {
		s.workers = n
	}
}

// NewScanner creates a scanner bound to one registry for the session.
func NewScanner(registry *mount.Registry, options ...ScannerOption) *Scanner {
	scanner := &Scanner{
		registry:       registry,
		engine:         pattern.Default(),
		rules:          DefaultRules(),
		primaryExt:     defaultPrimaryExtension,
		lookupFunction: DefaultLookupFunction,
		workers:        1,
	}
	for _, option := range options {
		option(scanner)
	}
	return scanner
}

// FileIssues returns a lazy sequence of issues for one content unit. The
// sequence is finite and restartable: ranging over it again rescans the
// content from the start.
func (s *Scanner) FileIssues(source IssueSource, content string) iter.Seq[Issue] {
	return func(yield func(Issue) bool) {
		if strings.HasSuffix(source.FilePath(), scalaExtension) {
			found := Issue{
				Type:   TypeFoundScalaFile,
				Detail: "found scala file potentially need enhanced clusters!",
				Source: source,
			}
			if !yield(found) {
				return
			}
		}
		for idx, line := range splitLines(content) {
			for _, rule := range s.rules {
				value, ok := s.engine.Find(rule.Expr, line)
				if !ok {
					continue
				}
				generic := Issue{
					Type:         rule.Type,
					Detail:       rule.Detail,
					Source:       source,
					LineNumber:   idx + 1,
					MatchedRegex: rule.Expr,
					MatchedLine:  strings.TrimSpace(line),
					MatchedValue: value,
				}
				if rule.Type == TypeNonMatchingMountUse {
					if refined := s.exactMatches(idx, line, source); len(refined) > 0 {
						for _, issue := range refined {
							if !yield(s.applyGates(issue)) {
								return
							}
						}
						break
					}
				}
				if !yield(s.applyGates(generic)) {
					return
				}
				break
			}
		}
	}
}

// exactMatches refines an ambiguous mount hit against every registered
// mount, from the safest variant tier down. When the trigger substring
// occurs more than once on the line, scanning continues past the first hit
// so that every occurrence is surfaced.
func (s *Scanner) exactMatches(idx int, line string, source IssueSource) []Issue {
	var issues []Issue
	multiple := strings.Count(line, mountTrigger) > 1
	for _, mnt := range s.registry.Mounts() {
		if expr, value, ok := mnt.FindSimpleMatch(s.engine, line); ok {
			detail := DetailSimple
			if strings.Contains(line, "/dbfs"+value) {
				detail = DetailMaybeFuseMount
			} else if containsCloudProtocol(line) {
				detail = DetailMaybeOtherCloud
			}
			issues = append(issues, s.mountIssue(idx, line, source, mnt, expr, value, detail))
			if !multiple {
				return issues
			}
			continue
		}
		if expr, value, ok := mnt.FindMaybeMatch(s.engine, line); ok {
			detail := DetailMaybe
			if strings.Contains(line, fmt.Sprintf("%s('%s',", s.lookupFunction, value)) {
				detail = DetailAlreadyConverted
			}
			issues = append(issues, s.mountIssue(idx, line, source, mnt, expr, value, detail))
			if !multiple {
				return issues
			}
			continue
		}
		if expr, value, ok := mnt.FindCannotConvertMatch(s.engine, line); ok {
			issues = append(issues, s.mountIssue(idx, line, source, mnt, expr, value, DetailCannotConvert))
			if !multiple {
				return issues
			}
			continue
		}
	}
	return issues
}

func (s *Scanner) mountIssue(idx int, line string, source IssueSource, mnt *mount.Mount, expr, value, detail string) Issue {
	return Issue{
		Type:         TypeMatchingMountUse,
		Detail:       detail,
		Source:       source,
		LineNumber:   idx + 1,
		MatchedRegex: expr,
		MatchedLine:  strings.TrimSpace(line),
		MatchedValue: value,
		WorkspaceURL: mnt.WorkspaceURL,
	}
}

// applyGates runs the two deterministic post-processing adjustments: a
// directive line cannot be converted regardless of classification, and
// neither can a finding in a non-primary source file.
func (s *Scanner) applyGates(issue Issue) Issue {
	if issue.IsMountUse() && strings.HasPrefix(issue.MatchedLine, magicPrefix) {
		issue.Detail = DetailCannotConvertCmd
	}
	if path := issue.Source.FilePath(); path != "" && !strings.HasSuffix(path, s.primaryExt) {
		ext := strings.ToUpper(strings.TrimPrefix(filepath.Ext(path), "."))
		issue.Detail = fmt.Sprintf("CANNOT_CONVERT_%s_FILE", ext)
	}
	return issue
}

func containsCloudProtocol(line string) bool {
	for _, protocol := range cloudProtocols {
		if strings.Contains(line, protocol) {
			return true
		}
	}
	return false
}

func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Scan walks every content unit of the provider and collects its issues.
// A unit that cannot be read or decoded is logged and contributes nothing.
// Cancellation is checked between units, never mid-line.
func (s *Scanner) Scan(ctx context.Context, provider Provider) ([]Issue, error) {
	if s.workers > 1 {
		return s.scanParallel(ctx, provider)
	}
	var issues []Issue
	err := provider.Content(ctx, func(source IssueSource, reader io.Reader) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		content, ok := readContent(source, reader)
		if !ok {
			return nil
		}
		log.Printf("scanning %s", sourceLabel(source))
		for issue := range s.FileIssues(source, content) {
			issues = append(issues, issue)
		}
		return nil
	})
	return issues, err
}

// scanParallel fans content units out to a bounded worker pool. Each unit's
// issues are appended as one contiguous block so intra-file line order holds.
func (s *Scanner) scanParallel(ctx context.Context, provider Provider) ([]Issue, error) {
	type unit struct {
		source  IssueSource
		content string
	}
	jobs := make(chan unit)
	results := make(chan []Issue)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				var batch []Issue
				for issue := range s.FileIssues(u.source, u.content) {
					batch = append(batch, issue)
				}
				results <- batch
			}
		}()
	}

	var produceErr error
	go func() {
		defer close(jobs)
		produceErr = provider.Content(ctx, func(source IssueSource, reader io.Reader) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, ok := readContent(source, reader)
			if !ok {
				return nil
			}
			select {
			case jobs <- unit{source: source, content: content}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var issues []Issue
	for batch := range results {
		issues = append(issues, batch...)
	}
	return issues, produceErr
}

func readContent(source IssueSource, reader io.Reader) (string, bool) {
	data, err := io.ReadAll(reader)
	if err != nil {
		log.Printf("unable to read %s: %v", sourceLabel(source), err)
		return "", false
	}
	if !utf8.Valid(data) {
		log.Printf("skipping non-text content %s", sourceLabel(source))
		return "", false
	}
	return string(data), true
}

func sourceLabel(source IssueSource) string {
	if relative := source.RelativePath(); relative != "" {
		return relative
	}
	return string(source.Type)
}
