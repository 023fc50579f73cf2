package rewrite

import (
	"strings"

	"github.com/ucmigrate/mountscan/mount"
	"github.com/ucmigrate/mountscan/scan"
)

// ReplaceMapping pairs a matching expression with the literal substitutions
// to apply for it. It serves the trivial replace mode, where a mount
// reference is swapped for its storage target rather than a lookup call.
type ReplaceMapping struct {
	MatchingExpr string
	Mapping      map[string]string
}

// MappingsFromMount derives the trivial mappings for a convertible mount:
// the trailing-slash-qualified mount point, bare and dbfs-qualified, each
// mapped to the trailing-slash-qualified target.
func MappingsFromMount(m *mount.Mount) []ReplaceMapping {
	target := strings.TrimRight(m.Target, "/") + "/"
	src := strings.TrimRight(m.Source, "/") + "/"
	dbfsSrc := "dbfs:" + src
	return []ReplaceMapping{
		{MatchingExpr: src, Mapping: map[string]string{src: target}},
		{MatchingExpr: dbfsSrc, Mapping: map[string]string{dbfsSrc: target}},
	}
}

// FindMapping returns the mapping whose expression produced the issue, or
// nil when none applies.
func FindMapping(issue scan.Issue, mappings []ReplaceMapping) *ReplaceMapping {
	for i := range mappings {
		if mappings[i].MatchingExpr == issue.MatchedRegex {
			return &mappings[i]
		}
	}
	return nil
}

// Apply substitutes every mapped literal present on the line.
func (m *ReplaceMapping) Apply(line string) string {
	for from, to := range m.Mapping {
		line = strings.ReplaceAll(line, from, to)
	}
	return line
}
