package mount

import (
	"log"
	"strings"

	"github.com/ucmigrate/mountscan/pattern"
)

// DefaultValidPrefix is the storage scheme a mount target must use to be
// considered convertible.
const DefaultValidPrefix = "abfss"

// reservedSources lists internal mount sources that are never candidates for
// conversion. Mounts backed by one of these are filtered out of the registry.
var reservedSources = []string{
	"DatabricksRoot",
	"DbfsReserved",
	"UnityCatalogVolumes",
	"databricks/mlflow-tracking",
	"databricks-datasets",
	"databricks/mlflow-registry",
	"databricks-results",
}

// Entry is a raw mount record as enumerated from a workspace or supplied by a
// table snapshot: a mount point alias and the storage target it resolves to.
type Entry struct {
	Point  string
	Target string
}

// Mount is a single mount definition together with the textual variants that
// could reference it in source code. Variant lists are derived once from the
// mount point and never change afterwards; a Mount is safe to share across
// concurrent scans.
type Mount struct {
	// Target is the storage URI the mount resolves to.
	Target string
	// Source is the legacy mount point alias, e.g. /mnt/raw.
	Source string
	// Valid reports whether Target uses an accepted storage scheme.
	Valid bool

	// Simple holds trailing-slash-qualified variants whose rewrite is safe.
	Simple []string
	// Maybe holds variants lacking the trailing-slash boundary guarantee.
	Maybe []string
	// CannotConvert holds variants of a mount with an unconvertible target.
	CannotConvert []string

	// OrgID and WorkspaceURL are provenance only; they do not affect matching.
	OrgID        string
	WorkspaceURL string
}

// Variations derives the textual variant families for a mount point. The
// first list holds the trailing-slash-qualified forms that are safe to
// rewrite; the second holds the ambiguous forms: fuse-style absolute paths
// and forms that may be a prefix of a longer, unrelated path.
func Variations(point string) (simple, ambiguous []string) {
	point = strings.TrimRight(point, "/")
	simple = []string{
		"dbfs:" + point + "/",
		point + "/",
	}
	ambiguous = []string{
		"/dbfs" + point + "/", // looks simple but fuse access needs a volume target
		"dbfs:" + point,
		"/dbfs" + point,
		point,
	}
	return simple, ambiguous
}

// New builds a Mount from a raw entry. Reserved internal mounts return nil
// and are logged. A target outside validPrefix yields a mount whose every
// variant is classified as cannot-convert, ambiguous forms first since the
// unqualified forms are the common case.
func New(entry Entry, validPrefix string) *Mount {
	for _, reserved := range reservedSources {
		if entry.Target == reserved {
			log.Printf("skipping mount with reserved source: %s", entry.Target)
			return nil
		}
	}
	simple, ambiguous := Variations(entry.Point)
	if strings.HasPrefix(entry.Target, validPrefix) {
		return &Mount{
			Target: entry.Target,
			Source: entry.Point,
			Valid:  true,
			Simple: simple,
			Maybe:  ambiguous,
		}
	}
	log.Printf("found mount with invalid source: %s", entry.Target)
	return &Mount{
		Target:        entry.Target,
		Source:        entry.Point,
		CannotConvert: append(append([]string{}, ambiguous...), simple...),
	}
}

// FindSimpleMatch returns the first safe variant present in input along with
// the matched substring.
func (m *Mount) FindSimpleMatch(engine pattern.Engine, input string) (expr, value string, ok bool) {
	return findMatch(engine, m.Simple, input)
}

// FindMaybeMatch returns the first ambiguous variant present in input.
func (m *Mount) FindMaybeMatch(engine pattern.Engine, input string) (expr, value string, ok bool) {
	return findMatch(engine, m.Maybe, input)
}

// FindCannotConvertMatch returns the first unconvertible variant present in input.
func (m *Mount) FindCannotConvertMatch(engine pattern.Engine, input string) (expr, value string, ok bool) {
	return findMatch(engine, m.CannotConvert, input)
}

func findMatch(engine pattern.Engine, exprs []string, input string) (string, string, bool) {
	for _, expr := range exprs {
		if expr == "" {
			continue
		}
		if value, found := engine.Find(expr, input); found {
			return expr, value, true
		}
	}
	return "", "", false
}
