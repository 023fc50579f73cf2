package rewrite

import (
	"fmt"
	"log"
	"strings"
)

// SkipMarker disables rewriting for any line that carries it.
const SkipMarker = "uc-scan:skip"

// quotePrefixes are the recognized string openers, interpolated forms first.
// A match not preceded by one of these is left untouched.
var quotePrefixes = []string{`f"`, "f'", `f"""`, "f'''", `"`, "'", `"""`, "'''"}

// ReplaceWithLookup rewrites the first occurrence of a quoted mount
// reference on a line into a lookup call, preserving the quote style:
//
//	x = "dbfs:/mnt/src/file.csv"
//
// becomes
//
//	x = get_uc_mount_target('/mnt/src', normalize=True) + "/file.csv"
//
// The lookup function must have the shape func(path string, normalize bool)
// with keys normalized to /mnt/<name> without trailing slash. Rewriting is
// idempotent: a line already holding the constructed call, or carrying the
// skip marker, is returned unchanged.
func ReplaceWithLookup(matched, line, function string) string {
	normalized := strings.TrimRight(matched, "/")
	for _, quote := range quotePrefixes {
		if !strings.HasPrefix(normalized, quote) && !strings.Contains(line, quote+normalized) {
			continue
		}
		lookupKey := strings.TrimRight(strings.ReplaceAll(matched, "dbfs:", ""), "/")
		call := fmt.Sprintf("%s('%s', normalize=True)", function, lookupKey)
		replacement := call + " + " + quote
		if alreadyReplacedOrSkip(call, line) {
			log.Printf("skipping replacement of %s in line %s", matched, line)
			return line
		}
		log.Printf("replacing %s with %s in line %s", matched, replacement, line)
		return strings.Replace(line, quote+normalized, replacement, 1)
	}
	return line
}

func alreadyReplacedOrSkip(call, line string) bool {
	return strings.Contains(line, call) || strings.Contains(line, SkipMarker)
}
