package pattern

import (
	"fmt"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Engine finds pattern occurrences in a line of text. Implementations must be
// safe for concurrent use; an engine is selected once at startup and shared by
// every matcher in a scan session.
type Engine interface {
	// Find returns the first substring of input matched by expr.
	// An empty or invalid expression reports no match.
	Find(expr, input string) (string, bool)
}

// New returns the engine registered under the given name.
// Supported names: "regexp" and "cached".
func New(name string) (Engine, error) {
	switch name {
	case "", "cached":
		return NewCached(defaultCacheSize)
	case "regexp":
		return &stdEngine{}, nil
	default:
		return nil, fmt.Errorf("unknown pattern engine: %q", name)
	}
}

// Default returns the engine used when no configuration is supplied.
func Default() Engine {
	engine, err := NewCached(defaultCacheSize)
	if err != nil {
		return &stdEngine{}
	}
	return engine
}

const defaultCacheSize = 512

// stdEngine compiles expressions on every call.
type stdEngine struct{}

func (e *stdEngine) Find(expr, input string) (string, bool) {
	if expr == "" {
		return "", false
	}
	rx, err := regexp.Compile(expr)
	if err != nil {
		return "", false
	}
	loc := rx.FindStringIndex(input)
	if loc == nil {
		return "", false
	}
	return input[loc[0]:loc[1]], true
}

// cachedEngine keeps compiled expressions in a bounded LRU cache. Mount
// variant expressions repeat for every scanned line, so compilation is paid
// once per expression rather than once per line.
type cachedEngine struct {
	cache *lru.Cache[string, *regexp.Regexp]
}

// NewCached returns an engine with a compile cache holding up to size entries.
func NewCached(size int) (Engine, error) {
	cache, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create pattern cache: %w", err)
	}
	return &cachedEngine{cache: cache}, nil
}

func (e *cachedEngine) Find(expr, input string) (string, bool) {
	if expr == "" {
		return "", false
	}
	rx, ok := e.cache.Get(expr)
	if !ok {
		var err error
		rx, err = regexp.Compile(expr)
		if err != nil {
			return "", false
		}
		e.cache.Add(expr, rx)
	}
	loc := rx.FindStringIndex(input)
	if loc == nil {
		return "", false
	}
	return input[loc[0]:loc[1]], true
}
