package mount

import (
	"sort"

	"github.com/google/uuid"
)

// Registry holds the canonical mount set for one scan session. It is
// immutable once constructed and never refreshed mid-scan; a single registry
// value may be shared by concurrent scanners.
type Registry struct {
	sessionID    string
	validPrefix  string
	orgID        string
	workspaceURL string
	mounts       []*Mount
}

// Option configures registry construction.
type Option func(*Registry)

// WithValidPrefix overrides the storage scheme accepted as convertible.
func WithValidPrefix(prefix string) Option {
	return func(r *Registry) {
		r.validPrefix = prefix
	}
}

// WithProvenance stamps every mount with the workspace it was enumerated from.
func WithProvenance(orgID, workspaceURL string) Option {
	return func(r *Registry) {
		r.orgID = orgID
		r.workspaceURL = workspaceURL
	}
}

// NewRegistry builds a registry from raw mount entries. Entries are ordered
// longest mount point first so that a nested mount is matched before its
// parent; reserved entries are dropped.
func NewRegistry(entries []Entry, options ...Option) *Registry {
	registry := &Registry{
		sessionID:   uuid.NewString(),
		validPrefix: DefaultValidPrefix,
	}
	for _, option := range options {
		option(registry)
	}

	sorted := append([]Entry{}, entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i].Point) != len(sorted[j].Point) {
			return len(sorted[i].Point) > len(sorted[j].Point)
		}
		return sorted[i].Point < sorted[j].Point
	})

	for _, entry := range sorted {
		m := New(entry, registry.validPrefix)
		if m == nil {
			continue
		}
		m.OrgID = registry.orgID
		m.WorkspaceURL = registry.workspaceURL
		registry.mounts = append(registry.mounts, m)
	}
	return registry
}

// SessionID identifies this registry's scan session.
func (r *Registry) SessionID() string {
	return r.sessionID
}

// Mounts returns the registry content in match-priority order. Callers must
// not mutate the returned mounts.
func (r *Registry) Mounts() []*Mount {
	return r.mounts
}

// Len returns the number of registered mounts.
func (r *Registry) Len() int {
	return len(r.mounts)
}
