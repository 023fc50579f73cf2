package mount

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"
)

// Table column names for mount snapshots.
const (
	columnTarget       = "target"
	columnRawSource    = "raw_src"
	columnMountValid   = "is_mount_valid"
	columnOrgID        = "org_id"
	columnWorkspaceURL = "workspace_url"
)

type tableRow struct {
	entry        Entry
	orgID        string
	workspaceURL string
}

// RegistryFromCSV builds a registry from an uploaded tabular mount snapshot.
// The snapshot must carry target and raw_src columns; is_mount_valid, org_id
// and workspace_url are optional. Validity is re-derived from the target
// scheme so that a snapshot and a live enumeration classify identically.
// An unreadable table fails construction; a malformed row is skipped and
// logged.
func RegistryFromCSV(data []byte, options ...Option) (*Registry, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse mounts table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("mounts table is empty")
	}

	header := map[string]int{}
	for i, name := range records[0] {
		header[name] = i
	}
	if _, ok := header[columnTarget]; !ok {
		return nil, fmt.Errorf("mounts table is missing column %q", columnTarget)
	}
	if _, ok := header[columnRawSource]; !ok {
		return nil, fmt.Errorf("mounts table is missing column %q", columnRawSource)
	}

	field := func(record []string, name string) string {
		idx, ok := header[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	var rows []tableRow
	for i, record := range records[1:] {
		row := tableRow{
			entry: Entry{
				Point:  field(record, columnRawSource),
				Target: field(record, columnTarget),
			},
			orgID:        field(record, columnOrgID),
			workspaceURL: field(record, columnWorkspaceURL),
		}
		if row.entry.Point == "" || row.entry.Target == "" {
			log.Printf("skipping mounts table row %d: missing target or raw_src", i+2)
			continue
		}
		rows = append(rows, row)
	}

	registry := &Registry{
		sessionID:   uuid.NewString(),
		validPrefix: DefaultValidPrefix,
	}
	for _, option := range options {
		option(registry)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if len(rows[i].entry.Point) != len(rows[j].entry.Point) {
			return len(rows[i].entry.Point) > len(rows[j].entry.Point)
		}
		return rows[i].entry.Point < rows[j].entry.Point
	})

	for _, row := range rows {
		m := New(row.entry, registry.validPrefix)
		if m == nil {
			continue
		}
		m.OrgID = row.orgID
		m.WorkspaceURL = row.workspaceURL
		if m.OrgID == "" {
			m.OrgID = registry.orgID
		}
		if m.WorkspaceURL == "" {
			m.WorkspaceURL = registry.workspaceURL
		}
		registry.mounts = append(registry.mounts, m)
	}
	return registry, nil
}
