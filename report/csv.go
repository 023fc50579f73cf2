// Package report serializes issue streams to the tabular snapshot format
// consumed by spreadsheets and by later rewrite runs.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/ucmigrate/mountscan/scan"
)

// maxFieldLength bounds any single serialized field; longer values are
// truncated with an ellipsis.
const maxFieldLength = 10000

var columns = []string{
	"issue_type",
	"issue_detail",
	"issue_source",
	"line_number",
	"matched_regex",
	"matched_line",
	"matched_value",
	"workspace_url",
}

// Write encodes issues as CSV. The issue source is embedded as a JSON
// document so the round trip through Read preserves its metadata.
func Write(w io.Writer, issues []scan.Issue) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write issues header: %w", err)
	}
	for _, issue := range issues {
		source, err := json.Marshal(issue.Source)
		if err != nil {
			return fmt.Errorf("failed to encode issue source: %w", err)
		}
		lineNumber := ""
		if issue.LineNumber > 0 {
			lineNumber = strconv.Itoa(issue.LineNumber)
		}
		record := []string{
			issue.Type,
			issue.Detail,
			string(source),
			lineNumber,
			issue.MatchedRegex,
			truncate(issue.MatchedLine),
			truncate(issue.MatchedValue),
			issue.WorkspaceURL,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write issue row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Read decodes issues previously written by Write. A malformed row is
// skipped and logged rather than failing the whole read.
func Read(r io.Reader) ([]scan.Issue, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse issues table: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := map[string]int{}
	for i, name := range records[0] {
		header[name] = i
	}
	field := func(record []string, name string) string {
		idx, ok := header[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	var issues []scan.Issue
	for i, record := range records[1:] {
		issue := scan.Issue{
			Type:         field(record, "issue_type"),
			Detail:       field(record, "issue_detail"),
			MatchedRegex: field(record, "matched_regex"),
			MatchedLine:  field(record, "matched_line"),
			MatchedValue: field(record, "matched_value"),
			WorkspaceURL: field(record, "workspace_url"),
		}
		if raw := field(record, "line_number"); raw != "" {
			issue.LineNumber, err = strconv.Atoi(raw)
			if err != nil {
				log.Printf("skipping issues table row %d: bad line number %q", i+2, raw)
				continue
			}
		}
		if raw := field(record, "issue_source"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &issue.Source); err != nil {
				log.Printf("skipping issues table row %d: bad issue source: %v", i+2, err)
				continue
			}
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

func truncate(value string) string {
	if len(value) > maxFieldLength {
		return value[:maxFieldLength] + "..."
	}
	return value
}
