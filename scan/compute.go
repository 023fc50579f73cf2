package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/tidwall/gjson"
)

// DefinitionProvider serves compute or job definitions captured as JSON
// blobs. Each blob is scanned as indented text so line numbers in findings
// point at a readable rendering of the definition.
type DefinitionProvider struct {
	sourceType SourceType
	idField    string
	metaKey    string
	defs       [][]byte
}

// NewClusterDefinitions scans cluster definition JSON documents.
func NewClusterDefinitions(defs ...[]byte) *DefinitionProvider {
	return &DefinitionProvider{
		sourceType: SourceTypeClusterJSON,
		idField:    "cluster_id",
		metaKey:    MetaClusterID,
		defs:       defs,
	}
}

// NewJobDefinitions scans job definition JSON documents.
func NewJobDefinitions(defs ...[]byte) *DefinitionProvider {
	return &DefinitionProvider{
		sourceType: SourceTypeJobJSON,
		idField:    "job_id",
		metaKey:    MetaJobID,
		defs:       defs,
	}
}

// Content implements Provider.
func (p *DefinitionProvider) Content(_ context.Context, fn func(source IssueSource, reader io.Reader) error) error {
	for _, def := range p.defs {
		source := IssueSource{Type: p.sourceType, Metadata: map[string]string{}}
		if id := gjson.GetBytes(def, p.idField); id.Exists() {
			source.Metadata[p.metaKey] = id.String()
		}

		var indented bytes.Buffer
		if err := json.Indent(&indented, def, "", "  "); err != nil {
			// leave malformed definitions as-is; the scanner works on raw text
			indented.Reset()
			indented.Write(def)
		}
		if err := fn(source, &indented); err != nil {
			return err
		}
	}
	return nil
}
