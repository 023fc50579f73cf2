package scan

// SourceType identifies where scanned content came from.
type SourceType string

const (
	SourceTypeClusterJSON      SourceType = "CLUSTER_JSON"
	SourceTypeJobSubmitRunJSON SourceType = "JOB_SUBMIT_RUN_JSON"
	SourceTypeJobJSON          SourceType = "JOB_JSON"
	SourceTypeJobRunNowJSON    SourceType = "JOB_RUN_NOW_JSON"
	// SourceTypeFile is the only source the rewrite engine can act on; every
	// other source is an alert.
	SourceTypeFile SourceType = "FILE"
)

// Metadata keys used in IssueSource.
const (
	MetaFilePath         = "file_path"
	MetaRelativeFilePath = "relative_file_path"
	MetaClusterID        = "cluster_id"
	MetaJobID            = "job_id"
	MetaRepoOrigin       = "repo_origin"
)

// Issue types.
const (
	TypeMatchingMountUse    = "MATCHING_MOUNT_USE"
	TypeNonMatchingMountUse = "NON_MATCHING_MOUNT_USE"
	TypeDBFSUse             = "DBFS_USE"
	TypeUDFUse              = "UDF_USE"
	TypeScalaUse            = "SCALA_USE"
	TypeScalaUDFUse         = "SCALA_UDF_USE"
	TypeFoundScalaFile      = "FOUND_SCALA_FILE"
)

// Issue details.
const (
	DetailSimple           = "SIMPLE"
	DetailMaybe            = "MAYBE"
	DetailCannotConvert    = "CANNOT_CONVERT"
	DetailNotPossible      = "NOT_POSSIBLE"
	DetailAlreadyConverted = "ALREADY_CONVERTED"
	DetailMaybeFuseMount   = "MAYBE_FUSE_MOUNT_NEEDS_VOLUMES"
	DetailMaybeOtherCloud  = "MAYBE_FOUND_OTHER_CLOUD_PROTOCOLS"
	DetailCannotConvertCmd = "CANNOT_CONVERT_MAGIC_CMD"
	DetailFoundUDF         = "FOUND_UDF"
	DetailFoundScala       = "FOUND_SCALA"
	DetailFoundSQLUDF      = "FOUND_SQL_BASED_UDF"
	DetailFoundPysparkUDF  = "FOUND_PYSPARK_UDF"
	DetailFoundScalaUDF    = "FOUND_SCALA_UDF"
)

// IssueSource is a tagged reference to where an issue was found.
type IssueSource struct {
	Type     SourceType        `json:"source_type"`
	Metadata map[string]string `json:"source_metadata,omitempty"`
}

// NewFileSource returns a plain-file issue source.
func NewFileSource(path, relativePath string) IssueSource {
	return IssueSource{
		Type: SourceTypeFile,
		Metadata: map[string]string{
			MetaFilePath:         path,
			MetaRelativeFilePath: relativePath,
		},
	}
}

// FilePath returns the file_path metadata, empty for non-file sources.
func (s IssueSource) FilePath() string {
	return s.Metadata[MetaFilePath]
}

// RelativePath returns the relative_file_path metadata.
func (s IssueSource) RelativePath() string {
	return s.Metadata[MetaRelativeFilePath]
}

// Issue is a single classified finding. An Issue is final at creation; only
// the magic-command and file-type gates may overwrite Detail before the issue
// is yielded.
type Issue struct {
	Type   string      `json:"issue_type"`
	Detail string      `json:"issue_detail"`
	Source IssueSource `json:"issue_source"`
	// LineNumber is 1-based; zero for file-level issues.
	LineNumber   int    `json:"line_number,omitempty"`
	MatchedRegex string `json:"matched_regex,omitempty"`
	MatchedLine  string `json:"matched_line,omitempty"`
	MatchedValue string `json:"matched_value,omitempty"`
	WorkspaceURL string `json:"workspace_url,omitempty"`
}

// IsMountUse reports whether the issue refers to a mount, matched or not.
func (i Issue) IsMountUse() bool {
	return i.Type == TypeMatchingMountUse || i.Type == TypeNonMatchingMountUse
}
