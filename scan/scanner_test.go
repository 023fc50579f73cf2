package scan_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ucmigrate/mountscan/mount"
	"github.com/ucmigrate/mountscan/scan"
)

func testRegistry() *mount.Registry {
	return mount.NewRegistry([]mount.Entry{
		{Point: "/mnt/src", Target: "abfss://c@acct/p"},
		{Point: "/mnt/old", Target: "wasbs://c@acct/q"},
	})
}

func pySource() scan.IssueSource {
	return scan.NewFileSource("/repo/etl/job.py", "etl/job.py")
}

func collect(s *scan.Scanner, source scan.IssueSource, content string) []scan.Issue {
	var issues []scan.Issue
	for issue := range s.FileIssues(source, content) {
		issues = append(issues, issue)
	}
	return issues
}

func TestScanner_SimpleMatch(t *testing.T) {
	s := scan.NewScanner(testRegistry())

	issues := collect(s, pySource(), `x = "dbfs:/mnt/src/file.csv"`)

	require.Len(t, issues, 1)
	assert.Equal(t, scan.TypeMatchingMountUse, issues[0].Type)
	assert.Equal(t, scan.DetailSimple, issues[0].Detail)
	assert.Equal(t, "dbfs:/mnt/src/", issues[0].MatchedValue)
	assert.Equal(t, 1, issues[0].LineNumber)
	assert.Equal(t, `x = "dbfs:/mnt/src/file.csv"`, issues[0].MatchedLine)
}

func TestScanner_FuseMount(t *testing.T) {
	s := scan.NewScanner(testRegistry())

	issues := collect(s, pySource(), `y = "/dbfs/mnt/src/file.csv"`)

	require.Len(t, issues, 1)
	assert.Equal(t, scan.TypeMatchingMountUse, issues[0].Type)
	assert.Equal(t, scan.DetailMaybeFuseMount, issues[0].Detail)
}

func TestScanner_OtherCloudProtocols(t *testing.T) {
	s := scan.NewScanner(testRegistry())

	issues := collect(s, pySource(), `copy("dbfs:/mnt/src/", "s3a://bucket/dest")`)

	require.Len(t, issues, 1)
	assert.Equal(t, scan.DetailMaybeOtherCloud, issues[0].Detail)
}

func TestScanner_CannotConvert(t *testing.T) {
	s := scan.NewScanner(testRegistry())

	issues := collect(s, pySource(), `z = "/mnt/old/data"`)

	require.Len(t, issues, 1)
	assert.Equal(t, scan.TypeMatchingMountUse, issues[0].Type)
	assert.Equal(t, scan.DetailCannotConvert, issues[0].Detail)
}

func TestScanner_MaybeMatch(t *testing.T) {
	s := scan.NewScanner(testRegistry())

	issues := collect(s, pySource(), `base = "/mnt/src" + suffix`)

	require.Len(t, issues, 1)
	assert.Equal(t, scan.DetailMaybe, issues[0].Detail)
	assert.Equal(t, "/mnt/src", issues[0].MatchedValue)
}

func TestScanner_AlreadyConverted(t *testing.T) {
	s := scan.NewScanner(testRegistry())

	line := `base = get_uc_mount_target('/mnt/src', normalize=True) + "/data"`
	issues := collect(s, pySource(), line)

	require.Len(t, issues, 1)
	assert.Equal(t, scan.DetailAlreadyConverted, issues[0].Detail)
}

func TestScanner_MagicCommandGate(t *testing.T) {
	s := scan.NewScanner(testRegistry())

	issues := collect(s, pySource(), "# MAGIC %sql\n# MAGIC select * from delta.`/mnt/old/data`")

	require.Len(t, issues, 1)
	assert.Equal(t, scan.DetailCannotConvertCmd, issues[0].Detail)
	assert.Equal(t, 2, issues[0].LineNumber)
}

func TestScanner_FileTypeGateWins(t *testing.T) {
	// the file-type gate overrides both raw classification and the magic gate
	s := scan.NewScanner(testRegistry())
	source := scan.NewFileSource("/repo/etl/job.sql", "etl/job.sql")

	issues := collect(s, source, `select * from parquet.`+"`/mnt/src/table/`")

	require.Len(t, issues, 1)
	assert.Equal(t, "CANNOT_CONVERT_SQL_FILE", issues[0].Detail)
}

func TestScanner_MultipleOccurrences(t *testing.T) {
	registry := mount.NewRegistry([]mount.Entry{
		{Point: "/mnt/src", Target: "abfss://c@acct/p"},
		{Point: "/mnt/dst", Target: "abfss://c@acct/d"},
	})
	s := scan.NewScanner(registry)

	issues := collect(s, pySource(), `copy("/mnt/src/a.csv", "/mnt/dst/a.csv")`)

	require.Len(t, issues, 2)
	values := []string{issues[0].MatchedValue, issues[1].MatchedValue}
	assert.Contains(t, values, "/mnt/src/")
	assert.Contains(t, values, "/mnt/dst/")
}

func TestScanner_GenericFallback(t *testing.T) {
	// a mount-like path that matches no registered mount keeps the generic hit
	s := scan.NewScanner(testRegistry())

	issues := collect(s, pySource(), `w = "/mnt/unknown/data"`)

	require.Len(t, issues, 1)
	assert.Equal(t, scan.TypeNonMatchingMountUse, issues[0].Type)
	assert.Equal(t, scan.DetailMaybe, issues[0].Detail)
	assert.Equal(t, `/mnt/[\w]+`, issues[0].MatchedRegex)
}

func TestScanner_FirstRuleWins(t *testing.T) {
	// one generic rule fires per line, the most selective one
	s := scan.NewScanner(mount.NewRegistry(nil))

	issues := collect(s, pySource(), `p = "dbfs:/mnt/unknown/x"`)

	require.Len(t, issues, 1)
	assert.Equal(t, `dbfs:/mnt/[\w]+/`, issues[0].MatchedRegex)
}

func TestScanner_UDFRules(t *testing.T) {
	s := scan.NewScanner(mount.NewRegistry(nil))

	tests := []struct {
		line       string
		wantType   string
		wantDetail string
	}{
		{`@udf("string")`, scan.TypeUDFUse, scan.DetailFoundUDF},
		{`spark.udf.register("f", f)`, scan.TypeUDFUse, scan.DetailFoundSQLUDF},
		{`from pyspark.sql.functions import udf`, scan.TypeUDFUse, scan.DetailFoundPysparkUDF},
		{`# MAGIC %scala`, scan.TypeScalaUse, scan.DetailFoundScala},
	}
	for _, tt := range tests {
		issues := collect(s, pySource(), tt.line)
		require.Len(t, issues, 1, "line %q", tt.line)
		assert.Equal(t, tt.wantType, issues[0].Type, "line %q", tt.line)
		assert.Equal(t, tt.wantDetail, issues[0].Detail, "line %q", tt.line)
	}
}

func TestScanner_ScalaFileIssue(t *testing.T) {
	s := scan.NewScanner(mount.NewRegistry(nil))
	source := scan.NewFileSource("/repo/app/Main.scala", "app/Main.scala")

	issues := collect(s, source, `val x = 1`)

	require.Len(t, issues, 1)
	assert.Equal(t, scan.TypeFoundScalaFile, issues[0].Type)
	assert.Zero(t, issues[0].LineNumber)
}

func TestScanner_SequenceIsRestartable(t *testing.T) {
	s := scan.NewScanner(testRegistry())
	seq := s.FileIssues(pySource(), `x = "dbfs:/mnt/src/file.csv"`)

	for i := 0; i < 2; i++ {
		count := 0
		for range seq {
			count++
		}
		assert.Equal(t, 1, count)
	}
}

func TestScanner_Scan(t *testing.T) {
	s := scan.NewScanner(testRegistry())
	provider := (&scan.MemoryProvider{}).
		Add(scan.NewFileSource("/repo/a.py", "a.py"), `x = "dbfs:/mnt/src/f.csv"`).
		Add(scan.NewFileSource("/repo/b.py", "b.py"), "y = 1\nz = \"/mnt/old/data\"\n")

	issues, err := s.Scan(context.Background(), provider)

	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "a.py", issues[0].Source.RelativePath())
	assert.Equal(t, "b.py", issues[1].Source.RelativePath())
	assert.Equal(t, 2, issues[1].LineNumber)
}

func TestScanner_ScanParallel(t *testing.T) {
	s := scan.NewScanner(testRegistry(), scan.WithWorkers(4))
	provider := &scan.MemoryProvider{}
	for i := 0; i < 20; i++ {
		provider.Add(scan.NewFileSource("/repo/a.py", "a.py"), `x = "dbfs:/mnt/src/f.csv"`)
	}

	issues, err := s.Scan(context.Background(), provider)

	require.NoError(t, err)
	assert.Len(t, issues, 20)
}

func TestScanner_ScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := scan.NewScanner(testRegistry())
	provider := (&scan.MemoryProvider{}).
		Add(scan.NewFileSource("/repo/a.py", "a.py"), `x = "dbfs:/mnt/src/f.csv"`)

	_, err := s.Scan(ctx, provider)
	assert.ErrorIs(t, err, context.Canceled)
}
