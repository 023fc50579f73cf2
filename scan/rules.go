package scan

// Rule is a generic line-level detection: the first rule whose expression
// matches a line fires, so the table below is ordered from most to least
// selective. Keep the order fixed; it is the only tie-break between
// equally-selective expressions.
type Rule struct {
	Expr   string
	Type   string
	Detail string
}

// DefaultRules returns the generic detection table.
func DefaultRules() []Rule {
	return []Rule{
		{Expr: `dbfs:/mnt/[\w]+/`, Type: TypeNonMatchingMountUse, Detail: DetailMaybe},
		{Expr: `/dbfs/mnt/[\w]+/`, Type: TypeNonMatchingMountUse, Detail: DetailMaybe},
		{Expr: `dbfs:/mnt/[\w]+`, Type: TypeNonMatchingMountUse, Detail: DetailMaybe},
		{Expr: `/mnt/[\w]+`, Type: TypeNonMatchingMountUse, Detail: DetailMaybe},
		// base path may be built up via variables, so no safe boundary
		{Expr: `/dbfs/mnt/[\w]+`, Type: TypeNonMatchingMountUse, Detail: DetailMaybe},
		// bare /dbfs/mnt/ gives no mount name to resolve
		{Expr: `/dbfs/mnt/`, Type: TypeNonMatchingMountUse, Detail: DetailCannotConvert},
		{Expr: `["']/dbfs/`, Type: TypeDBFSUse, Detail: DetailNotPossible},
		{Expr: `udf\(`, Type: TypeUDFUse, Detail: DetailFoundUDF},
		{Expr: `# MAGIC %scala`, Type: TypeScalaUse, Detail: DetailFoundScala},
		{Expr: `spark.udf.register`, Type: TypeUDFUse, Detail: DetailFoundSQLUDF},
		{Expr: `from pyspark.sql.*udf`, Type: TypeUDFUse, Detail: DetailFoundPysparkUDF},
		{Expr: `import org.apache.spark.sql.functions.*udf`, Type: TypeScalaUDFUse, Detail: DetailFoundScalaUDF},
	}
}

// cloudProtocols are storage scheme literals whose presence on a line makes a
// simple rewrite unsafe.
var cloudProtocols = []string{"wasbs://", "abfss://", "s3a://", "adl://", "s3n://", "s3://", "gs://"}

// magicPrefix marks non-executable notebook directive lines.
const magicPrefix = "# MAGIC"

// mountTrigger is the substring counted to decide whether a line may hold
// more than one mount reference.
const mountTrigger = "/mnt"
