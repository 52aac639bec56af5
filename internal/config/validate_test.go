package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validPipeline() Pipeline {
	return Pipeline{
		Job: "silo-usage",
		Source: Source{
			Kind: "sql",
			SQL:  SourceSQL{Driver: "hana", DSN: "hdb://u:p@host:30015"},
		},
		Storage: Storage{
			Kind: "postgres",
			DB:   DBConfig{DSN: "postgres://u@localhost/db", Schema: "ops", Table: "silo_usage"},
		},
		Notify: []Notify{{Kind: "webhook", Options: Options{"url": "https://flow.example.com"}}},
	}
}

func TestValidatePipeline_ValidMinimal(t *testing.T) {
	t.Parallel()

	if issues := ValidatePipeline(validPipeline()); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestValidatePipeline_Issues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Pipeline)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{"missing job", func(p *Pipeline) { p.Job = " " }, SeverityError, "job", "must not be empty"},
		{"missing source kind", func(p *Pipeline) { p.Source.Kind = "" }, SeverityError, "source.kind", "must not be empty"},
		{"unknown source kind", func(p *Pipeline) { p.Source.Kind = "ftp" }, SeverityError, "source.kind", "unknown source kind"},
		{"unknown driver", func(p *Pipeline) { p.Source.SQL.Driver = "oracle" }, SeverityError, "source.sql.driver", "unknown driver"},
		{"missing sql dsn", func(p *Pipeline) { p.Source.SQL.DSN = "" }, SeverityError, "source.sql.dsn", "requires a dsn"},
		{"csv without paths", func(p *Pipeline) { p.Source = Source{Kind: "csv"} }, SeverityError, "source.csv.tasks_path", "tasks_path"},
		{"csv bad comma", func(p *Pipeline) {
			p.Source = Source{Kind: "csv", CSV: SourceCSV{TasksPath: "a", MappingsPath: "b", Parser: Parser{Options: Options{"comma": ";;"}}}}
		}, SeverityError, "source.csv.parser.options.comma", "single character"},
		{"clashing output columns", func(p *Pipeline) {
			p.Reconcile.ExpectedProductColumn = "x"
			p.Reconcile.UsageLabelColumn = "x"
		}, SeverityError, "reconcile.usage_label_column", "must differ"},
		{"empty bin prefix", func(p *Pipeline) { p.Reconcile.BinPrefixes = []string{"S", ""} }, SeverityError, "reconcile.bin_prefixes[1]", "every bin"},
		{"missing storage kind", func(p *Pipeline) { p.Storage.Kind = "" }, SeverityError, "storage.kind", "must not be empty"},
		{"unknown storage kind", func(p *Pipeline) { p.Storage.Kind = "oracle" }, SeverityError, "storage.kind", "unknown storage kind"},
		{"missing dsn", func(p *Pipeline) { p.Storage.DB.DSN = "" }, SeverityError, "storage.db.dsn", "must not be empty"},
		{"missing table", func(p *Pipeline) { p.Storage.DB.Table = "" }, SeverityError, "storage.db.table", "must not be empty"},
		{"snowflake needs database", func(p *Pipeline) { p.Storage.Kind = "snowflake" }, SeverityError, "storage.db.database", "requires a database"},
		{"snowflake non-transactional", func(p *Pipeline) { p.Storage.Kind = "snowflake" }, SeverityWarning, "storage.kind", "not transactional"},
		{"mysql non-transactional", func(p *Pipeline) { p.Storage.Kind = "mysql" }, SeverityWarning, "storage.kind", "not transactional"},
		{"no notifiers", func(p *Pipeline) { p.Notify = nil }, SeverityWarning, "notify", "only logged"},
		{"unknown notifier", func(p *Pipeline) { p.Notify = []Notify{{Kind: "pager"}} }, SeverityError, "notify[0].kind", "unknown notifier"},
		{"graph missing sender", func(p *Pipeline) {
			p.Notify = []Notify{{Kind: "graph", Options: Options{"tenant_id": "t", "client_id": "c", "client_secret": "s", "recipients": "a@b"}}}
		}, SeverityError, "notify[0].options.sender", "requires sender"},
		{"blank recipients", func(p *Pipeline) {
			p.Notify = []Notify{{Kind: "smtp", Options: Options{"username": "u", "password": "p", "recipients": " "}}}
		}, SeverityWarning, "notify[0].options.recipients", "will fail"},
		{"empty recipient list", func(p *Pipeline) {
			p.Notify = []Notify{{Kind: "smtp", Options: Options{"username": "u", "password": "p", "recipients": []any{}}}}
		}, SeverityWarning, "notify[0].options.recipients", "will fail"},
		{"negative batch", func(p *Pipeline) { p.Runtime.BatchSize = -1 }, SeverityError, "runtime.batch_size", "negative"},
		{"bad log format", func(p *Pipeline) { p.Log.Format = "xml" }, SeverityError, "log.format", "unknown log format"},
		{"prompush without url", func(p *Pipeline) { p.Metrics.Backend = "prompush" }, SeverityError, "metrics.pushgateway_url", "requires"},
		{"datadog without addr", func(p *Pipeline) { p.Metrics.Backend = "datadog" }, SeverityError, "metrics.datadog_addr", "requires"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := validPipeline()
			tt.mutate(&p)
			issues := ValidatePipeline(p)
			if !hasIssue(t, issues, tt.sev, tt.path, tt.msg) {
				t.Fatalf("expected %s at %s containing %q; got %+v", tt.sev, tt.path, tt.msg, issues)
			}
		})
	}
}

func TestValidatePipeline_MemoryNeedsNoDSN(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Storage = Storage{Kind: "memory", DB: DBConfig{Table: "t"}}
	if HasErrors(ValidatePipeline(p)) {
		t.Fatalf("memory sink without dsn should validate: %+v", ValidatePipeline(p))
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()

	iss := Issue{Severity: SeverityError, Path: "job", Message: "job must not be empty"}
	if got, want := iss.Error(), "error at job: job must not be empty"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !HasErrors([]Issue{iss}) || HasErrors([]Issue{{Severity: SeverityWarning}}) {
		t.Fatal("HasErrors misclassified issues")
	}
}

func TestValidatePipeline_RecipientsFile(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Notify = []Notify{{Kind: "smtp", Options: Options{"username": "etl@example.com", "password": "x", "recipients_file": "recipients.txt"}}}
	for _, is := range ValidatePipeline(p) {
		if strings.HasPrefix(is.Path, "notify") {
			t.Fatalf("unexpected notify issue: %+v", is)
		}
	}
}

func TestValidatePipeline_BlankNotifyOptionIsNotFatal(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Notify = []Notify{{Kind: "webhook", Options: Options{"url": ""}}}
	issues := ValidatePipeline(p)
	if HasErrors(issues) {
		t.Fatalf("blank notifier option should only warn: %+v", issues)
	}
	if !hasIssue(t, issues, SeverityWarning, "notify[0].options.url", "url is empty") {
		t.Fatalf("missing warning: %+v", issues)
	}
}
