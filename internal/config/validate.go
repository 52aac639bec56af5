package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "notify[1].options.sender"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether issues contains a SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate p; callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels logs, metrics and notifications",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateReconcile(p.Reconcile)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateNotify(p.Notify)...)
	issues = append(issues, validateRuntime(p.Runtime)...)
	issues = append(issues, validateLog(p.Log)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	return issues
}

func errorIssue(path, format string, args ...any) Issue {
	return Issue{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)}
}

func warningIssue(path, format string, args ...any) Issue {
	return Issue{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func validateSource(s Source) []Issue {
	var issues []Issue

	switch s.Kind {
	case "":
		return []Issue{errorIssue("source.kind", "source.kind must not be empty")}
	case "sql":
		drivers := map[string]struct{}{"hana": {}, "mssql": {}, "postgres": {}, "mysql": {}, "sqlite": {}}
		if _, ok := drivers[s.SQL.Driver]; !ok {
			issues = append(issues, errorIssue("source.sql.driver",
				"unknown driver %q; want one of hana, mssql, postgres, mysql, sqlite", s.SQL.Driver))
		}
		if blank(s.SQL.DSN) {
			issues = append(issues, errorIssue("source.sql.dsn", "sql source requires a dsn"))
		}
	case "csv":
		if blank(s.CSV.TasksPath) {
			issues = append(issues, errorIssue("source.csv.tasks_path", "csv source requires tasks_path"))
		}
		if blank(s.CSV.MappingsPath) {
			issues = append(issues, errorIssue("source.csv.mappings_path", "csv source requires mappings_path"))
		}
		if k := s.CSV.Parser.Kind; k != "" && k != "csv" {
			issues = append(issues, errorIssue("source.csv.parser.kind", "unsupported parser kind %q", k))
		}
		if c := s.CSV.Parser.Options.String("comma", ","); len([]rune(c)) != 1 {
			issues = append(issues, errorIssue("source.csv.parser.options.comma", "comma must be a single character, got %q", c))
		}
	default:
		issues = append(issues, errorIssue("source.kind", "unknown source kind %q; want sql or csv", s.Kind))
	}
	return issues
}

func validateReconcile(r Reconcile) []Issue {
	var issues []Issue
	if r.ExpectedProductColumn != "" && r.ExpectedProductColumn == r.UsageLabelColumn {
		issues = append(issues, errorIssue("reconcile.usage_label_column",
			"usage_label_column must differ from expected_product_column"))
	}
	for i, p := range r.BinPrefixes {
		if p == "" {
			issues = append(issues, errorIssue(fmt.Sprintf("reconcile.bin_prefixes[%d]", i),
				"empty prefix would match every bin"))
		}
	}
	return issues
}

var storageKinds = map[string]struct{}{
	"postgres":  {},
	"mssql":     {},
	"mysql":     {},
	"sqlite":    {},
	"snowflake": {},
	"memory":    {},
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if blank(s.Kind) {
		return []Issue{errorIssue("storage.kind", "storage.kind must not be empty")}
	}
	if _, ok := storageKinds[s.Kind]; !ok {
		issues = append(issues, errorIssue("storage.kind", "unknown storage kind %q", s.Kind))
	}

	db := s.DB
	if blank(db.DSN) && s.Kind != "memory" {
		issues = append(issues, errorIssue("storage.db.dsn", "storage.db.dsn must not be empty"))
	}
	if blank(db.Table) {
		issues = append(issues, errorIssue("storage.db.table", "storage.db.table must not be empty"))
	}

	switch s.Kind {
	case "snowflake":
		if blank(db.Database) {
			issues = append(issues, errorIssue("storage.db.database", "snowflake requires a database"))
		}
		if blank(db.Warehouse) {
			issues = append(issues, warningIssue("storage.db.warehouse",
				"no warehouse set; the user's default warehouse will be used"))
		}
		issues = append(issues, warningIssue("storage.kind",
			"snowflake DDL is not transactional; a failed insert leaves the table created but empty"))
	case "mysql":
		issues = append(issues, warningIssue("storage.kind",
			"mysql DDL is not transactional; a failed insert leaves the table created but empty"))
	case "mssql":
		if !blank(db.Warehouse) || !blank(db.Role) {
			issues = append(issues, warningIssue("storage.db", "warehouse and role are ignored by mssql"))
		}
	}
	return issues
}

var notifyKinds = map[string][]string{
	"graph":           {"tenant_id", "client_id", "client_secret", "sender", "recipients"},
	"graph_delegated": {"client_id", "refresh_token", "recipients"},
	"smtp":            {"username", "password", "recipients"},
	"webhook":         {"url"},
	"log":             nil,
}

func validateNotify(ns []Notify) []Issue {
	var issues []Issue
	if len(ns) == 0 {
		return []Issue{warningIssue("notify", "no notifiers configured; the outcome is only logged")}
	}
	for i, n := range ns {
		required, ok := notifyKinds[n.Kind]
		if !ok {
			issues = append(issues, errorIssue(fmt.Sprintf("notify[%d].kind", i), "unknown notifier kind %q", n.Kind))
			continue
		}
		for _, key := range required {
			if key == "recipients" && n.Options.Any("recipients_file") != nil {
				continue
			}
			path := fmt.Sprintf("notify[%d].options.%s", i, key)
			switch {
			case n.Options.Any(key) == nil:
				issues = append(issues, errorIssue(path, "%s notifier requires %s", n.Kind, key))
			case blankOption(n.Options, key):
				// Usually an unset ${VAR}. The run still loads; this
				// notification reports a failure instead of being sent.
				issues = append(issues, warningIssue(path,
					"%s is empty; the %s notification will fail", key, n.Kind))
			}
		}
	}
	return issues
}

// blankOption reports whether key holds an empty string or list.
func blankOption(o Options, key string) bool {
	switch v := o.Any(key).(type) {
	case string:
		return blank(v)
	case []any:
		return len(o.StringSlice(key)) == 0
	}
	return false
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue
	if r.BatchSize < 0 {
		issues = append(issues, errorIssue("runtime.batch_size", "batch_size must not be negative"))
	}
	if r.TimeoutSeconds < 0 {
		issues = append(issues, errorIssue("runtime.timeout_seconds", "timeout_seconds must not be negative"))
	}
	return issues
}

func validateLog(l Log) []Issue {
	var issues []Issue
	switch l.Level {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, errorIssue("log.level", "unknown log level %q", l.Level))
	}
	switch l.Format {
	case "", "json", "console":
	default:
		issues = append(issues, errorIssue("log.format", "unknown log format %q; want json or console", l.Format))
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "", "none":
		return nil
	case "prompush":
		if blank(m.PushgatewayURL) {
			return []Issue{errorIssue("metrics.pushgateway_url", "prompush backend requires pushgateway_url")}
		}
	case "datadog":
		if blank(m.DatadogAddr) {
			return []Issue{errorIssue("metrics.datadog_addr", "datadog backend requires datadog_addr")}
		}
	default:
		return []Issue{errorIssue("metrics.backend", "unknown metrics backend %q", m.Backend)}
	}
	return nil
}
