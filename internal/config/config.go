// Package config defines the JSON pipeline file of a reconciliation run and
// loads it once at startup.
//
// Example (trimmed). DSNs are taken literally; keep passwords out of the
// file with SILORECON_SOURCE_SQL_DSN and SILORECON_STORAGE_DB_DSN, usually
// from the .env file. ${VAR} expansion applies to options and CSV headers.
//
//	{
//	  "job": "silo-usage",
//	  "source": {
//	    "kind": "sql",
//	    "sql": { "driver": "hana", "dsn": "hdb://etl_reader@host:30015" }
//	  },
//	  "storage": {
//	    "kind": "snowflake",
//	    "db": { "dsn": "...", "database": "ANALYTICS", "schema": "OPS",
//	            "warehouse": "COMPUTE_WH", "table": "SILO_USAGE" }
//	  },
//	  "notify": [ { "kind": "graph", "options": { "sender": "etl@example.com" } } ]
//	}
package config

import (
	"encoding/json"
	"strings"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run in logs, metrics and notifications.
	Job string `json:"job"`

	Source    Source        `json:"source"`
	Reconcile Reconcile     `json:"reconcile"`
	Storage   Storage       `json:"storage"`
	Notify    []Notify      `json:"notify"`
	Runtime   RuntimeConfig `json:"runtime"`
	Log       Log           `json:"log"`
	Metrics   Metrics       `json:"metrics"`
}

// Source selects where the task and mapping extracts come from.
type Source struct {
	// Kind is "sql" or "csv".
	Kind string    `json:"kind"`
	SQL  SourceSQL `json:"sql"`
	CSV  SourceCSV `json:"csv"`
}

// SourceSQL reads both extracts with database/sql.
type SourceSQL struct {
	// Driver is one of hana, mssql, postgres, mysql, sqlite.
	Driver        string `json:"driver"`
	DSN           string `json:"dsn"`
	TasksQuery    string `json:"tasks_query"`
	MappingsQuery string `json:"mappings_query"`
}

// SourceCSV reads both extracts from local files.
type SourceCSV struct {
	// TasksPath and MappingsPath are local paths or http(s) URLs.
	TasksPath    string `json:"tasks_path"`
	MappingsPath string `json:"mappings_path"`
	Parser       Parser `json:"parser"`

	// Headers are sent when a path is a URL. Values may reference
	// environment variables, e.g. "Bearer ${REPORT_TOKEN}".
	Headers            map[string]string `json:"headers"`
	InsecureSkipVerify bool              `json:"insecure_skip_verify"`
}

// Parser selects how file bytes become records.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options is interpreted by the parser. For CSV:
	//   has_header (bool), comma (string), trim_space (bool),
	//   encoding (string, e.g. "windows-1252"), header_map (object)
	Options Options `json:"options"`
}

// Reconcile overrides column names and rules of the reconciliation step.
// Empty fields keep their defaults.
type Reconcile struct {
	ProcessTypeColumn     string   `json:"process_type_column"`
	ProductColumn         string   `json:"product_column"`
	BinColumn             string   `json:"bin_column"`
	DateColumn            string   `json:"date_column"`
	TimeColumn            string   `json:"time_column"`
	MappingBinColumn      string   `json:"mapping_bin_column"`
	MappingProductColumn  string   `json:"mapping_product_column"`
	ExpectedProductColumn string   `json:"expected_product_column"`
	UsageLabelColumn      string   `json:"usage_label_column"`
	ProcessType           string   `json:"process_type"`
	BinPrefixes           []string `json:"bin_prefixes"`
	BinExact              []string `json:"bin_exact"`
	DateLayout            string   `json:"date_layout"`
	TimeLayout            string   `json:"time_layout"`
}

// Storage selects the sink the reconciled table is written to.
type Storage struct {
	// Kind is one of postgres, mssql, mysql, sqlite, snowflake, memory.
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures the destination.
type DBConfig struct {
	DSN string `json:"dsn"`

	// Database, Schema, Warehouse and Role bind the session before DDL.
	// Warehouse and Role are Snowflake only.
	Database  string `json:"database"`
	Schema    string `json:"schema"`
	Warehouse string `json:"warehouse"`
	Role      string `json:"role"`

	// Table is the destination table, recreated every run.
	Table string `json:"table"`
}

// Notify configures one success notification strategy.
type Notify struct {
	// Kind is one of graph, graph_delegated, smtp, webhook, log.
	Kind    string  `json:"kind"`
	Options Options `json:"options"`
}

// RuntimeConfig controls batching and timeouts.
type RuntimeConfig struct {
	// BatchSize caps rows per insert call; 0 inserts the whole result at once.
	BatchSize int `json:"batch_size"`

	// TimeoutSeconds bounds the whole run; 0 means no limit.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Log configures the process logger.
type Log struct {
	// Level is debug, info, warn or error.
	Level string `json:"level"`
	// Format is "json" or "console".
	Format string `json:"format"`
	// File, when set, receives a copy of every log line.
	File string `json:"file"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "none", "prompush" or "datadog".
	Backend        string   `json:"backend"`
	PushgatewayURL string   `json:"pushgateway_url"`
	DatadogAddr    string   `json:"datadog_addr"`
	Namespace      string   `json:"namespace"`
	Tags           []string `json:"tags"`
}

// Options is a free-form settings bag for parts whose shape varies by kind
// (csv parser, notifier strategies). Getters do minimal coercion and return
// the default when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character parser settings such as
// a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of
// strings. A comma-separated string is split and trimmed, which lets a
// recipient list come from a single environment variable. Returns nil when
// the key is missing.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		case string:
			var out []string
			for _, part := range strings.Split(vv, ",") {
				if p := strings.TrimSpace(part); p != "" {
					out = append(out, p)
				}
			}
			return out
		}
	}
	return nil
}

// Any returns the raw value for key, which may itself be a nested
// map[string]any, []any, or primitive.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null "options"
// object in JSON decodes to a non-nil, empty Options map. This simplifies call
// sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
