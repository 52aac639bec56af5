// Package reconcile turns the task and bin-mapping extracts into labeled,
// ordered rows plus the schema the loader creates the destination table
// from.
//
// Reconcile runs, in order: shape validation, date/time parsing, text
// normalization, row filtering, mapping dedup (first bin wins), a left join
// on destination bin, classification, and a stable sort by confirmation date
// and time with nulls last. Unparsable dates and times become nil; only a
// structural problem with an extract is an error.
package reconcile

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"silorecon/internal/extract"
	"silorecon/internal/metrics"
	"silorecon/internal/schema"
	"silorecon/internal/transformer"
	"silorecon/internal/transformer/builtin"
	"silorecon/pkg/records"
)

// TransformError reports a structural failure. No rows are emitted with it.
type TransformError struct {
	Op  string
	Err error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s: %v", e.Op, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// Stats are the counts of one Reconcile call.
type Stats struct {
	Tasks     int
	Mappings  int
	Filtered  int
	Matched   int
	MatchRate float64
}

// Result is the reconciled data set.
type Result struct {
	// Columns are the task columns in source order followed by the expected
	// product and usage label columns.
	Columns []string
	Schema  schema.Table
	Records []records.Record
	Stats   Stats
}

// Reconciler is safe for concurrent use; it holds no per-run state.
type Reconciler struct {
	job string
	cfg Config
	log *zap.Logger
}

// New returns a Reconciler. Empty fields of cfg take their defaults. job
// labels the match-rate metric.
func New(job string, cfg Config, log *zap.Logger) (*Reconciler, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, &TransformError{Op: "config", Err: err}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{job: job, cfg: cfg, log: log.Named("reconcile")}, nil
}

// Config returns the effective configuration.
func (r *Reconciler) Config() Config { return r.cfg }

// Reconcile reconciles snap. The snapshot is not modified.
func (r *Reconciler) Reconcile(snap extract.Snapshot) (Result, error) {
	c := r.cfg

	if err := requireColumns("tasks", snap.Tasks, c.taskColumns()); err != nil {
		return Result{}, err
	}
	if err := requireColumns("mappings", snap.Mappings, c.mappingColumns()); err != nil {
		return Result{}, err
	}

	tasks := cloneRows(snap.Tasks.Rows)
	tasks = transformer.Chain{
		builtin.Coerce{
			Types:      map[string]string{c.DateColumn: "date", c.TimeColumn: "time"},
			Layout:     c.DateLayout,
			TimeLayout: c.TimeLayout,
		},
		builtin.Normalize{Fields: []string{c.ProcessTypeColumn, c.ProductColumn, c.BinColumn}},
		Filter{
			ProcessTypeColumn: c.ProcessTypeColumn,
			ProcessType:       c.ProcessType,
			BinColumn:         c.BinColumn,
			BinPrefixes:       c.BinPrefixes,
			BinExact:          c.BinExact,
			ProductColumn:     c.ProductColumn,
		},
	}.Apply(tasks)

	expected := r.mappingIndex(snap.Mappings.Rows)

	matched := 0
	for _, t := range tasks {
		bin := t[c.BinColumn].(string)
		product := t[c.ProductColumn].(string)
		exp, ok := expected[bin]
		if ok {
			matched++
			t[c.ExpectedProductColumn] = exp
		} else {
			t[c.ExpectedProductColumn] = nil
		}
		if ok && exp == product {
			t[c.UsageLabelColumn] = c.CorrectLabel
		} else {
			t[c.UsageLabelColumn] = c.WrongLabel
		}
	}

	rate := 0.0
	if len(tasks) > 0 {
		rate = float64(matched) / float64(len(tasks))
	}
	r.log.Info("bin match rate",
		zap.Int("filtered", len(tasks)),
		zap.Int("matched", matched),
		zap.Float64("match_rate", rate))
	metrics.RecordMatchRate(r.job, rate)

	sortByConfirmation(tasks, c.DateColumn, c.TimeColumn)

	columns := r.outputColumns(snap.Tasks)
	tbl := schema.Infer(columns, tasks, map[string]schema.Kind{
		c.DateColumn:            schema.Date,
		c.TimeColumn:            schema.Time,
		c.ExpectedProductColumn: schema.Text,
		c.UsageLabelColumn:      schema.Text,
	})

	return Result{
		Columns: columns,
		Schema:  tbl,
		Records: tasks,
		Stats: Stats{
			Tasks:     snap.Tasks.Len(),
			Mappings:  snap.Mappings.Len(),
			Filtered:  len(tasks),
			Matched:   matched,
			MatchRate: rate,
		},
	}, nil
}

// mappingIndex normalizes and dedups the mapping rows and indexes expected
// products by bin.
func (r *Reconciler) mappingIndex(rows []records.Record) map[string]string {
	c := r.cfg
	mappings := transformer.Chain{
		builtin.Normalize{Fields: []string{c.MappingBinColumn, c.MappingProductColumn}},
		builtin.DeDup{Keys: []string{c.MappingBinColumn}, Policy: "keep-first"},
	}.Apply(cloneRows(rows))

	out := make(map[string]string, len(mappings))
	for _, m := range mappings {
		out[m[c.MappingBinColumn].(string)] = m[c.MappingProductColumn].(string)
	}
	return out
}

// outputColumns lists the task columns in source order, or sorted when the
// extract carries no column list, then the two output columns.
func (r *Reconciler) outputColumns(t extract.Table) []string {
	c := r.cfg
	var base []string
	switch {
	case len(t.Columns) > 0:
		base = t.Columns
	case len(t.Rows) > 0:
		seen := map[string]struct{}{}
		for _, row := range t.Rows {
			for k := range row {
				if _, ok := seen[k]; !ok {
					seen[k] = struct{}{}
					base = append(base, k)
				}
			}
		}
		sort.Strings(base)
	default:
		base = c.taskColumns()
	}

	out := make([]string, 0, len(base)+2)
	for _, col := range base {
		if col != c.ExpectedProductColumn && col != c.UsageLabelColumn {
			out = append(out, col)
		}
	}
	return append(out, c.ExpectedProductColumn, c.UsageLabelColumn)
}

// requireColumns checks the extract carries every required column. An
// extract with neither columns nor rows is empty and passes.
func requireColumns(name string, t extract.Table, required []string) error {
	have := map[string]struct{}{}
	switch {
	case len(t.Columns) > 0:
		for _, col := range t.Columns {
			have[col] = struct{}{}
		}
	case len(t.Rows) > 0:
		for col := range t.Rows[0] {
			have[col] = struct{}{}
		}
	default:
		return nil
	}

	var missing []string
	for _, col := range required {
		if _, ok := have[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &TransformError{Op: "validate", Err: fmt.Errorf("%s extract missing required columns %q", name, missing)}
	}
	return nil
}

func cloneRows(in []records.Record) []records.Record {
	out := make([]records.Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
