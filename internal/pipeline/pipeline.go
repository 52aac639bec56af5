// Package pipeline runs one reconciliation: extract both tables, reconcile
// them, replace the destination table and announce the result. Stages run
// strictly in order with a single attempt each; the first failing stage ends
// the run and its typed error is returned unchanged.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"silorecon/internal/config"
	"silorecon/internal/extract"
	"silorecon/internal/load"
	"silorecon/internal/metrics"
	"silorecon/internal/notify"
	"silorecon/internal/reconcile"
	"silorecon/internal/storage"
)

// Summary reports a completed run.
type Summary struct {
	RunID       string
	Job         string
	Table       string
	Tasks       int
	Mappings    int
	Filtered    int
	Matched     int
	MatchRate   float64
	Loaded      int64
	Fingerprint string
	Duration    time.Duration
}

// Runner executes runs for one pipeline config.
type Runner struct {
	cfg        config.Pipeline
	log        *zap.Logger
	source     extract.Source
	reconciler *reconcile.Reconciler
	notifier   notify.Notifier
	repo       storage.Repository
	newRunID   func() string
}

// Option customises a Runner.
type Option func(*Runner)

// WithSource replaces the source built from cfg.Source.
func WithSource(s extract.Source) Option { return func(r *Runner) { r.source = s } }

// WithRepository makes the Runner load into repo instead of opening
// cfg.Storage. The caller keeps ownership of repo.
func WithRepository(repo storage.Repository) Option { return func(r *Runner) { r.repo = repo } }

// WithNotifier replaces the notifiers built from cfg.Notify.
func WithNotifier(n notify.Notifier) Option { return func(r *Runner) { r.notifier = n } }

// New wires a Runner. cfg is expected to have passed config.ValidatePipeline.
func New(cfg config.Pipeline, log *zap.Logger, opts ...Option) (*Runner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Runner{cfg: cfg, log: log, newRunID: uuid.NewString}
	for _, o := range opts {
		o(r)
	}

	var err error
	if r.source == nil {
		if r.source, err = extract.New(cfg.Source); err != nil {
			return nil, &extract.ExtractError{Source: cfg.Source.Kind, Err: err}
		}
	}
	if r.reconciler, err = reconcile.New(cfg.Job, ReconcileConfig(cfg.Reconcile), log); err != nil {
		return nil, err
	}
	if r.notifier == nil {
		// A bad notifier config must not block the load; the broken strategy
		// reports again when the run notifies.
		if r.notifier, err = notify.FromConfig(cfg.Notify, log.Named("notify")); err != nil {
			log.Warn("notifier setup failed", zap.Error(err))
		}
	}
	return r, nil
}

// ReconcileConfig maps the reconcile section of the pipeline config.
func ReconcileConfig(c config.Reconcile) reconcile.Config {
	return reconcile.Config{
		ProcessTypeColumn:     c.ProcessTypeColumn,
		ProductColumn:         c.ProductColumn,
		BinColumn:             c.BinColumn,
		DateColumn:            c.DateColumn,
		TimeColumn:            c.TimeColumn,
		MappingBinColumn:      c.MappingBinColumn,
		MappingProductColumn:  c.MappingProductColumn,
		ExpectedProductColumn: c.ExpectedProductColumn,
		UsageLabelColumn:      c.UsageLabelColumn,
		ProcessType:           c.ProcessType,
		BinPrefixes:           c.BinPrefixes,
		BinExact:              c.BinExact,
		DateLayout:            c.DateLayout,
		TimeLayout:            c.TimeLayout,
	}
}

// Destination maps the storage.db section of the pipeline config.
func Destination(db config.DBConfig) load.Destination {
	return load.Destination{
		Database:  db.Database,
		Schema:    db.Schema,
		Warehouse: db.Warehouse,
		Role:      db.Role,
		Table:     db.Table,
	}
}

// Run executes one run. A notification failure is logged, not returned.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if s := r.cfg.Runtime.TimeoutSeconds; s > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s)*time.Second)
		defer cancel()
	}

	start := time.Now()
	sum := Summary{RunID: r.newRunID(), Job: r.cfg.Job}
	log := r.log.With(zap.String("job", sum.Job), zap.String("run_id", sum.RunID))
	log.Info("run started",
		zap.String("source", r.cfg.Source.Kind),
		zap.String("storage", r.cfg.Storage.Kind),
		zap.String("table", Destination(r.cfg.Storage.DB).FQN()))

	snap, err := r.extract(ctx, log)
	if err != nil {
		return sum, r.fail(log, "extract", err)
	}
	sum.Tasks, sum.Mappings = snap.Tasks.Len(), snap.Mappings.Len()

	res, err := r.transform(snap, log)
	if err != nil {
		return sum, r.fail(log, "transform", err)
	}
	sum.Filtered, sum.Matched, sum.MatchRate = res.Stats.Filtered, res.Stats.Matched, res.Stats.MatchRate

	lr, err := r.load(ctx, res, log)
	if err != nil {
		return sum, r.fail(log, "load", err)
	}
	sum.Table, sum.Loaded, sum.Fingerprint = lr.Table, lr.Rows, lr.Fingerprint
	sum.Duration = time.Since(start)

	r.notify(ctx, sum, log)

	log.Info("run completed",
		zap.Int64("rows", sum.Loaded),
		zap.Float64("match_rate", sum.MatchRate),
		zap.Duration("elapsed", sum.Duration.Truncate(time.Millisecond)))
	return sum, nil
}

func (r *Runner) extract(ctx context.Context, log *zap.Logger) (extract.Snapshot, error) {
	t0 := time.Now()
	snap, err := r.source.Extract(ctx)
	if err != nil {
		var xe *extract.ExtractError
		if !errors.As(err, &xe) {
			err = &extract.ExtractError{Source: r.cfg.Source.Kind, Err: err}
		}
	}
	metrics.RecordStep(r.cfg.Job, "extract", err, time.Since(t0))
	if err != nil {
		return extract.Snapshot{}, err
	}
	metrics.RecordRow(r.cfg.Job, "tasks", int64(snap.Tasks.Len()))
	metrics.RecordRow(r.cfg.Job, "mappings", int64(snap.Mappings.Len()))
	log.Info("extract complete",
		zap.Int("tasks", snap.Tasks.Len()),
		zap.Int("mappings", snap.Mappings.Len()),
		zap.Duration("elapsed", time.Since(t0).Truncate(time.Millisecond)))
	return snap, nil
}

func (r *Runner) transform(snap extract.Snapshot, log *zap.Logger) (reconcile.Result, error) {
	t0 := time.Now()
	res, err := r.reconciler.Reconcile(snap)
	metrics.RecordStep(r.cfg.Job, "transform", err, time.Since(t0))
	if err != nil {
		return reconcile.Result{}, err
	}
	metrics.RecordRow(r.cfg.Job, "filtered", int64(res.Stats.Filtered))
	metrics.RecordRow(r.cfg.Job, "matched", int64(res.Stats.Matched))
	log.Info("transform complete",
		zap.Int("filtered", res.Stats.Filtered),
		zap.Int("matched", res.Stats.Matched),
		zap.Float64("match_rate", res.Stats.MatchRate))
	return res, nil
}

func (r *Runner) load(ctx context.Context, res reconcile.Result, log *zap.Logger) (load.Result, error) {
	t0 := time.Now()
	lr, err := r.loadInto(ctx, res, log)
	metrics.RecordStep(r.cfg.Job, "load", err, time.Since(t0))
	if err != nil {
		return load.Result{}, err
	}
	metrics.RecordRow(r.cfg.Job, "loaded", lr.Rows)
	return lr, nil
}

func (r *Runner) loadInto(ctx context.Context, res reconcile.Result, log *zap.Logger) (load.Result, error) {
	dest := Destination(r.cfg.Storage.DB)
	repo := r.repo
	if repo == nil {
		var err error
		repo, err = storage.New(ctx, storage.Config{Kind: r.cfg.Storage.Kind, DSN: r.cfg.Storage.DB.DSN})
		if err != nil {
			return load.Result{}, &load.LoadError{Op: "connect", Table: dest.FQN(), Err: err}
		}
		defer repo.Close()
	}
	l := &load.Loader{
		Repo:        repo,
		Kind:        r.cfg.Storage.Kind,
		Destination: dest,
		BatchSize:   r.cfg.Runtime.BatchSize,
		Job:         r.cfg.Job,
		Log:         log.Named("load"),
	}
	return l.Load(ctx, res.Schema, res.Records)
}

func (r *Runner) notify(ctx context.Context, sum Summary, log *zap.Logger) {
	t0 := time.Now()
	err := r.notifier.Notify(ctx, notify.Outcome{
		Job:         sum.Job,
		RunID:       sum.RunID,
		Table:       sum.Table,
		Rows:        sum.Loaded,
		MatchRate:   sum.MatchRate,
		Fingerprint: sum.Fingerprint,
		Duration:    sum.Duration,
	})
	metrics.RecordStep(r.cfg.Job, "notify", err, time.Since(t0))
	if err != nil {
		log.Warn("notification failed", zap.Error(err))
	}
}

func (r *Runner) fail(log *zap.Logger, stage string, err error) error {
	log.Error("run failed", zap.String("stage", stage), zap.Error(err))
	return err
}
