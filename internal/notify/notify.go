// Package notify announces a completed run. Strategies are chosen by
// notify[].kind in the pipeline config and combined with Multi; a failed
// notification never fails the run, the orchestrator only logs it.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"silorecon/internal/config"
	"silorecon/internal/datasource/file"
)

// Outcome describes a successful run.
type Outcome struct {
	Job         string
	RunID       string
	Table       string
	Rows        int64
	MatchRate   float64
	Fingerprint string
	Duration    time.Duration
	ReportURL   string
}

// Notifier delivers an Outcome.
type Notifier interface {
	Notify(ctx context.Context, o Outcome) error
}

// NotifyError reports a failed delivery by one strategy.
type NotifyError struct {
	Strategy string
	Err      error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Strategy, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }

// Multi tries every notifier in order, even after a failure, and joins the
// errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, o Outcome) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type factory func(o config.Options, log *zap.Logger) (Notifier, error)

var strategies = map[string]factory{
	"graph":           newGraph,
	"graph_delegated": newGraphDelegated,
	"smtp":            newSMTP,
	"webhook":         newWebhook,
	"log":             func(_ config.Options, log *zap.Logger) (Notifier, error) { return &Log{log: log}, nil },
}

// Kinds returns the supported strategy names, sorted.
func Kinds() []string {
	out := make([]string, 0, len(strategies))
	for k := range strategies {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New builds one strategy.
func New(n config.Notify, log *zap.Logger) (Notifier, error) {
	f, ok := strategies[n.Kind]
	if !ok {
		return nil, fmt.Errorf("unsupported notify.kind=%s", n.Kind)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return f(n.Options, log.Named(n.Kind))
}

// FromConfig builds every configured strategy. With none configured the
// outcome is logged.
//
// A strategy that cannot be built does not prevent the others: it is kept
// as a stand-in that fails every Notify with its setup error, and the setup
// errors are also returned, joined, so the caller can log them up front.
// The returned Notifier is never nil.
func FromConfig(ns []config.Notify, log *zap.Logger) (Notifier, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(ns) == 0 {
		return &Log{log: log.Named("log")}, nil
	}
	m := make(Multi, 0, len(ns))
	var errs []error
	for i, n := range ns {
		nt, err := New(n, log)
		if err != nil {
			ne := &NotifyError{Strategy: n.Kind, Err: fmt.Errorf("setup: %w", err)}
			errs = append(errs, fmt.Errorf("notify[%d]: %w", i, ne))
			nt = unavailable{err: ne}
		}
		m = append(m, nt)
	}
	if len(m) == 1 {
		return m[0], errors.Join(errs...)
	}
	return m, errors.Join(errs...)
}

// unavailable stands in for a strategy whose config was rejected.
type unavailable struct{ err *NotifyError }

func (u unavailable) Notify(context.Context, Outcome) error { return u.err }

// recipients merges the recipients option with recipients_file.
func recipients(o config.Options) ([]string, error) {
	out := o.StringSlice("recipients")
	if path := o.String("recipients_file", ""); path != "" {
		more, err := file.ReadList(path)
		if err != nil {
			return nil, err
		}
		out = append(out, more...)
	}
	if len(out) == 0 {
		return nil, errors.New("no recipients configured")
	}
	return out, nil
}

func httpClient(o config.Options) *http.Client {
	return &http.Client{Timeout: time.Duration(o.Int("timeout_seconds", 30)) * time.Second}
}

func reportURL(o Outcome, fallback string) string {
	if o.ReportURL != "" {
		return o.ReportURL
	}
	return fallback
}
