package notify

import (
	"context"

	"go.uber.org/zap"
)

// Log writes the outcome as a structured log line.
type Log struct{ log *zap.Logger }

// NewLog returns a Log notifier writing to log.
func NewLog(log *zap.Logger) *Log { return &Log{log: log} }

// Notify implements Notifier.
func (l *Log) Notify(_ context.Context, o Outcome) error {
	l.log.Info("run completed",
		zap.String("job", o.Job),
		zap.String("run_id", o.RunID),
		zap.String("table", o.Table),
		zap.Int64("rows", o.Rows),
		zap.Float64("match_rate", o.MatchRate),
		zap.String("fingerprint", o.Fingerprint),
		zap.Duration("duration", o.Duration),
		zap.String("report_url", o.ReportURL),
	)
	return nil
}
