// This file implements a generic, batched loader that slices rows into
// batches and invokes a provided bulk-insert function (CopyFn) per batch.
//
// Backends implement CopyFn with their most efficient primitive (Postgres
// COPY, multi-row INSERT elsewhere).
//
// Logging: on every successful flush, a concise progress line is emitted with
// running totals and instantaneous rows/sec since the previous flush.

package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CopyFn abstracts a backend's bulk insert capability. Implementations insert
// the provided rows (aligned to 'columns' order) and return the number of
// rows reported as inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches groups rows into batches of size batchSize (0 or negative means
// one batch holding every row) and calls copyFn for each batch in order. It
// returns the total number of rows reported by copyFn and the first error
// encountered; no later batch is attempted after an error.
//
// Cancellation is checked between batches: returns (total, ctx.Err()).
func LoadBatches(
	ctx context.Context,
	columns []string,
	rows [][]any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}
	if batchSize <= 0 || batchSize > len(rows) {
		batchSize = len(rows)
	}

	log := zap.L().Named("loader")

	var (
		total     int64
		batches   int64
		start     = time.Now()
		lastFlush = start
	)

	for lo := 0; lo < len(rows); lo += batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		hi := min(lo+batchSize, len(rows))

		n, err := copyFn(ctx, columns, rows[lo:hi])
		total += n
		if err != nil {
			log.Error("copy failed",
				zap.Int64("batch", batches+1),
				zap.Int64("after", n),
				zap.Int64("total", total),
				zap.Error(err))
			return total, err
		}

		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlush)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(n) / sinceLast.Seconds()
		}
		log.Debug("batch flushed",
			zap.Int64("batch", batches),
			zap.Float64("rps", rps),
			zap.Int64("inserted", n),
			zap.Int64("total_inserted", total),
			zap.Duration("elapsed", now.Sub(start).Truncate(time.Millisecond)),
			zap.Duration("since_last", sinceLast.Truncate(time.Millisecond)))
		lastFlush = now
	}

	log.Debug("input drained", zap.Int64("batches", batches), zap.Int64("total_inserted", total))
	return total, nil
}
