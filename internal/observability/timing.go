// Package observability carries the teacher's HTTP request-logging shape
// over to the batch pipeline: instead of wrapping a request handler, Stage
// wraps one phase of the cook pipeline and logs its outcome the same way.
package observability

import (
	"log/slog"
	"time"
)

// Stage runs fn, logging its name, duration, and any error the same way
// the teacher's logging middleware reports method/path/status/duration
// for one HTTP request.
func Stage(logger *slog.Logger, name string, fn func() error) error {
	start := time.Now()

	err := fn()

	duration := time.Since(start)

	if err != nil {
		logger.Error("pipeline stage failed",
			"stage", name,
			"duration", duration,
			"error", err,
		)

		return err
	}

	logger.Info("pipeline stage",
		"stage", name,
		"duration", duration,
	)

	return nil
}

// Counts logs the per-stage cardinality summary (records in, messages/tools
// deduplicated, requests emitted) at Info level, one line per batch run.
func Counts(logger *slog.Logger, records, messages, tools, requests int) {
	logger.Info("cook summary",
		"records", records,
		"messages", messages,
		"tools", tools,
		"requests", requests,
	)
}
