// Package tag provides standardized tag functions for structured logging.
//
// All tag keys use kebab-case naming convention for consistency.
package tag

import (
	"log/slog"
	"time"
)

// Error creates a tag for error objects.
func Error(err any) slog.Attr {
	return slog.Any("err", err)
}

// RunID creates a tag for export run identifiers.
func RunID(id string) slog.Attr {
	return slog.String("run-id", id)
}

// ExecutionID creates a tag for query execution identifiers.
func ExecutionID(id string) slog.Attr {
	return slog.String("execution-id", id)
}

// Checkpoint creates a tag for the checkpointed execution identifier.
func Checkpoint(id string) slog.Attr {
	return slog.String("checkpoint", id)
}

// Bucket creates a tag for object storage bucket names.
func Bucket(name string) slog.Attr {
	return slog.String("bucket", name)
}

// Key creates a tag for object storage keys.
func Key(key string) slog.Attr {
	return slog.String("key", key)
}

// URI creates a tag for storage locations.
func URI(uri string) slog.Attr {
	return slog.String("uri", uri)
}

// Count creates a tag for item counts.
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

// Attempt creates a tag for attempt numbers.
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// Interval creates a tag for wait intervals.
func Interval(d time.Duration) slog.Attr {
	return slog.Duration("interval", d)
}

// Duration creates a tag for elapsed time.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Region creates a tag for cloud region identifiers.
func Region(region string) slog.Attr {
	return slog.String("region", region)
}

// Schedule creates a tag for cron expressions.
func Schedule(expr string) slog.Attr {
	return slog.String("schedule", expr)
}
