// Package historylog writes batches of query execution records as
// gzip-compressed newline-delimited JSON objects, partitioned by the hour in
// which the first record of the batch was submitted.
package historylog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"path"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/dagucloud/athenahistory/internal/execution"
)

// TimeLayout is the UTC form written for submission and completion times.
const TimeLayout = "2006-01-02 15:04:05.000"

// Field names in the written documents.
const (
	FieldRegion         = "region"
	FieldStatus         = "Status"
	FieldSubmissionTime = "SubmissionDateTime"
	FieldCompletionTime = "CompletionDateTime"
)

const (
	objectSuffix    = ".json.gz"
	partitionLayout = "2006/01/02/15"
)

// FormatTime renders t in TimeLayout, in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Key returns the object key for a batch whose first record is first:
// <prefix>/<region>/YYYY/MM/DD/HH/<id>.json.gz.
func Key(prefix, region string, first execution.Record) string {
	return path.Join(prefix, region, first.SubmittedAt.UTC().Format(partitionLayout), first.ID+objectSuffix)
}

// Serialize encodes records, in order, one JSON document per line, and
// gzips the result. Each document gets a region field and normalized
// timestamps; everything else is copied as is.
func Serialize(records []execution.Record, region string) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)

	enc := json.NewEncoder(zw)
	enc.SetEscapeHTML(false)

	for _, rec := range records {
		if err := enc.Encode(document(rec, region)); err != nil {
			return nil, fmt.Errorf("failed to encode query execution %s: %w", rec.ID, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress history log: %w", err)
	}
	return buf.Bytes(), nil
}

// document returns the line written for rec without modifying rec.Document.
func document(rec execution.Record, region string) map[string]any {
	doc := make(map[string]any, len(rec.Document)+1)
	maps.Copy(doc, rec.Document)
	doc[FieldRegion] = region

	status := map[string]any{}
	if orig, ok := rec.Document[FieldStatus].(map[string]any); ok {
		maps.Copy(status, orig)
	}
	status[FieldSubmissionTime] = FormatTime(rec.SubmittedAt)
	if rec.CompletedAt != nil {
		status[FieldCompletionTime] = FormatTime(*rec.CompletedAt)
	} else {
		status[FieldCompletionTime] = nil
	}
	doc[FieldStatus] = status

	return doc
}
