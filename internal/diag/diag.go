// Package diag collects per-run pipeline diagnostics: a subtype histogram,
// skipped-record reports and schema warnings, queryable after the run and
// mirrored to the structured log.
package diag

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SkippedRecord identifies a record dropped by the pipeline and why.
type SkippedRecord struct {
	SourceFile string
	Timestamp  string
	Reason     string
}

// Recorder accumulates diagnostics for one export run. Safe for concurrent
// use.
type Recorder struct {
	mu sync.Mutex

	runID    string
	logger   zerolog.Logger
	subtypes map[string]int
	skipped  []SkippedRecord
	warnings int
}

// NewRecorder creates a Recorder tagged with a fresh run id.
func NewRecorder(logger zerolog.Logger) *Recorder {
	runID := uuid.NewString()
	return &Recorder{
		runID:    runID,
		logger:   logger.With().Str("run_id", runID).Logger(),
		subtypes: make(map[string]int),
	}
}

// RunID returns the run identifier.
func (r *Recorder) RunID() string {
	return r.runID
}

// CountSubtype bumps the histogram for a rendered record's subtype. Untyped
// records count under "(untyped)".
func (r *Recorder) CountSubtype(subtype string) {
	if subtype == "" {
		subtype = "(untyped)"
	}
	r.mu.Lock()
	r.subtypes[subtype]++
	r.mu.Unlock()
}

// RecordSkip reports a record skipped with a recoverable failure,
// identifying the source file and timestamp.
func (r *Recorder) RecordSkip(sourceFile, timestamp string, err error) {
	r.mu.Lock()
	r.skipped = append(r.skipped, SkippedRecord{
		SourceFile: sourceFile,
		Timestamp:  timestamp,
		Reason:     err.Error(),
	})
	r.mu.Unlock()

	r.logger.Warn().
		Str("source_file", sourceFile).
		Str("ts", timestamp).
		Err(err).
		Msg("skipping unrecognized record")
}

// RecordSchemaWarning reports a record carrying fields outside the
// recognized schema. The record is rendered anyway.
func (r *Recorder) RecordSchemaWarning(sourceFile, timestamp string, keys []string) {
	r.mu.Lock()
	r.warnings++
	r.mu.Unlock()

	r.logger.Warn().
		Str("source_file", sourceFile).
		Str("ts", timestamp).
		Str("keys", strings.Join(keys, ",")).
		Msg("record carries unrecognized fields")
}

// SubtypeHistogram returns a copy of the per-subtype render counts.
func (r *Recorder) SubtypeHistogram() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.subtypes))
	for subtype, count := range r.subtypes {
		out[subtype] = count
	}
	return out
}

// Skipped returns the skipped-record reports in the order recorded.
func (r *Recorder) Skipped() []SkippedRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SkippedRecord(nil), r.skipped...)
}

// LogSummary emits the run's histogram and counts to the structured log.
func (r *Recorder) LogSummary() {
	r.mu.Lock()
	subtypes := make([]string, 0, len(r.subtypes))
	for subtype := range r.subtypes {
		subtypes = append(subtypes, subtype)
	}
	sort.Strings(subtypes)

	event := r.logger.Info()
	total := 0
	for _, subtype := range subtypes {
		event = event.Int("subtype."+subtype, r.subtypes[subtype])
		total += r.subtypes[subtype]
	}
	skipped := len(r.skipped)
	warnings := r.warnings
	r.mu.Unlock()

	event.
		Int("records_rendered", total).
		Int("records_skipped", skipped).
		Int("schema_warnings", warnings).
		Msg("run summary")
}
