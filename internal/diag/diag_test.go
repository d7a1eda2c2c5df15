package diag

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder(t *testing.T) (*Recorder, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewRecorder(zerolog.New(&buf)), &buf
}

func TestRecorderRunIDsAreUnique(t *testing.T) {
	a, _ := newTestRecorder(t)
	b, _ := newTestRecorder(t)

	assert.NotEmpty(t, a.RunID())
	assert.NotEqual(t, a.RunID(), b.RunID())
}

func TestSubtypeHistogram(t *testing.T) {
	r, _ := newTestRecorder(t)

	r.CountSubtype("")
	r.CountSubtype("")
	r.CountSubtype("bot_message")
	r.CountSubtype("channel_join")

	histogram := r.SubtypeHistogram()
	assert.Equal(t, 2, histogram["(untyped)"])
	assert.Equal(t, 1, histogram["bot_message"])
	assert.Equal(t, 1, histogram["channel_join"])

	// The returned map is a copy.
	histogram["(untyped)"] = 99
	assert.Equal(t, 2, r.SubtypeHistogram()["(untyped)"])
}

func TestRecordSkip(t *testing.T) {
	r, buf := newTestRecorder(t)

	r.RecordSkip("general/2017-08-22.json", "100.000200", errors.New("unknown log subtype: mystery"))

	skipped := r.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, "general/2017-08-22.json", skipped[0].SourceFile)
	assert.Equal(t, "100.000200", skipped[0].Timestamp)
	assert.Equal(t, "unknown log subtype: mystery", skipped[0].Reason)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, r.RunID(), entry["run_id"])
	assert.Equal(t, "100.000200", entry["ts"])
	assert.Equal(t, "skipping unrecognized record", entry["message"])
}

func TestLogSummary(t *testing.T) {
	r, buf := newTestRecorder(t)

	r.CountSubtype("")
	r.CountSubtype("bot_message")
	r.RecordSchemaWarning("general/2017-08-22.json", "100.000100", []string{"new_field"})
	buf.Reset()

	r.LogSummary()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, float64(2), entry["records_rendered"])
	assert.Equal(t, float64(0), entry["records_skipped"])
	assert.Equal(t, float64(1), entry["schema_warnings"])
	assert.Equal(t, float64(1), entry["subtype.(untyped)"])
	assert.Equal(t, float64(1), entry["subtype.bot_message"])
}

func TestRecorderConcurrentUse(t *testing.T) {
	r := NewRecorder(zerolog.New(io.Discard))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.CountSubtype("bot_message")
			r.RecordSkip("f.json", "1.000000", errors.New("nope"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, r.SubtypeHistogram()["bot_message"])
	assert.Len(t, r.Skipped(), 50)
}
