package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DayFile is one per-conversation, per-calendar-day record file.
type DayFile struct {
	Path string
	// Date is the calendar day parsed from the file name.
	Date time.Time
}

// knownRecordKeys lists every field this pipeline understands or knowingly
// ignores. Records carrying other keys are rendered anyway, with a schema
// warning.
var knownRecordKeys = map[string]struct{}{
	"attachments":         {},
	"bot_id":              {},
	"bot_link":            {},
	"channel":             {},
	"client_msg_id":       {},
	"comment":             {},
	"display_as_bot":      {},
	"edited":              {},
	"file":                {},
	"file_comment":        {},
	"icons":               {},
	"inviter":             {},
	"is_auto_split":       {},
	"is_intro":            {},
	"is_multiteam":        {},
	"is_thread_broadcast": {},
	"item_type":           {},
	"members":             {},
	"mrkdwn":              {},
	"name":                {},
	"new_broadcast":       {},
	"no_notifications":    {},
	"old_name":            {},
	"parent_user_id":      {},
	"permalink":           {},
	"plain_text":          {},
	"purpose":             {},
	"reactions":           {},
	"replies":             {},
	"reply_count":         {},
	"room":                {},
	"root":                {},
	"slog_is_mpdm":        {},
	"slog_is_self_dm":     {},
	"slog_is_shared":      {},
	"slog_is_slackbot_dm": {},
	"subtype":             {},
	"text":                {},
	"thread_ts":           {},
	"timestamp":           {},
	"topic":               {},
	"ts":                  {},
	"type":                {},
	"unread_count":        {},
	"upload":              {},
	"upload_reply_to":     {},
	"user":                {},
	"username":            {},
}

// SchemaWarning flags a record carrying fields outside the recognized
// schema. The record is still rendered.
type SchemaWarning struct {
	Timestamp string
	Keys      []string
}

// ListDayFiles enumerates a conversation's day files in date order.
func ListDayFiles(sourceDir, conversationDir string) ([]DayFile, error) {
	dir := filepath.Join(sourceDir, conversationDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list day files for %s: %w", conversationDir, err)
	}

	files := make([]DayFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != ".json" {
			continue
		}
		date, err := time.Parse("2006-01-02", strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		files = append(files, DayFile{
			Path: filepath.Join(dir, name),
			Date: date,
		})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Date.Before(files[j].Date)
	})
	return files, nil
}

// LoadDayFile reads a day file's record array. Schema warnings are reported
// alongside the records; they do not prevent rendering.
func (d DayFile) Load() ([]*MessageRecord, []SchemaWarning, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return nil, nil, err
	}

	var rawRecords []json.RawMessage
	if err := json.Unmarshal(data, &rawRecords); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", filepath.Base(d.Path), err)
	}

	records := make([]*MessageRecord, 0, len(rawRecords))
	var warnings []SchemaWarning
	for i, raw := range rawRecords {
		var record MessageRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, nil, fmt.Errorf("%s: record %d: %w", filepath.Base(d.Path), i, err)
		}
		if record.Timestamp == "" {
			return nil, nil, fmt.Errorf("%s: record %d: missing ts", filepath.Base(d.Path), i)
		}
		if keys := unknownKeys(raw); len(keys) > 0 {
			warnings = append(warnings, SchemaWarning{Timestamp: record.Timestamp, Keys: keys})
		}
		records = append(records, &record)
	}
	return records, warnings, nil
}

func unknownKeys(raw json.RawMessage) []string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	var keys []string
	for key := range fields {
		if _, ok := knownRecordKeys[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
