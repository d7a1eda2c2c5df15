// Package thread reconstructs parent/reply thread relationships from one
// day's flat record list.
package thread

import (
	"github.com/tOgg1/explode/internal/archive"
)

// Reconcile links each reply record to its thread root within dayRecords and
// returns the top-level record sequence.
//
// A reply is consumed into its parent's render (removed from the top level)
// only when the parent record exists in the same day set and its declared
// reply list names the reply's timestamp. Anything else is flagged as an
// orphan and stays top-level; that includes replies whose thread root lives
// in another day's file.
//
// A record may be both a reply and a thread root (a broadcast copy): both
// properties are handled independently, so such a record attaches to its
// parent and still remains top-level for its own replies.
func Reconcile(dayRecords []*archive.MessageRecord) []*archive.MessageRecord {
	// Timestamps are unique within a day, so a single index resolves every
	// thread-root reference.
	index := make(map[string]*archive.MessageRecord, len(dayRecords))
	for _, record := range dayRecords {
		index[record.Timestamp] = record
	}

	topLevel := make([]*archive.MessageRecord, 0, len(dayRecords))
	for _, record := range dayRecords {
		if !record.IsReply() {
			topLevel = append(topLevel, record)
			continue
		}

		entry := declaredEntry(index[record.ThreadRootTimestamp], record.Timestamp)
		if entry == nil {
			record.Orphan = true
			topLevel = append(topLevel, record)
			continue
		}
		if entry.Record == nil {
			entry.Record = record
		}
		if record.IsThreadRoot() {
			topLevel = append(topLevel, record)
		}
	}
	return topLevel
}

// declaredEntry finds the parent's declared-reply entry for a timestamp.
func declaredEntry(parent *archive.MessageRecord, timestamp string) *archive.ReplyRef {
	if parent == nil {
		return nil
	}
	for _, entry := range parent.DeclaredReplies {
		if entry.Timestamp == timestamp {
			return entry
		}
	}
	return nil
}
