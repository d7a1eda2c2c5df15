// Package archive models a workspace chat export on disk: per-day message
// record files plus the workspace identity tables used to resolve user ids.
package archive

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"time"
)

// KindMessage is the only record kind this pipeline renders.
const KindMessage = "message"

// MessageRecord is one raw chat event from a day file.
type MessageRecord struct {
	Kind     string `json:"type"`
	Subtype  string `json:"subtype,omitempty"`
	AuthorID string `json:"user,omitempty"`
	// AuthorName is a display-name snapshot stored on the record itself,
	// used when AuthorID no longer resolves.
	AuthorName string `json:"username,omitempty"`
	Timestamp  string `json:"ts"`
	Text       string `json:"text,omitempty"`
	PlainText  string `json:"plain_text,omitempty"`

	// ThreadRootTimestamp is set on replies and on thread-broadcast copies.
	ThreadRootTimestamp string `json:"thread_ts,omitempty"`
	ParentAuthorID      string `json:"parent_user_id,omitempty"`

	// DeclaredReplies is present only on thread-root records and fixes the
	// order replies render in.
	DeclaredReplies []*ReplyRef `json:"replies,omitempty"`

	Reactions []Reaction `json:"reactions,omitempty"`

	// FileRef is the single attachment descriptor, if any.
	FileRef *FileRef `json:"file,omitempty"`

	// BotAttachments holds secondary-service attachment blobs.
	BotAttachments []BotAttachment `json:"attachments,omitempty"`

	// Orphan is derived during reconciliation: a reply whose thread root
	// is missing or does not acknowledge it.
	Orphan bool `json:"-"`
}

// ReplyRef is one entry of a thread root's declared reply list.
type ReplyRef struct {
	AuthorID  string `json:"user,omitempty"`
	Timestamp string `json:"ts"`

	// Record is the matched reply record, attached once during
	// reconciliation. Nil when the reply was not found in the day set.
	Record *MessageRecord `json:"-"`
}

// Reaction is one emoji reaction with the users who added it.
type Reaction struct {
	EmojiName string   `json:"name"`
	UserIDs   []string `json:"users"`
	Count     int      `json:"count,omitempty"`
}

// FileRef describes an attachment associated with a record.
type FileRef struct {
	ID            string `json:"id"`
	FileExtension string `json:"filetype"`
	// PermalinkText is the literal substring appearing in rendered text,
	// replaced with the local cache path.
	PermalinkText string `json:"permalink"`
	RemoteURL     string `json:"url_private"`
}

// LocalName returns the cache file name for the attachment.
func (f *FileRef) LocalName() string {
	return f.ID + "." + f.FileExtension
}

// BotAttachment is a secondary-service attachment blob. The decoded fields
// drive the animated-image share heuristics; Raw preserves the full blob for
// pretty-printed fallback rendering.
type BotAttachment struct {
	Text          string `json:"text,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	AuthorID      string `json:"author_id,omitempty"`
	AuthorSubname string `json:"author_subname,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the raw blob alongside the decoded fields.
func (b *BotAttachment) UnmarshalJSON(data []byte) error {
	type plain BotAttachment
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = BotAttachment(p)
	b.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// RawText returns the record's markup text, falling back to the plain-text
// snapshot some subtypes carry instead.
func (r *MessageRecord) RawText() string {
	if r.Text != "" {
		return r.Text
	}
	return r.PlainText
}

// IsThreadRoot reports whether the record declares replies.
func (r *MessageRecord) IsThreadRoot() bool {
	return len(r.DeclaredReplies) > 0
}

// IsReply reports whether the record references a thread root.
func (r *MessageRecord) IsReply() bool {
	return r.ThreadRootTimestamp != ""
}

// Time converts the record's fractional-seconds timestamp to a time.Time.
// A malformed timestamp yields the zero time.
func (r *MessageRecord) Time() time.Time {
	return TimestampTime(r.Timestamp)
}

// TimestampTime parses a fractional-seconds timestamp string.
func TimestampTime(ts string) time.Time {
	seconds, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Time{}
	}
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}

// TimestampLess orders two fractional-seconds timestamps.
func TimestampLess(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return a < b
	}
	return fa < fb
}

// SortRecords orders records chronologically in place, stable on equal
// timestamps.
func SortRecords(records []*MessageRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return TimestampLess(records[i].Timestamp, records[j].Timestamp)
	})
}
