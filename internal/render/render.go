// Package render turns reconciled message records into HTML fragments.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tOgg1/explode/internal/archive"
	"github.com/tOgg1/explode/internal/markup"
)

// UnknownBot is the author fallback for bot messages without a resolvable
// author.
const UnknownBot = "UNKNOWN BOT"

const clockFormat = "03:04 PM"

// passThroughSubtypes render identically to an untyped record: author,
// timestamp, transformed text. No subtype-specific fields are consulted.
var passThroughSubtypes = map[string]struct{}{
	"channel_join":      {},
	"channel_leave":     {},
	"channel_name":      {},
	"channel_topic":     {},
	"channel_archive":   {},
	"channel_purpose":   {},
	"bot_add":           {},
	"bot_remove":        {},
	"file_mention":      {},
	"slackbot_response": {},
	"reply_broadcast":   {},
	"thread_broadcast":  {},
	"me_message":        {},
	"sh_room_created":   {},
	"group_join":        {},
	"group_leave":       {},
	"group_purpose":     {},
	"group_archive":     {},
	"group_topic":       {},
	"group_name":        {},
	"file_share":        {},
	"file_comment":      {},
}

// Fragment is the rendered form of one record tree.
type Fragment struct {
	HTML string
	// Attachments is flattened: it includes file refs from nested replies.
	Attachments []*archive.FileRef
}

// Renderer renders message records. It is read-only over record data.
type Renderer struct {
	markup  *markup.Transformer
	resolve markup.UserResolver
}

// New creates a Renderer backed by the given user lookup.
func New(resolve markup.UserResolver) *Renderer {
	return &Renderer{
		markup:  markup.New(resolve),
		resolve: resolve,
	}
}

// Render produces the HTML fragment and flattened attachment list for a
// record, recursing into attached replies. Unrecognized kinds and subtypes
// fail with ErrUnknownLogKind / ErrUnknownLogSubtype; both are recoverable at
// record granularity.
func (r *Renderer) Render(record *archive.MessageRecord) (*Fragment, error) {
	if record.Kind != archive.KindMessage {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLogKind, record.Kind)
	}

	author := r.authorName(record)
	text := r.markup.Transform(record.RawText())

	var pinnedBlocks, botBlocks string
	switch {
	case record.Subtype == "":
		// untyped default
	case isPassThrough(record.Subtype):
		// rendered identically to the untyped default
	case record.Subtype == "bot_message":
		author, text, botBlocks = r.renderBotMessage(record, author, text)
	case record.Subtype == "pinned_item":
		pinnedBlocks = r.renderPinnedItem(record)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLogSubtype, record.Subtype)
	}

	fragment := &Fragment{}
	if record.FileRef != nil {
		fragment.Attachments = append(fragment.Attachments, record.FileRef)
	}

	repliesBlock, err := r.renderReplies(record, fragment)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(`<div class="log">`)
	if record.Orphan && repliesBlock == "" {
		b.WriteString(r.orphanIndicator(record))
	}
	b.WriteString(`<div class="log-main">`)
	b.WriteString(`<strong class="user-name">` + author + `</strong>`)
	b.WriteString(`<small class="log-time">` + record.Time().Format(clockFormat) + `</small>`)
	b.WriteString(`<span class="log-text">` + text + `</span>`)
	b.WriteString(`</div>`)
	b.WriteString(pinnedBlocks)
	b.WriteString(botBlocks)
	b.WriteString(repliesBlock)
	b.WriteString(FormatReactions(record.Reactions, r.resolve))
	b.WriteString(`</div>`)

	fragment.HTML = b.String()
	return fragment, nil
}

func isPassThrough(subtype string) bool {
	_, ok := passThroughSubtypes[subtype]
	return ok
}

// authorName resolves the record author, falling back to the stored
// display-name snapshot, the raw id, and finally the sentinel.
func (r *Renderer) authorName(record *archive.MessageRecord) string {
	if name, ok := r.resolve(record.AuthorID); ok {
		return name
	}
	if record.AuthorName != "" {
		return record.AuthorName
	}
	if record.AuthorID != "" {
		return record.AuthorID
	}
	return markup.UnknownUser
}

// renderBotMessage applies the bot_message variant: sentinel fallback to
// UNKNOWN BOT, the animated-image share heuristics for a single attachment,
// and pretty-printed structured blocks otherwise.
func (r *Renderer) renderBotMessage(record *archive.MessageRecord, author, text string) (string, string, string) {
	if author == markup.UnknownUser {
		author = UnknownBot
	}
	if len(record.BotAttachments) == 0 {
		return author, text, ""
	}

	if len(record.BotAttachments) == 1 {
		attachment := record.BotAttachments[0]
		if strings.Contains(attachment.Text, " /gifs ") {
			return r.renderGifCommand(attachment, author)
		}
		if strings.Contains(attachment.ImageURL, ".gif") && attachment.Text != "" {
			link, caption := firstBracketToken(attachment.Text)
			if caption == "" {
				caption = link
			}
			return author, `<a href="` + attachment.ImageURL + `" target="_blank">` + caption + `</a>`, ""
		}
	}

	var b strings.Builder
	for _, attachment := range record.BotAttachments {
		b.WriteString(`<div class="log-reactions"><pre><code>`)
		b.WriteString(r.markup.Transform(prettyJSON(attachment.Raw)))
		b.WriteString(`</code></pre></div>`)
	}
	return author, text, b.String()
}

// renderGifCommand synthesizes a compact "shared a reaction image" fragment
// from an attachment holding a "<@user>: /gifs <link|caption>" payload.
func (r *Renderer) renderGifCommand(attachment archive.BotAttachment, author string) (string, string, string) {
	userPart, gifText, _ := strings.Cut(attachment.Text, ": /gifs ")
	if id := extractUserID(userPart); id != "" {
		if name, ok := r.resolve(id); ok {
			author = name
		} else {
			author = UnknownBot
		}
	}
	link, caption := firstBracketToken(gifText)
	if caption == "" {
		caption = link
	}
	text := `/gifs <a href="` + attachment.ImageURL + `" target="_blank">` + caption + `</a>`
	return author, text, ""
}

// renderPinnedItem renders each attached reference as a quoted block
// crediting its original author.
func (r *Renderer) renderPinnedItem(record *archive.MessageRecord) string {
	var b strings.Builder
	for _, attachment := range record.BotAttachments {
		author, ok := r.resolve(attachment.AuthorID)
		if !ok {
			author = attachment.AuthorSubname
		}
		if author == "" {
			author = markup.UnknownUser
		}
		b.WriteString(`<div class="log-reactions">`)
		b.WriteString(`<span class="referenced-user">` + author + ` </span>`)
		b.WriteString(r.markup.TransformQuote(attachment.Text))
		b.WriteString(`</div>`)
	}
	return b.String()
}

// renderReplies renders the attached replies of a thread root, in declared
// order, folding their attachments into the parent fragment.
func (r *Renderer) renderReplies(record *archive.MessageRecord, fragment *Fragment) (string, error) {
	if !hasResolvedReplies(record) {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(`<div class="log-reactions">`)
	for _, entry := range record.DeclaredReplies {
		if entry.Record == nil {
			continue
		}
		child, err := r.Render(entry.Record)
		if err != nil {
			return "", err
		}
		fragment.Attachments = append(fragment.Attachments, child.Attachments...)
		b.WriteString(`<div class="log-reply">` + child.HTML + `</div>`)
	}
	b.WriteString(`</div>`)
	return b.String(), nil
}

func hasResolvedReplies(record *archive.MessageRecord) bool {
	for _, entry := range record.DeclaredReplies {
		if entry.Record != nil {
			return true
		}
	}
	return false
}

// orphanIndicator renders the "replying to" line for a reply whose thread
// root could not be resolved in this day's set.
func (r *Renderer) orphanIndicator(record *archive.MessageRecord) string {
	parent, ok := r.resolve(record.ParentAuthorID)
	if !ok {
		parent = markup.UnknownUser
	}
	when := archive.TimestampTime(record.ThreadRootTimestamp)
	return `<div class="log-reactions">Replying to <span class="referenced-user">` + parent +
		`</span> from <span class="log-time">` + FormatDayLabel(when) + " " + when.Format(clockFormat) + `</span></div>`
}

// extractUserID pulls the user id out of an embedded "<@id|name>" token.
func extractUserID(text string) string {
	_, after, found := strings.Cut(text, "<@")
	if !found {
		return ""
	}
	token, _, found := strings.Cut(after, ">")
	if !found {
		return ""
	}
	id, _, _ := strings.Cut(token, "|")
	return id
}

// firstBracketToken splits the first "<target|caption>" token in text.
func firstBracketToken(text string) (string, string) {
	_, after, found := strings.Cut(text, "<")
	if !found {
		return "", ""
	}
	token, _, found := strings.Cut(after, ">")
	if !found {
		return "", ""
	}
	link, caption, _ := strings.Cut(token, "|")
	return link, caption
}

func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
