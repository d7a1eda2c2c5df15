package render

import (
	"strings"

	"github.com/tOgg1/explode/internal/archive"
	"github.com/tOgg1/explode/internal/markup"
)

// FormatReactions aggregates reaction records into a display block. An empty
// list yields an empty string. Reactions stack in input order.
func FormatReactions(reactions []archive.Reaction, resolve markup.UserResolver) string {
	if len(reactions) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<div class="log-reactions">`)
	for _, reaction := range reactions {
		b.WriteString(`<div class="log-reaction">`)
		for i, userID := range reaction.UserIDs {
			if i > 0 {
				b.WriteString(", ")
			}
			name, ok := resolve(userID)
			if !ok {
				name = markup.UnknownUser
			}
			b.WriteString(`<span class="referenced-user">` + name + `</span>`)
		}
		b.WriteString(` reacted with <span class="log-reaction-type">` + reaction.EmojiName + `</span></div>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}
