// Package markup converts the compact inline markup embedded in message text
// into safe HTML fragments.
//
// The grammar is a fixed, small set of bracket-delimited token forms with
// overlapping syntaxes, so precedence matters. Precedence is expressed as an
// explicit ordered rule list: each rule consumes its matches before the next
// rule runs, and a substituted span is never rescanned by later rules.
package markup

import (
	"regexp"
	"strings"
)

// UserResolver maps a user id to a display name. It must degrade, not fail.
type UserResolver func(id string) (string, bool)

// UnknownUser is the sentinel display name for unresolvable user ids.
const UnknownUser = "UNKNOWN USER"

// Transformer renders message markup to HTML fragments.
type Transformer struct {
	resolve UserResolver
}

// New creates a Transformer backed by the given user lookup.
func New(resolve UserResolver) *Transformer {
	return &Transformer{resolve: resolve}
}

// rule is one token form. Pattern groups are passed to render; the returned
// HTML replaces the match and is excluded from later rules.
type rule struct {
	name    string
	pattern *regexp.Regexp
	render  func(t *Transformer, groups []string) string
}

// tokenRules is the precedence order for bracket-delimited tokens. Hyperlinks
// come first because the defensive escape would otherwise swallow them.
var tokenRules = []rule{
	{
		name:    "link",
		pattern: regexp.MustCompile(`<((?:http|tel|mailto)[^>]*)>`),
		render:  (*Transformer).renderLink,
	},
	{
		name:    "escape",
		pattern: regexp.MustCompile(`<([^@#!>][^>]*)>`),
		render:  (*Transformer).renderEscaped,
	},
	{
		name:    "user",
		pattern: regexp.MustCompile(`<@([^>|]+)(?:\|[^>]*)?>`),
		render:  (*Transformer).renderUser,
	},
	{
		name:    "mention",
		pattern: regexp.MustCompile(`<!([^>]+)>`),
		render:  (*Transformer).renderMention,
	},
	{
		name:    "channel",
		pattern: regexp.MustCompile(`<#([^>]+)>`),
		render:  (*Transformer).renderChannel,
	},
}

// quoteRules is the restricted set applied to quoted attachment text, where
// mention and channel spans are not expanded.
var quoteRules = tokenRules[:2]

var (
	edgeNewlines = regexp.MustCompile(`^\n+|\n+$`)
	newlineRuns  = regexp.MustCompile(`\n{3,}`)
	fencedCode   = regexp.MustCompile("```(.+?)```")
)

// Transform renders text to an HTML fragment safe to embed verbatim.
func (t *Transformer) Transform(text string) string {
	out := t.applyRules(text, tokenRules)
	out = normalizeWhitespace(out)
	// Fenced code runs last: after newline conversion a block is a single
	// line, so non-greedy matching handles multiple independent blocks.
	out = replaceAllSubmatch(fencedCode, out, func(groups []string) string {
		return `<pre class="multiline-code"><code>` + groups[1] + `</code></pre>`
	})
	return out
}

// TransformQuote renders quoted attachment text with hyperlinks and
// defensive escaping only.
func (t *Transformer) TransformQuote(text string) string {
	return t.applyRules(text, quoteRules)
}

// segment is a span of the text being transformed. Once a rule substitutes a
// span, it is done and invisible to later rules.
type segment struct {
	text string
	done bool
}

func (t *Transformer) applyRules(text string, rules []rule) string {
	segments := []segment{{text: text}}
	for _, r := range rules {
		next := make([]segment, 0, len(segments))
		for _, seg := range segments {
			if seg.done {
				next = append(next, seg)
				continue
			}
			next = append(next, t.applyRule(r, seg.text)...)
		}
		segments = next
	}

	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(seg.text)
	}
	return b.String()
}

func (t *Transformer) applyRule(r rule, text string) []segment {
	matches := r.pattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []segment{{text: text}}
	}

	segments := make([]segment, 0, len(matches)*2+1)
	last := 0
	for _, match := range matches {
		if match[0] > last {
			segments = append(segments, segment{text: text[last:match[0]]})
		}
		groups := make([]string, 0, len(match)/2)
		for i := 0; i < len(match); i += 2 {
			if match[i] < 0 {
				groups = append(groups, "")
				continue
			}
			groups = append(groups, text[match[i]:match[i+1]])
		}
		segments = append(segments, segment{text: r.render(t, groups), done: true})
		last = match[1]
	}
	if last < len(text) {
		segments = append(segments, segment{text: text[last:]})
	}
	return segments
}

func (t *Transformer) renderLink(groups []string) string {
	target, caption := splitCaption(groups[1])
	if caption == "" {
		caption = target
	}
	if strings.HasPrefix(target, "http") {
		return `<a href="` + target + `" target="_blank">` + caption + `</a>`
	}
	return `<a href="` + target + `">` + caption + `</a>`
}

func (t *Transformer) renderEscaped(groups []string) string {
	return "&lt;" + groups[1] + "&gt;"
}

func (t *Transformer) renderUser(groups []string) string {
	name, ok := t.resolve(groups[1])
	if !ok {
		name = UnknownUser
	}
	return `<span class="referenced-user">@` + name + `</span>`
}

func (t *Transformer) renderMention(groups []string) string {
	id, caption := splitCaption(groups[1])
	if caption == "" {
		caption = "@" + id
	}
	return `<span class="mention">` + caption + `</span>`
}

func (t *Transformer) renderChannel(groups []string) string {
	id, caption := splitCaption(groups[1])
	if caption == "" {
		caption = id
	}
	return `<span class="channel-mention">#` + caption + `</span>`
}

func splitCaption(token string) (string, string) {
	target, caption, _ := strings.Cut(token, "|")
	return target, caption
}

func normalizeWhitespace(text string) string {
	text = edgeNewlines.ReplaceAllString(text, "")
	text = newlineRuns.ReplaceAllString(text, "<br><br>")
	return strings.ReplaceAll(text, "\n", "<br>")
}

func replaceAllSubmatch(pattern *regexp.Regexp, text string, render func(groups []string) string) string {
	return pattern.ReplaceAllStringFunc(text, func(match string) string {
		return render(pattern.FindStringSubmatch(match))
	})
}
