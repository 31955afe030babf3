package content

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	userMentionRe    = regexp.MustCompile(`<@!?(\d+)>`)
	roleMentionRe    = regexp.MustCompile(`<@&(\d+)>`)
	channelMentionRe = regexp.MustCompile(`<#(\d+)>`)
	customEmojiRe    = regexp.MustCompile(`<a?(:\w+:)\d+>`)
	linkRe           = regexp.MustCompile(`https?://[^\s<]+`)
)

// SanitizeResult carries the canonical intermediate form of an untrusted
// message body plus the metadata extracted while normalizing it.
type SanitizeResult struct {
	// Sanitized is plain text with all markup stripped and Discord
	// mention/emoji syntax normalized.
	Sanitized string
	// MentionedUserIDs lists the raw user IDs referenced by mentions,
	// in order of appearance.
	MentionedUserIDs []string
}

// Sanitize strips disallowed markup from raw message content and rewrites
// Discord-specific syntax into a displayable form. Untrusted input in, safe
// plain text out; HTML generation happens separately in ToHTML.
func Sanitize(raw string) SanitizeResult {
	var result SanitizeResult

	// Collect mentioned user IDs before rewriting them away.
	for _, m := range userMentionRe.FindAllStringSubmatch(raw, -1) {
		result.MentionedUserIDs = append(result.MentionedUserIDs, m[1])
	}

	// Normalize Discord syntax first so the tokenizer below never mistakes
	// it for markup. Mentions become the hashed alias prefix so real IDs
	// never reach the public forum.
	text := userMentionRe.ReplaceAllStringFunc(raw, func(m string) string {
		id := userMentionRe.FindStringSubmatch(m)[1]
		return "@" + HashUserID(id)[:8]
	})
	text = roleMentionRe.ReplaceAllString(text, "@role")
	text = channelMentionRe.ReplaceAllString(text, "#channel")
	text = customEmojiRe.ReplaceAllString(text, "$1")

	result.Sanitized = strings.TrimSpace(stripMarkup(text))
	return result
}

// stripMarkup removes any HTML tags embedded in the message, keeping only
// text content. Discord messages are not supposed to contain markup, but
// the source is untrusted.
func stripMarkup(raw string) string {
	if !strings.ContainsAny(raw, "<>") {
		return raw
	}

	var b strings.Builder
	tok := html.NewTokenizer(strings.NewReader(raw))
	for {
		switch tok.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(tok.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			// Discord mention syntax (<@123>, <#123>, <:name:123>) is not
			// valid HTML and survives tokenization as text, but anything
			// that parses as a real tag is dropped here.
		}
	}
}

// ToHTML converts sanitized plain text into the final HTML fragment.
// Blank lines separate paragraphs, single newlines become <br>, and bare
// URLs become links.
func ToHTML(sanitized string) string {
	if sanitized == "" {
		return ""
	}

	paragraphs := strings.Split(strings.ReplaceAll(sanitized, "\r\n", "\n"), "\n\n")
	var out []string
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		escaped := html.EscapeString(p)
		escaped = linkRe.ReplaceAllString(escaped, `<a href="$0">$0</a>`)
		escaped = strings.ReplaceAll(escaped, "\n", "<br>")
		out = append(out, "<p>"+escaped+"</p>")
	}
	return strings.Join(out, "\n")
}
