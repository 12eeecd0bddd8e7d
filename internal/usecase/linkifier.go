package usecase

import (
	"regexp"
	"strings"
)

// Protected-region markers. Content between a marker pair is left in place
// but exempt from escaping and re-linking; the markers are removed at the
// end, so protected markup survives byte-for-byte. NUL bytes are stripped
// from the input first, so the markers cannot collide with user data.
const (
	protOpen  = "\x00["
	protClose = "]\x00"
)

// Package-level compiled regex patterns for the linkify pipeline
var (
	brTagRegex        = regexp.MustCompile(`(?i)<br\s*/?>`)
	boldRegex         = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	markdownLinkRegex = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	bareURLRegex      = regexp.MustCompile(`https?://[^\s<>"']+`)
)

// Linkify converts raw assistant text (markdown fragments, stray HTML,
// bare URLs, plain text) into safe-to-render HTML. The pipeline:
//
//  1. protect pre-existing <a ...>...</a> tags (scan for "<a" then the next
//     "</a>", not a non-greedy regex, so long hrefs are never truncated)
//  2. normalize <br>/<br/> to <br> and protect them
//  3. convert **bold** to <strong> and protect every <strong> pair
//  4. entity-escape text outside protected regions, without double-escaping
//     entities that are already present
//  5. convert markdown links to anchors, stripping trailing punctuation out
//     of the href but keeping it as literal text after the closing tag
//  6. convert remaining bare URLs to anchors unless they sit inside a
//     protected region
//  7. drop the markers plus any stray marker bytes
//  8. convert newlines to <br> last, after all tag-aware processing
//
// If anything panics, the function degrades to newline conversion only:
// the assistant must always return something renderable.
func Linkify(raw string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = strings.ReplaceAll(strings.ReplaceAll(raw, "\r\n", "\n"), "\n", "<br>")
		}
	}()

	s := strings.ReplaceAll(raw, "\x00", "")

	s = protectAnchors(s)
	s = protectBreaks(s)
	s = mapOutsideProtected(s, func(seg string) string {
		return boldRegex.ReplaceAllString(seg, "<strong>$1</strong>")
	})
	s = protectStrong(s)
	s = escapeOutsideProtected(s)
	s = mapOutsideProtected(s, convertMarkdownLinks)
	s = convertBareURLs(s)

	s = strings.ReplaceAll(s, protOpen, "")
	s = strings.ReplaceAll(s, protClose, "")
	s = strings.ReplaceAll(s, "\x00", "")

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", "<br>")
	return s
}

// protectAnchors wraps every pre-existing anchor tag in protection markers.
// The anchor is located by finding "<a" (followed by whitespace or '>') and
// the next "</a>" after it; link text containing punctuation or long paths
// is therefore never truncated.
func protectAnchors(s string) string {
	var b strings.Builder
	lower := strings.ToLower(s)
	i := 0
	for {
		j := indexAnchorOpen(lower, i)
		if j < 0 {
			b.WriteString(s[i:])
			break
		}
		k := strings.Index(lower[j:], "</a>")
		if k < 0 {
			b.WriteString(s[i:])
			break
		}
		end := j + k + len("</a>")
		b.WriteString(s[i:j])
		b.WriteString(protOpen)
		b.WriteString(s[j:end])
		b.WriteString(protClose)
		i = end
	}
	return b.String()
}

// indexAnchorOpen finds the next "<a" that actually opens an anchor tag.
func indexAnchorOpen(lower string, from int) int {
	for {
		j := strings.Index(lower[from:], "<a")
		if j < 0 {
			return -1
		}
		j += from
		rest := lower[j+2:]
		if rest == "" {
			return -1
		}
		if rest[0] == ' ' || rest[0] == '>' || rest[0] == '\t' || rest[0] == '\n' {
			return j
		}
		from = j + 2
	}
}

// protectBreaks normalizes break tags to <br> and protects them.
func protectBreaks(s string) string {
	return brTagRegex.ReplaceAllString(s, protOpen+"<br>"+protClose)
}

// protectStrong wraps every <strong>...</strong> pair in protection markers,
// whether markdown-derived or literal in the input.
func protectStrong(s string) string {
	var b strings.Builder
	lower := strings.ToLower(s)
	i := 0
	for {
		j := strings.Index(lower[i:], "<strong>")
		if j < 0 {
			b.WriteString(s[i:])
			break
		}
		j += i
		k := strings.Index(lower[j:], "</strong>")
		if k < 0 {
			b.WriteString(s[i:])
			break
		}
		end := j + k + len("</strong>")
		b.WriteString(s[i:j])
		b.WriteString(protOpen)
		b.WriteString(s[j:end])
		b.WriteString(protClose)
		i = end
	}
	return b.String()
}

// mapOutsideProtected applies fn to every maximal run of text that lies
// outside protected regions, leaving protected content and the markers
// themselves untouched.
func mapOutsideProtected(s string, fn func(string) string) string {
	var b strings.Builder
	var run strings.Builder
	depth := 0
	flush := func() {
		if run.Len() > 0 {
			b.WriteString(fn(run.String()))
			run.Reset()
		}
	}
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], protOpen) {
			if depth == 0 {
				flush()
			}
			depth++
			b.WriteString(protOpen)
			i += len(protOpen)
			continue
		}
		if strings.HasPrefix(s[i:], protClose) {
			if depth > 0 {
				depth--
			}
			b.WriteString(protClose)
			i += len(protClose)
			continue
		}
		if depth > 0 {
			b.WriteByte(s[i])
		} else {
			run.WriteByte(s[i])
		}
		i++
	}
	flush()
	return b.String()
}

// escapeOutsideProtected entity-escapes &<>"' in plain-text segments only.
// Content inside protected regions is copied through untouched, and
// already-escaped entities outside them are left alone so the function is
// idempotent.
func escapeOutsideProtected(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/8)
	depth := 0
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], protOpen) {
			depth++
			b.WriteString(protOpen)
			i += len(protOpen)
			continue
		}
		if strings.HasPrefix(s[i:], protClose) {
			if depth > 0 {
				depth--
			}
			b.WriteString(protClose)
			i += len(protClose)
			continue
		}
		c := s[i]
		if depth > 0 {
			b.WriteByte(c)
			i++
			continue
		}
		switch c {
		case '&':
			if startsEntity(s[i:]) {
				b.WriteByte(c)
			} else {
				b.WriteString("&amp;")
			}
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#39;")
		default:
			b.WriteByte(c)
		}
		i++
	}
	return b.String()
}

// startsEntity reports whether s begins with an entity this pipeline emits.
func startsEntity(s string) bool {
	for _, e := range []string{"&amp;", "&lt;", "&gt;", "&quot;", "&#39;"} {
		if strings.HasPrefix(s, e) {
			return true
		}
	}
	return false
}

// convertMarkdownLinks turns [text](url) into protected anchors. Trailing
// punctuation captured inside the url moves outside the closing tag.
func convertMarkdownLinks(s string) string {
	return markdownLinkRegex.ReplaceAllStringFunc(s, func(m string) string {
		sub := markdownLinkRegex.FindStringSubmatch(m)
		text, url := sub[1], sub[2]
		url, trailing := stripTrailingPunctuation(url)
		return protOpen + `<a href="` + url + `" target="_blank">` + text + `</a>` + protClose + trailing
	})
}

// convertBareURLs links up remaining plain URLs, skipping any that lie
// inside a protected region (an unclosed open marker precedes them).
func convertBareURLs(s string) string {
	matches := bareURLRegex.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	prev := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		b.WriteString(s[prev:start])
		url := s[start:end]
		if insideProtected(s, start) {
			b.WriteString(url)
		} else {
			url, trailing := stripTrailingPunctuation(url)
			b.WriteString(protOpen + `<a href="` + url + `" target="_blank">` + url + `</a>` + protClose + trailing)
		}
		prev = end
	}
	b.WriteString(s[prev:])
	return b.String()
}

// insideProtected reports whether position pos falls inside an unclosed
// protected region: an open marker before pos with no close marker between.
func insideProtected(s string, pos int) bool {
	prefix := s[:pos]
	open := strings.LastIndex(prefix, protOpen)
	if open < 0 {
		return false
	}
	closeIdx := strings.LastIndex(prefix, protClose)
	return open > closeIdx
}

// stripTrailingPunctuation removes sentence punctuation accidentally glued
// to the end of a URL. A closing parenthesis is stripped only when the URL
// has no matching opener. Escaped quotes swallowed by the URL pattern are
// peeled off too. Returns the clean URL and the stripped trailing text.
func stripTrailingPunctuation(url string) (string, string) {
	trailing := ""
	for url != "" {
		if strings.HasSuffix(url, "&quot;") {
			trailing = "&quot;" + trailing
			url = url[:len(url)-len("&quot;")]
			continue
		}
		if strings.HasSuffix(url, "&#39;") {
			trailing = "&#39;" + trailing
			url = url[:len(url)-len("&#39;")]
			continue
		}
		last := url[len(url)-1]
		switch last {
		case '.', ',', ';', ':', '!', '?':
			trailing = string(last) + trailing
			url = url[:len(url)-1]
		case ')':
			if strings.Count(url, "(") < strings.Count(url, ")") {
				trailing = string(last) + trailing
				url = url[:len(url)-1]
			} else {
				return url, trailing
			}
		default:
			return url, trailing
		}
	}
	return url, trailing
}
