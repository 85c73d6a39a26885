package loader

import (
	"regexp"
	"strings"
	"unicode"
)

// tagPattern matches inline tags: #tag preceded by whitespace, an open
// paren, or start of line. Tags may contain letters, digits,
// underscores, hyphens, and forward slashes (hierarchical tags like
// #project/backend).
var tagPattern = regexp.MustCompile(`(?:^|[\s(])#([\p{L}\p{N}_/-]+)`)

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// parseInlineTags extracts #tags from note body text, skipping
// pure-numeric matches (Obsidian requires at least one letter) and
// masking inert zones first.
func parseInlineTags(text string) []string {
	masked := maskInertContent(text)
	matches := tagPattern.FindAllStringSubmatch(masked, -1)
	var tags []string
	for _, m := range matches {
		if hasLetter(m[1]) {
			tags = append(tags, m[1])
		}
	}
	return tags
}

// allTags merges frontmatter tags and inline body tags, lowercased and
// deduplicated (spec.md's supplemented tag-collection behavior).
func allTags(frontmatterTags []string, bodyStart int, fullText string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(t string) {
		lower := strings.ToLower(t)
		if lower == "" || seen[lower] {
			return
		}
		seen[lower] = true
		out = append(out, lower)
	}
	for _, t := range frontmatterTags {
		add(t)
	}
	body := fullText
	if bodyStart > 0 {
		lines := strings.Split(fullText, "\n")
		if bodyStart < len(lines) {
			body = strings.Join(lines[bodyStart:], "\n")
		}
	}
	for _, t := range parseInlineTags(body) {
		add(t)
	}
	return out
}
