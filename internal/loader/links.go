package loader

import (
	"regexp"
	"strings"

	"github.com/obsidian-tools/materialize-base/internal/vaultmodel"
)

// wikiLinkPattern matches wikilinks and embeds: [[Target]], ![[Target]],
// [[Target#Heading]], [[Target#^block-id]], [[Target|Display]], and
// combinations of the two suffixes.
var wikiLinkPattern = regexp.MustCompile(`(!?)\[\[([^\]#|]+?)(?:#(\^?[^\]|]*))?(?:\|([^\]]*))?\]\]`)

// parseWikilinks extracts every wikilink/embed reference from note text.
// Inert zones (code, comments, math) are masked first so references
// inside them are ignored.
func parseWikilinks(text string) []vaultmodel.Link {
	masked := maskInertContent(text)
	matches := wikiLinkPattern.FindAllStringSubmatch(masked, -1)
	links := make([]vaultmodel.Link, 0, len(matches))
	for _, m := range matches {
		l := vaultmodel.Link{
			IsEmbed: m[1] == "!",
			Target:  strings.TrimSpace(m[2]),
			Raw:     m[0],
		}
		if len(m) > 4 && m[4] != "" {
			l.Display = m[4]
			l.HasDisplay = true
		}
		links = append(links, l)
	}
	return links
}

// mdLinkPattern matches standard markdown links whose target does not
// start with a URL scheme, e.g. [Display](Target.md).
var mdLinkPattern = regexp.MustCompile(`\[([^\]]*)\]\(([^)\s]+)\)`)

func isExternalTarget(t string) bool {
	return strings.Contains(t, "://") || strings.HasPrefix(t, "mailto:")
}

// parseMarkdownLinks extracts [text](target) links that point within the
// vault (external http(s)/mailto links are skipped).
func parseMarkdownLinks(text string) []vaultmodel.Link {
	masked := maskInertContent(text)
	matches := mdLinkPattern.FindAllStringSubmatch(masked, -1)
	links := make([]vaultmodel.Link, 0, len(matches))
	for _, m := range matches {
		target := m[2]
		if isExternalTarget(target) {
			continue
		}
		links = append(links, vaultmodel.Link{
			Raw:        m[0],
			Target:     target,
			Display:    m[1],
			HasDisplay: m[1] != "",
		})
	}
	return links
}
