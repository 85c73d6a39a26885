package loader

import "regexp"

// maskPass masks one kind of inert zone before tag/link extraction scans
// note text; each pass sees text possibly already masked by earlier
// passes. Order matters: fenced code first, then inline code, then
// comments, then math, so that delimiters belonging to an outer zone
// don't get misread inside an inner one.
type maskPass func(text string) string

var inertPasses = []maskPass{
	maskFencedCodeBlocks,
	maskInlineCode,
	maskObsidianComments,
	maskHTMLComments,
	maskDisplayMath,
	maskInlineMath,
}

// maskInertContent applies every registered pass in order. The result
// keeps the same byte length and line count as the input so that line
// numbers referencing the original text stay valid.
func maskInertContent(text string) string {
	for _, pass := range inertPasses {
		text = pass(text)
	}
	return text
}

// maskRegion replaces every non-newline byte in text[start:end] with a
// space, preserving line numbers.
func maskRegion(text []byte, start, end int) {
	for i := start; i < end; i++ {
		if text[i] != '\n' {
			text[i] = ' '
		}
	}
}

var fencedCodePattern = regexp.MustCompile("(?m)^(```\\w*)\n")
var closingFencePattern = regexp.MustCompile(`(?m)^` + "```" + `[ \t]*$`)

// maskFencedCodeBlocks masks content inside ``` ... ``` blocks, leaving
// the fence delimiters intact. An unclosed fence masks to EOF.
func maskFencedCodeBlocks(text string) string {
	buf := []byte(text)
	pos := 0
	for pos < len(buf) {
		loc := fencedCodePattern.FindIndex(buf[pos:])
		if loc == nil {
			break
		}
		contentStart := pos + loc[1]
		closeLoc := closingFencePattern.FindIndex(buf[contentStart:])
		if closeLoc == nil {
			maskRegion(buf, contentStart, len(buf))
			break
		}
		contentEnd := contentStart + closeLoc[0]
		maskRegion(buf, contentStart, contentEnd)
		pos = contentStart + closeLoc[1]
	}
	return string(buf)
}

var doubleBacktickPattern = regexp.MustCompile("``([^`\\n]+)``")
var singleBacktickPattern = regexp.MustCompile("`([^`\\n]+)`")

// maskInlineCode masks the content of `` `...` `` and ``` ``...`` ```
// spans, delimiters preserved.
func maskInlineCode(text string) string {
	buf := []byte(text)
	for _, loc := range doubleBacktickPattern.FindAllSubmatchIndex(buf, -1) {
		maskRegion(buf, loc[2], loc[3])
	}
	for _, loc := range singleBacktickPattern.FindAllSubmatchIndex(buf, -1) {
		maskRegion(buf, loc[2], loc[3])
	}
	return string(buf)
}

var obsidianCommentPattern = regexp.MustCompile(`(?s)%%(.+?)%%`)

func maskObsidianComments(text string) string {
	buf := []byte(text)
	for _, loc := range obsidianCommentPattern.FindAllSubmatchIndex(buf, -1) {
		maskRegion(buf, loc[2], loc[3])
	}
	return string(buf)
}

var htmlCommentPattern = regexp.MustCompile(`(?s)<!--(.*?)-->`)

func maskHTMLComments(text string) string {
	buf := []byte(text)
	for _, loc := range htmlCommentPattern.FindAllSubmatchIndex(buf, -1) {
		maskRegion(buf, loc[2], loc[3])
	}
	return string(buf)
}

var displayMathPattern = regexp.MustCompile(`(?s)\$\$(.+?)\$\$`)

func maskDisplayMath(text string) string {
	buf := []byte(text)
	for _, loc := range displayMathPattern.FindAllSubmatchIndex(buf, -1) {
		maskRegion(buf, loc[2], loc[3])
	}
	return string(buf)
}

var inlineMathPattern = regexp.MustCompile(`\$([^\s$][^$\n]*?[^\s$])\$`)

func maskInlineMath(text string) string {
	buf := []byte(text)
	for _, loc := range inlineMathPattern.FindAllSubmatchIndex(buf, -1) {
		maskRegion(buf, loc[2], loc[3])
	}
	return string(buf)
}
