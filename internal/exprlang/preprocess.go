package exprlang

import "strings"

// preprocess rewrites bare if(/file( calls to the internal aliases
// _if/_fileFn so the parser can address Obsidian's global functions of
// those names without colliding with the host grammar's `if` keyword
// (spec.md §4.2). The scan is character-by-character and preserves
// single-quoted, double-quoted, and backtick-quoted spans verbatim so
// that string contents are never rewritten.
//
// A bare identifier is rewritten when: it spells "if" or "file", it is
// immediately followed (across insignificant whitespace) by "(", and it
// is not itself preceded by an identifier character or ".": `file.name`
// and `myfile(` must be left untouched.
func preprocess(src string) string {
	var out strings.Builder
	out.Grow(len(src))

	i := 0
	n := len(src)
	for i < n {
		c := src[i]

		if c == '\'' || c == '"' || c == '`' {
			start := i
			i++
			for i < n {
				if src[i] == '\\' && i+1 < n {
					i += 2
					continue
				}
				if src[i] == c {
					i++
					break
				}
				i++
			}
			out.WriteString(src[start:i])
			continue
		}

		if isIdentStart(rune(c)) {
			start := i
			for i < n && isIdentPart(rune(src[i])) {
				i++
			}
			word := src[start:i]

			if word == "if" || word == "file" {
				precededByIdentChar := start > 0 && (isIdentPart(rune(src[start-1])) || src[start-1] == '.')
				j := i
				for j < n && isInsignificantSpace(rune(src[j])) {
					j++
				}
				followedByParen := j < n && src[j] == '('

				if !precededByIdentChar && followedByParen {
					if word == "if" {
						out.WriteString("_if")
					} else {
						out.WriteString("_fileFn")
					}
					continue
				}
			}

			out.WriteString(word)
			continue
		}

		out.WriteByte(c)
		i++
	}

	return out.String()
}

func isInsignificantSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
