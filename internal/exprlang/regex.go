package exprlang

import (
	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"

	"github.com/obsidian-tools/materialize-base/internal/value"
)

// hostRegex adapts a compiled regexp2.Regexp to value.Regexer, giving
// regex literals JS-flavored semantics (lookaround, backreferences) that
// Go's RE2-based regexp package cannot express (spec.md §4.2).
type hostRegex struct {
	re     *regexp2.Regexp
	source string
	flags  string
}

func (h *hostRegex) MatchString(s string) bool {
	ok, err := h.re.MatchString(s)
	return err == nil && ok
}

func (h *hostRegex) String() string {
	return "/" + h.source + "/" + h.flags
}

func compileRegexLit(pattern, flags string) (value.Value, error) {
	opts := regexp2.None
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 's':
			opts |= regexp2.Singleline
		case 'm':
			opts |= regexp2.Multiline
		case 'g', 'u', 'y':
			// accepted but not meaningful to a single MatchString call
		default:
			return value.Value{}, errors.Errorf("unsupported regex flag %q", string(f))
		}
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return value.Value{}, errors.Wrapf(err, "invalid regex literal /%s/%s", pattern, flags)
	}
	return value.RegexValue(&hostRegex{re: re, source: pattern, flags: flags}), nil
}

// regexTest implements RegExp.prototype.test for a value already known to
// be KindRegex.
func regexTest(v value.Value, s string) bool {
	return v.Regex.MatchString(s)
}
