// Package duration parses Obsidian Bases duration strings ("1 day",
// "2h 30m", "-1.5 weeks") into a millisecond count.
package duration

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// unitMs maps a lowercased unit token to its millisecond multiplier.
// The single-letter forms "m" (minute) and "M" (month) are disambiguated
// by case in resolveUnit before this table is consulted.
var unitMs = map[string]float64{
	"s": 1000, "sec": 1000, "secs": 1000, "second": 1000, "seconds": 1000,
	"m": 60_000, "min": 60_000, "mins": 60_000, "minute": 60_000, "minutes": 60_000,
	"h": 3_600_000, "hour": 3_600_000, "hours": 3_600_000,
	"d": 86_400_000, "day": 86_400_000, "days": 86_400_000,
	"w": 604_800_000, "week": 604_800_000, "weeks": 604_800_000,
	"month": 2_592_000_000, "months": 2_592_000_000,
	"y": 31_536_000_000, "year": 31_536_000_000, "years": 31_536_000_000,
}

const monthMs = 2_592_000_000

// segmentPattern matches one (number, unit) pair: an optional sign,
// digits with an optional decimal point, then (after optional
// whitespace) a run of letters naming the unit.
var segmentPattern = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)[ \t]*([A-Za-z]+)`)

// Parse parses s as a sum of (number, unit) segments and returns the
// total in milliseconds. It is an error for s to be empty, to contain
// an unrecognized unit, or to have any unconsumed text between or after
// segments.
func Parse(s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, errors.New("duration: empty string")
	}

	var total float64
	rest := trimmed
	matchedAny := false

	for {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			break
		}

		loc := segmentPattern.FindStringSubmatchIndex(rest)
		if loc == nil || loc[0] != 0 {
			return 0, errors.Errorf("duration: invalid segment in %q", s)
		}

		numStr := rest[loc[2]:loc[3]]
		unitStr := rest[loc[4]:loc[5]]

		n, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "duration: invalid number in %q", s)
		}

		ms, ok := resolveUnit(unitStr)
		if !ok {
			return 0, errors.Errorf("duration: unrecognized unit %q in %q", unitStr, s)
		}

		total += n * ms
		matchedAny = true
		rest = rest[loc[1]:]
	}

	if !matchedAny {
		return 0, errors.Errorf("duration: no recognized segment in %q", s)
	}

	return int64(total), nil
}

// ParseBestEffort is the non-erroring variant used by date arithmetic
// (spec.md §4.3): any failure yields ok=false instead of an error.
func ParseBestEffort(s string) (ms int64, ok bool) {
	v, err := Parse(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// resolveUnit disambiguates the single-letter "m"/"M" forms (minute vs.
// month) by case, then matches everything else case-insensitively.
func resolveUnit(tok string) (float64, bool) {
	if tok == "m" {
		return unitMs["m"], true
	}
	if tok == "M" {
		return monthMs, true
	}
	ms, ok := unitMs[strings.ToLower(tok)]
	return ms, ok
}
