package trace

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// durationTokenRe matches one <number><unit> pair of a Go-style duration.
// Alternation order matters: "ms" must be tried before "m" and "s".
var durationTokenRe = regexp.MustCompile(`(\d+\.?\d*)(ns|µs|us|ms|s|m|h)`)

var unitSeconds = map[string]float64{
	"ns": 1e-9,
	"µs": 1e-6,
	"us": 1e-6,
	"ms": 1e-3,
	"s":  1,
	"m":  60,
	"h":  3600,
}

// ParseDuration converts a compound duration token such as "1m30s",
// "500ms" or "1h2m3.5s" into seconds.
//
// Every <number><unit> pair found in s contributes its value; residue that
// does not form a pair contributes nothing. When no pair is found at all the
// trimmed string (with trailing 's' removed) is read as a plain float.
// Anything else yields 0. ParseDuration never fails.
func ParseDuration(s string) float64 {
	s = strings.TrimSpace(s)

	matches := durationTokenRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		v, err := strconv.ParseFloat(strings.TrimRight(s, "s"), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	}

	total := 0.0
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		total += v * unitSeconds[m[2]]
	}
	return total
}
