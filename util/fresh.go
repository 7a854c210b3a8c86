package util

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/hashicorp/go-set/v3"
)

// FreshName returns base if it is not in used, otherwise base followed by the
// smallest number that makes it unused. Trailing digits of base are dropped first,
// so that freshening "H1" gives "H2" rather than "H10".
func FreshName(base string, used set.Collection[string]) string {
	if base == "" {
		base = "x"
	}
	if !used.Contains(base) {
		return base
	}
	stem := strings.TrimRightFunc(base, unicode.IsDigit)
	if stem == "" {
		stem = base
	}
	for i := 0; ; i++ {
		candidate := stem + strconv.Itoa(i)
		if !used.Contains(candidate) {
			return candidate
		}
	}
}

// FreshNames returns one fresh name per base, and adds each to used
// so that the results are also distinct from each other
func FreshNames(used *set.Set[string], bases ...string) []string {
	names := make([]string, len(bases))
	for i, base := range bases {
		names[i] = FreshName(base, used)
		used.Insert(names[i])
	}
	return names
}
