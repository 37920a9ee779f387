package appointment

import "sort"

// Time lists are slices of zero-padded HH:MM strings, so lexical order
// is chronological order. Every function returns a fresh slice.

// NormalizeTimes sorts and de-duplicates.
func NormalizeTimes(times []string) []string {
	out := make([]string, 0, len(times))
	seen := make(map[string]struct{}, len(times))
	for _, t := range times {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func ContainsTime(times []string, t string) bool {
	for _, x := range times {
		if x == t {
			return true
		}
	}
	return false
}

// InsertTime adds t to a normalized list, keeping it normalized.
func InsertTime(times []string, t string) []string {
	i := sort.SearchStrings(times, t)
	if i < len(times) && times[i] == t {
		return append([]string{}, times...)
	}
	out := make([]string, 0, len(times)+1)
	out = append(out, times[:i]...)
	out = append(out, t)
	return append(out, times[i:]...)
}

// RemoveTime drops every occurrence of t; order is preserved.
func RemoveTime(times []string, t string) []string {
	out := make([]string, 0, len(times))
	for _, x := range times {
		if x != t {
			out = append(out, x)
		}
	}
	return out
}

func MergeTimes(existing, added []string) []string {
	all := make([]string, 0, len(existing)+len(added))
	all = append(all, existing...)
	all = append(all, added...)
	return NormalizeTimes(all)
}

// TimesAfter keeps the times strictly later than hhmm, sorted and
// unique.
func TimesAfter(times []string, hhmm string) []string {
	out := make([]string, 0, len(times))
	for _, t := range NormalizeTimes(times) {
		if t > hhmm {
			out = append(out, t)
		}
	}
	return out
}
