package pipeline

import "strings"

// SpanSeparator joins the two ends of an inclusive range entry.
const SpanSeparator = ".."

// ResolveRange selects document keys from a list of range entries.
//
// Each entry is either a single key or an inclusive span "A..B". Spans
// follow the order of keys, not string order, so "INV-002..INV-010" picks
// every key between the two as they appeared in the input. A span whose
// ends are given backwards is read forwards.
//
// RETURNS:
//   - The selected keys in key order, without duplicates.
//   - The entries that named a key not present in keys, in entry order.
func ResolveRange(keys []string, entries []string) (selected []string, unknown []string) {
	position := make(map[string]int, len(keys))
	for i, k := range keys {
		position[k] = i
	}

	picked := make([]bool, len(keys))
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}

		if i, ok := position[entry]; ok {
			picked[i] = true
			continue
		}

		from, to, isSpan := strings.Cut(entry, SpanSeparator)
		if !isSpan {
			unknown = append(unknown, entry)
			continue
		}
		start, okStart := position[strings.TrimSpace(from)]
		end, okEnd := position[strings.TrimSpace(to)]
		if !okStart || !okEnd {
			unknown = append(unknown, entry)
			continue
		}
		if start > end {
			start, end = end, start
		}
		for i := start; i <= end; i++ {
			picked[i] = true
		}
	}

	for i, ok := range picked {
		if ok {
			selected = append(selected, keys[i])
		}
	}
	return selected, unknown
}
