package events

import "sort"

// Order merges independently-fetched per-kind event lists into one sequence
// ordered by block number ascending, then log index ascending. (block, log
// index) pairs are unique per receipt, so the order is total: the same raw
// set yields the same sequence no matter how the inputs were grouped or
// which providers served them.
func Order(lists ...[]Event) []Event {
	total := 0
	for _, list := range lists {
		total += len(list)
	}
	if total == 0 {
		return nil
	}

	merged := make([]Event, 0, total)
	for _, list := range lists {
		merged = append(merged, list...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i].Log(), merged[j].Log()
		if a.BlockNumber != b.BlockNumber {
			return a.BlockNumber < b.BlockNumber
		}
		return a.Index < b.Index
	})

	return merged
}
