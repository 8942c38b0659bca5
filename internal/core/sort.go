package core

import "sort"

// SortByFinalScore orders scored items descending by final score. The sort is
// stable so ties keep their insertion order.
func SortByFinalScore(items []ScoredItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].FinalScore > items[j].FinalScore
	})
}
