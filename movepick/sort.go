package movepick

import "github.com/domino14/movepicker/board"

// partialInsertionSort sorts moves in descending order of value, but only
// the moves valued at or above limit. The rest stay behind the sorted ones
// in no particular order. Pass math.MinInt to sort everything.
func partialInsertionSort(moves []board.ScoredMove, limit int) {
	sortedEnd := 0
	for p := 1; p < len(moves); p++ {
		if moves[p].Value < limit {
			continue
		}
		tmp := moves[p]
		sortedEnd++
		moves[p] = moves[sortedEnd]
		q := sortedEnd
		for ; q > 0 && moves[q-1].Value < tmp.Value; q-- {
			moves[q] = moves[q-1]
		}
		moves[q] = tmp
	}
}
