package cluster

import "sort"

// quantileLabels deterministically partitions samples into k contiguous runs
// of ascending feature value. Runs are sized n/k, with the remainder spread
// one-per-run over the first n%k runs. Ties keep input order, so repeated
// runs on identical input always produce the same membership.
func quantileLabels(features []float64, k int) []int {
	n := len(features)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return features[order[a]] < features[order[b]]
	})

	labels := make([]int, n)
	base := n / k
	rem := n % k

	pos := 0
	for run := 0; run < k; run++ {
		size := base
		if run < rem {
			size++
		}
		for j := 0; j < size; j++ {
			labels[order[pos]] = run
			pos++
		}
	}
	return labels
}
