package cluster

import (
	"math"
	"math/rand"
)

// fitKMeans runs 1-D Lloyd iterations with seeded random restarts and keeps
// the assignment with the lowest within-cluster sum of squares.
func fitKMeans(xs []float64, k int, opts Options, rng *rand.Rand) ([]int, bool) {
	n := len(xs)
	if k == 1 {
		return make([]int, n), true
	}

	restarts := opts.KMeansRestarts
	if restarts < 1 {
		restarts = 1
	}
	maxIter := opts.KMeansMaxIter
	if maxIter < 1 {
		maxIter = 1
	}

	bestInertia := math.Inf(1)
	var bestLabels []int
	bestConverged := false

	for r := 0; r < restarts; r++ {
		centers := initCenters(xs, k, rng)
		labels := make([]int, n)
		converged := false

		for iter := 0; iter < maxIter; iter++ {
			changed := false
			for i, x := range xs {
				nearest := nearestIndex(x, centers)
				if labels[i] != nearest {
					labels[i] = nearest
					changed = true
				}
			}

			// Recompute centroids; empty clusters keep their center
			sums := make([]float64, k)
			counts := make([]int, k)
			for i, x := range xs {
				sums[labels[i]] += x
				counts[labels[i]]++
			}
			for j := 0; j < k; j++ {
				if counts[j] > 0 {
					centers[j] = sums[j] / float64(counts[j])
				}
			}

			if !changed {
				converged = true
				break
			}
		}

		inertia := 0.0
		for i, x := range xs {
			d := x - centers[labels[i]]
			inertia += d * d
		}

		if inertia < bestInertia {
			bestInertia = inertia
			bestLabels = labels
			bestConverged = converged
		}
	}

	return bestLabels, bestConverged
}
