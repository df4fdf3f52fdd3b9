package cluster

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// varianceFloor keeps single-valued components numerically stable during EM.
const varianceFloor = 1e-6

// gmmTolerance is the absolute log-likelihood change below which EM stops.
const gmmTolerance = 1e-6

// fitGMM fits a 1-D Gaussian mixture with k components using EM, repeated
// over several seeded restarts. The restart with the best log-likelihood
// wins. Returns the per-sample component labels and whether the winning fit
// converged before the iteration cap.
func fitGMM(xs []float64, k int, opts Options, rng *rand.Rand) ([]int, bool) {
	n := len(xs)
	if k == 1 {
		return make([]int, n), true
	}

	restarts := opts.GMMRestarts
	if restarts < 1 {
		restarts = 1
	}
	maxIter := opts.GMMMaxIter
	if maxIter < 1 {
		maxIter = 1
	}

	baseVar := stat.Variance(xs, nil)
	if baseVar < varianceFloor {
		baseVar = varianceFloor
	}

	bestLL := math.Inf(-1)
	var bestLabels []int
	bestConverged := false

	for r := 0; r < restarts; r++ {
		means := initCenters(xs, k, rng)
		vars := make([]float64, k)
		weights := make([]float64, k)
		for j := 0; j < k; j++ {
			vars[j] = baseVar
			weights[j] = 1.0 / float64(k)
		}

		resp := make([][]float64, n)
		for i := range resp {
			resp[i] = make([]float64, k)
		}

		prevLL := math.Inf(-1)
		converged := false

		for iter := 0; iter < maxIter; iter++ {
			// E-step: component responsibilities per sample
			ll := 0.0
			for i, x := range xs {
				total := 0.0
				for j := 0; j < k; j++ {
					dist := distuv.Normal{Mu: means[j], Sigma: math.Sqrt(vars[j])}
					p := weights[j] * dist.Prob(x)
					resp[i][j] = p
					total += p
				}
				if total <= 0 {
					// All densities underflowed; assign to nearest mean
					nearest := nearestIndex(x, means)
					for j := 0; j < k; j++ {
						resp[i][j] = 0
					}
					resp[i][nearest] = 1
					total = 1
				}
				for j := 0; j < k; j++ {
					resp[i][j] /= total
				}
				ll += math.Log(total)
			}

			// M-step: update weights, means, variances
			for j := 0; j < k; j++ {
				nk := 0.0
				sum := 0.0
				for i, x := range xs {
					nk += resp[i][j]
					sum += resp[i][j] * x
				}
				if nk <= 0 {
					continue
				}
				weights[j] = nk / float64(n)
				means[j] = sum / nk

				sq := 0.0
				for i, x := range xs {
					d := x - means[j]
					sq += resp[i][j] * d * d
				}
				vars[j] = sq / nk
				if vars[j] < varianceFloor {
					vars[j] = varianceFloor
				}
			}

			if math.Abs(ll-prevLL) < gmmTolerance {
				converged = true
				prevLL = ll
				break
			}
			prevLL = ll
		}

		if prevLL > bestLL {
			bestLL = prevLL
			bestConverged = converged
			bestLabels = make([]int, n)
			for i := range xs {
				argmax := 0
				for j := 1; j < k; j++ {
					if resp[i][j] > resp[i][argmax] {
						argmax = j
					}
				}
				bestLabels[i] = argmax
			}
		}
	}

	return bestLabels, bestConverged
}

// initCenters picks k starting centers from the distinct feature values.
// When fewer than k distinct values exist the surplus centers repeat values,
// which naturally collapses components and triggers the fallback chain.
func initCenters(xs []float64, k int, rng *rand.Rand) []float64 {
	unique := distinctValues(xs)
	centers := make([]float64, k)
	if len(unique) >= k {
		perm := rng.Perm(len(unique))
		for j := 0; j < k; j++ {
			centers[j] = unique[perm[j]]
		}
	} else {
		for j := 0; j < k; j++ {
			centers[j] = unique[j%len(unique)]
		}
	}
	return centers
}

// distinctValues returns the distinct values of xs in first-seen order.
func distinctValues(xs []float64) []float64 {
	seen := make(map[float64]struct{}, len(xs))
	var out []float64
	for _, v := range xs {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// nearestIndex returns the index of the center closest to x.
func nearestIndex(x float64, centers []float64) int {
	best := 0
	bestDist := math.Abs(x - centers[0])
	for j := 1; j < len(centers); j++ {
		if d := math.Abs(x - centers[j]); d < bestDist {
			best = j
			bestDist = d
		}
	}
	return best
}
