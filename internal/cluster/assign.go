// Package cluster groups scalar intensity features into a requested number
// of bins using a Gaussian mixture, with k-means and deterministic quantile
// redistribution as fallbacks.
package cluster

import (
	"fmt"
	"log"
	"math"
	"math/rand"
)

// logTransformRatio is the max/min feature ratio above which features are
// log1p-compressed before clustering.
const logTransformRatio = 100.0

// Method names recorded in a Result for provenance output.
const (
	MethodGMM      = "gmm"
	MethodKMeans   = "kmeans"
	MethodQuantile = "forced_quantile"
)

// Options configures cluster assignment.
type Options struct {
	Bins              int    // Requested bin count (>= 1)
	Method            string // Primary method: "gmm" (default) or "kmeans"
	ForceRedistribute bool   // Fall through to quantile split when clustering under-delivers
	Seed              int64  // RNG seed for GMM/k-means initialization
	GMMRestarts       int
	GMMMaxIter        int
	KMeansRestarts    int
	KMeansMaxIter     int
	Epsilon           float64 // Feature range below this is treated as constant
}

// DefaultOptions returns clustering options for the given bin count.
func DefaultOptions(bins int) Options {
	return Options{
		Bins:           bins,
		Method:         MethodGMM,
		Seed:           42,
		GMMRestarts:    5,
		GMMMaxIter:     200,
		KMeansRestarts: 10,
		KMeansMaxIter:  100,
		Epsilon:        1e-9,
	}
}

// Result holds the raw label per sample and per-label statistics.
// Means and Members are keyed by raw label and computed from the original
// (untransformed) feature values.
type Result struct {
	Labels    []int
	Means     map[int]float64
	Members   map[int][]int
	Method    string
	Converged bool
	ActualK   int
}

// Assign clusters the feature vector into at most opts.Bins groups.
//
// Degenerate inputs (all-zero or constant features) bypass statistical
// clustering and are split by quantile redistribution directly. Otherwise
// the primary method runs first and falls through the chain
// GMM -> k-means -> quantile redistribution when it produces fewer distinct
// clusters than requested and redistribution is enabled.
func Assign(features []float64, opts Options) (*Result, error) {
	n := len(features)
	if n == 0 {
		return nil, fmt.Errorf("no features to cluster")
	}
	if opts.Bins < 1 {
		return nil, fmt.Errorf("requested bin count must be >= 1, got %d", opts.Bins)
	}

	actualK := opts.Bins
	if n < actualK {
		log.Printf("Only %d samples for %d requested bins, reducing to %d bins", n, opts.Bins, n)
		actualK = n
	}

	lo, hi := features[0], features[0]
	for _, v := range features[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	// Constant or all-zero features carry no structure to cluster on;
	// split them deterministically instead of fitting a model.
	if hi == 0 || hi-lo < opts.Epsilon {
		log.Printf("Degenerate feature range [%g, %g], using quantile redistribution", lo, hi)
		return newResult(features, quantileLabels(features, actualK), MethodQuantile, true, actualK), nil
	}

	// log1p compresses dynamic range for clustering, but only when the
	// spread actually spans orders of magnitude: on modest ranges the
	// compression distorts cluster boundaries more than it helps. Reported
	// means always come from the untransformed values.
	clusterVals := features
	if lo > 0 && hi/lo > logTransformRatio {
		clusterVals = make([]float64, n)
		for i, v := range features {
			clusterVals[i] = math.Log1p(v)
		}
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	if opts.Method != MethodKMeans {
		labels, converged := fitGMM(clusterVals, actualK, opts, rng)
		distinct := distinctCount(labels)
		switch {
		case distinct == actualK:
			return newResult(features, labels, MethodGMM, converged, actualK), nil
		case distinct > 1 && !opts.ForceRedistribute:
			log.Printf("GMM produced %d of %d clusters, redistribution disabled", distinct, actualK)
			return newResult(features, labels, MethodGMM, converged, actualK), nil
		default:
			log.Printf("GMM produced %d of %d clusters, falling back to k-means", distinct, actualK)
		}
	}

	labels, converged := fitKMeans(clusterVals, actualK, opts, rng)
	distinct := distinctCount(labels)
	if distinct < actualK && opts.ForceRedistribute {
		log.Printf("K-means produced %d of %d clusters, forcing quantile redistribution", distinct, actualK)
		return newResult(features, quantileLabels(features, actualK), MethodQuantile, true, actualK), nil
	}
	return newResult(features, labels, MethodKMeans, converged, actualK), nil
}

// newResult assembles per-label means and memberships from the raw features.
func newResult(features []float64, labels []int, method string, converged bool, actualK int) *Result {
	res := &Result{
		Labels:    labels,
		Means:     make(map[int]float64),
		Members:   make(map[int][]int),
		Method:    method,
		Converged: converged,
		ActualK:   actualK,
	}
	sums := make(map[int]float64)
	for i, lbl := range labels {
		sums[lbl] += features[i]
		res.Members[lbl] = append(res.Members[lbl], i)
	}
	for lbl, members := range res.Members {
		res.Means[lbl] = sums[lbl] / float64(len(members))
	}
	return res
}

// distinctCount returns the number of distinct labels in the slice.
func distinctCount(labels []int) int {
	seen := make(map[int]struct{}, len(labels))
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	return len(seen)
}
