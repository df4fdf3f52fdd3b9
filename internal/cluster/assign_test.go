package cluster

import (
	"math/rand"
	"testing"
)

// twoClusterFeatures builds n samples split between two well-separated
// intensity populations, deterministic for a given seed.
func twoClusterFeatures(n int, seed int64) ([]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	features := make([]float64, n)
	truth := make([]int, n)
	for i := 0; i < n; i++ {
		if i < n/2 {
			features[i] = 100 + rng.NormFloat64()*5
			truth[i] = 0
		} else {
			features[i] = 10000 + rng.NormFloat64()*50
			truth[i] = 1
		}
	}
	return features, truth
}

func TestAssignErrors(t *testing.T) {
	if _, err := Assign(nil, DefaultOptions(2)); err == nil {
		t.Error("expected error for empty feature vector")
	}
	if _, err := Assign([]float64{1, 2, 3}, DefaultOptions(0)); err == nil {
		t.Error("expected error for zero bin count")
	}
}

func TestAssignReducesBinCount(t *testing.T) {
	res, err := Assign([]float64{0, 0, 0}, DefaultOptions(5))
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if res.ActualK != 3 {
		t.Errorf("ActualK = %d, want 3", res.ActualK)
	}
	for lbl, members := range res.Members {
		if len(members) != 1 {
			t.Errorf("label %d has %d members, want 1", lbl, len(members))
		}
	}
}

func TestAssignAllZeroShortCircuits(t *testing.T) {
	res, err := Assign([]float64{0, 0, 0, 0}, DefaultOptions(2))
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if res.Method != MethodQuantile {
		t.Errorf("Method = %q, want %q for all-zero input", res.Method, MethodQuantile)
	}
	if !res.Converged {
		t.Error("quantile redistribution should report converged")
	}
}

func TestAssignIdenticalFeaturesRemainderSizes(t *testing.T) {
	// 7 identical samples into 3 bins: contiguous runs sized {3, 2, 2},
	// remainder to the earliest run.
	features := []float64{5, 5, 5, 5, 5, 5, 5}
	opts := DefaultOptions(3)
	opts.ForceRedistribute = true

	res, err := Assign(features, opts)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if res.Method != MethodQuantile {
		t.Fatalf("Method = %q, want %q for constant input", res.Method, MethodQuantile)
	}

	sizes := []int{len(res.Members[0]), len(res.Members[1]), len(res.Members[2])}
	want := []int{3, 2, 2}
	for i := range want {
		if sizes[i] != want[i] {
			t.Errorf("group %d size = %d, want %d (all sizes %v)", i, sizes[i], want[i], sizes)
		}
	}

	// Ties keep input order: the first three samples land in run 0
	for i := 0; i < 3; i++ {
		if res.Labels[i] != 0 {
			t.Errorf("Labels[%d] = %d, want 0", i, res.Labels[i])
		}
	}
}

func TestAssignPartitionInvariant(t *testing.T) {
	features, _ := twoClusterFeatures(40, 7)
	res, err := Assign(features, DefaultOptions(3))
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	total := 0
	for _, members := range res.Members {
		total += len(members)
	}
	if total != len(features) {
		t.Errorf("members sum to %d, want %d", total, len(features))
	}
	if len(res.Labels) != len(features) {
		t.Errorf("len(Labels) = %d, want %d", len(res.Labels), len(features))
	}
}

func TestAssignRecoversSeparatedClusters(t *testing.T) {
	features, truth := twoClusterFeatures(100, 3)

	res, err := Assign(features, DefaultOptions(2))
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if res.ActualK != 2 {
		t.Fatalf("ActualK = %d, want 2", res.ActualK)
	}

	// Membership must match ground truth up to label permutation
	mapping := Remap(res)
	mismatches := 0
	for i, lbl := range res.Labels {
		if mapping.GroupOf(lbl) != truth[i] {
			mismatches++
		}
	}
	if mismatches > 0 {
		t.Errorf("%d of %d samples assigned to the wrong population", mismatches, len(features))
	}
}

func TestAssignDeterministicUnderFixedSeed(t *testing.T) {
	features, _ := twoClusterFeatures(60, 11)
	opts := DefaultOptions(3)
	opts.Seed = 1234

	first, err := Assign(features, opts)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	second, err := Assign(features, opts)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if first.Method != second.Method {
		t.Fatalf("methods differ across runs: %q vs %q", first.Method, second.Method)
	}
	for i := range first.Labels {
		if first.Labels[i] != second.Labels[i] {
			t.Fatalf("labels differ at %d: %d vs %d", i, first.Labels[i], second.Labels[i])
		}
	}
}

func TestAssignMeansFromUntransformedValues(t *testing.T) {
	// Whatever transform clustering works on, reported means must come
	// from the raw features.
	features := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	opts := DefaultOptions(2)
	opts.ForceRedistribute = true

	res, err := Assign(features, opts)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	var lo, hi float64
	first := true
	for _, m := range res.Means {
		if first || m < lo {
			lo = m
		}
		if first || m > hi {
			hi = m
		}
		first = false
	}
	if lo < 1 || hi > 10 {
		t.Errorf("means [%g, %g] outside the raw feature range [1, 10]", lo, hi)
	}
}

func TestAssignBalancedSplitOnLinearRamp(t *testing.T) {
	// A modest linear ramp must not be log-compressed before fitting:
	// compression pulls the boundary value into the dim cluster. Ten cells
	// with features 1..10 split 5/5 with means 3 and 8 on the default path.
	features := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	res, err := Assign(features, DefaultOptions(2))
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if res.Method != MethodGMM {
		t.Fatalf("Method = %q, want %q", res.Method, MethodGMM)
	}

	mapping := Remap(res)
	for i := 0; i < 5; i++ {
		if got := mapping.GroupNumber(res.Labels[i]); got != 1 {
			t.Errorf("cell %d in group %d, want 1", i, got)
		}
	}
	for i := 5; i < 10; i++ {
		if got := mapping.GroupNumber(res.Labels[i]); got != 2 {
			t.Errorf("cell %d in group %d, want 2", i, got)
		}
	}

	dim := res.Means[mapping.RawLabels()[0]]
	bright := res.Means[mapping.RawLabels()[1]]
	if dim != 3 || bright != 8 {
		t.Errorf("group means = %g/%g, want 3/8", dim, bright)
	}
}

func TestAssignLogCompressionOnWideRange(t *testing.T) {
	// Features spanning orders of magnitude still cluster cleanly, which is
	// what the log1p compression exists for.
	features := []float64{1, 2, 4, 8, 1e6, 2e6, 4e6, 8e6}

	res, err := Assign(features, DefaultOptions(2))
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	mapping := Remap(res)
	for i := 0; i < 4; i++ {
		if got := mapping.GroupNumber(res.Labels[i]); got != 1 {
			t.Errorf("cell %d in group %d, want 1", i, got)
		}
	}
	for i := 4; i < 8; i++ {
		if got := mapping.GroupNumber(res.Labels[i]); got != 2 {
			t.Errorf("cell %d in group %d, want 2", i, got)
		}
	}
}

func TestAssignKMeansPrimary(t *testing.T) {
	features, _ := twoClusterFeatures(50, 5)
	opts := DefaultOptions(2)
	opts.Method = MethodKMeans

	res, err := Assign(features, opts)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if res.Method != MethodKMeans {
		t.Errorf("Method = %q, want %q", res.Method, MethodKMeans)
	}
	if distinctCount(res.Labels) != 2 {
		t.Errorf("distinct labels = %d, want 2", distinctCount(res.Labels))
	}
}
