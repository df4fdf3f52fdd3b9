package feature

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"cell-binner/internal/cellimg"
)

// Sample is one cell image with its extracted feature and, once assigned,
// its raw cluster label and final 1-based group id.
type Sample struct {
	ID       string
	CellID   int // Numeric id parsed from the filename, -1 when absent
	Path     string
	Feature  float64
	Image    *cellimg.CellImage
	RawLabel int
	GroupID  int
}

// ExtractResult holds the samples extracted from one cell directory plus
// the counts used to detect degenerate input.
type ExtractResult struct {
	Samples    []*Sample
	Skipped    int // Files that failed to load
	ZeroCount  int // Samples with feature == 0
	NonZero    int // Samples with feature > 0
	MinFeature float64
	MaxFeature float64
	SourceDPI  float64 // First detected source resolution, 0 when unknown
}

// Features returns the feature values in sample order.
func (r *ExtractResult) Features() []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Feature
	}
	return out
}

// ExtractDir loads every supported image in dir and computes the metric for
// each. Unreadable files are skipped and counted, not fatal. Files are
// visited in sorted name order so sample order is stable across runs.
func ExtractDir(dir string, metric Metric) (*ExtractResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cell directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !cellimg.IsSupportedFormat(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no cell images found in %s", dir)
	}

	result := &ExtractResult{}
	for _, path := range paths {
		img, err := cellimg.Load(path)
		if err != nil {
			log.Printf("Skipping unreadable cell image %s: %v", path, err)
			result.Skipped++
			continue
		}

		s := &Sample{
			ID:       img.ID,
			CellID:   cellimg.NumericID(path),
			Path:     path,
			Feature:  Compute(img, metric),
			Image:    img,
			RawLabel: -1,
			GroupID:  -1,
		}

		if s.Feature == 0 {
			result.ZeroCount++
		} else {
			result.NonZero++
		}
		if result.SourceDPI == 0 && img.DPI > 0 {
			result.SourceDPI = img.DPI
		}
		if len(result.Samples) == 0 || s.Feature < result.MinFeature {
			result.MinFeature = s.Feature
		}
		if len(result.Samples) == 0 || s.Feature > result.MaxFeature {
			result.MaxFeature = s.Feature
		}
		result.Samples = append(result.Samples, s)
	}

	if len(result.Samples) == 0 {
		return nil, fmt.Errorf("no readable cell images in %s (%d skipped)", dir, result.Skipped)
	}
	return result, nil
}
