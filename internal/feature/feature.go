// Package feature reduces cell images to scalar intensity features for
// clustering.
package feature

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"cell-binner/internal/cellimg"
)

// Metric selects which scalar feature is extracted from a cell image.
type Metric int

const (
	// MetricAUC is the total pixel intensity (sum over all pixels).
	MetricAUC Metric = iota
	// MetricPeak is the maximum pixel intensity.
	MetricPeak
	// MetricSignalGround is the ratio of bright-tail intensity to
	// background intensity: sum(pixels >= p95) / sum(pixels <= p50).
	MetricSignalGround
)

func (m Metric) String() string {
	switch m {
	case MetricAUC:
		return "auc"
	case MetricPeak:
		return "peak"
	case MetricSignalGround:
		return "signal_ground"
	default:
		return "unknown"
	}
}

// ParseMetric maps a metric name to a Metric.
func ParseMetric(name string) (Metric, error) {
	switch name {
	case "auc", "":
		return MetricAUC, nil
	case "peak":
		return MetricPeak, nil
	case "signal_ground":
		return MetricSignalGround, nil
	default:
		return MetricAUC, fmt.Errorf("unknown metric %q", name)
	}
}

// Compute evaluates the metric on a single cell image.
func Compute(img *cellimg.CellImage, m Metric) float64 {
	if len(img.Pix) == 0 {
		return 0
	}

	switch m {
	case MetricPeak:
		peak := img.Pix[0]
		for _, v := range img.Pix[1:] {
			if v > peak {
				peak = v
			}
		}
		return peak

	case MetricSignalGround:
		sorted := make([]float64, len(img.Pix))
		copy(sorted, img.Pix)
		sort.Float64s(sorted)
		p95 := stat.Quantile(0.95, stat.Empirical, sorted, nil)
		p50 := stat.Quantile(0.50, stat.Empirical, sorted, nil)

		var signal, ground float64
		for _, v := range img.Pix {
			if v >= p95 {
				signal += v
			}
			if v <= p50 {
				ground += v
			}
		}
		if ground == 0 {
			return 0
		}
		return signal / ground

	default: // MetricAUC
		var sum float64
		for _, v := range img.Pix {
			sum += v
		}
		return sum
	}
}
