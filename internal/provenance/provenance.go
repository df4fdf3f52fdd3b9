// Package provenance records which cell went to which bin, as CSV for
// tooling and as a text summary for humans.
package provenance

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Row is one cell's assignment record.
type Row struct {
	CellFile  string
	CellID    int
	Group     int // 1-based bin number
	GroupMean float64
	CellValue float64
}

// GroupStat summarizes one bin for the text report.
type GroupStat struct {
	Group   int // 1-based bin number
	Members int
	Mean    float64
}

// Summary holds the per-directory run statistics for the text report.
type Summary struct {
	InputCount    int
	Skipped       int
	Method        string
	Converged     bool
	ForceFlag     bool
	RequestedBins int
	ActualBins    int
	ZeroCount     int
	NonZeroCount  int
	MinFeature    float64
	MaxFeature    float64
	SourceDPI     float64 // 0 when unknown
	Channels      []string
	Groups        []GroupStat
}

// CSVFileName returns the provenance CSV filename for a cell directory.
func CSVFileName(baseName string) string {
	return baseName + "_cell_groups.csv"
}

// SummaryFileName returns the text summary filename for a cell directory.
func SummaryFileName(baseName string) string {
	return baseName + "_grouping_info.txt"
}

// WriteCSV writes the per-cell assignment table, ordered by group then cell
// id so rows join naturally against the composite filenames.
func WriteCSV(dir, baseName string, rows []Row) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(a, b int) bool {
		if sorted[a].Group != sorted[b].Group {
			return sorted[a].Group < sorted[b].Group
		}
		return sorted[a].CellID < sorted[b].CellID
	})

	f, err := os.Create(filepath.Join(dir, CSVFileName(baseName)))
	if err != nil {
		return fmt.Errorf("failed to create provenance CSV: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"cell_file", "cell_id", "group", "group_label", "group_mean", "cell_value"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range sorted {
		record := []string{
			r.CellFile,
			strconv.Itoa(r.CellID),
			strconv.Itoa(r.Group),
			fmt.Sprintf("Group_%d", r.Group),
			strconv.FormatFloat(r.GroupMean, 'f', 6, 64),
			strconv.FormatFloat(r.CellValue, 'f', 6, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteSummary writes the human-readable grouping report. Zero-member
// groups are listed rather than dropped.
func WriteSummary(dir, baseName string, s *Summary) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cell grouping report for %s\n", baseName)
	fmt.Fprintf(&b, "\n")
	fmt.Fprintf(&b, "Input cells:        %d (%d unreadable, skipped)\n", s.InputCount, s.Skipped)
	fmt.Fprintf(&b, "Method:             %s\n", s.Method)
	fmt.Fprintf(&b, "Converged:          %v\n", s.Converged)
	fmt.Fprintf(&b, "Force redistribute: %v\n", s.ForceFlag)
	fmt.Fprintf(&b, "Bins:               %d requested, %d actual\n", s.RequestedBins, s.ActualBins)
	fmt.Fprintf(&b, "Zero features:      %d\n", s.ZeroCount)
	fmt.Fprintf(&b, "Non-zero features:  %d\n", s.NonZeroCount)
	fmt.Fprintf(&b, "Feature range:      [%g, %g]\n", s.MinFeature, s.MaxFeature)
	if s.SourceDPI > 0 {
		fmt.Fprintf(&b, "Source resolution:  %.1f DPI\n", s.SourceDPI)
	}
	if len(s.Channels) > 0 {
		fmt.Fprintf(&b, "Channels:           %s\n", strings.Join(s.Channels, ", "))
	}
	fmt.Fprintf(&b, "\nGroups (ascending mean):\n")
	for _, g := range s.Groups {
		fmt.Fprintf(&b, "  Group_%d: %d members, mean %.6f\n", g.Group, g.Members, g.Mean)
	}

	path := filepath.Join(dir, SummaryFileName(baseName))
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
