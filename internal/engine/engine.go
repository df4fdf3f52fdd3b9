// Package engine orchestrates the grouping pipeline for cell directories:
// feature extraction, cluster assignment, bin remapping, composite output
// and provenance records.
package engine

import (
	"log"
	"path/filepath"

	"cell-binner/internal/cellimg"
	"cell-binner/internal/cluster"
	"cell-binner/internal/composite"
	"cell-binner/internal/feature"
	"cell-binner/internal/provenance"
)

// RunDirectory processes one cell directory end to end. Per-sample and
// per-group errors are absorbed into the log; the return value is true iff
// at least one composite image was written.
func RunDirectory(cellDir, outDir string, cfg *Config) bool {
	baseName := filepath.Base(filepath.Clean(cellDir))

	metric, err := feature.ParseMetric(cfg.Metric)
	if err != nil {
		log.Printf("[%s] %v", baseName, err)
		return false
	}

	extracted, err := feature.ExtractDir(cellDir, metric)
	if err != nil {
		log.Printf("[%s] Extraction failed: %v", baseName, err)
		return false
	}

	result, err := cluster.Assign(extracted.Features(), cfg.clusterOptions())
	if err != nil {
		log.Printf("[%s] Clustering failed: %v", baseName, err)
		return false
	}

	mapping := cluster.Remap(result)
	for i, s := range extracted.Samples {
		s.RawLabel = result.Labels[i]
		s.GroupID = mapping.GroupNumber(s.RawLabel)
	}

	wrote := writeComposites(outDir, baseName, extracted.Samples, result, mapping)
	composite.RemoveStale(outDir, baseName, mapping.Len())
	writeProvenance(outDir, baseName, extracted, result, mapping, cfg)

	if wrote == 0 {
		log.Printf("[%s] No composite images written", baseName)
		return false
	}
	log.Printf("[%s] Wrote %d of %d composites (method %s)", baseName, wrote, result.ActualK, result.Method)
	return true
}

// writeComposites builds and writes one composite per group, continuing
// past per-group failures. Returns the number of composites written.
func writeComposites(outDir, baseName string, samples []*feature.Sample, result *cluster.Result, mapping *cluster.Mapping) int {
	byGroup := make(map[int][]*cellimg.CellImage)
	for _, s := range samples {
		byGroup[s.GroupID] = append(byGroup[s.GroupID], s.Image)
	}

	wrote := 0
	for num := 1; num <= mapping.Len(); num++ {
		members := byGroup[num]
		if len(members) == 0 {
			log.Printf("[%s] Group %d has no members, skipping composite", baseName, num)
			continue
		}

		canvas, err := composite.BuildGroup(members)
		if err != nil {
			log.Printf("[%s] Group %d composite failed: %v", baseName, num, err)
			continue
		}
		if _, err := composite.WriteGroup(outDir, baseName, num, canvas.Normalize16()); err != nil {
			log.Printf("[%s] Group %d write failed: %v", baseName, num, err)
			continue
		}
		wrote++
	}
	return wrote
}

// writeProvenance writes the CSV and text records. Failures are logged,
// never fatal: provenance must not block composite output.
func writeProvenance(outDir, baseName string, extracted *feature.ExtractResult, result *cluster.Result, mapping *cluster.Mapping, cfg *Config) {
	rows := make([]provenance.Row, 0, len(extracted.Samples))
	for _, s := range extracted.Samples {
		rows = append(rows, provenance.Row{
			CellFile:  filepath.Base(s.Path),
			CellID:    s.CellID,
			Group:     s.GroupID,
			GroupMean: result.Means[s.RawLabel],
			CellValue: s.Feature,
		})
	}
	if err := provenance.WriteCSV(outDir, baseName, rows); err != nil {
		log.Printf("[%s] Provenance CSV failed: %v", baseName, err)
	}

	summary := &provenance.Summary{
		InputCount:    len(extracted.Samples),
		Skipped:       extracted.Skipped,
		Method:        result.Method,
		Converged:     result.Converged,
		ForceFlag:     cfg.ForceRedistribute,
		RequestedBins: cfg.Bins,
		ActualBins:    mapping.Len(),
		ZeroCount:     extracted.ZeroCount,
		NonZeroCount:  extracted.NonZero,
		MinFeature:    extracted.MinFeature,
		MaxFeature:    extracted.MaxFeature,
		SourceDPI:     extracted.SourceDPI,
		Channels:      cfg.Channels,
	}
	for rank, raw := range mapping.RawLabels() {
		stat := provenance.GroupStat{
			Group:   rank + 1,
			Members: len(result.Members[raw]),
			Mean:    result.Means[raw],
		}
		if stat.Members == 0 {
			log.Printf("[%s] Group %d is empty in provenance output", baseName, stat.Group)
		}
		summary.Groups = append(summary.Groups, stat)
	}
	if err := provenance.WriteSummary(outDir, baseName, summary); err != nil {
		log.Printf("[%s] Summary write failed: %v", baseName, err)
	}
}

// RunAll processes independent cell directories concurrently, one worker
// per directory. Directories share no mutable state, so each goroutine
// runs its own full pipeline. Output for each directory lands under
// <outputRoot>/<dirname>/.
func RunAll(dirs []string, cfg *Config) map[string]bool {
	type outcome struct {
		dir string
		ok  bool
	}

	ch := make(chan outcome, len(dirs))
	for _, dir := range dirs {
		go func(d string) {
			outDir := filepath.Join(cfg.OutputRoot, filepath.Base(filepath.Clean(d)))
			ch <- outcome{dir: d, ok: RunDirectory(d, outDir, cfg)}
		}(dir)
	}

	results := make(map[string]bool, len(dirs))
	for range dirs {
		o := <-ch
		results[o.dir] = o.ok
	}
	return results
}
