package composite

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/tiff"
)

// GroupFileName returns the deterministic composite filename for a group,
// e.g. "regionA_bin_2.tif". External thresholding tools join on this name.
func GroupFileName(baseName string, groupNum int) string {
	return fmt.Sprintf("%s_bin_%d.tif", baseName, groupNum)
}

// WriteGroup writes one composite image as a deflate-compressed 16-bit TIFF,
// overwriting any prior output for the same group number. Returns the
// written path.
func WriteGroup(dir, baseName string, groupNum int, img *image.Gray16) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, GroupFileName(baseName, groupNum))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create composite file: %w", err)
	}
	defer f.Close()

	opts := &tiff.Options{Compression: tiff.Deflate}
	if err := tiff.Encode(f, img, opts); err != nil {
		return "", fmt.Errorf("failed to encode composite TIFF: %w", err)
	}
	return path, nil
}

// RemoveStale deletes composite files numbered beyond keep, so rerunning
// with a smaller bin count leaves no orphaned output from a larger-k run.
// Matching is by glob rather than sequential probing, so stale files survive
// neither renumbering nor gaps left by an earlier failed write. Returns the
// number of files removed.
func RemoveStale(dir, baseName string, keep int) int {
	matches, err := filepath.Glob(filepath.Join(dir, baseName+"_bin_*.tif"))
	if err != nil {
		return 0
	}

	prefix := baseName + "_bin_"
	removed := 0
	for _, path := range matches {
		name := filepath.Base(path)
		numStr := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".tif")
		num, err := strconv.Atoi(numStr)
		if err != nil || num <= keep {
			continue
		}
		if err := os.Remove(path); err == nil {
			removed++
		}
	}
	return removed
}
