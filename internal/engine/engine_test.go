package engine

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"cell-binner/internal/composite"
	"cell-binner/internal/provenance"
)

// writeCellDir populates a directory with 8x8 grayscale cells of the given
// brightness values.
func writeCellDir(t *testing.T, dir string, values []uint8) {
	t.Helper()
	require := func(err error) {
		if err != nil {
			t.Fatalf("fixture: %v", err)
		}
	}
	require(os.MkdirAll(dir, 0755))
	for i, v := range values {
		img := image.NewGray(image.Rect(0, 0, 8, 8))
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				img.SetGray(x, y, color.Gray{Y: v})
			}
		}
		f, err := os.Create(filepath.Join(dir, "cell_"+string(rune('a'+i))+".png"))
		require(err)
		require(png.Encode(f, img))
		require(f.Close())
	}
}

func testConfig(bins int) *Config {
	cfg := DefaultConfig()
	cfg.Bins = bins
	cfg.ForceRedistribute = true
	return cfg
}

func TestRunDirectoryEndToEnd(t *testing.T) {
	cellDir := filepath.Join(t.TempDir(), "regionA")
	writeCellDir(t, cellDir, []uint8{10, 20, 30, 40, 50, 160, 170, 180, 190, 200})
	outDir := t.TempDir()

	ok := RunDirectory(cellDir, outDir, testConfig(2))
	if !ok {
		t.Fatal("RunDirectory returned failure for a valid directory")
	}

	for i := 1; i <= 2; i++ {
		path := filepath.Join(outDir, composite.GroupFileName("regionA", i))
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing composite %s: %v", path, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, provenance.CSVFileName("regionA"))); err != nil {
		t.Errorf("missing provenance CSV: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, provenance.SummaryFileName("regionA"))); err != nil {
		t.Errorf("missing summary: %v", err)
	}
}

func TestRunDirectoryRerunRemovesStaleBins(t *testing.T) {
	cellDir := filepath.Join(t.TempDir(), "regionB")
	writeCellDir(t, cellDir, []uint8{10, 30, 50, 70, 90, 110, 130, 150})
	outDir := t.TempDir()

	if !RunDirectory(cellDir, outDir, testConfig(4)) {
		t.Fatal("first run failed")
	}
	if _, err := os.Stat(filepath.Join(outDir, composite.GroupFileName("regionB", 4))); err != nil {
		t.Fatalf("bin 4 missing after k=4 run: %v", err)
	}

	if !RunDirectory(cellDir, outDir, testConfig(2)) {
		t.Fatal("rerun failed")
	}
	for i := 3; i <= 4; i++ {
		if _, err := os.Stat(filepath.Join(outDir, composite.GroupFileName("regionB", i))); err == nil {
			t.Errorf("stale bin %d survived the smaller-k rerun", i)
		}
	}
}

func TestRunDirectoryDegenerateInput(t *testing.T) {
	// Three identical all-zero cells, five requested bins: reduced to three
	// single-member bins, all-zero composites, no crash.
	cellDir := filepath.Join(t.TempDir(), "dark")
	writeCellDir(t, cellDir, []uint8{0, 0, 0})
	outDir := t.TempDir()

	if !RunDirectory(cellDir, outDir, testConfig(5)) {
		t.Fatal("RunDirectory failed on degenerate input")
	}
	for i := 1; i <= 3; i++ {
		if _, err := os.Stat(filepath.Join(outDir, composite.GroupFileName("dark", i))); err != nil {
			t.Errorf("missing composite for bin %d: %v", i, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, composite.GroupFileName("dark", 4))); err == nil {
		t.Error("bin 4 should not exist when only 3 samples are available")
	}
}

func TestRunDirectoryEmptyInput(t *testing.T) {
	cellDir := t.TempDir()
	if RunDirectory(cellDir, t.TempDir(), testConfig(2)) {
		t.Error("RunDirectory should fail for a directory without cell images")
	}
}

func TestRunAll(t *testing.T) {
	root := t.TempDir()
	dirA := filepath.Join(root, "condA")
	dirB := filepath.Join(root, "condB")
	writeCellDir(t, dirA, []uint8{10, 200})
	writeCellDir(t, dirB, []uint8{20, 220})
	empty := filepath.Join(root, "empty")
	if err := os.MkdirAll(empty, 0755); err != nil {
		t.Fatalf("fixture: %v", err)
	}

	cfg := testConfig(2)
	cfg.OutputRoot = filepath.Join(root, "out")

	results := RunAll([]string{dirA, dirB, empty}, cfg)
	if !results[dirA] || !results[dirB] {
		t.Errorf("expected both populated directories to succeed: %v", results)
	}
	if results[empty] {
		t.Error("empty directory should report failure")
	}

	if _, err := os.Stat(filepath.Join(cfg.OutputRoot, "condA", "condA_bin_1.tif")); err != nil {
		t.Errorf("missing condA output: %v", err)
	}
}
