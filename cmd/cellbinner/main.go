// Command cellbinner groups per-cell microscopy images into intensity bins
// and writes one composite image plus provenance records per bin.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"cell-binner/internal/engine"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", "", "Optional YAML run configuration")
	out := flag.String("out", "output", "Output root directory")
	bins := flag.Int("bins", 3, "Requested number of intensity bins")
	metric := flag.String("metric", "auc", "Feature metric: auc, peak, or signal_ground")
	force := flag.Bool("force", false, "Force quantile redistribution when clustering under-delivers")
	seed := flag.Int64("seed", 42, "Random seed for reproducible clustering")
	channels := flag.String("channels", "", "Comma-separated channel names to record in the summary")
	flag.Parse()

	dirs := flag.Args()
	if len(dirs) == 0 {
		fmt.Println("Usage: cellbinner [flags] <cell-directory> [<cell-directory> ...]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := engine.DefaultConfig()
	if *configPath != "" {
		loaded, err := engine.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg.Bins = *bins
		cfg.Metric = *metric
		cfg.ForceRedistribute = *force
		cfg.Seed = *seed
		if *channels != "" {
			cfg.Channels = strings.Split(*channels, ",")
		}
	}
	if cfg.OutputRoot == "" {
		cfg.OutputRoot = *out
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	results := engine.RunAll(dirs, cfg)

	succeeded := 0
	fmt.Printf("\n%-40s %s\n", "Directory", "Result")
	for _, dir := range dirs {
		status := "FAILED"
		if results[dir] {
			status = "ok"
			succeeded++
		}
		fmt.Printf("%-40s %s\n", dir, status)
	}
	fmt.Printf("\n%d of %d directories grouped\n", succeeded, len(dirs))

	if succeeded == 0 {
		os.Exit(1)
	}
}
