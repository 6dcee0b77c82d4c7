package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"runtime"
	"strings"
	"time"

	"radarx/internal/units"
	"radarx/pkg/config"
	"radarx/pkg/gridding"
	"radarx/pkg/gridio"
)

func main() {
	// Parse command line arguments
	inputPath := flag.String("input", "", "Radar volume artifact to grid (.msgpack or .msgpack.zst)")
	outputPath := flag.String("output", "gridded.msgpack.zst", "Output gridded product path")
	configPath := flag.String("config", "radarx.yaml", "YAML configuration file (defaults used when missing)")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	dataVars := flag.String("vars", "", "Comma-separated moment names to grid (overrides config)")
	pseudoCappi := flag.Bool("pseudo-cappi", false, "Force pseudo-CAPPI mode (overrides config)")
	volumetric := flag.Bool("volumetric", false, "Force full volumetric mode (overrides config)")
	numCores := flag.Int("cores", runtime.NumCPU(), "Number of CPU cores to use (default: all available)")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	if *inputPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	opts := cfg.Options()
	if *dataVars != "" {
		opts.DataVars = strings.Split(*dataVars, ",")
	}
	if *pseudoCappi {
		opts.PseudoCAPPI = true
	}
	if *volumetric {
		opts.PseudoCAPPI = false
	}
	opts.NumCores = *numCores
	if cfg.Processing.Verbose {
		opts.Progress = func(completed, total int, message string) {
			if total > 0 {
				log.Printf("[%d/%d] %s", completed, total, message)
			} else {
				log.Printf("%s", message)
			}
		}
	}

	vol, err := gridio.ReadVolume(*inputPath)
	if err != nil {
		log.Fatalf("Failed to read volume: %v", err)
	}

	fmt.Printf("Gridding %d sweeps from %s (%.4f N, %.4f E)\n",
		len(vol.Sweeps), vol.Site.Name, vol.Site.Lat, vol.Site.Lon)

	startTime := time.Now()
	field, err := gridding.GridRadar(vol, opts)
	if err != nil {
		log.Fatalf("Gridding failed: %v", err)
	}
	elapsed := time.Since(startTime)

	if err := gridio.WriteField(field, *outputPath); err != nil {
		log.Fatalf("Failed to write gridded product: %v", err)
	}

	fmt.Printf("\nGridding completed in %.2f seconds\n", elapsed.Seconds())
	fmt.Printf("Product: %s, grid %dx%dx%d (%.0fx%.0f km, %d levels)\n",
		field.Product, len(field.X), len(field.Y), len(field.Z),
		units.MToKm(opts.XLim[1]-opts.XLim[0]),
		units.MToKm(opts.YLim[1]-opts.YLim[0]),
		len(field.Z))
	for _, v := range opts.DataVars {
		vals, ok := field.Data[v]
		if !ok {
			continue
		}
		covered := 0
		for _, x := range vals {
			if !math.IsNaN(x) {
				covered++
			}
		}
		fmt.Printf("  %s: %.1f%% of cells covered\n", v, 100*float64(covered)/float64(len(vals)))
	}
	fmt.Printf("Output written to %s\n", *outputPath)
}
