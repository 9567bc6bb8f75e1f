package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/nvr-ai/go-raster/cluster"
	"github.com/nvr-ai/go-raster/partition"
)

func main() {
	var (
		input    string
		output   string
		filter   string
		width    int
		height   int
		workers  int
		padSeams bool
	)
	flag.StringVar(&input, "input", "", "Input image file (.jpg, .jpeg, .png, .webp)")
	flag.StringVar(&output, "output", "", "Output image file (.jpg, .jpeg, .png, .webp)")
	flag.StringVar(&filter, "filter", "", "Filter to apply: invert, brightness, contrast (anything else is a pass-through)")
	flag.IntVar(&width, "width", 0, "Target width (0 keeps the original)")
	flag.IntVar(&height, "height", 0, "Target height (0 keeps the original)")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "Worker count, coordinator included")
	flag.BoolVar(&padSeams, "pad-seams", false, "Assign rows lost to seam truncation to the last worker")
	flag.Parse()

	if input == "" || output == "" {
		flag.Usage()
		os.Exit(2)
	}

	strategy := partition.TruncateSeams
	if padSeams {
		strategy = partition.PadLastWorker
	}

	res, err := cluster.Run(cluster.Config{
		InputPath:  input,
		OutputPath: output,
		Filter:     filter,
		NewWidth:   width,
		NewHeight:  height,
		Workers:    workers,
		Strategy:   strategy,
	})
	if err != nil {
		log.Fatalf("raster: %v", err)
	}

	fmt.Printf("Saved %s (%dx%d)\n", res.OutputPath, res.Width, res.Height)
	fmt.Printf("Total processing time: %v\n", res.Elapsed)
	fmt.Printf("Total workers used: %d\n", res.Workers)
}
