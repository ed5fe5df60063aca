// swx-download - Parallel downloader for space weather archives
//
// Fetches solar wind and solar activity source files (NASA SPDF OMNI2,
// SIDC sunspot numbers, NOAA SWPC flux indices). Files already on disk
// are skipped, so repeated runs only pull what is missing.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/swx-download ./cmd/swx-download

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/swxlab/swx-data-apps/internal/common"
	"github.com/swxlab/swx-data-apps/internal/fetch"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

const omniBaseURL = "https://spdf.gsfc.nasa.gov/pub/data/omni/low_res_omni"

// DataSource defines a fixed space weather data source
type DataSource struct {
	Name     string
	URL      string
	Filename string
	Desc     string
}

var sources = []DataSource{
	{
		Name:     "sidc_daily",
		URL:      "https://www.sidc.be/SILSO/DATA/SN_d_tot_V2.0.csv",
		Filename: "sidc_ssn_daily.csv",
		Desc:     "SIDC/SILSO daily sunspot numbers",
	},
	{
		Name:     "swpc_indices",
		URL:      "https://services.swpc.noaa.gov/json/solar-cycle/observed-solar-cycle-indices.json",
		Filename: "swpc_solar_cycle_indices.json",
		Desc:     "NOAA SWPC observed solar cycle indices",
	},
}

type job struct {
	url  string
	dest string
}

// omniJobs lists one yearly OMNI2 hourly file per year in range.
func omniJobs(startYear, endYear int, destDir string) []job {
	var jobs []job
	for year := startYear; year <= endYear; year++ {
		filename := fmt.Sprintf("omni2_%d.dat", year)
		jobs = append(jobs, job{
			url:  fmt.Sprintf("%s/%s", omniBaseURL, filename),
			dest: filepath.Join(destDir, filename),
		})
	}
	return jobs
}

func main() {
	cfg := common.DefaultConfig()

	destDir := flag.String("dest", cfg.RawDataDir(), "Destination directory")
	workers := flag.Int("workers", 4, "Parallel download workers")
	timeout := flag.Duration("timeout", 300*time.Second, "HTTP timeout per download")
	startYear := flag.Int("start", 1996, "First OMNI2 year")
	endYear := flag.Int("end", time.Now().Year(), "Last OMNI2 year")
	only := flag.String("only", "", "Comma-separated source names (omni, sidc_daily, swpc_indices)")
	listOnly := flag.Bool("list", false, "List files without downloading")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "swx-download v%s - Space Weather Archive Downloader\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [extra URLs...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Downloads solar wind and solar index archives:\n")
		fmt.Fprintf(os.Stderr, "  omni          Yearly OMNI2 hourly merged files (NASA SPDF)\n")
		for _, s := range sources {
			fmt.Fprintf(os.Stderr, "  %-13s %s\n", s.Name, s.Desc)
		}
		fmt.Fprintf(os.Stderr, "\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                              # Everything since 1996\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -start 2020 -end 2024        # OMNI2 2020-2024 plus indices\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -only sidc_daily             # One source only\n", os.Args[0])
	}

	flag.Parse()

	if *startYear < 1963 || *endYear < *startYear {
		fmt.Fprintf(os.Stderr, "Error: Invalid year range %d-%d (OMNI2 starts 1963)\n", *startYear, *endYear)
		os.Exit(1)
	}

	wanted := map[string]bool{}
	for _, name := range strings.Split(*only, ",") {
		if name = strings.TrimSpace(name); name != "" {
			wanted[name] = true
		}
	}
	selected := func(name string) bool {
		return len(wanted) == 0 || wanted[name]
	}

	var jobs []job
	if selected("omni") {
		jobs = append(jobs, omniJobs(*startYear, *endYear, *destDir)...)
	}
	for _, s := range sources {
		if selected(s.Name) {
			jobs = append(jobs, job{url: s.URL, dest: filepath.Join(*destDir, s.Filename)})
		}
	}
	for _, url := range flag.Args() {
		jobs = append(jobs, job{url: url, dest: filepath.Join(*destDir, filepath.Base(url))})
	}

	if *listOnly {
		fmt.Printf("Space weather archives (%d files):\n\n", len(jobs))
		for _, j := range jobs {
			fmt.Printf("  %s\n", j.url)
		}
		return
	}

	fmt.Println("=========================================================")
	fmt.Printf("SWX Download v%s\n", Version)
	fmt.Println("=========================================================")
	fmt.Printf("Destination: %s\n", *destDir)
	fmt.Printf("Files:       %d\n", len(jobs))
	fmt.Printf("Workers:     %d parallel\n", *workers)
	fmt.Printf("Timeout:     %v per file\n", *timeout)
	fmt.Println()

	if err := os.MkdirAll(*destDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Cannot create directory: %v\n", err)
		os.Exit(1)
	}

	startTime := time.Now()
	stats := &fetch.Stats{}

	sem := make(chan struct{}, *workers)
	var wg sync.WaitGroup

	for _, j := range jobs {
		sem <- struct{}{}
		wg.Add(1)

		go func(j job) {
			defer func() { <-sem }()
			defer wg.Done()

			name := filepath.Base(j.dest)
			before := stats.Skipped.Load()
			if err := fetch.IfAbsent(j.url, j.dest, *timeout, stats); err != nil {
				fmt.Printf("[%s] ERROR: %v\n", name, err)
			} else if stats.Skipped.Load() > before {
				fmt.Printf("[%s] Skipped (exists)\n", name)
			} else {
				fmt.Printf("[%s] Downloaded\n", name)
			}
		}(j)
	}

	wg.Wait()

	elapsed := time.Since(startTime)
	completed := stats.Completed.Load()
	failed := stats.Failed.Load()
	skipped := stats.Skipped.Load()
	bytes := stats.Bytes.Load()

	fmt.Println()
	fmt.Println("=========================================================")
	fmt.Println("Download Summary")
	fmt.Println("=========================================================")
	fmt.Printf("Downloaded: %d files (%.2f MB)\n", completed, float64(bytes)/1024/1024)
	fmt.Printf("Skipped:    %d files (already exist)\n", skipped)
	fmt.Printf("Failed:     %d files\n", failed)
	fmt.Printf("Elapsed:    %v\n", elapsed.Round(time.Second))
	if completed > 0 && elapsed.Seconds() > 0 {
		fmt.Printf("Speed:      %.2f MB/s\n", float64(bytes)/elapsed.Seconds()/1024/1024)
	}
	fmt.Println("=========================================================")

	if failed > 0 {
		os.Exit(1)
	}
}
