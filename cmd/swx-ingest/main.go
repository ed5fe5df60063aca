// swx-ingest - Solar wind data ingestion into ClickHouse
//
// Loads SWMF IMF files (or previously converted parquet) into the
// common container, computes derived quantities, and inserts one row
// per sample into ClickHouse using batched inserts.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/swx-ingest ./cmd/swx-ingest

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/swxlab/swx-data-apps/internal/common"
	"github.com/swxlab/swx-data-apps/internal/container"
	"github.com/swxlab/swx-data-apps/internal/formats"
	"github.com/swxlab/swx-data-apps/internal/swdata"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

var imfColumns = []string{"bx", "by", "bz", "vx", "vy", "vz", "rho", "temp", "b", "v", "clock", "epsilon"}

func main() {
	cfg := common.DefaultConfig()

	chHost := flag.String("ch-host", cfg.ClickHouseHost, "ClickHouse address")
	chDB := flag.String("ch-db", cfg.ClickHouseDatabase, "ClickHouse database")
	chTable := flag.String("ch-table", "solarwind", "ClickHouse table")
	truncate := flag.Bool("truncate", false, "Truncate table before insert")
	silent := flag.Bool("silent", false, "Suppress progress output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "swx-ingest v%s - Solar Wind Ingester\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] files...\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Ingests solar wind samples into ClickHouse.\n")
		fmt.Fprintf(os.Stderr, "Inputs: SWMF IMF ASCII (optionally .gz) or solar wind parquet.\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	log.Println("=========================================================")
	log.Printf("SWX Ingest v%s", Version)
	log.Println("=========================================================")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("\nShutdown requested...")
		cancel()
	}()

	log.Printf("Connecting to ClickHouse at %s...", *chHost)
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{*chHost},
		Auth: clickhouse.Auth{
			Database: *chDB,
			Username: cfg.ClickHouseUser,
			Password: cfg.ClickHousePassword,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		log.Fatalf("ClickHouse connection failed: %v", err)
	}
	defer conn.Close()

	if err := conn.Ping(ctx); err != nil {
		log.Fatalf("ClickHouse ping failed: %v", err)
	}

	tableFQN := fmt.Sprintf("%s.%s", *chDB, *chTable)
	log.Printf("Table: %s", tableFQN)

	if *truncate {
		log.Printf("Truncating table %s...", tableFQN)
		if err := conn.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s", tableFQN)); err != nil {
			log.Printf("Truncate warning: %v", err)
		}
	}

	stats := common.NewStats()
	stats.SetSilent(*silent)
	stats.StartReporter()
	defer stats.StopReporter()

	startTime := time.Now()

	for _, path := range flag.Args() {
		select {
		case <-ctx.Done():
			log.Println("Cancelled")
			os.Exit(1)
		default:
		}

		n, err := ingestFile(ctx, conn, tableFQN, path, stats)
		if err != nil {
			log.Printf("[%s] ERROR: %v", filepath.Base(path), err)
			continue
		}
		log.Printf("[%s] Inserted %d rows", filepath.Base(path), n)
		stats.FileDone()
	}

	elapsed := time.Since(startTime)

	log.Println()
	log.Println("=========================================================")
	log.Println("Final Statistics")
	log.Println("=========================================================")
	log.Printf("Total Rows: %d", stats.Rows())
	log.Printf("Files:      %d", stats.Files())
	log.Printf("Elapsed:    %v", elapsed.Round(time.Millisecond))
	if elapsed.Seconds() > 0 {
		log.Printf("Rate:       %.0f rows/sec", float64(stats.Rows())/elapsed.Seconds())
	}
	log.Println("=========================================================")
}

func ingestFile(ctx context.Context, conn driver.Conn, tableFQN, path string, stats *common.Stats) (int, error) {
	c, err := formats.Load(path)
	if err != nil {
		return 0, err
	}

	// Derived quantities ride along in the same table.
	if err := swdata.CalcEpsilon(c); err != nil {
		return 0, err
	}

	times, cols, err := imfSeries(c)
	if err != nil {
		return 0, err
	}

	if info, err := os.Stat(path); err == nil {
		stats.AddBytes(uint64(info.Size()))
	}

	batch, err := conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s", tableFQN))
	if err != nil {
		return 0, err
	}

	sourceFile := filepath.Base(path)
	for i := range times {
		err := batch.Append(
			time.Unix(times[i], 0).UTC(),
			cols["bx"][i], cols["by"][i], cols["bz"][i],
			cols["vx"][i], cols["vy"][i], cols["vz"][i],
			cols["rho"][i], cols["temp"][i],
			cols["b"][i], cols["v"][i], cols["clock"][i], cols["epsilon"][i],
			sourceFile,
		)
		if err != nil {
			batch.Abort()
			return 0, fmt.Errorf("append row %d: %w", i, err)
		}
	}

	if err := batch.Send(); err != nil {
		return 0, err
	}

	stats.AddRows(uint64(len(times)))
	return len(times), nil
}

// imfSeries pulls the time axis and all columns out of the container,
// checking they share one length.
func imfSeries(c *container.Container) ([]int64, map[string][]float64, error) {
	node, err := c.Get(swdata.GroupName + "/time")
	if err != nil {
		return nil, nil, err
	}
	data, ok := node.Data()
	if !ok {
		return nil, nil, fmt.Errorf("imf/time is not a variable")
	}
	times, ok := data.Int64s()
	if !ok {
		return nil, nil, fmt.Errorf("imf/time is not int64")
	}

	cols := make(map[string][]float64, len(imfColumns))
	for _, name := range imfColumns {
		node, err := c.Get(swdata.GroupName + "/" + name)
		if err != nil {
			return nil, nil, err
		}
		data, ok := node.Data()
		if !ok {
			return nil, nil, fmt.Errorf("imf/%s is not a variable", name)
		}
		vals, ok := data.AsFloat64s()
		if !ok {
			return nil, nil, fmt.Errorf("imf/%s is not numeric", name)
		}
		if len(vals) != len(times) {
			return nil, nil, fmt.Errorf("imf/%s length %d does not match time axis %d", name, len(vals), len(times))
		}
		cols[name] = vals
	}
	return times, cols, nil
}
