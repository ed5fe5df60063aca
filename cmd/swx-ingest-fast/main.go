// swx-ingest-fast - Solar wind ingestion over the ClickHouse native protocol
//
// Same inputs as swx-ingest, but rows are appended straight into
// native protocol column blocks (ch-go), skipping the row interface
// entirely. Preferred for bulk backfills of long OMNI/IMF series.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/swx-ingest-fast ./cmd/swx-ingest-fast

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

	"github.com/ClickHouse/ch-go"
	"github.com/ClickHouse/ch-go/proto"

	"github.com/swxlab/swx-data-apps/internal/common"
	"github.com/swxlab/swx-data-apps/internal/formats"
	"github.com/swxlab/swx-data-apps/internal/swdata"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

// FlushRows bounds how many samples accumulate before an insert.
const FlushRows = 1_000_000

// SolarWindBatch holds column data for native insert
type SolarWindBatch struct {
	Time       *proto.ColDateTime
	Bx         *proto.ColFloat64
	By         *proto.ColFloat64
	Bz         *proto.ColFloat64
	Vx         *proto.ColFloat64
	Vy         *proto.ColFloat64
	Vz         *proto.ColFloat64
	Rho        *proto.ColFloat64
	Temp       *proto.ColFloat64
	B          *proto.ColFloat64
	V          *proto.ColFloat64
	Clock      *proto.ColFloat64
	Epsilon    *proto.ColFloat64
	SourceFile *proto.ColStr
}

func NewSolarWindBatch() *SolarWindBatch {
	return &SolarWindBatch{
		Time:       new(proto.ColDateTime),
		Bx:         new(proto.ColFloat64),
		By:         new(proto.ColFloat64),
		Bz:         new(proto.ColFloat64),
		Vx:         new(proto.ColFloat64),
		Vy:         new(proto.ColFloat64),
		Vz:         new(proto.ColFloat64),
		Rho:        new(proto.ColFloat64),
		Temp:       new(proto.ColFloat64),
		B:          new(proto.ColFloat64),
		V:          new(proto.ColFloat64),
		Clock:      new(proto.ColFloat64),
		Epsilon:    new(proto.ColFloat64),
		SourceFile: new(proto.ColStr),
	}
}

func (b *SolarWindBatch) Reset() {
	b.Time.Reset()
	b.Bx.Reset()
	b.By.Reset()
	b.Bz.Reset()
	b.Vx.Reset()
	b.Vy.Reset()
	b.Vz.Reset()
	b.Rho.Reset()
	b.Temp.Reset()
	b.B.Reset()
	b.V.Reset()
	b.Clock.Reset()
	b.Epsilon.Reset()
	b.SourceFile.Reset()
}

func (b *SolarWindBatch) Len() int {
	return b.Time.Rows()
}

func (b *SolarWindBatch) Input() proto.Input {
	return proto.Input{
		{Name: "time", Data: b.Time},
		{Name: "bx", Data: b.Bx},
		{Name: "by", Data: b.By},
		{Name: "bz", Data: b.Bz},
		{Name: "vx", Data: b.Vx},
		{Name: "vy", Data: b.Vy},
		{Name: "vz", Data: b.Vz},
		{Name: "rho", Data: b.Rho},
		{Name: "temp", Data: b.Temp},
		{Name: "b", Data: b.B},
		{Name: "v", Data: b.V},
		{Name: "clock", Data: b.Clock},
		{Name: "epsilon", Data: b.Epsilon},
		{Name: "source_file", Data: b.SourceFile},
	}
}

func (b *SolarWindBatch) AddSample(ts time.Time, row map[string]float64, sourceFile string) {
	b.Time.Append(ts)
	b.Bx.Append(row["bx"])
	b.By.Append(row["by"])
	b.Bz.Append(row["bz"])
	b.Vx.Append(row["vx"])
	b.Vy.Append(row["vy"])
	b.Vz.Append(row["vz"])
	b.Rho.Append(row["rho"])
	b.Temp.Append(row["temp"])
	b.B.Append(row["b"])
	b.V.Append(row["v"])
	b.Clock.Append(row["clock"])
	b.Epsilon.Append(row["epsilon"])
	b.SourceFile.Append(sourceFile)
}

func flushBatch(ctx context.Context, conn *ch.Client, tableFQN string, batch *SolarWindBatch) error {
	if batch.Len() == 0 {
		return nil
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (time, bx, by, bz, vx, vy, vz, rho, temp, b, v, clock, epsilon, source_file) VALUES",
		tableFQN)
	return conn.Do(ctx, ch.Query{
		Body:  query,
		Input: batch.Input(),
	})
}

var columns = []string{"bx", "by", "bz", "vx", "vy", "vz", "rho", "temp", "b", "v", "clock", "epsilon"}

// appendFile loads one input into the batch.
func appendFile(path string, batch *SolarWindBatch) (int, error) {
	c, err := formats.Load(path)
	if err != nil {
		return 0, err
	}
	if err := swdata.CalcEpsilon(c); err != nil {
		return 0, err
	}

	node, err := c.Get(swdata.GroupName + "/time")
	if err != nil {
		return 0, err
	}
	data, _ := node.Data()
	times, ok := data.Int64s()
	if !ok {
		return 0, fmt.Errorf("imf/time is not int64")
	}

	series := make(map[string][]float64, len(columns))
	for _, name := range columns {
		node, err := c.Get(swdata.GroupName + "/" + name)
		if err != nil {
			return 0, err
		}
		data, _ := node.Data()
		vals, ok := data.AsFloat64s()
		if !ok || len(vals) != len(times) {
			return 0, fmt.Errorf("imf/%s missing or mismatched", name)
		}
		series[name] = vals
	}

	sourceFile := filepath.Base(path)
	row := make(map[string]float64, len(columns))
	for i, ts := range times {
		for _, name := range columns {
			row[name] = series[name][i]
		}
		batch.AddSample(time.Unix(ts, 0).UTC(), row, sourceFile)
	}
	return len(times), nil
}

func main() {
	cfg := common.DefaultConfig()

	chHost := flag.String("ch-host", cfg.ClickHouseHost, "ClickHouse address")
	chDB := flag.String("ch-db", cfg.ClickHouseDatabase, "ClickHouse database")
	chTable := flag.String("ch-table", "solarwind", "ClickHouse table")
	truncate := flag.Bool("truncate", false, "Truncate table before insert")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "swx-ingest-fast v%s - Native Protocol Solar Wind Ingester\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] files...\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Bulk-loads solar wind samples via the ClickHouse native protocol.\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	log.Println("=========================================================")
	log.Printf("SWX Fast Ingest v%s", Version)
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
	conn, err := ch.Dial(ctx, ch.Options{
		Address:     *chHost,
		Database:    *chDB,
		User:        cfg.ClickHouseUser,
		Password:    cfg.ClickHousePassword,
		Compression: ch.CompressionLZ4,
	})
	if err != nil {
		log.Fatalf("ClickHouse connection failed: %v", err)
	}
	defer conn.Close()

	tableFQN := fmt.Sprintf("%s.%s", *chDB, *chTable)
	log.Printf("Table: %s", tableFQN)

	if *truncate {
		log.Printf("Truncating table %s...", tableFQN)
		if err := conn.Do(ctx, ch.Query{Body: fmt.Sprintf("TRUNCATE TABLE %s", tableFQN)}); err != nil {
			log.Printf("Truncate warning: %v", err)
		}
	}

	startTime := time.Now()
	totalRows := 0
	batch := NewSolarWindBatch()

	for _, path := range flag.Args() {
		select {
		case <-ctx.Done():
			log.Println("Cancelled")
			os.Exit(1)
		default:
		}

		count, err := appendFile(path, batch)
		if err != nil {
			log.Printf("[%s] ERROR: %v", filepath.Base(path), err)
			continue
		}

		log.Printf("[%s] Parsed %d samples", filepath.Base(path), count)
		totalRows += count

		if batch.Len() >= FlushRows {
			if err := flushBatch(ctx, conn, tableFQN, batch); err != nil {
				log.Fatalf("Insert error: %v", err)
			}
			log.Printf("Flushed %d rows", batch.Len())
			batch.Reset()
		}
	}

	if batch.Len() > 0 {
		if err := flushBatch(ctx, conn, tableFQN, batch); err != nil {
			log.Fatalf("Insert error: %v", err)
		}
		log.Printf("Inserted %d rows", batch.Len())
	}

	elapsed := time.Since(startTime)

	log.Println()
	log.Println("=========================================================")
	log.Println("Final Statistics")
	log.Println("=========================================================")
	log.Printf("Total Samples: %d", totalRows)
	log.Printf("Elapsed:       %v", elapsed.Round(time.Millisecond))
	if elapsed.Seconds() > 0 {
		log.Printf("Rate:          %.0f samples/sec", float64(totalRows)/elapsed.Seconds())
	}
	log.Println("=========================================================")
}
