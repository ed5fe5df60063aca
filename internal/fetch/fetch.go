// Package fetch retrieves remote archive files, skipping anything
// already on disk. Downloads land in a temp file and are renamed into
// place only when complete, so an interrupted transfer never leaves a
// truncated archive behind.
package fetch

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

// Stats counts download outcomes across workers.
type Stats struct {
	Completed atomic.Uint64
	Failed    atomic.Uint64
	Skipped   atomic.Uint64
	Bytes     atomic.Uint64
}

// IfAbsent downloads url to destPath unless a non-empty file already
// exists there. The transfer is blocking, bounded by timeout, and
// atomic: data is written to destPath+".tmp" and renamed on success.
func IfAbsent(url, destPath string, timeout time.Duration, stats *Stats) error {
	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		stats.Skipped.Add(1)
		return nil
	}

	client := &http.Client{
		Timeout: timeout,
	}

	resp, err := client.Get(url)
	if err != nil {
		stats.Failed.Add(1)
		return fmt.Errorf("HTTP GET failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		stats.Failed.Add(1)
		return fmt.Errorf("not found (404)")
	}
	if resp.StatusCode != http.StatusOK {
		stats.Failed.Add(1)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		stats.Failed.Add(1)
		return fmt.Errorf("create file failed: %w", err)
	}

	n, err := io.Copy(f, resp.Body)
	f.Close()

	if err != nil {
		os.Remove(tmpPath)
		stats.Failed.Add(1)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		stats.Failed.Add(1)
		return fmt.Errorf("rename failed: %w", err)
	}

	stats.Bytes.Add(uint64(n))
	stats.Completed.Add(1)
	return nil
}
