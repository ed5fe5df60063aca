package common

import (
	"log"
	"sync/atomic"
	"time"
)

// Stats holds atomic counters shared between parse and insert stages.
type Stats struct {
	RowsProcessed uint64 // rows appended to the sink
	BytesRead     uint64 // bytes consumed from source files
	FilesDone     uint64 // source files fully processed

	running  atomic.Bool
	stopCh   chan struct{}
	silent   bool
	lastRows uint64
	lastTime time.Time
}

// NewStats creates a new Stats instance.
func NewStats() *Stats {
	return &Stats{stopCh: make(chan struct{})}
}

// AddRows atomically increments the rows counter.
func (s *Stats) AddRows(count uint64) {
	atomic.AddUint64(&s.RowsProcessed, count)
}

// AddBytes atomically increments the bytes counter.
func (s *Stats) AddBytes(count uint64) {
	atomic.AddUint64(&s.BytesRead, count)
}

// FileDone atomically increments the completed-files counter.
func (s *Stats) FileDone() {
	atomic.AddUint64(&s.FilesDone, 1)
}

// Rows atomically reads the rows counter.
func (s *Stats) Rows() uint64 {
	return atomic.LoadUint64(&s.RowsProcessed)
}

// Bytes atomically reads the bytes counter.
func (s *Stats) Bytes() uint64 {
	return atomic.LoadUint64(&s.BytesRead)
}

// Files atomically reads the completed-files counter.
func (s *Stats) Files() uint64 {
	return atomic.LoadUint64(&s.FilesDone)
}

// SetSilent enables or disables progress output.
func (s *Stats) SetSilent(silent bool) {
	s.silent = silent
}

// StartReporter starts a background goroutine printing progress every
// two seconds until StopReporter is called.
func (s *Stats) StartReporter() {
	if s.running.Load() {
		return
	}
	s.running.Store(true)
	s.lastTime = time.Now()
	s.lastRows = 0
	go s.reporterLoop()
}

// StopReporter stops the background reporter goroutine.
func (s *Stats) StopReporter() {
	if !s.running.Load() {
		return
	}
	s.running.Store(false)
	close(s.stopCh)
}

func (s *Stats) reporterLoop() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.printStatus()
		}
	}
}

func (s *Stats) printStatus() {
	if s.silent {
		return
	}

	now := time.Now()
	elapsed := now.Sub(s.lastTime).Seconds()
	if elapsed < 0.001 {
		return
	}

	rows := s.Rows()
	krps := float64(rows-s.lastRows) / 1000 / elapsed
	mib := float64(s.Bytes()) / 1024 / 1024

	log.Printf("[Progress] %d rows (%.1f krps) | %.1f MiB read | %d files done",
		rows, krps, mib, s.Files())

	s.lastRows = rows
	s.lastTime = now
}
