// Package performance provides batching and runtime memory helpers.
package performance

import (
	"fmt"
	"runtime"
	"sync"
)

// BatchProcessor processes items in batches for improved efficiency.
type BatchProcessor[T any] struct {
	batchSize int
	processor func([]T) error
	items     []T
	processed int
	mu        sync.Mutex
}

// NewBatchProcessor creates a new batch processor. A batchSize below one is
// treated as one.
func NewBatchProcessor[T any](batchSize int, processor func([]T) error) *BatchProcessor[T] {
	if batchSize < 1 {
		batchSize = 1
	}
	return &BatchProcessor[T]{
		batchSize: batchSize,
		processor: processor,
		items:     make([]T, 0, batchSize),
	}
}

// Add adds an item to the batch. If the batch is full, it's processed.
func (b *BatchProcessor[T]) Add(item T) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append(b.items, item)
	if len(b.items) >= b.batchSize {
		return b.flush()
	}
	return nil
}

// Flush processes any remaining items in the batch.
func (b *BatchProcessor[T]) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flush()
}

// Processed returns the number of items handed to the processor without
// error.
func (b *BatchProcessor[T]) Processed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.processed
}

func (b *BatchProcessor[T]) flush() error {
	if len(b.items) == 0 {
		return nil
	}

	err := b.processor(b.items)
	if err == nil {
		b.processed += len(b.items)
	}
	b.items = b.items[:0] // Reset slice but keep capacity
	return err
}

// MemoryStats returns current memory statistics.
func MemoryStats() MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return MemStats{
		Alloc:       m.Alloc,
		TotalAlloc:  m.TotalAlloc,
		Sys:         m.Sys,
		NumGC:       m.NumGC,
		HeapInuse:   m.HeapInuse,
		HeapObjects: m.HeapObjects,
		Goroutines:  runtime.NumGoroutine(),
	}
}

// MemStats contains memory statistics.
type MemStats struct {
	Alloc       uint64 // bytes allocated and still in use
	TotalAlloc  uint64 // bytes allocated (even if freed)
	Sys         uint64 // bytes obtained from system
	NumGC       uint32 // number of completed GC cycles
	HeapInuse   uint64 // bytes in non-idle spans
	HeapObjects uint64 // number of allocated objects
	Goroutines  int    // number of goroutines
}

// FormatBytes formats bytes into human-readable format.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit && exp < 3; n /= unit {
		div *= unit
		exp++
	}
	units := []string{"KB", "MB", "GB", "TB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}
