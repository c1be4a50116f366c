package wards

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/tj/go-spin"
)

// BatchProcessor fans a batch of items out over a pool of goroutines and
// collects the results back in input order.
type BatchProcessor struct {
	NumWorkers int
}

// NewBatchProcessor creates a batch processor. numWorkers <= 0 means one
// worker per CPU.
func NewBatchProcessor(numWorkers int) *BatchProcessor {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &BatchProcessor{NumWorkers: numWorkers}
}

type batchJob struct {
	index int
	item  interface{}
}

type batchResult struct {
	index int
	value interface{}
}

// Process runs workFunc over every item in parallel. The returned slice
// has one entry per item, in the same positions as the input regardless
// of which worker finished first.
func (bp *BatchProcessor) Process(items []interface{},
	workFunc func(interface{}) interface{},
	label string) []interface{} {

	if len(items) == 0 {
		return []interface{}{}
	}

	tracker := newProgressTracker(int64(len(items)), label)

	jobs := make(chan batchJob, len(items))
	results := make(chan batchResult, len(items))

	var wg sync.WaitGroup
	wg.Add(bp.NumWorkers)
	for w := 0; w < bp.NumWorkers; w++ {
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- batchResult{index: job.index, value: workFunc(job.item)}
				tracker.increment()
			}
		}()
	}

	for i, item := range items {
		jobs <- batchJob{index: i, item: item}
	}
	close(jobs)

	out := make([]interface{}, len(items))
	for i := 0; i < len(items); i++ {
		r := <-results
		out[r.index] = r.value
	}

	wg.Wait()
	close(results)
	tracker.finish()
	return out
}

// progressTracker counts completed items and spins a one-line progress
// indicator on stdout while workers run.
type progressTracker struct {
	total     int64
	processed int64
	label     string
	spinner   *spin.Spinner
	mu        sync.Mutex
}

func newProgressTracker(total int64, label string) *progressTracker {
	return &progressTracker{
		total:   total,
		label:   label,
		spinner: spin.New(),
	}
}

func (pt *progressTracker) increment() {
	processed := atomic.AddInt64(&pt.processed, 1)
	pt.mu.Lock()
	fmt.Printf("\r%s %s %d/%d", pt.spinner.Next(), pt.label, processed, pt.total)
	pt.mu.Unlock()
}

func (pt *progressTracker) finish() {
	fmt.Printf("\r%s: processed %d items\n", pt.label, atomic.LoadInt64(&pt.processed))
}
