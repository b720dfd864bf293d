package engine

import (
	"sync"

	"github.com/df07/go-mcrt/pkg/core"
	"github.com/df07/go-mcrt/pkg/source"
	"github.com/df07/go-mcrt/pkg/tally"
	"github.com/df07/go-mcrt/pkg/transport"
)

// BatchTask represents one batch of packet histories for the worker pool
type BatchTask struct {
	Index   int // batch index, also the random stream id
	Packets int
}

// BatchResult contains the tally of a finished batch
type BatchResult struct {
	Index   int
	Packets int
	Tally   *tally.Tally
}

// WorkerPool manages parallel batch execution
type WorkerPool struct {
	taskQueue   chan BatchTask
	resultQueue chan BatchResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
	buffers     sync.Pool
}

// Worker runs batches of histories
type Worker struct {
	ID          int
	tracer      *transport.Tracer
	source      source.Source
	seed        uint64
	taskQueue   chan BatchTask
	resultQueue chan BatchResult
	pool        *WorkerPool // Reference to parent pool for buffer reuse
}

// NewWorkerPool creates a worker pool. queueSize bounds the number of
// batches in flight; the caller must not submit more before collecting.
func NewWorkerPool(tracer *transport.Tracer, src source.Source, layout tally.Layout, seed uint64, numWorkers, queueSize int) *WorkerPool {
	wp := &WorkerPool{
		taskQueue:   make(chan BatchTask, queueSize),
		resultQueue: make(chan BatchResult, queueSize),
		numWorkers:  numWorkers,
	}
	wp.buffers.New = func() any { return tally.New(layout) }

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			tracer:      tracer,
			source:      src,
			seed:        seed,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
			pool:        wp,
		})
	}
	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop shuts down all workers after the queued tasks are done
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
}

// SubmitTask submits a batch to the worker pool
func (wp *WorkerPool) SubmitTask(task BatchTask) {
	wp.taskQueue <- task
}

// Results exposes completed batches
func (wp *WorkerPool) Results() <-chan BatchResult {
	return wp.resultQueue
}

// Release returns a merged batch tally for reuse
func (wp *WorkerPool) Release(t *tally.Tally) {
	wp.buffers.Put(t)
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// RunBatch traces one batch into a fresh buffer. The result depends only on
// the seed, the batch index and the packet count.
func RunBatch(tracer *transport.Tracer, src source.Source, seed uint64, task BatchTask, buffer *tally.Tally) {
	buffer.Reset()
	stream := core.NewStream(seed, uint64(task.Index))
	for i := 0; i < task.Packets; i++ {
		tracer.Trace(src.Emit(stream), stream, buffer)
	}
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		buffer := w.pool.buffers.Get().(*tally.Tally)
		RunBatch(w.tracer, w.source, w.seed, task, buffer)
		w.resultQueue <- BatchResult{Index: task.Index, Packets: task.Packets, Tally: buffer}
	}
}
