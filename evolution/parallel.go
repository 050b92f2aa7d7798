package evolution

import (
	"runtime"
	"sync"

	"github.com/pthm-cable/gait/organism"
)

// DefaultParallelThreshold is the minimum organism count to use the worker pool.
// Below this, single-threaded is faster due to goroutine overhead.
const DefaultParallelThreshold = 64

// thinkJob is one organism's brain update for the current tick.
// Stimuli are gathered before any job runs.
type thinkJob struct {
	idx     int
	rt      *organism.Runtime
	stimuli []float32
}

// workChunk represents a range of jobs for a worker to process.
type workChunk struct {
	start, end int
}

// brainPool runs Runtime.Think over contiguous chunks on persistent workers.
// Each job touches only its own runtime, so chunks never share writes.
type brainPool struct {
	jobs       []thinkJob
	numWorkers int
	threshold  int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newBrainPool(workers, threshold int) *brainPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}
	return &brainPool{
		numWorkers: workers,
		threshold:  threshold,
		jobs:       make([]thinkJob, 0, 512),
	}
}

// start launches persistent worker goroutines.
func (p *brainPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *brainPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *brainPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.thinkChunk(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// run thinks every queued job and returns once all have finished.
func (p *brainPool) run() {
	n := len(p.jobs)
	if n == 0 {
		return
	}
	if n < p.threshold || p.numWorkers == 1 {
		p.thinkChunk(0, n)
		return
	}

	p.start()

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

func (p *brainPool) thinkChunk(i0, i1 int) {
	for i := i0; i < i1; i++ {
		job := &p.jobs[i]
		job.rt.Think(job.stimuli)
	}
}
