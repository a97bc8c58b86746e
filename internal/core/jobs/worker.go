package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// ErrNoJobsAvailable is returned when no jobs are available
var ErrNoJobsAvailable = errors.New("no jobs available")

// Worker processes jobs from a queue
type Worker struct {
	queue    *Queue
	config   WorkerConfig
	handlers map[string]JobHandler
	mu       sync.RWMutex
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWorker creates a new job worker
func NewWorker(queue *Queue, config WorkerConfig) *Worker {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultWorkerConfig().Timeout
	}
	return &Worker{
		queue:    queue,
		config:   config,
		handlers: make(map[string]JobHandler),
		stop:     make(chan struct{}),
	}
}

// RegisterHandler registers a job handler for a specific job type
func (w *Worker) RegisterHandler(handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[handler.GetType()] = handler
	log.Printf("✅ Registered job handler: %s", handler.GetType())
}

// Start launches Concurrency polling goroutines
func (w *Worker) Start(ctx context.Context) error {
	select {
	case <-w.stop:
		return fmt.Errorf("worker is stopped, cannot restart")
	default:
	}

	log.Printf("🚀 Starting job worker for queue '%s' with %d workers", w.config.Queue, w.config.Concurrency)

	for i := 0; i < w.config.Concurrency; i++ {
		w.wg.Add(1)
		go w.runWorker(ctx, i+1)
	}
	return nil
}

// Stop signals every goroutine and waits for in-flight jobs to finish
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	log.Printf("🛑 Stopping job worker for queue '%s'...", w.config.Queue)
	w.wg.Wait()
	log.Printf("✅ Job worker stopped")
}

// Wait waits for all workers to finish
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) runWorker(ctx context.Context, workerID int) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			// Drain ready jobs before waiting for the next tick.
			for {
				err := w.processNextJob(ctx, workerID)
				if errors.Is(err, ErrNoJobsAvailable) {
					break
				}
				if err != nil {
					log.Printf("⚠️  Worker #%d error: %v", workerID, err)
					break
				}
				if ctx.Err() != nil {
					return
				}
			}
		}
	}
}

// processNextJob runs one job. Handler failures are recorded on the job
// and do not surface as errors here.
func (w *Worker) processNextJob(ctx context.Context, workerID int) error {
	job, err := w.queue.Dequeue(ctx, w.config.Queue)
	if err != nil {
		return err
	}
	if job == nil {
		return ErrNoJobsAvailable
	}

	log.Printf("🔨 Worker #%d processing job %s (type: %s, attempt: %d)", workerID, job.ID, job.Type, job.Attempts)

	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	if !exists {
		log.Printf("❌ Worker #%d: no handler registered for job type '%s'", workerID, job.Type)
		if _, err := w.queue.MarkFailed(ctx, job.ID, fmt.Errorf("no handler registered for job type: %s", job.Type)); err != nil {
			log.Printf("⚠️  Worker #%d: failed to mark job as failed: %v", workerID, err)
		}
		return nil
	}

	jobCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	startTime := time.Now()
	err = handler.Handle(jobCtx, job)
	duration := time.Since(startTime)

	if err != nil {
		log.Printf("❌ Worker #%d: job %s failed after %v: %v", workerID, job.ID, duration, err)
		exhausted, markErr := w.queue.MarkFailed(ctx, job.ID, err)
		if markErr != nil {
			log.Printf("⚠️  Worker #%d: failed to mark job as failed: %v", workerID, markErr)
			return nil
		}
		if fh, ok := handler.(FailureHandler); ok && exhausted {
			fh.OnFailure(ctx, job, err)
		}
		return nil
	}

	log.Printf("✅ Worker #%d: job %s completed in %v", workerID, job.ID, duration)
	if err := w.queue.MarkCompleted(ctx, job.ID, nil); err != nil {
		log.Printf("⚠️  Worker #%d: failed to mark job as completed: %v", workerID, err)
	}
	return nil
}

// WorkerPool manages multiple workers across different queues
type WorkerPool struct {
	workers []*Worker
	mu      sync.RWMutex
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool() *WorkerPool {
	return &WorkerPool{}
}

// AddWorker adds a worker to the pool
func (p *WorkerPool) AddWorker(worker *Worker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.workers = append(p.workers, worker)
}

// Start starts all workers in the pool
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, worker := range p.workers {
		if err := worker.Start(ctx); err != nil {
			return fmt.Errorf("failed to start worker: %w", err)
		}
	}
	return nil
}

// Stop stops all workers in the pool
func (p *WorkerPool) Stop() {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var wg sync.WaitGroup
	for _, worker := range p.workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			w.Stop()
		}(worker)
	}
	wg.Wait()
}
