package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service provides high-level job queue functionality
type Service struct {
	queue      *Queue
	workerPool *WorkerPool
}

// NewService creates a new job service
func NewService(db *gorm.DB) *Service {
	return &Service{
		queue:      NewQueue(db),
		workerPool: NewWorkerPool(),
	}
}

// Enqueue adds a new job to the queue
func (s *Service) Enqueue(ctx context.Context, userID uuid.UUID, jobType string, payload interface{}, opts ...EnqueueOptions) (*Job, error) {
	options := DefaultEnqueueOptions()
	if len(opts) > 0 {
		options = opts[0]
	}
	return s.queue.Enqueue(ctx, userID, jobType, payload, options)
}

// EnqueuePublishPost queues a post for publishing
func (s *Service) EnqueuePublishPost(ctx context.Context, userID uuid.UUID, postID string) (*Job, error) {
	return s.Enqueue(ctx, userID, TypePublishPost, PublishPostPayload{PostID: postID}, EnqueueOptions{
		Queue:      QueuePublishing,
		Priority:   PriorityHigh,
		MaxRetries: 3,
	})
}

// RegisterWorker creates and registers a worker for a queue
func (s *Service) RegisterWorker(config WorkerConfig, handlers ...JobHandler) *Worker {
	worker := NewWorker(s.queue, config)
	for _, handler := range handlers {
		worker.RegisterHandler(handler)
	}
	s.workerPool.AddWorker(worker)
	return worker
}

// StartWorkers starts all registered workers
func (s *Service) StartWorkers(ctx context.Context) error {
	return s.workerPool.Start(ctx)
}

// StopWorkers stops all workers
func (s *Service) StopWorkers() {
	s.workerPool.Stop()
}

// Cleanup deletes old finished jobs
func (s *Service) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queue.DeleteOldJobs(ctx, olderThan)
}
