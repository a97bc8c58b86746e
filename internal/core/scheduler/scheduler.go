package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is a recurring unit of work. It receives a context that is
// cancelled when the scheduler stops.
type Task func(ctx context.Context) error

// Scheduler runs named cron tasks. Expressions include a seconds field.
type Scheduler struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

// New creates a scheduler. Each run of a task is bounded by timeout.
func New(timeout time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Scheduler{
		// Overlapping runs of the same task are skipped.
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	log.Println("⏰ Starting scheduler...")
	s.cron.Start()
	log.Println("✅ Scheduler started")
}

// Stop stops the scheduler and waits for running tasks
func (s *Scheduler) Stop() {
	log.Println("⏰ Stopping scheduler...")
	s.cancel()
	<-s.cron.Stop().Done()
	log.Println("✅ Scheduler stopped")
}

// Add registers task under name, replacing any task with the same name
func (s *Scheduler) Add(name, spec string, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.entries[name]; exists {
		s.cron.Remove(entryID)
		delete(s.entries, name)
	}

	entryID, err := s.cron.AddFunc(spec, func() { s.run(name, task) })
	if err != nil {
		return fmt.Errorf("failed to add cron job %s: %w", name, err)
	}

	s.entries[name] = entryID
	log.Printf("   ✅ Scheduled %s: %s", name, spec)
	return nil
}

// Remove removes a task from the scheduler
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.entries[name]; exists {
		s.cron.Remove(entryID)
		delete(s.entries, name)
		log.Printf("   ✅ Removed scheduled task: %s", name)
	}
}

// Names returns the registered task names, sorted
func (s *Scheduler) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunNow executes a registered task immediately on the caller's goroutine
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	entryID, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown task %s", name)
	}
	s.cron.Entry(entryID).Job.Run()
	return nil
}

func (s *Scheduler) run(name string, task Task) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Scheduled task %s panicked: %v", name, r)
		}
	}()

	if err := task(ctx); err != nil {
		log.Printf("❌ Scheduled task %s failed: %v", name, err)
	}
}
