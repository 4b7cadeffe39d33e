package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wayspot-tools/contribtrack/app/mailapi"
	"github.com/wayspot-tools/contribtrack/app/processor"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler enqueues import passes for enabled sources on their configured
// intervals. A single worker drains the queue: corpus passes are serialized
// by design, and the processor gate backstops that.
type Scheduler struct {
	sources   *mailapi.SourceCache
	processor *processor.Processor
	interval  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	taskQueue chan TaskInterface

	mu      sync.Mutex
	lastRun map[string]time.Time
}

func NewScheduler(sources *mailapi.SourceCache, proc *processor.Processor) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		sources:   sources,
		processor: proc,
		interval:  time.Minute,
		ctx:       ctx,
		cancel:    cancel,
		taskQueue: make(chan TaskInterface, 10),
		lastRun:   make(map[string]time.Time),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueDueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueDueTasks() {
	sources := s.sources.GetEnabledSources()
	if len(sources) == 0 {
		slog.Debug("No enabled email sources found")
		return
	}

	now := time.Now()
	for _, source := range sources {
		s.mu.Lock()
		last := s.lastRun[source.Name]
		due := last.IsZero() || now.Sub(last) >= time.Duration(source.Settings.ImportInterval)*time.Second
		if due {
			s.lastRun[source.Name] = now
		}
		s.mu.Unlock()

		if !due {
			continue
		}

		task := NewImportPassTask(source.Name, s.processor)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue ImportPassTask", "source", source.Name, "error", err)
		}
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	err := task.Execute(s.ctx)
	if err == nil {
		return
	}

	slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		time.Sleep(retryDelay)
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		default:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "error", retryErr)
			}
		}
	}()
}
