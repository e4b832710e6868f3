package relay

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"botrelay/internal/config"
	"botrelay/internal/dbmysql"
	"botrelay/internal/metrics"
)

// Task is one (message, bot) delivery. It lives in memory only.
type Task struct {
	Message *dbmysql.Message
	Bot     dbmysql.User
	Verdict Verdict

	NotBefore time.Time
	Deferrals int
}

func (t *Task) Key() string {
	return t.Message.ID + ":" + t.Bot.ID
}

// TaskHandler runs a task on a scheduler worker.
type TaskHandler func(ctx context.Context, task *Task)

// Scheduler feeds delivery tasks to a fixed worker pool. Schedule never
// blocks; tasks for messages whose attachment is still being analyzed are
// put back on the queue after a delay.
type Scheduler struct {
	tasks   chan *Task
	handle  TaskHandler
	store   Store
	guard   Guard
	workers int

	analysisDelay   time.Duration
	analysisRetries int
	lookupTimeout   time.Duration

	mu     sync.RWMutex
	closed bool
	timers map[*time.Timer]struct{}
	wg     sync.WaitGroup
	log    zerolog.Logger
}

func NewScheduler(cfg config.RelayConfig, store Store, guard Guard, handle TaskHandler, log zerolog.Logger) *Scheduler {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}
	if guard == nil {
		guard = NewMemoryGuard(cfg.GuardTTL)
	}

	s := &Scheduler{
		tasks:           make(chan *Task, queueSize),
		handle:          handle,
		store:           store,
		guard:           guard,
		workers:         workers,
		analysisDelay:   cfg.AnalysisDelay,
		analysisRetries: cfg.AnalysisRetries,
		lookupTimeout:   lookupTimeout,
		timers:          make(map[*time.Timer]struct{}),
		log:             log.With().Str("component", "scheduler").Logger(),
	}

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.work()
	}
	return s
}

// Schedule claims the (message, bot) pair and queues the task. It reports
// whether the task was accepted.
func (s *Scheduler) Schedule(task *Task) bool {
	ok, err := s.guard.Claim(context.Background(), task.Key())
	if err != nil {
		s.log.Warn().Err(err).Str("task", task.Key()).Msg("delivery guard unavailable, scheduling anyway")
		ok = true
	}
	if !ok {
		metrics.TasksDropped.WithLabelValues("duplicate").Inc()
		s.log.Debug().Str("task", task.Key()).Msg("delivery already claimed")
		return false
	}
	return s.enqueue(task)
}

func (s *Scheduler) enqueue(task *Task) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		metrics.TasksDropped.WithLabelValues("shutdown").Inc()
		s.log.Warn().Str("task", task.Key()).Msg("scheduler closed, dropping task")
		return false
	}

	select {
	case s.tasks <- task:
		return true
	default:
		metrics.TasksDropped.WithLabelValues("queue_full").Inc()
		s.log.Error().
			Str("message_id", task.Message.ID).
			Str("bot_id", task.Bot.ID).
			Msg("task queue full, dropping task")
		return false
	}
}

func (s *Scheduler) work() {
	defer s.wg.Done()

	for task := range s.tasks {
		s.run(task)
	}
}

func (s *Scheduler) run(task *Task) {
	if task.Message.HasAttachment() && !task.Message.Attachment.Analyzed && !s.refresh(task) {
		s.deferTask(task)
		return
	}
	s.handle(context.Background(), task)
}

// refresh reports whether the attachment analysis has finished and, if so,
// reloads the message to pick up its metadata.
func (s *Scheduler) refresh(task *Task) bool {
	ctx, cancel := context.WithTimeout(context.Background(), s.lookupTimeout)
	defer cancel()

	analyzed, err := s.store.AttachmentAnalyzed(ctx, task.Message.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("message_id", task.Message.ID).Msg("attachment status unknown")
	}
	if !analyzed {
		return false
	}
	if fresh, err := s.store.MessageByID(ctx, task.Message.ID); err == nil {
		task.Message = fresh
	} else {
		s.log.Warn().Err(err).Str("message_id", task.Message.ID).Msg("failed to reload analyzed message")
	}
	return true
}

func (s *Scheduler) deferTask(task *Task) {
	if task.Deferrals >= s.analysisRetries {
		metrics.TasksDropped.WithLabelValues("analysis_pending").Inc()
		s.log.Warn().
			Str("message_id", task.Message.ID).
			Str("bot_id", task.Bot.ID).
			Int("deferrals", task.Deferrals).
			Msg("attachment never analyzed, dropping task")
		return
	}

	task.Deferrals++
	task.NotBefore = time.Now().Add(s.analysisDelay)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		metrics.TasksDropped.WithLabelValues("shutdown").Inc()
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(s.analysisDelay, func() {
		s.mu.Lock()
		delete(s.timers, timer)
		s.mu.Unlock()
		s.enqueue(task)
	})
	s.timers[timer] = struct{}{}

	s.log.Debug().
		Str("message_id", task.Message.ID).
		Str("bot_id", task.Bot.ID).
		Int("deferral", task.Deferrals).
		Dur("delay", s.analysisDelay).
		Msg("attachment not analyzed yet, deferring task")
}

// Pending returns the number of queued and deferred tasks.
func (s *Scheduler) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks) + len(s.timers)
}

// Shutdown stops accepting tasks, cancels deferrals and waits for the
// workers to finish what is already queued.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for timer := range s.timers {
		if timer.Stop() {
			metrics.TasksDropped.WithLabelValues("shutdown").Inc()
		}
	}
	s.timers = nil
	close(s.tasks)
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info().Msg("scheduler shutdown complete")
}
