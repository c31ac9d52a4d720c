package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/time/rate"
)

// Priority orders tasks waiting for the same platform budget. On-demand
// work nominated as high priority overtakes queued scheduled work.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
)

var (
	// ErrUnknownPlatform is returned for platform keys missing from the
	// scheduler configuration.
	ErrUnknownPlatform = errors.New("ratelimit: unknown platform")
	// ErrStopped is returned to tasks still waiting when the scheduler
	// shuts down.
	ErrStopped = errors.New("ratelimit: scheduler stopped")
)

// maxPenaltyShift caps adaptive spacing growth at 16x the configured gap.
const maxPenaltyShift = 4

// statusError matches errors that carry an upstream HTTP status.
type statusError interface {
	HTTPStatus() int
}

type task struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error // buffered, the dispatcher never blocks on it
}

// Stats is a point-in-time snapshot of one platform budget.
type Stats struct {
	Platform           string `json:"platform"`
	Running            int    `json:"running"`
	Queued             int    `json:"queued"`
	Completed          uint64 `json:"completed"`
	Failed             uint64 `json:"failed"`
	EffectiveSpacingMS int64  `json:"effective_spacing_ms"`
}

type platformLimiter struct {
	name     string
	cfg      Config
	limiter  *rate.Limiter
	slots    chan struct{}
	highCh   chan *task
	normalCh chan *task

	mu           sync.Mutex
	lastDispatch time.Time
	penalty      int
	running      int
	completed    uint64
	failed       uint64
}

// Scheduler admits outbound provider requests under per-platform budgets:
// a token bucket, a concurrency cap and a minimum gap between dispatches.
// Each platform is drained by its own dispatcher goroutine, so one slow
// platform never starves another.
type Scheduler struct {
	platforms map[string]*platformLimiter
	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
}

// NewScheduler creates a scheduler with one budget per config entry.
func NewScheduler(configs map[string]Config) *Scheduler {
	platforms := make(map[string]*platformLimiter, len(configs))
	for name, cfg := range configs {
		if cfg.Burst <= 0 {
			cfg.Burst = 1
		}
		if cfg.MaxConcurrent <= 0 {
			cfg.MaxConcurrent = 1
		}
		if cfg.QueueSize <= 0 {
			cfg.QueueSize = 256
		}

		p := &platformLimiter{
			name:     name,
			cfg:      cfg,
			limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
			slots:    make(chan struct{}, cfg.MaxConcurrent),
			highCh:   make(chan *task, cfg.QueueSize),
			normalCh: make(chan *task, cfg.QueueSize),
		}
		for i := 0; i < cfg.MaxConcurrent; i++ {
			p.slots <- struct{}{}
		}
		platforms[name] = p
	}

	return &Scheduler{
		platforms: platforms,
		stopCh:    make(chan struct{}),
	}
}

// Start starts one dispatcher per platform budget.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.running = true
	log.Infof("[RateLimit] Starting scheduler with %d platform budgets", len(s.platforms))

	for _, p := range s.platforms {
		s.wg.Add(1)
		go s.dispatch(p)
	}
}

// Stop stops the dispatchers, fails everything still queued with
// ErrStopped and waits for in-flight tasks to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	log.Info("[RateLimit] Stopping scheduler...")
	close(s.stopCh)
	s.running = false
	s.wg.Wait()
	log.Info("[RateLimit] Scheduler stopped")
}

type priorityKey struct{}

// WithPriority marks every Schedule call made under ctx with the given
// queue class. The sync engine tags on-demand work this way so adapters
// stay unaware of scheduling classes.
func WithPriority(ctx context.Context, prio Priority) context.Context {
	return context.WithValue(ctx, priorityKey{}, prio)
}

// PriorityFromContext returns the queue class carried by ctx, normal when
// none was set.
func PriorityFromContext(ctx context.Context) Priority {
	if prio, ok := ctx.Value(priorityKey{}).(Priority); ok {
		return prio
	}
	return PriorityNormal
}

// Schedule runs fn under the platform budget and returns its error
// unmodified. The queue class is taken from the context. It blocks until
// the task ran or the context or scheduler ended first.
func (s *Scheduler) Schedule(ctx context.Context, platform string, fn func(ctx context.Context) error) error {
	return s.ScheduleWithPriority(ctx, platform, PriorityFromContext(ctx), fn)
}

// ScheduleWithPriority is Schedule with an explicit queue class.
func (s *Scheduler) ScheduleWithPriority(ctx context.Context, platform string, prio Priority, fn func(ctx context.Context) error) error {
	p, ok := s.platforms[platform]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
	}

	t := &task{ctx: ctx, fn: fn, done: make(chan error, 1)}
	queue := p.normalCh
	if prio == PriorityHigh {
		queue = p.highCh
	}

	select {
	case queue <- t:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopCh:
		return ErrStopped
	}

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		// The dispatcher discards the abandoned task on its own, fn
		// never runs with a canceled context.
		return ctx.Err()
	}
}

// Stats returns a snapshot of one platform budget.
func (s *Scheduler) Stats(platform string) (Stats, error) {
	p, ok := s.platforms[platform]
	if !ok {
		return Stats{}, fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
	}
	return p.snapshot(), nil
}

// AllStats returns snapshots of every configured platform budget, sorted
// by platform name.
func (s *Scheduler) AllStats() []Stats {
	names := make([]string, 0, len(s.platforms))
	for name := range s.platforms {
		names = append(names, name)
	}
	sort.Strings(names)

	stats := make([]Stats, 0, len(names))
	for _, name := range names {
		stats = append(stats, s.platforms[name].snapshot())
	}
	return stats
}

// dispatch drains one platform queue in admission order.
func (s *Scheduler) dispatch(p *platformLimiter) {
	defer s.wg.Done()
	log.Infof("[RateLimit] Dispatcher for %s started (rps=%.2f burst=%d concurrency=%d spacing=%s)",
		p.name, p.cfg.RequestsPerSecond, p.cfg.Burst, p.cfg.MaxConcurrent, p.cfg.MinSpacing)

	for {
		t := s.nextTask(p)
		if t == nil {
			log.Infof("[RateLimit] Dispatcher for %s stopping", p.name)
			return
		}
		s.admitAndRun(p, t)
	}
}

// nextTask pops the next waiting task, high priority first. It returns nil
// once the scheduler stops, after replying to everything still queued.
func (s *Scheduler) nextTask(p *platformLimiter) *task {
	select {
	case t := <-p.highCh:
		return t
	default:
	}

	select {
	case t := <-p.highCh:
		return t
	case t := <-p.normalCh:
		return t
	case <-s.stopCh:
		p.failQueued()
		return nil
	}
}

// admitAndRun pushes one task through token bucket, concurrency slot and
// spacing gap, then runs it on its own goroutine.
func (s *Scheduler) admitAndRun(p *platformLimiter, t *task) {
	if err := t.ctx.Err(); err != nil {
		t.done <- err
		return
	}

	if err := p.limiter.Wait(t.ctx); err != nil {
		t.done <- err
		return
	}

	// Waiting for a slot blocks the whole platform queue. That is
	// intended: no task may overtake admission order.
	select {
	case <-p.slots:
	case <-t.ctx.Done():
		t.done <- t.ctx.Err()
		return
	case <-s.stopCh:
		t.done <- ErrStopped
		return
	}

	if err := p.waitSpacing(t.ctx); err != nil {
		p.slots <- struct{}{}
		t.done <- err
		return
	}

	p.mu.Lock()
	p.running++
	p.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := t.fn(t.ctx)
		p.slots <- struct{}{}
		p.record(err)
		t.done <- err
	}()
}

// waitSpacing enforces the minimum gap between dispatches, widened while
// the platform keeps answering 429.
func (p *platformLimiter) waitSpacing(ctx context.Context) error {
	p.mu.Lock()
	next := p.lastDispatch.Add(p.effectiveSpacing())
	now := time.Now()
	if next.Before(now) {
		next = now
	}
	p.lastDispatch = next
	p.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// record updates the counters and the adaptive spacing penalty. Only 429
// answers widen the gap; every success narrows it again.
func (p *platformLimiter) record(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.running--
	if err == nil {
		p.completed++
		if p.penalty > 0 {
			p.penalty--
		}
		return
	}

	p.failed++
	var se statusError
	if errors.As(err, &se) && se.HTTPStatus() == http.StatusTooManyRequests && p.penalty < maxPenaltyShift {
		p.penalty++
		log.Warnf("[RateLimit] Platform %s answered 429, spacing widened to %s", p.name, p.effectiveSpacing())
	}
}

// effectiveSpacing must be called with p.mu held.
func (p *platformLimiter) effectiveSpacing() time.Duration {
	return p.cfg.MinSpacing << uint(p.penalty)
}

func (p *platformLimiter) snapshot() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		Platform:           p.name,
		Running:            p.running,
		Queued:             len(p.highCh) + len(p.normalCh),
		Completed:          p.completed,
		Failed:             p.failed,
		EffectiveSpacingMS: p.effectiveSpacing().Milliseconds(),
	}
}

// failQueued replies ErrStopped to every task still waiting.
func (p *platformLimiter) failQueued() {
	for {
		select {
		case t := <-p.highCh:
			t.done <- ErrStopped
		case t := <-p.normalCh:
			t.done <- ErrStopped
		default:
			return
		}
	}
}
