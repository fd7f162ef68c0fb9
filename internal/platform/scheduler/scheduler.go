// Package scheduler provides a timezone-aware trigger engine for named
// background jobs. A single goroutine evaluates triggers; job bodies
// registered as blocking are dispatched to a bounded worker pool so a
// slow body never delays other jobs' trigger evaluation.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	// ErrJobExists is returned when registering a job id that already
	// exists and ReplaceExisting is disabled.
	ErrJobExists = errors.New("job id already registered")

	// ErrInvalidInterval is returned for non-positive interval periods.
	ErrInvalidInterval = errors.New("interval period must be positive")
)

const (
	defaultMisfireGrace = 10 * time.Minute
	defaultWorkerPool   = 8
)

// JobFunc is a job body. The context is the scheduler's base context;
// it is not cancelled on shutdown, so long-running bodies that need
// bounded shutdown latency must add their own cancellation check.
type JobFunc func(ctx context.Context) error

// JobStatus describes one registered job for the diagnostic surface.
type JobStatus struct {
	ID       string
	NextFire time.Time
	Trigger  string
}

type jobOptions struct {
	maxInstances    int
	misfireGrace    time.Duration
	replaceExisting bool
	blocking        bool
}

// Option customizes a job registration.
type Option func(*jobOptions)

// WithMaxInstances sets how many invocations of the job may run
// concurrently. The default is 1: an overlapping fire is skipped.
func WithMaxInstances(n int) Option {
	return func(o *jobOptions) { o.maxInstances = n }
}

// WithMisfireGrace bounds how late a missed trigger may still fire.
// Beyond the grace window the firing is dropped silently.
func WithMisfireGrace(d time.Duration) Option {
	return func(o *jobOptions) { o.misfireGrace = d }
}

// WithReplaceExisting controls whether re-registering an existing job id
// replaces the prior registration (default) or fails with ErrJobExists.
func WithReplaceExisting(replace bool) Option {
	return func(o *jobOptions) { o.replaceExisting = replace }
}

// WithBlocking marks the body as blocking: it runs on the worker pool
// instead of inline on the trigger-evaluation goroutine.
func WithBlocking() Option {
	return func(o *jobOptions) { o.blocking = true }
}

type job struct {
	id       string
	schedule cron.Schedule
	trigger  string
	body     JobFunc
	opts     jobOptions

	next    time.Time
	running int // current live invocations, guarded by Scheduler.mu
}

// Scheduler owns the job registry and the trigger-evaluation loop.
type Scheduler struct {
	mu      sync.Mutex
	tz      *time.Location
	parser  cron.Parser
	jobs    map[string]*job
	running bool
	stopCh  chan struct{}
	wakeCh  chan struct{}
	workers chan struct{}

	now func() time.Time // injectable clock
}

// New creates a Scheduler for the given timezone name (e.g. "Asia/Seoul").
func New(tz string) (*Scheduler, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}

	s := &Scheduler{
		tz: loc,
		// Six-field cron expressions with seconds, plus @-descriptors
		parser: cron.NewParser(cron.Second | cron.Minute | cron.Hour |
			cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		jobs:    make(map[string]*job),
		wakeCh:  make(chan struct{}, 1),
		workers: make(chan struct{}, defaultWorkerPool),
	}
	s.now = func() time.Time { return time.Now().In(s.tz) }
	return s, nil
}

// RegisterCron registers a job fired by a six-field cron expression,
// evaluated in the scheduler's timezone unless the spec carries its own
// CRON_TZ override.
func (s *Scheduler) RegisterCron(id, spec string, body JobFunc, opts ...Option) error {
	// Without an explicit timezone the parser pins specs to time.Local.
	parsed := spec
	if !strings.HasPrefix(spec, "TZ=") && !strings.HasPrefix(spec, "CRON_TZ=") {
		parsed = fmt.Sprintf("CRON_TZ=%s %s", s.tz.String(), spec)
	}
	schedule, err := s.parser.Parse(parsed)
	if err != nil {
		return fmt.Errorf("parse cron spec %q: %w", spec, err)
	}
	return s.register(id, schedule, fmt.Sprintf("cron[%s]", spec), body, opts)
}

// RegisterInterval registers a job fired at a fixed period.
func (s *Scheduler) RegisterInterval(id string, period time.Duration, body JobFunc, opts ...Option) error {
	if period <= 0 {
		return ErrInvalidInterval
	}
	return s.register(id, cron.Every(period), fmt.Sprintf("interval[%s]", period), body, opts)
}

func (s *Scheduler) register(id string, schedule cron.Schedule, trigger string, body JobFunc, opts []Option) error {
	o := jobOptions{
		maxInstances:    1,
		misfireGrace:    defaultMisfireGrace,
		replaceExisting: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists && !o.replaceExisting {
		return fmt.Errorf("%w: %s", ErrJobExists, id)
	}

	j := &job{id: id, schedule: schedule, trigger: trigger, body: body, opts: o}
	if s.running {
		j.next = schedule.Next(s.now())
	}
	s.jobs[id] = j

	slog.Info("job registered", "id", id, "trigger", trigger,
		"max_instances", o.maxInstances, "misfire_grace", o.misfireGrace)

	s.wakeLocked()
	return nil
}

// Start computes the first fire time of every registered job and starts
// the trigger-evaluation loop. Starting a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	now := s.now()
	for _, j := range s.jobs {
		j.next = j.schedule.Next(now)
	}
	s.running = true
	s.stopCh = make(chan struct{})
	go s.loop(s.stopCh)

	slog.Info("scheduler started", "timezone", s.tz.String(), "jobs", len(s.jobs))
}

// Shutdown stops future firings. In-flight job bodies are not
// interrupted and are not waited for.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)

	slog.Info("scheduler stopped")
}

// Running reports whether the trigger loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Timezone returns the scheduler's timezone.
func (s *Scheduler) Timezone() *time.Location {
	return s.tz
}

// Jobs returns the status of every registered job, sorted by id.
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, JobStatus{ID: j.id, NextFire: j.next, Trigger: j.trigger})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

// wakeLocked nudges the loop to re-evaluate the earliest fire time.
func (s *Scheduler) wakeLocked() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// loop is the single trigger-evaluation goroutine.
func (s *Scheduler) loop(stopCh chan struct{}) {
	for {
		wait := s.untilNextFire()

		var timerCh <-chan time.Time
		var timer *time.Timer
		if wait >= 0 {
			timer = time.NewTimer(wait)
			timerCh = timer.C
		}

		select {
		case <-stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-s.wakeCh:
			if timer != nil {
				timer.Stop()
			}
		case <-timerCh:
			s.fireDue()
		}
	}
}

// untilNextFire returns the wait until the earliest pending fire, or a
// negative value when no job is scheduled (wait for wake/stop only).
func (s *Scheduler) untilNextFire() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	var earliest time.Time
	for _, j := range s.jobs {
		if j.next.IsZero() {
			continue
		}
		if earliest.IsZero() || j.next.Before(earliest) {
			earliest = j.next
		}
	}
	if earliest.IsZero() {
		return -1
	}

	wait := earliest.Sub(s.now())
	if wait < 0 {
		wait = 0
	}
	return wait
}

type firing struct {
	job       *job
	scheduled time.Time
}

// fireDue fires every job whose scheduled time has arrived, applying
// misfire and overlap policies, and advances next fire times.
func (s *Scheduler) fireDue() {
	s.mu.Lock()

	now := s.now()
	var inline []firing
	for _, j := range s.jobs {
		if j.next.IsZero() || j.next.After(now) {
			continue
		}

		scheduled := j.next
		j.next = j.schedule.Next(now)

		if misfired(scheduled, now, j.opts.misfireGrace) {
			slog.Debug("dropping misfired trigger", "id", j.id,
				"scheduled", scheduled, "late_by", now.Sub(scheduled))
			continue
		}

		if j.running >= j.opts.maxInstances {
			slog.Warn("skipping overlapping fire", "id", j.id, "running", j.running)
			continue
		}
		j.running++

		if j.opts.blocking {
			go s.runPooled(j, scheduled)
		} else {
			inline = append(inline, firing{job: j, scheduled: scheduled})
		}
	}
	s.mu.Unlock()

	// Cooperative bodies run in-place on the loop goroutine.
	for _, f := range inline {
		s.run(f.job, f.scheduled)
	}
}

// misfired reports whether a firing scheduled at scheduled is too late
// to execute at now under the given grace window.
func misfired(scheduled, now time.Time, grace time.Duration) bool {
	return now.Sub(scheduled) > grace
}

// runPooled executes a blocking body on the bounded worker pool.
func (s *Scheduler) runPooled(j *job, scheduled time.Time) {
	s.workers <- struct{}{}
	defer func() { <-s.workers }()
	s.run(j, scheduled)
}

// run executes one invocation. Errors and panics are logged; neither
// unregisters the job nor stops the scheduler.
func (s *Scheduler) run(j *job, scheduled time.Time) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("job panicked", "id", j.id, "panic", r, "stack", string(debug.Stack()))
		}
		s.mu.Lock()
		j.running--
		s.mu.Unlock()
	}()

	slog.Debug("running job", "id", j.id, "scheduled", scheduled)
	if err := j.body(context.Background()); err != nil {
		slog.Error("job failed", "id", j.id, "error", err)
		return
	}
	slog.Debug("job completed", "id", j.id)
}
