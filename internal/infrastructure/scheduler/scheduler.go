// Package scheduler runs background jobs on fixed intervals and keeps a
// bounded history of their runs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// DefaultHistorySize is the number of job runs kept for monitoring
const DefaultHistorySize = 100

// Config holds configuration for the scheduler
type Config struct {
	// JobTimeout is the maximum time a single run can take
	JobTimeout time.Duration
	// HistorySize is the number of runs kept in memory
	HistorySize int
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		JobTimeout:  15 * time.Minute,
		HistorySize: DefaultHistorySize,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.HistorySize <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// jobState tracks one registered job
type jobState struct {
	job    Job
	active *atomic.Bool
	runs   *atomic.Int64
	fails  *atomic.Int64
}

// JobInfo describes a registered job
type JobInfo struct {
	Name         string        `json:"name"`
	InitialDelay time.Duration `json:"initial_delay"`
	Interval     time.Duration `json:"interval"`
	Active       bool          `json:"active"`
	Runs         int64         `json:"runs"`
	Failures     int64         `json:"failures"`
}

// Stats is a snapshot of the scheduler state
type Stats struct {
	Running    bool      `json:"running"`
	TotalRuns  int64     `json:"total_runs"`
	FailedRuns int64     `json:"failed_runs"`
	Jobs       []JobInfo `json:"jobs"`
}

// Scheduler runs registered jobs, each on its own interval. A job never
// overlaps itself: a tick that arrives while the previous run is still in
// progress is skipped.
type Scheduler struct {
	config Config
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	jobs   []*jobState
	byName map[string]*jobState

	running    *atomic.Bool
	totalRuns  *atomic.Int64
	failedRuns *atomic.Int64

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Run history for monitoring (in-memory, limited size)
	historyMu sync.RWMutex
	history   []JobRun
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithClock sets the time source used for run timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// New creates a new scheduler
func New(config Config, opts ...Option) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Scheduler{
		config:     config,
		logger:     zap.NewNop(),
		now:        time.Now,
		byName:     make(map[string]*jobState),
		running:    atomic.NewBool(false),
		totalRuns:  atomic.NewInt64(0),
		failedRuns: atomic.NewInt64(0),
		history:    make([]JobRun, 0, config.HistorySize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register adds a job. Jobs can only be registered before Start.
func (s *Scheduler) Register(job Job) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: job %q", err, job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return ErrSchedulerRunning
	}
	if _, exists := s.byName[job.Name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyRegistered, job.Name)
	}

	state := &jobState{
		job:    job,
		active: atomic.NewBool(false),
		runs:   atomic.NewInt64(0),
		fails:  atomic.NewInt64(0),
	}
	s.jobs = append(s.jobs, state)
	s.byName[job.Name] = state
	return nil
}

// Start launches one loop per registered job
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.CAS(false, true) {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, js := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, js)
	}

	s.logger.Info("Scheduler started",
		zap.Int("jobs", len(s.jobs)),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels in-flight runs and waits for every loop to exit
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running.CAS(true, false) {
		s.mu.Unlock()
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the scheduler has been started and not stopped
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// Trigger runs the named job now, outside its schedule, and returns the run
func (s *Scheduler) Trigger(ctx context.Context, name string) (*JobRun, error) {
	if !s.running.Load() {
		return nil, ErrSchedulerNotRunning
	}
	js, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.execute(ctx, js, true)
}

// loop waits for the initial delay, then runs the job on every tick
func (s *Scheduler) loop(ctx context.Context, js *jobState) {
	defer s.wg.Done()

	timer := time.NewTimer(js.job.InitialDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	_, _ = s.execute(ctx, js, false)

	ticker := time.NewTicker(js.job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.execute(ctx, js, false)
		}
	}
}

// execute runs the job once with the configured timeout. Panics are
// recovered and recorded as a failed run.
func (s *Scheduler) execute(ctx context.Context, js *jobState, manual bool) (*JobRun, error) {
	if !js.active.CAS(false, true) {
		s.logger.Warn("Job still running, skipping",
			zap.String("job", js.job.Name),
			zap.Bool("manual", manual),
		)
		return nil, fmt.Errorf("%w: %s", ErrJobInProgress, js.job.Name)
	}
	defer js.active.Store(false)

	run := newJobRun(js.job.Name, manual, s.now())

	runCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.invoke(runCtx, js.job)

	js.runs.Inc()
	s.totalRuns.Inc()
	if err != nil {
		js.fails.Inc()
		s.failedRuns.Inc()
		run.Fail(err.Error(), s.now())
		s.logger.Error("Job failed",
			zap.String("job", run.Job),
			zap.String("run_id", run.ID.String()),
			zap.Bool("manual", manual),
			zap.Duration("duration", run.Duration()),
			zap.Error(err),
		)
	} else {
		run.Complete(s.now())
		s.logger.Info("Job completed",
			zap.String("job", run.Job),
			zap.String("run_id", run.ID.String()),
			zap.Bool("manual", manual),
			zap.Duration("duration", run.Duration()),
		)
	}

	s.addToHistory(*run)
	return run, nil
}

func (s *Scheduler) invoke(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Run(ctx)
}

// addToHistory adds a finished run to the front of the history
func (s *Scheduler) addToHistory(run JobRun) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]JobRun{run}, s.history...)
	if len(s.history) > s.config.HistorySize {
		s.history = s.history[:s.config.HistorySize]
	}
}

// History returns up to limit recent runs, newest first
func (s *Scheduler) History(limit int) []JobRun {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]JobRun, limit)
	copy(result, s.history[:limit])
	return result
}

// Stats returns a snapshot of counters and registered jobs
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	jobs := make([]JobInfo, 0, len(s.jobs))
	for _, js := range s.jobs {
		jobs = append(jobs, JobInfo{
			Name:         js.job.Name,
			InitialDelay: js.job.InitialDelay,
			Interval:     js.job.Interval,
			Active:       js.active.Load(),
			Runs:         js.runs.Load(),
			Failures:     js.fails.Load(),
		})
	}
	s.mu.Unlock()

	return Stats{
		Running:    s.running.Load(),
		TotalRuns:  s.totalRuns.Load(),
		FailedRuns: s.failedRuns.Load(),
		Jobs:       jobs,
	}
}
