// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Run triggers
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// JobStatus is the bookkeeping kept for one registered job
type JobStatus struct {
	Name         string    `json:"name"`
	Schedule     string    `json:"schedule,omitempty"`
	NextRun      time.Time `json:"next_run"`
	Runs         int       `json:"runs"`
	Failures     int       `json:"failures"`
	LastRun      time.Time `json:"last_run"`
	LastDuration float64   `json:"last_duration_ms"`
	LastTrigger  string    `json:"last_trigger,omitempty"`
	LastError    string    `json:"last_error,omitempty"`

	entryID cron.EntryID
}

// Scheduler manages background jobs
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu     sync.RWMutex
	status map[string]*JobStatus
}

// New creates a new scheduler
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		log:    log.With().Str("component", "scheduler").Logger(),
		status: make(map[string]*JobStatus),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a job with a cron schedule.
// Schedules take a leading seconds field or a descriptor:
//   - "0 */5 * * * *"  every 5 minutes
//   - "@hourly"        every hour
//   - "@every 30s"     every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	id, err := s.cron.AddFunc(schedule, func() {
		if err := s.run(job, TriggerSchedule); err != nil {
			s.log.Error().
				Err(err).
				Str("job", job.Name()).
				Msg("Job failed")
		}
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	st := s.statusLocked(job.Name())
	st.Schedule = schedule
	st.entryID = id
	s.mu.Unlock()

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// Jobs returns the number of registered jobs
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return s.run(job, TriggerManual)
}

// Statuses returns a snapshot of every job seen so far, sorted by name.
// Jobs only ever run through RunNow have no schedule or next run.
func (s *Scheduler) Statuses() []JobStatus {
	s.mu.RLock()
	out := make([]JobStatus, 0, len(s.status))
	for _, st := range s.status {
		snapshot := *st
		if st.entryID != 0 {
			snapshot.NextRun = s.cron.Entry(st.entryID).Next
		}
		out = append(out, snapshot)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) run(job Job, trigger string) error {
	s.log.Debug().Str("job", job.Name()).Str("trigger", trigger).Msg("Running job")

	start := time.Now()
	err := job.Run()
	elapsed := time.Since(start)

	s.mu.Lock()
	st := s.statusLocked(job.Name())
	st.Runs++
	st.LastRun = start
	st.LastDuration = float64(elapsed.Microseconds()) / 1000
	st.LastTrigger = trigger
	st.LastError = ""
	if err != nil {
		st.Failures++
		st.LastError = err.Error()
	}
	s.mu.Unlock()

	if err == nil {
		s.log.Debug().Str("job", job.Name()).Dur("duration", elapsed).Msg("Job completed")
	}
	return err
}

func (s *Scheduler) statusLocked(name string) *JobStatus {
	st, ok := s.status[name]
	if !ok {
		st = &JobStatus{Name: name}
		s.status[name] = st
	}
	return st
}
