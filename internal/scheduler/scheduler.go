// Package scheduler runs a job once a day at a fixed local time, checking
// the clock at a fixed poll interval.
package scheduler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultPoll is how often the clock is checked.
const DefaultPoll = 60 * time.Second

// Job is the work run at the scheduled time.
type Job func(ctx context.Context) error

// Scheduler fires Job at most once per calendar day, at or after Hour:Minute.
type Scheduler struct {
	Hour   int
	Minute int

	job     Job
	poll    time.Duration
	now     func() time.Time
	lastRun string
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPoll overrides the poll interval.
func WithPoll(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.poll = d
		}
	}
}

// WithClock overrides the clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// ParseClock parses "HH:MM" in 24-hour form.
func ParseClock(at string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(at), ":")
	if !ok {
		return 0, 0, eris.Errorf("scheduler: invalid time %q, want HH:MM", at)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, eris.Errorf("scheduler: invalid hour in %q", at)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 || len(m) != 2 {
		return 0, 0, eris.Errorf("scheduler: invalid minute in %q", at)
	}
	return hour, minute, nil
}

// New creates a Scheduler firing job daily at "HH:MM". When the process
// starts after today's slot, the first run is tomorrow.
func New(at string, job Job, opts ...Option) (*Scheduler, error) {
	hour, minute, err := ParseClock(at)
	if err != nil {
		return nil, err
	}
	s := &Scheduler{
		Hour:   hour,
		Minute: minute,
		job:    job,
		poll:   DefaultPoll,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	now := s.now()
	if !now.Before(s.slot(now)) {
		s.lastRun = now.Format(time.DateOnly)
	}
	return s, nil
}

// Next returns the next time the job is due.
func (s *Scheduler) Next() time.Time {
	now := s.now()
	slot := s.slot(now)
	if s.lastRun == now.Format(time.DateOnly) {
		return slot.AddDate(0, 0, 1)
	}
	return slot
}

func (s *Scheduler) slot(now time.Time) time.Time {
	y, mo, d := now.Date()
	return time.Date(y, mo, d, s.Hour, s.Minute, 0, 0, now.Location())
}

// Tick runs the job if it is due and reports whether it ran. Job errors are
// logged; the day still counts as run.
func (s *Scheduler) Tick(ctx context.Context) bool {
	now := s.now()
	today := now.Format(time.DateOnly)
	if s.lastRun == today || now.Before(s.slot(now)) {
		return false
	}
	s.lastRun = today

	zap.L().Info("scheduler: running scheduled job", zap.String("date", today))
	if err := s.job(ctx); err != nil {
		zap.L().Error("scheduler: scheduled job failed", zap.String("date", today), zap.Error(err))
	}
	return true
}

// Run polls until ctx is cancelled, then returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	zap.L().Info("scheduler: started",
		zap.String("at", s.clock()),
		zap.Duration("poll", s.poll),
		zap.Time("next", s.Next()),
	)

	t := time.NewTicker(s.poll)
	defer t.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			zap.L().Info("scheduler: stopped")
			return nil
		case <-t.C:
			s.Tick(ctx)
		}
	}
}

func (s *Scheduler) clock() string {
	return time.Date(0, 1, 1, s.Hour, s.Minute, 0, 0, time.UTC).Format("15:04")
}
