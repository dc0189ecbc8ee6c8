// Package maintenance runs periodic database housekeeping.
package maintenance

import (
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"storefront/internal/database"
)

// Scheduler runs database.Optimize on a cron schedule.
type Scheduler struct {
	mu      sync.Mutex
	db      *gorm.DB
	cron    *cron.Cron
	entryID cron.EntryID
	running bool
	lastRun time.Time
	lastErr error
}

// New creates a Scheduler for db. Nothing runs until Start.
func New(db *gorm.DB) *Scheduler {
	return &Scheduler{
		db:   db,
		cron: cron.New(),
	}
}

// Start schedules the optimize job. An empty schedule leaves it disabled.
func (s *Scheduler) Start(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("maintenance scheduler already running")
	}
	if schedule == "" {
		log.Info().Msg("Database maintenance disabled")
		return nil
	}

	id, err := s.cron.AddFunc(schedule, func() { _ = s.RunOnce() })
	if err != nil {
		return err
	}
	s.entryID = id
	s.cron.Start()
	s.running = true

	log.Info().
		Str("schedule", schedule).
		Time("next_run", s.cron.Entry(id).Next).
		Msg("Database maintenance scheduled")
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	log.Info().Msg("Database maintenance stopped")
}

// RunOnce optimizes the database immediately.
func (s *Scheduler) RunOnce() error {
	start := time.Now()
	err := database.Optimize(s.db)

	s.mu.Lock()
	s.lastRun = start
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Msg("Database maintenance failed")
		return err
	}
	log.Info().Dur("duration", time.Since(start)).Msg("Database maintenance completed")
	return nil
}

// LastRun reports when the job last ran and how it ended.
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}
