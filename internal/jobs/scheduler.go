package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"modelhaus/api/internal/repository"
	"modelhaus/api/internal/uploadflow"
)

// Scheduler runs the background sweeps: expired login sessions leave
// Postgres hourly, and upload flows nobody has touched for a while leave
// memory every ten minutes.
type Scheduler struct {
	cron     *cron.Cron
	sessions *repository.SessionRepository
	flows    *uploadflow.Registry
	flowTTL  time.Duration
	log      zerolog.Logger
}

func NewScheduler(sessions *repository.SessionRepository, flows *uploadflow.Registry, flowTTL time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		sessions: sessions,
		flows:    flows,
		flowTTL:  flowTTL,
		log:      log.With().Str("component", "jobs").Logger(),
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 * * * *", s.pruneSessions); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 */10 * * * *", s.pruneFlows); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits up to five seconds for any sweep
// still running.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("cron job still running at shutdown")
	}
}

func (s *Scheduler) pruneSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("session prune failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("expired sessions pruned")
	}
}

func (s *Scheduler) pruneFlows() {
	if removed := s.flows.PruneIdle(s.flowTTL); removed > 0 {
		s.log.Info().Int("removed", removed).Msg("idle upload flows pruned")
	}
}
