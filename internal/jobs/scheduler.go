package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// TokenPurger removes refresh tokens that can never be used again.
type TokenPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron   *cron.Cron
	tokens TokenPurger
	log    zerolog.Logger
}

func NewScheduler(tokens TokenPurger, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		tokens: tokens,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	// Daily at midnight: drop expired and revoked refresh tokens.
	if _, err := s.cron.AddFunc("0 0 0 * * *", s.purgeTokens); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for in-flight jobs to finish, up to a short grace period.
func (s *Scheduler) Stop() {
	select {
	case <-s.cron.Stop().Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) purgeTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.tokens.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("refresh token purge failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("purged dead refresh tokens")
	}
}
