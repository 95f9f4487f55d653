package marketing

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"fundfinder-backend/accounts"
	"fundfinder-backend/usage"
)

type exhaustedLister interface {
	Exhausted(ctx context.Context, day usage.Day, limit int) ([]string, error)
}

type userLookup interface {
	GetByID(ctx context.Context, id string) (*accounts.User, error)
}

type upgradeMailer interface {
	SendUpgradeSuggestion(to, name string) error
}

// Service emails an upgrade suggestion to free users who used up the
// previous day's quota. It only reads the ledger.
type Service struct {
	ledger exhaustedLister
	users  userLookup
	mailer upgradeMailer
	clock  *usage.Clock
	limit  int
	log    zerolog.Logger
}

func NewService(ledger exhaustedLister, users userLookup, mailer upgradeMailer, clock *usage.Clock, limit int, logger zerolog.Logger) *Service {
	return &Service{
		ledger: ledger,
		users:  users,
		mailer: mailer,
		clock:  clock,
		limit:  limit,
		log:    logger.With().Str("service", "marketing").Logger(),
	}
}

// Start runs the campaign once a day until ctx is done.
func (s *Service) Start(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.RunOnce(ctx); err != nil {
					s.log.Error().Err(err).Msg("upgrade campaign failed")
				}
			}
		}
	}()
}

// RunOnce notifies yesterday's exhausted free users and returns how many
// emails went out.
func (s *Service) RunOnce(ctx context.Context) (int, error) {
	day := s.clock.Today().Prev()
	ids, err := s.ledger.Exhausted(ctx, day, s.limit)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, id := range ids {
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", id).Msg("skip user")
			continue
		}
		if u.IsPro() {
			continue
		}
		if err := s.mailer.SendUpgradeSuggestion(u.Email, u.Name); err != nil {
			s.log.Warn().Err(err).Str("user_id", id).Msg("upgrade email failed")
			continue
		}
		sent++
	}
	s.log.Info().Str("day", string(day)).Int("candidates", len(ids)).Int("sent", sent).Msg("upgrade campaign done")
	return sent, nil
}
