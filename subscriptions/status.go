package subscriptions

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"fundfinder-backend/accounts"
)

// Service answers whether a user is exempt from the daily cap and performs
// the free to active transition after a confirmed payment.
type Service struct {
	store    StatusStore
	notifier Notifier
	log      zerolog.Logger
}

func NewService(store StatusStore, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		log:      logger.With().Str("service", "subscriptions").Logger(),
	}
}

// StatusOf reads the current status from the store on every call.
func (s *Service) StatusOf(ctx context.Context, userID string) (accounts.Status, error) {
	status, err := s.store.SubscriptionStatus(ctx, userID)
	if errors.Is(err, accounts.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	if status != accounts.StatusActive {
		return accounts.StatusFree, nil
	}
	return accounts.StatusActive, nil
}

// Activate marks the user pro. Calling it again for an active user is a no-op
// and reports false.
func (s *Service) Activate(ctx context.Context, userID, checkoutSessionID string) (bool, error) {
	changed, err := s.store.SetSubscriptionStatus(ctx, userID, accounts.StatusActive, checkoutSessionID)
	if errors.Is(err, accounts.ErrNotFound) {
		return false, ErrUserNotFound
	}
	if err != nil {
		return false, fmt.Errorf("activate %s: %w", userID, err)
	}
	if !changed {
		return false, nil
	}
	s.log.Info().Str("user_id", userID).Str("checkout_session", checkoutSessionID).Msg("subscription activated")

	if s.notifier != nil {
		if u, err := s.store.GetByID(ctx, userID); err == nil {
			if err := s.notifier.SendProActivated(u.Email, u.Name); err != nil {
				s.log.Warn().Err(err).Str("user_id", userID).Msg("pro activation email failed")
			}
		}
	}
	return true, nil
}
