package subscriptions

import (
	"context"
	"errors"

	"fundfinder-backend/accounts"
)

var (
	ErrUserNotFound        = errors.New("subscription status: user not found")
	ErrStripeNotConfigured = errors.New("payments are not configured")
	ErrStripeInvalidAPIKey = errors.New("stripe_invalid_api_key")
	ErrMissingSessionID    = errors.New("session_id is required")
	ErrSessionOwner        = errors.New("checkout session belongs to another user")
)

// Checkout is what the client needs to redirect to the hosted payment page.
type Checkout struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// Verification is the provider's answer for one checkout session.
type Verification struct {
	Paid   bool
	UserID string
}

// StatusStore is the slice of the account store this package reads and writes.
type StatusStore interface {
	SubscriptionStatus(ctx context.Context, userID string) (accounts.Status, error)
	SetSubscriptionStatus(ctx context.Context, userID string, status accounts.Status, checkoutSessionID string) (bool, error)
	SetStripeCustomer(ctx context.Context, userID, customerID string) error
	GetByID(ctx context.Context, userID string) (*accounts.User, error)
}

// Notifier is told when an account becomes pro.
type Notifier interface {
	SendProActivated(to, name string) error
}
