package subscriptions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"

	"fundfinder-backend/config"
)

// checkoutSessions is the part of the Stripe client used here.
type checkoutSessions interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeService creates one-time checkout sessions for the pro upgrade and
// verifies them. A nil *StripeService means payments are disabled.
type StripeService struct {
	subs          *Service
	sessions      checkoutSessions
	secretKey     string
	webhookSecret string
	priceID       string
	amountCents   int64
	currency      string
	successURL    string
	cancelURL     string
	invalidKey    atomic.Bool
	log           zerolog.Logger
}

func maskKey(k string) string {
	if len(k) < 12 {
		return "****"
	}
	return k[:7] + "..." + k[len(k)-4:]
}

// NewStripe returns nil when STRIPE_SECRET_KEY is not set.
func NewStripe(cfg *config.Config, subs *Service, logger zerolog.Logger) *StripeService {
	if cfg.StripeSecretKey == "" {
		return nil
	}
	sc := &client.API{}
	sc.Init(cfg.StripeSecretKey, nil)
	return newStripe(cfg, subs, sc.CheckoutSessions, logger)
}

func newStripe(cfg *config.Config, subs *Service, sessions checkoutSessions, logger zerolog.Logger) *StripeService {
	return &StripeService{
		subs:          subs,
		sessions:      sessions,
		secretKey:     cfg.StripeSecretKey,
		webhookSecret: cfg.StripeWebhookSecret,
		priceID:       cfg.StripePriceID,
		amountCents:   cfg.StripeProAmountCents,
		currency:      cfg.StripeCurrency,
		successURL:    cfg.StripeSuccessURL,
		cancelURL:     cfg.StripeCancelURL,
		log:           logger.With().Str("service", "stripe").Logger(),
	}
}

func (s *StripeService) lineItem() *stripe.CheckoutSessionLineItemParams {
	if s.priceID != "" {
		return &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(s.priceID),
			Quantity: stripe.Int64(1),
		}
	}
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(s.currency),
			UnitAmount: stripe.Int64(s.amountCents),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String("FundFinder Pro"),
			},
		},
		Quantity: stripe.Int64(1),
	}
}

// CreateCheckout opens a payment-mode session tagged with the user id.
func (s *StripeService) CreateCheckout(ctx context.Context, userID, email string) (*Checkout, error) {
	if s == nil {
		return nil, ErrStripeNotConfigured
	}
	if s.invalidKey.Load() {
		return nil, ErrStripeInvalidAPIKey
	}
	params := &stripe.CheckoutSessionParams{
		SuccessURL:        stripe.String(s.successURL),
		CancelURL:         stripe.String(s.cancelURL),
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(userID),
		LineItems:         []*stripe.CheckoutSessionLineItemParams{s.lineItem()},
		Metadata:          map[string]string{"user_id": userID},
	}
	if email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	params.Context = ctx

	sess, err := s.sessions.New(params)
	if err != nil {
		return nil, s.classify(err, "checkout")
	}
	s.log.Info().Str("user_id", userID).Str("session_id", sess.ID).Msg("checkout session created")
	return &Checkout{SessionID: sess.ID, URL: sess.URL}, nil
}

// VerifyCheckout asks Stripe whether the session has been paid.
func (s *StripeService) VerifyCheckout(ctx context.Context, sessionID string) (*Verification, error) {
	if s == nil {
		return nil, ErrStripeNotConfigured
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrMissingSessionID
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := s.sessions.Get(sessionID, params)
	if err != nil {
		return nil, s.classify(err, "verify")
	}
	return verificationOf(sess), nil
}

// Confirm verifies the session for userID and activates the account when it
// has been paid.
func (s *StripeService) Confirm(ctx context.Context, userID, sessionID string) (*Verification, error) {
	v, err := s.VerifyCheckout(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if v.UserID != userID {
		return nil, ErrSessionOwner
	}
	if v.Paid {
		if _, err := s.subs.Activate(ctx, userID, sessionID); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// HandleWebhook verifies the signature and activates the user of a paid
// checkout.session.completed event. Other event types are ignored.
func (s *StripeService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s == nil {
		return ErrStripeNotConfigured
	}
	if s.webhookSecret == "" {
		return errors.New("webhook secret is not configured")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		s.log.Debug().Str("type", string(event.Type)).Msg("webhook ignored")
		return nil
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}
	v := verificationOf(&sess)
	if !v.Paid {
		return nil
	}
	if v.UserID == "" {
		return errors.New("checkout session without user metadata")
	}
	if sess.Customer != nil && sess.Customer.ID != "" {
		if err := s.subs.store.SetStripeCustomer(ctx, v.UserID, sess.Customer.ID); err != nil {
			s.log.Warn().Err(err).Str("user_id", v.UserID).Msg("store stripe customer")
		}
	}
	_, err = s.subs.Activate(ctx, v.UserID, sess.ID)
	return err
}

func verificationOf(sess *stripe.CheckoutSession) *Verification {
	userID := sess.Metadata["user_id"]
	if userID == "" {
		userID = sess.ClientReferenceID
	}
	return &Verification{
		Paid:   sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		UserID: userID,
	}
}

func (s *StripeService) classify(err error, op string) error {
	var se *stripe.Error
	if errors.As(err, &se) && (se.HTTPStatusCode == 401 || strings.Contains(strings.ToLower(se.Msg), "invalid api key")) {
		s.log.Error().Str("key", maskKey(s.secretKey)).Str("op", op).Msg("invalid stripe api key")
		s.invalidKey.Store(true)
		return ErrStripeInvalidAPIKey
	}
	s.log.Error().Err(err).Str("op", op).Msg("stripe request failed")
	return fmt.Errorf("stripe %s: %w", op, err)
}
