package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"fundfinder-backend/metrics"
	"fundfinder-backend/openai"
	"fundfinder-backend/quota"
	"fundfinder-backend/usage"
)

type Gate interface {
	Check(ctx context.Context, userID string, day usage.Day) (quota.Decision, error)
}

type Ledger interface {
	IncrementToday(ctx context.Context, userID string, day usage.Day) (int, error)
}

type Generator interface {
	GenerateLeads(ctx context.Context, req openai.LeadRequest) (string, error)
}

type Service struct {
	gate      Gate
	ledger    Ledger
	ai        Generator
	validate  *validator.Validate
	aiTimeout time.Duration
	log       zerolog.Logger
}

func NewService(gate Gate, ledger Ledger, ai Generator, aiTimeout time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		gate:      gate,
		ledger:    ledger,
		ai:        ai,
		validate:  validator.New(),
		aiTimeout: aiTimeout,
		log:       logger.With().Str("service", "search").Logger(),
	}
}

// HandleSearch runs one search for userID, attributing usage to day. Usage is
// recorded only after the AI answer parsed into leads.
func (s *Service) HandleSearch(ctx context.Context, userID string, day usage.Day, in Input) ([]Lead, error) {
	leads, err := s.handle(ctx, userID, day, in)
	metrics.SearchOutcomes.WithLabelValues(outcome(err)).Inc()
	return leads, err
}

func (s *Service) handle(ctx context.Context, userID string, day usage.Day, in Input) ([]Lead, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	decision, err := s.gate.Check(ctx, userID, day)
	if err != nil {
		return nil, &InternalError{Err: err}
	}
	if !decision.Allowed {
		return nil, &RateLimitError{Decision: decision}
	}

	req, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	answer, err := s.generate(ctx, req)
	if err != nil {
		var ce *openai.CallError
		if errors.As(err, &ce) {
			s.log.Warn().Err(err).Str("user_id", userID).Int("status", ce.Status).Msg("ai call failed")
			return nil, &UpstreamError{Message: "Failed to generate funding leads", Diagnostic: ce.Diagnostic, Err: err}
		}
		s.log.Warn().Err(err).Str("user_id", userID).Msg("ai call failed")
		return nil, &UpstreamError{Message: "Failed to generate funding leads", Err: err}
	}

	leads, err := parseLeads(answer)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Int("answer_len", len(answer)).Msg("ai answer unusable")
		return nil, &UpstreamError{
			Message:    "Failed to parse AI response",
			Diagnostic: map[string]any{"raw": answer},
			Err:        err,
		}
	}

	// a caller that went away never sees the leads, so it is not charged
	if err := ctx.Err(); err != nil {
		return nil, &UpstreamError{Message: "Search cancelled", Err: err}
	}
	n, err := s.ledger.IncrementToday(ctx, userID, day)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Str("day", string(day)).Msg("record usage failed")
		return nil, &InternalError{Err: err}
	}
	s.log.Info().Str("user_id", userID).Str("day", string(day)).Int("daily_count", n).
		Str("reason", string(decision.Reason)).Int("leads", len(leads)).Msg("search succeeded")
	return leads, nil
}

func (s *Service) normalize(in Input) (openai.LeadRequest, error) {
	in.BusinessType = strings.TrimSpace(in.BusinessType)
	in.Location = strings.TrimSpace(in.Location)
	in.Purpose = strings.TrimSpace(in.Purpose)
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return openai.LeadRequest{}, validationError(verrs[0])
		}
		return openai.LeadRequest{}, &ValidationError{Message: err.Error()}
	}
	if in.Purpose == "" {
		in.Purpose = DefaultPurpose
	}
	return openai.LeadRequest{BusinessType: in.BusinessType, Location: in.Location, Purpose: in.Purpose}, nil
}

var fieldNames = map[string]string{
	"BusinessType": "businessType",
	"Location":     "location",
	"Purpose":      "purpose",
}

func validationError(fe validator.FieldError) *ValidationError {
	name := fieldNames[fe.Field()]
	if name == "" {
		name = fe.Field()
	}
	msg := name + " is invalid"
	switch fe.Tag() {
	case "required":
		msg = name + " is required"
	case "max":
		msg = name + " is too long"
	}
	return &ValidationError{Field: name, Message: msg}
}

func (s *Service) generate(ctx context.Context, req openai.LeadRequest) (string, error) {
	if s.aiTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.aiTimeout)
		defer cancel()
	}
	return s.ai.GenerateLeads(ctx, req)
}

func outcome(err error) string {
	var (
		rl *RateLimitError
		ve *ValidationError
		ue *UpstreamError
	)
	switch {
	case err == nil:
		return "succeeded"
	case errors.Is(err, ErrNotAuthenticated):
		return "unauthenticated"
	case errors.As(err, &rl):
		return "denied"
	case errors.As(err, &ve):
		return "invalid"
	case errors.As(err, &ue):
		return "upstream_failed"
	default:
		return "internal_error"
	}
}
