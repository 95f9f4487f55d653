// Package quota decides whether a search may proceed for a user on a given
// day. It only reads; recording usage belongs to the caller.
package quota

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"fundfinder-backend/accounts"
	"fundfinder-backend/metrics"
	"fundfinder-backend/usage"
)

const DefaultFreeDailyLimit = 3

// Unlimited is what Remaining reports for pro users.
const Unlimited = -1

type Reason string

const (
	ReasonProUnlimited    Reason = "pro-unlimited"
	ReasonWithinFreeQuota Reason = "within-free-quota"
	ReasonQuotaExhausted  Reason = "quota-exhausted"
)

type Decision struct {
	Allowed    bool
	Reason     Reason
	DailyCount int
	Limit      int
}

type StatusSource interface {
	StatusOf(ctx context.Context, userID string) (accounts.Status, error)
}

type UsageCounter interface {
	CountToday(ctx context.Context, userID string, day usage.Day) (int, error)
}

type Gate struct {
	status StatusSource
	usage  UsageCounter
	limit  int
	log    zerolog.Logger
}

func NewGate(status StatusSource, counter UsageCounter, limit int, logger zerolog.Logger) *Gate {
	if limit < 0 {
		limit = DefaultFreeDailyLimit
	}
	return &Gate{
		status: status,
		usage:  counter,
		limit:  limit,
		log:    logger.With().Str("service", "quota").Logger(),
	}
}

func (g *Gate) Limit() int { return g.limit }

// Check returns the admission decision. Any store error is returned as is and
// the caller must treat it as a denial.
func (g *Gate) Check(ctx context.Context, userID string, day usage.Day) (Decision, error) {
	status, err := g.status.StatusOf(ctx, userID)
	if err != nil {
		g.log.Error().Err(err).Str("user_id", userID).Msg("status lookup failed")
		return Decision{}, fmt.Errorf("gate status: %w", err)
	}
	if status == accounts.StatusActive {
		g.record(userID, Decision{Allowed: true, Reason: ReasonProUnlimited})
		return Decision{Allowed: true, Reason: ReasonProUnlimited}, nil
	}

	n, err := g.usage.CountToday(ctx, userID, day)
	if err != nil {
		g.log.Error().Err(err).Str("user_id", userID).Str("day", string(day)).Msg("usage lookup failed")
		return Decision{}, fmt.Errorf("gate usage: %w", err)
	}
	d := Decision{Allowed: true, Reason: ReasonWithinFreeQuota, DailyCount: n, Limit: g.limit}
	if n >= g.limit {
		d = Decision{Allowed: false, Reason: ReasonQuotaExhausted, DailyCount: n, Limit: g.limit}
	}
	g.record(userID, d)
	return d, nil
}

func (g *Gate) record(userID string, d Decision) {
	metrics.GateDecisions.WithLabelValues(string(d.Reason)).Inc()
	evt := g.log.Debug()
	if !d.Allowed {
		evt = g.log.Info()
	}
	evt.Str("user_id", userID).
		Str("reason", string(d.Reason)).
		Int("daily_count", d.DailyCount).
		Bool("allowed", d.Allowed).
		Msg("search gate")
}

// Remaining is the number of searches left for the day, or -1 for unlimited.
func (g *Gate) Remaining(ctx context.Context, userID string, day usage.Day) (int, error) {
	status, err := g.status.StatusOf(ctx, userID)
	if err != nil {
		return 0, err
	}
	if status == accounts.StatusActive {
		return Unlimited, nil
	}
	n, err := g.usage.CountToday(ctx, userID, day)
	if err != nil {
		return 0, err
	}
	return max(0, g.limit-n), nil
}
