package login

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired session")

type claims struct {
	Remember bool `json:"rem"`
	jwt.RegisteredClaims
}

// Sessions issues HS256 tokens and keeps revoked token ids until their
// natural expiry. Revocations live in memory only.
type Sessions struct {
	secret      []byte
	defaultTTL  time.Duration
	rememberTTL time.Duration
	now         func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewSessions(secret string, defaultTTL, rememberTTL time.Duration) *Sessions {
	return &Sessions{
		secret:      []byte(secret),
		defaultTTL:  defaultTTL,
		rememberTTL: rememberTTL,
		now:         time.Now,
		revoked:     map[string]time.Time{},
	}
}

type Session struct {
	Token     string
	UserID    string
	Remember  bool
	ExpiresAt time.Time
	id        string
}

func (s *Sessions) Issue(userID string, remember bool) (*Session, error) {
	ttl := s.defaultTTL
	if remember {
		ttl = s.rememberTTL
	}
	now := s.now()
	jti := uuid.NewString()
	exp := now.Add(ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Remember: remember,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &Session{Token: signed, UserID: userID, Remember: remember, ExpiresAt: exp.Truncate(time.Second), id: jti}, nil
}

func (s *Sessions) Parse(token string) (*Session, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || c.Subject == "" {
		return nil, ErrInvalidToken
	}
	s.mu.Lock()
	_, gone := s.revoked[c.ID]
	s.mu.Unlock()
	if gone {
		return nil, ErrInvalidToken
	}
	return &Session{Token: token, UserID: c.Subject, Remember: c.Remember, ExpiresAt: c.ExpiresAt.Time, id: c.ID}, nil
}

// Revoke invalidates the session until it would have expired anyway.
func (s *Sessions) Revoke(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[sess.id] = sess.ExpiresAt
}

// Refresh revokes sess and issues a replacement with the same remember flag.
func (s *Sessions) Refresh(sess *Session) (*Session, error) {
	next, err := s.Issue(sess.UserID, sess.Remember)
	if err != nil {
		return nil, err
	}
	s.Revoke(sess)
	return next, nil
}
