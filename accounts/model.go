package accounts

import (
	"errors"
	"time"
)

type Status string

const (
	StatusFree   Status = "free"
	StatusActive Status = "active"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type User struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Email                 string    `json:"email"`
	PasswordHash          string    `json:"-"`
	SubscriptionStatus    Status    `json:"subscriptionStatus"`
	StripeCustomerID      string    `json:"-"`
	LastCheckoutSessionID string    `json:"-"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

func (u *User) IsPro() bool { return u.SubscriptionStatus == StatusActive }
