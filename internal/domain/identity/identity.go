package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("identity: invalid email or password")
	ErrInvalidToken       = errors.New("identity: invalid or expired token")
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// Session is an issued credential: the bearer token plus the identity it
// resolves to.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
)

// Event notifies subscribers of auth state changes, replacing the original
// process-wide reactive subscription with an explicit lifecycle.
type Event struct {
	Type EventType
	User User
}

// Unsubscribe detaches a subscription. Callers hold it for the lifetime of
// whatever component registered the subscription.
type Unsubscribe func()

// Provider is the session/identity collaborator. The core only consumes
// "who is this token" and "is it valid"; issuing and storing credentials is
// the provider's business.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	Resolve(ctx context.Context, token string) (*User, error)
	Subscribe(fn func(Event)) Unsubscribe
}
