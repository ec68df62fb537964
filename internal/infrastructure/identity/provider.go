package identity

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"strings"
	"sync"

	"github.com/google/uuid"

	domain "github.com/shopflow-io/shopflow/internal/domain/identity"
)

// Credential seeds the in-memory provider with a known account.
type Credential struct {
	Email    string
	Password string
	Role     domain.Role
}

type account struct {
	user         domain.User
	passwordHash [32]byte
}

// Provider keeps accounts and issued tokens in memory. Tokens are opaque
// UUIDs valid until sign-out or process restart.
type Provider struct {
	mu       sync.RWMutex
	accounts map[string]account // keyed by lowercased email
	tokens   map[string]string  // token -> user id
	byUserID map[string]domain.User

	subMu   sync.Mutex
	subs    map[int]func(domain.Event)
	nextSub int
}

func NewProvider(creds []Credential) *Provider {
	p := &Provider{
		accounts: make(map[string]account),
		tokens:   make(map[string]string),
		byUserID: make(map[string]domain.User),
		subs:     make(map[int]func(domain.Event)),
	}
	for _, c := range creds {
		email := strings.ToLower(strings.TrimSpace(c.Email))
		if email == "" {
			continue
		}
		role := c.Role
		if role == "" {
			role = domain.RoleCustomer
		}
		user := domain.User{
			ID:    uuid.NewString(),
			Email: email,
			Role:  role,
		}
		p.accounts[email] = account{
			user:         user,
			passwordHash: sha256.Sum256([]byte(c.Password)),
		}
		p.byUserID[user.ID] = user
	}
	return p
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	_ = ctx

	p.mu.Lock()
	acct, ok := p.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		p.mu.Unlock()
		return nil, domain.ErrInvalidCredentials
	}
	hash := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare(hash[:], acct.passwordHash[:]) != 1 {
		p.mu.Unlock()
		return nil, domain.ErrInvalidCredentials
	}

	token := uuid.NewString()
	p.tokens[token] = acct.user.ID
	p.mu.Unlock()

	p.notify(domain.Event{Type: domain.EventSignedIn, User: acct.user})
	return &domain.Session{Token: token, User: acct.user}, nil
}

func (p *Provider) SignOut(ctx context.Context, token string) error {
	_ = ctx

	p.mu.Lock()
	userID, ok := p.tokens[token]
	if !ok {
		p.mu.Unlock()
		return domain.ErrInvalidToken
	}
	delete(p.tokens, token)
	user := p.byUserID[userID]
	p.mu.Unlock()

	p.notify(domain.Event{Type: domain.EventSignedOut, User: user})
	return nil
}

func (p *Provider) Resolve(ctx context.Context, token string) (*domain.User, error) {
	_ = ctx

	p.mu.RLock()
	defer p.mu.RUnlock()

	userID, ok := p.tokens[token]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	user, ok := p.byUserID[userID]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	return &user, nil
}

func (p *Provider) Subscribe(fn func(domain.Event)) domain.Unsubscribe {
	p.subMu.Lock()
	defer p.subMu.Unlock()

	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn

	return func() {
		p.subMu.Lock()
		defer p.subMu.Unlock()
		delete(p.subs, id)
	}
}

func (p *Provider) notify(e domain.Event) {
	p.subMu.Lock()
	fns := make([]func(domain.Event), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.subMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
