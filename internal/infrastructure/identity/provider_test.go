package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/shopflow-io/shopflow/internal/domain/identity"
)

func newTestProvider() *Provider {
	return NewProvider([]Credential{
		{Email: "customer@shopflow.local", Password: "customer", Role: domain.RoleCustomer},
		{Email: "Admin@ShopFlow.local", Password: "admin", Role: domain.RoleAdmin},
	})
}

func TestProvider_SignInAndResolve(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	sess, err := p.SignIn(ctx, "customer@shopflow.local", "customer")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	assert.Equal(t, domain.RoleCustomer, sess.User.Role)

	user, err := p.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, user.ID)
}

func TestProvider_SignInNormalizesEmail(t *testing.T) {
	p := newTestProvider()

	sess, err := p.SignIn(context.Background(), "  ADMIN@shopflow.LOCAL  ", "admin")
	require.NoError(t, err)
	assert.True(t, sess.User.IsAdmin())
}

func TestProvider_SignInRejectsBadCredentials(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	_, err := p.SignIn(ctx, "customer@shopflow.local", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = p.SignIn(ctx, "stranger@shopflow.local", "customer")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestProvider_SignOutInvalidatesToken(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	sess, err := p.SignIn(ctx, "customer@shopflow.local", "customer")
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, sess.Token))

	_, err = p.Resolve(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	assert.ErrorIs(t, p.SignOut(ctx, sess.Token), domain.ErrInvalidToken)
}

func TestProvider_SubscribeObservesLifecycle(t *testing.T) {
	p := newTestProvider()
	ctx := context.Background()

	var events []domain.Event
	unsubscribe := p.Subscribe(func(e domain.Event) { events = append(events, e) })

	sess, err := p.SignIn(ctx, "customer@shopflow.local", "customer")
	require.NoError(t, err)
	require.NoError(t, p.SignOut(ctx, sess.Token))

	require.Len(t, events, 2)
	assert.Equal(t, domain.EventSignedIn, events[0].Type)
	assert.Equal(t, domain.EventSignedOut, events[1].Type)

	unsubscribe()
	_, err = p.SignIn(ctx, "customer@shopflow.local", "customer")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
