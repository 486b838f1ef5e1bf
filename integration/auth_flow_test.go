package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-app/stockroom/client"
)

func TestRegisterLoginAndAccess(t *testing.T) {
	ts := NewTestServer(t)
	c := client.New(ts.URL, 10*time.Second)
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, "Alice", "alice@example.com", "secret-pass"))
	require.NoError(t, c.Login(ctx, "alice@example.com", "secret-pass"))

	items, err := c.FetchInventory(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	ts := NewTestServer(t)
	c := client.New(ts.URL, 10*time.Second)
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, "Bob", "bob@example.com", "secret-pass"))
	err := c.Register(ctx, "Bob Again", "bob@example.com", "other-pass")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestWrongPasswordRejected(t *testing.T) {
	ts := NewTestServer(t)
	c := client.New(ts.URL, 10*time.Second)
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, "Carol", "carol@example.com", "secret-pass"))
	err := c.Login(ctx, "carol@example.com", "wrong-pass")
	require.Error(t, err)
}

func TestUnauthenticatedAccessRejected(t *testing.T) {
	ts := NewTestServer(t)
	c := client.New(ts.URL, 10*time.Second)

	_, err := c.FetchInventory(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing token")
}

func TestForgedTokenRejected(t *testing.T) {
	ts := NewTestServer(t)
	c := ts.NewClient(t)
	ctx := context.Background()

	forged := client.New(ts.URL, 10*time.Second)
	forged.SetToken("not-a-real-token")
	_, err := forged.FetchInventory(ctx)
	require.Error(t, err)

	// The genuine client still works.
	_, err = c.FetchInventory(ctx)
	require.NoError(t, err)
}
