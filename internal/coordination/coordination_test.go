package coordination_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"regionmaster/internal/coordination"
	"regionmaster/internal/testutil"
)

func newKVClient(t *testing.T) *coordination.KVClient {
	t.Helper()
	_, nc := testutil.StartEmbeddedNATS(t)
	js := testutil.JetStream(t, nc)
	client, err := coordination.OpenKVClient(context.Background(), js, "", zaptest.NewLogger(t))
	require.NoError(t, err)
	return client
}

func clients(t *testing.T) map[string]coordination.Client {
	return map[string]coordination.Client{
		"memory": coordination.NewMemoryClient(),
		"kv":     newKVClient(t),
	}
}

func TestMarkerLifecycle(t *testing.T) {
	for name, client := range clients(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			exists, err := client.UnassignedExists(ctx, "1234")
			require.NoError(t, err)
			require.False(t, exists)

			require.NoError(t, client.CreateUnassigned(ctx, "1234", []byte("users,,1")))
			exists, err = client.UnassignedExists(ctx, "1234")
			require.NoError(t, err)
			require.True(t, exists)

			err = client.CreateUnassigned(ctx, "1234", nil)
			require.True(t, errors.Is(err, coordination.ErrMarkerExists), "got %v", err)

			require.NoError(t, client.DeleteUnassigned(ctx, "1234"))
			exists, err = client.UnassignedExists(ctx, "1234")
			require.NoError(t, err)
			require.False(t, exists)
		})
	}
}

func TestDeleteMissingMarkerIsNoop(t *testing.T) {
	for name, client := range clients(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, client.DeleteUnassigned(context.Background(), "absent"))
		})
	}
}

func TestListUnassigned(t *testing.T) {
	for name, client := range clients(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			names, err := client.ListUnassigned(ctx)
			require.NoError(t, err)
			require.Empty(t, names)

			require.NoError(t, client.CreateUnassigned(ctx, "111", nil))
			require.NoError(t, client.CreateUnassigned(ctx, "222", nil))

			names, err = client.ListUnassigned(ctx)
			require.NoError(t, err)
			require.ElementsMatch(t, []string{"111", "222"}, names)
		})
	}
}

func TestOpenKVClientReusesExistingBucket(t *testing.T) {
	_, nc := testutil.StartEmbeddedNATS(t)
	js := testutil.JetStream(t, nc)
	ctx := context.Background()

	first, err := coordination.OpenKVClient(ctx, js, "shared", zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, first.CreateUnassigned(ctx, "42", nil))

	second, err := coordination.OpenKVClient(ctx, js, "shared", zaptest.NewLogger(t))
	require.NoError(t, err)
	exists, err := second.UnassignedExists(ctx, "42")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestIsConnectivityError(t *testing.T) {
	require.False(t, coordination.IsConnectivityError(nil))
	require.True(t, coordination.IsConnectivityError(nats.ErrTimeout))
	require.True(t, coordination.IsConnectivityError(context.DeadlineExceeded))
	require.False(t, coordination.IsConnectivityError(coordination.ErrMarkerExists))
}
