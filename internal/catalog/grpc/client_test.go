package catalogrpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"regionmaster/internal/catalog"
	"regionmaster/internal/region"
	api "regionmaster/pkg/api"
)

type bufDialer struct {
	lis *bufconn.Listener
}

func (d bufDialer) Dial(ctx context.Context, target string) (*grpc.ClientConn, error) {
	return grpc.DialContext(ctx, target,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return d.lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
}

func startCatalogServer(t *testing.T) (catalog.Store, *Client) {
	t.Helper()
	store, err := catalog.OpenStore(catalog.BackendBolt, t.TempDir())
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	Register(srv, store, zaptest.NewLogger(t))
	go func() { _ = srv.Serve(lis) }()

	client := NewClient(bufDialer{lis: lis}, 2*time.Second, zaptest.NewLogger(t))
	t.Cleanup(func() {
		_ = client.Close()
		srv.Stop()
		_ = store.Close()
	})
	return store, client
}

func metaLocation() region.CatalogLocation {
	return region.CatalogLocation{Address: "catalog-1:60020", Region: region.FirstMetaInfo}
}

func TestClientPutWritesRow(t *testing.T) {
	store, client := startCatalogServer(t)
	ctx := context.Background()
	info := region.NewInfo("users", nil, []byte("m"), 11)

	err := client.Put(ctx, metaLocation(), info, catalog.Assignment{Server: "10.0.0.1:60020", StartCode: 5})
	require.NoError(t, err)

	row, err := store.Get(region.FirstMetaInfo.Name(), info.Name())
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1:60020", row.Assignment.Server)
	require.Equal(t, int64(5), row.Assignment.StartCode)

	got, err := client.Get(ctx, metaLocation(), info.Name())
	require.NoError(t, err)
	require.Equal(t, row, got)
}

func TestClientScanReturnsRows(t *testing.T) {
	_, client := startCatalogServer(t)
	ctx := context.Background()

	for i, start := range []string{"", "g", "p"} {
		info := region.NewInfo("users", []byte(start), nil, uint64(i+1))
		require.NoError(t, client.Put(ctx, metaLocation(), info, catalog.Assignment{Server: "h:1", StartCode: 1}))
	}

	rows, err := client.Scan(ctx, metaLocation())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "users,,1", rows[0].Region)
}

func TestClientGetMissingRow(t *testing.T) {
	_, client := startCatalogServer(t)
	_, err := client.Get(context.Background(), metaLocation(), "nope,,1")
	require.True(t, catalog.IsRowNotFound(err))
}

func TestClientPutInvalidRowIsPermanent(t *testing.T) {
	_, client := startCatalogServer(t)
	info := region.NewInfo("users", nil, nil, 1)

	err := client.Put(context.Background(), metaLocation(), info, catalog.Assignment{})
	require.Error(t, err)
	require.True(t, catalog.IsPermanent(err))
}

func TestClientPutUnreachableServerIsRetryable(t *testing.T) {
	lis := bufconn.Listen(1 << 10)
	require.NoError(t, lis.Close())
	client := NewClient(bufDialer{lis: lis}, 200*time.Millisecond, zaptest.NewLogger(t))
	defer client.Close()

	err := client.Put(context.Background(), metaLocation(), region.NewInfo("users", nil, nil, 1),
		catalog.Assignment{Server: "h:1", StartCode: 1})
	require.Error(t, err)
	require.False(t, catalog.IsPermanent(err))
}

func TestServerRejectsEmptyCatalogRegion(t *testing.T) {
	store, err := catalog.OpenStore(catalog.BackendBolt, t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	srv := NewServer(store, nil)
	_, err = srv.PutRow(context.Background(), &api.PutRowRequest{Row: &api.CatalogRow{Region: "r", Server: "s:1"}})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = srv.ScanRows(context.Background(), &api.ScanRowsRequest{})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}
