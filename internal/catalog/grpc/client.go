package catalogrpc

import (
	"context"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"regionmaster/internal/catalog"
	"regionmaster/internal/region"
	api "regionmaster/pkg/api"
)

const defaultTimeout = 5 * time.Second

// Dialer abstracts dialing so tests can inject custom behaviour.
type Dialer interface {
	Dial(ctx context.Context, target string) (*grpc.ClientConn, error)
}

type DefaultDialer struct{}

func (DefaultDialer) Dial(ctx context.Context, target string) (*grpc.ClientConn, error) {
	return grpc.DialContext(ctx, target, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// Client writes and scans catalog rows on whichever server hosts a catalog
// partition. Connections are opened lazily and cached per address.
type Client struct {
	dialer  Dialer
	timeout time.Duration
	conns   *xsync.Map[string, *grpc.ClientConn]
	logger  *zap.Logger
}

var _ catalog.Writer = (*Client)(nil)

func NewClient(dialer Dialer, timeout time.Duration, logger *zap.Logger) *Client {
	if dialer == nil {
		dialer = DefaultDialer{}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		dialer:  dialer,
		timeout: timeout,
		conns:   xsync.NewMap[string, *grpc.ClientConn](),
		logger:  logger.Named("catalog-client"),
	}
}

// Put records the assignment of info in the catalog partition at loc.
func (c *Client) Put(ctx context.Context, loc region.CatalogLocation, info region.Info, a catalog.Assignment) error {
	client, err := c.client(ctx, loc.Address)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err = client.PutRow(ctx, &api.PutRowRequest{
		CatalogRegion: loc.Region.Name(),
		Row: &api.CatalogRow{
			Region:    info.Name(),
			Server:    a.Server,
			StartCode: a.StartCode,
		},
	})
	if err != nil {
		return fmt.Errorf("put %s into %s: %w", info.Name(), loc, err)
	}
	return nil
}

// Get reads a single catalog row from the partition at loc.
func (c *Client) Get(ctx context.Context, loc region.CatalogLocation, regionName string) (catalog.Row, error) {
	client, err := c.client(ctx, loc.Address)
	if err != nil {
		return catalog.Row{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := client.GetRow(ctx, &api.GetRowRequest{CatalogRegion: loc.Region.Name(), Region: regionName})
	if err != nil {
		return catalog.Row{}, fmt.Errorf("get %s from %s: %w", regionName, loc, err)
	}
	return rowFromProto(resp.GetRow()), nil
}

// Scan returns every row stored in the catalog partition at loc.
func (c *Client) Scan(ctx context.Context, loc region.CatalogLocation) ([]catalog.Row, error) {
	client, err := c.client(ctx, loc.Address)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := client.ScanRows(ctx, &api.ScanRowsRequest{CatalogRegion: loc.Region.Name()})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", loc, err)
	}
	rows := make([]catalog.Row, 0, len(resp.GetRows()))
	for _, r := range resp.GetRows() {
		rows = append(rows, rowFromProto(r))
	}
	return rows, nil
}

// Close releases every cached connection.
func (c *Client) Close() error {
	var err error
	c.conns.Range(func(addr string, conn *grpc.ClientConn) bool {
		if e := conn.Close(); e != nil && err == nil {
			err = e
		}
		c.conns.Delete(addr)
		return true
	})
	return err
}

func (c *Client) client(ctx context.Context, addr string) (api.CatalogClient, error) {
	if addr == "" {
		return nil, fmt.Errorf("catalog server address is empty")
	}
	if conn, ok := c.conns.Load(addr); ok {
		return api.NewCatalogClient(conn), nil
	}
	conn, err := c.dialer.Dial(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("dial catalog server %s: %w", addr, err)
	}
	actual, loaded := c.conns.LoadOrStore(addr, conn)
	if loaded {
		_ = conn.Close()
	} else {
		c.logger.Debug("connected to catalog server", zap.String("addr", addr))
	}
	return api.NewCatalogClient(actual), nil
}
