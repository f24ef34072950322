package mastergrpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"regionmaster/internal/region"
	api "regionmaster/pkg/api"
)

// Client is a thin wrapper over the Master service used by storage servers
// and operators.
type Client struct {
	conn    *grpc.ClientConn
	rpc     api.MasterClient
	timeout time.Duration
}

// Dial connects to the master at addr.
func Dial(ctx context.Context, addr string, timeout time.Duration, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.DialContext(ctx, addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial master %s: %w", addr, err)
	}
	return NewClient(conn, timeout), nil
}

// NewClient wraps an existing connection. The client owns conn afterwards.
func NewClient(conn *grpc.ClientConn, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{conn: conn, rpc: api.NewMasterClient(conn), timeout: timeout}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// ReportOpen tells the master that server now serves info.
func (c *Client) ReportOpen(ctx context.Context, info region.Info, server region.Server) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err := c.rpc.ReportRegion(ctx, &api.ReportRegionRequest{
		Kind:   api.ReportKind_REPORT_KIND_OPEN,
		Region: RegionToProto(info),
		Server: ServerToProto(server),
	})
	return err
}

func (c *Client) Offline(ctx context.Context, info region.Info) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err := c.rpc.OfflineRegion(ctx, &api.OfflineRegionRequest{Region: RegionToProto(info)})
	return err
}

func (c *Client) Unassign(ctx context.Context, info region.Info) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err := c.rpc.UnassignRegion(ctx, &api.UnassignRegionRequest{Region: RegionToProto(info)})
	return err
}

// ClearOffline withdraws an offline request for info.
func (c *Client) ClearOffline(ctx context.Context, info region.Info) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err := c.rpc.ClearOffline(ctx, &api.ClearOfflineRequest{Region: RegionToProto(info)})
	return err
}

// ListOffline returns the offlined regions of table.
func (c *Client) ListOffline(ctx context.Context, table string) ([]region.Info, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.rpc.ListOffline(ctx, &api.ListOfflineRequest{Table: table})
	if err != nil {
		return nil, err
	}
	out := make([]region.Info, 0, len(resp.GetRegions()))
	for _, pb := range resp.GetRegions() {
		out = append(out, RegionFromProto(pb))
	}
	return out, nil
}

func (c *Client) DropTable(ctx context.Context, table string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err := c.rpc.DropTable(ctx, &api.DropTableRequest{Table: table})
	return err
}

func (c *Client) State(ctx context.Context) (*api.StateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.rpc.State(ctx, &api.StateRequest{})
}
