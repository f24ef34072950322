// Package coordination holds the "pending assignment" markers shared between
// the master and storage servers.
//
// A marker exists while a region is unassigned or being opened. The master
// deletes it when an open report loses the race against an offline request,
// so a server watching the marker sees the region is no longer wanted.
package coordination

import (
	"context"
	"errors"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

var (
	// ErrMarkerExists indicates CreateUnassigned found an existing marker.
	ErrMarkerExists = errors.New("coordination: unassigned marker already exists")
	// ErrUnavailable tags failures classified by IsConnectivityError.
	ErrUnavailable = errors.New("coordination: service unavailable")
)

// Client manages unassigned-region markers keyed by encoded region name.
type Client interface {
	// CreateUnassigned registers a marker; ErrMarkerExists if one is present.
	CreateUnassigned(ctx context.Context, encodedName string, data []byte) error
	// DeleteUnassigned removes a marker. Deleting a missing marker is a no-op.
	DeleteUnassigned(ctx context.Context, encodedName string) error
	// UnassignedExists reports whether a marker is registered.
	UnassignedExists(ctx context.Context, encodedName string) (bool, error)
	// ListUnassigned returns the encoded names of all registered markers.
	ListUnassigned(ctx context.Context) ([]string, error)
}

// IsConnectivityError reports whether err is caused by the coordination
// service being unreachable rather than by the request itself.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrDisconnected) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "i/o timeout")
}
