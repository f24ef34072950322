package catalog

import (
	"context"

	"regionmaster/internal/region"
)

// Assignment is the catalog record written when a region comes online.
type Assignment struct {
	Server    string `json:"server"`
	StartCode int64  `json:"startcode"`
}

// Row is one catalog entry keyed by region name.
type Row struct {
	Region     string     `json:"region"`
	Assignment Assignment `json:"assignment"`
}

// Validate rejects rows that can never be stored.
func (r Row) Validate() error {
	if r.Region == "" {
		return ErrInvalidRow
	}
	if r.Assignment.Server == "" {
		return ErrInvalidRow
	}
	return nil
}

// Locator resolves the catalog partition responsible for a region's row.
// ErrNotLocatable means the partition is not online yet.
type Locator interface {
	Locate(ctx context.Context, info region.Info) (region.CatalogLocation, error)
}

// Writer durably records an assignment on the server hosting loc.
type Writer interface {
	Put(ctx context.Context, loc region.CatalogLocation, info region.Info, a Assignment) error
}

// Client is the catalog surface consumed by region transitions.
type Client interface {
	Locator
	Writer
}

type client struct {
	Locator
	Writer
}

// NewClient composes a locator and a writer into a Client.
func NewClient(locator Locator, writer Writer) Client {
	return client{Locator: locator, Writer: writer}
}
