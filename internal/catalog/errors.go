package catalog

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrNotLocatable indicates the catalog partition for a region is not online.
	ErrNotLocatable = errors.New("catalog: partition not locatable")
	// ErrRowNotFound indicates the requested catalog row does not exist.
	ErrRowNotFound = errors.New("catalog: row not found")
	// ErrInvalidRow indicates a row that can never be written.
	ErrInvalidRow = errors.New("catalog: invalid row")
	// ErrStoreInUse indicates another process holds the catalog directory.
	ErrStoreInUse = errors.New("catalog: store directory is in use")
	// ErrUnknownBackend indicates an unsupported storage backend name.
	ErrUnknownBackend = errors.New("catalog: unknown storage backend")
)

// IsPermanent reports whether err can never succeed on retry.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidRow) {
		return true
	}
	if st, ok := status.FromError(err); ok {
		return st.Code() == codes.InvalidArgument
	}
	return false
}

// IsRowNotFound reports whether err indicates a missing catalog row.
func IsRowNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRowNotFound) {
		return true
	}
	if st, ok := status.FromError(err); ok {
		return st.Code() == codes.NotFound
	}
	return false
}
