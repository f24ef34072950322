package coordination

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

const (
	// DefaultBucket is the JetStream key-value bucket holding markers.
	DefaultBucket = "regionmaster-unassigned"

	unassignedPrefix = "unassigned."
)

// KVClient stores markers in a NATS JetStream key-value bucket.
type KVClient struct {
	kv     jetstream.KeyValue
	logger *zap.Logger
}

var _ Client = (*KVClient)(nil)

// NewKVClient wraps an already opened bucket.
func NewKVClient(kv jetstream.KeyValue, logger *zap.Logger) *KVClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KVClient{kv: kv, logger: logger.Named("coordination")}
}

// OpenKVClient creates or opens bucket and returns a client bound to it.
func OpenKVClient(ctx context.Context, js jetstream.JetStream, bucket string, logger *zap.Logger) (*KVClient, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := ensureBucket(ctx, js, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "regions pending assignment",
	}, 3)
	if err != nil {
		return nil, err
	}
	return NewKVClient(kv, logger), nil
}

// ensureBucket handles concurrent creators racing on the same bucket.
func ensureBucket(ctx context.Context, js jetstream.JetStream, cfg jetstream.KeyValueConfig, maxRetries int) (jetstream.KeyValue, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		kv, err := js.CreateKeyValue(ctx, cfg)
		if err == nil {
			return kv, nil
		}
		if errors.Is(err, jetstream.ErrBucketExists) {
			kv, err = js.KeyValue(ctx, cfg.Bucket)
			if err == nil {
				return kv, nil
			}
			lastErr = fmt.Errorf("bucket exists but failed to open: %w", err)
		} else {
			lastErr = err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(1<<uint(attempt)) * 10 * time.Millisecond):
			}
		}
	}
	return nil, fmt.Errorf("create or open bucket %s after %d attempts: %w", cfg.Bucket, maxRetries, lastErr)
}

func markerKey(encodedName string) string {
	return unassignedPrefix + encodedName
}

func (c *KVClient) CreateUnassigned(ctx context.Context, encodedName string, data []byte) error {
	if _, err := c.kv.Create(ctx, markerKey(encodedName), data); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return fmt.Errorf("%w: %s", ErrMarkerExists, encodedName)
		}
		return fmt.Errorf("create unassigned marker %s: %w", encodedName, err)
	}
	c.logger.Debug("created unassigned marker", zap.String("region", encodedName))
	return nil
}

func (c *KVClient) DeleteUnassigned(ctx context.Context, encodedName string) error {
	if err := c.kv.Delete(ctx, markerKey(encodedName)); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("delete unassigned marker %s: %w", encodedName, err)
	}
	c.logger.Debug("deleted unassigned marker", zap.String("region", encodedName))
	return nil
}

func (c *KVClient) UnassignedExists(ctx context.Context, encodedName string) (bool, error) {
	_, err := c.kv.Get(ctx, markerKey(encodedName))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get unassigned marker %s: %w", encodedName, err)
	}
	return true, nil
}

func (c *KVClient) ListUnassigned(ctx context.Context) ([]string, error) {
	keys, err := c.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list unassigned markers: %w", err)
	}
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if name, ok := strings.CutPrefix(key, unassignedPrefix); ok {
			names = append(names, name)
		}
	}
	return names, nil
}
