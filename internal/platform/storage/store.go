package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Store is the persistence adapter: JSON-serializable values kept under
// string keys, written synchronously with no retries. Implementations
// must surface the sentinel errors below so callers can tell quota and
// decode failures apart from infrastructure faults.
type Store interface {
	// Get decodes the value stored under key into out. Returns
	// ErrNotFound when the key is absent and a wrapped ErrCorruptValue
	// when the stored bytes cannot be decoded into out.
	Get(ctx context.Context, key string, out any) error
	// Set serializes value and stores it under key, replacing any
	// previous value. Returns a wrapped ErrQuotaExceeded when the
	// serialized size is over the configured cap or the backend refuses
	// the write for capacity.
	Set(ctx context.Context, key string, value any) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

var (
	// ErrNotFound indicates the key has no stored value.
	ErrNotFound = errors.New("storage: key not found")
	// ErrQuotaExceeded indicates a write was rejected for size.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
	// ErrCorruptValue indicates a stored value failed to decode.
	ErrCorruptValue = errors.New("storage: corrupt value")
)

// DefaultMaxValueBytes caps a single serialized value. The data set
// originally lived under a browser storage quota of a few megabytes, so
// anything bigger than this is treated as a quota failure rather than
// handed to the backend.
const DefaultMaxValueBytes = 4 << 20

func encode(value any, maxBytes int) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("storage: encode: %w", err)
	}
	if maxBytes > 0 && len(payload) > maxBytes {
		return nil, fmt.Errorf("storage: value is %d bytes, cap is %d: %w", len(payload), maxBytes, ErrQuotaExceeded)
	}
	return payload, nil
}

func decode(payload []byte, out any) error {
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("storage: decode: %v: %w", err, ErrCorruptValue)
	}
	return nil
}
