// Package kv is the local key/value storage used by unauthenticated devices.
// Every key lives in a namespace, normally the device id.
package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("kv: key not found")

// Store holds string values by namespace and key.
type Store interface {
	Get(ctx context.Context, ns, key string) (string, error)
	Set(ctx context.Context, ns, key, value string) error
	Delete(ctx context.Context, ns, key string) error
	Close() error
}
