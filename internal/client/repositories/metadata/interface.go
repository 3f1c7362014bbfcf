// Package metadata is the keyed blob store. Staff accounts live here as JSON
// under "<role>-<contact>" keys, next to small client settings such as the
// generated sealing key.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns common.ErrorNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	// ListPrefix returns the entries whose key starts with prefix.
	ListPrefix(ctx context.Context, prefix string) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
