package ports

import "context"

// StateStore is the lightweight device-local store for ephemeral session
// state: the in-progress cart and the current service context. It is a
// plain key/blob store, deliberately separate from OrderStore, which owns
// the finalized records.
//
// Load returns (nil, nil) when the key has never been saved; absence is a
// normal state for a fresh device, not an error.
type StateStore interface {
	Save(ctx context.Context, key string, value []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
