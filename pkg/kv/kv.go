// Package kv is the durable, string-keyed store that client state is written
// through to. Each component owns a disjoint set of keys.
package kv

import (
	"context"
	"errors"
)

// Keys written by the client core. Payload shapes are fixed for compatibility
// with records written by earlier app versions.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyCart         = "cart"
	KeyLocalUser    = "localUser"
	KeyProfileImage = "profile_image"
)

// ErrNotFound is returned by Get when the key has never been written or was removed.
var ErrNotFound = errors.New("kv: key not found")

// Store is the get/set/remove surface every component persists through.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Backend is a Store that owns a connection.
type Backend interface {
	Store
	Close() error
}

// GetOptional returns ("", false, nil) for a missing key instead of ErrNotFound.
func GetOptional(ctx context.Context, store Store, key string) (string, bool, error) {
	value, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}
