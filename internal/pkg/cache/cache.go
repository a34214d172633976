package cache

import (
	"context"
	"errors"
)

// Token ties a stored entry to the versions it was computed against.
type Token struct {
	Month   string
	Epoch   int64
	Version int64
}

// RollupCache holds computed dashboard rollups per month.
//
// Lookup returns a token recording the versions at read time. The caller
// computes on a miss and passes the token to Store, so a value computed
// before an invalidation lands under a superseded version and is never
// served.
type RollupCache interface {
	Lookup(ctx context.Context, month, key string, dst any) (hit bool, token Token, err error)
	Store(ctx context.Context, token Token, key string, value any) error
	// Invalidate drops every rollup of the month.
	Invalidate(ctx context.Context, month string) error
	// InvalidateAll drops every rollup of every month, for changes to the
	// org structure that records are joined against.
	InvalidateAll(ctx context.Context) error
}

// InvalidateMonth drops the month's rollups after a committed write. A failed
// attempt is retried once, then every month is dropped instead. The write has
// already committed, so request cancellation does not stop it. An error means
// every attempt failed and entries may be served until their TTL expires.
func InvalidateMonth(ctx context.Context, c RollupCache, month string) error {
	ctx = context.WithoutCancel(ctx)

	err := c.Invalidate(ctx, month)
	if err == nil {
		return nil
	}
	if err = c.Invalidate(ctx, month); err == nil {
		return nil
	}
	if allErr := c.InvalidateAll(ctx); allErr != nil {
		return errors.Join(err, allErr)
	}
	return nil
}

type nopCache struct{}

// NewNop returns a cache that never hits.
func NewNop() RollupCache {
	return nopCache{}
}

func (nopCache) Lookup(ctx context.Context, month, key string, dst any) (bool, Token, error) {
	return false, Token{Month: month}, nil
}

func (nopCache) Store(ctx context.Context, token Token, key string, value any) error {
	return nil
}

func (nopCache) Invalidate(ctx context.Context, month string) error {
	return nil
}

func (nopCache) InvalidateAll(ctx context.Context) error {
	return nil
}
