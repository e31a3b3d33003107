package service

import (
	"context"
)

// FinalizeGuard makes sure a setup intent handle is finalized at most once,
// however often the return URL is processed
type FinalizeGuard interface {
	// TryAcquire claims handle and reports whether the caller may finalize it
	TryAcquire(ctx context.Context, handle string) (bool, error)

	// Release gives a claim back after a transient failure
	Release(ctx context.Context, handle string) error
}

// BundleBalanceProvider reports how many prepaid votes the viewer holds for a
// creator. Bundle bookkeeping lives elsewhere.
type BundleBalanceProvider interface {
	// Balance returns the unspent bundle votes usable on creatorID's posts
	Balance(ctx context.Context, creatorID string) (int, error)
}

// FixedBundleBalance reports the same balance for every creator. The API
// still rejects votes the viewer can't actually cover.
type FixedBundleBalance int

// Balance returns the fixed balance
func (b FixedBundleBalance) Balance(ctx context.Context, creatorID string) (int, error) {
	return int(b), nil
}

// Navigator sends the viewer to an external URL, e.g. sign-up-and-pay
type Navigator interface {
	// Navigate hands url to whatever can show it to the viewer
	Navigate(ctx context.Context, url string) error
}
