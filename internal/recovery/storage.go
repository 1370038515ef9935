package recovery

import (
	"context"
	"fmt"

	"github.com/vietddude/faultline/internal/core/domain"
)

// CacheStore is the expendable local cache the storage strategy manages.
type CacheStore interface {
	// Clear drops all cached state in a namespace.
	Clear(ctx context.Context, namespace string) error

	// EvictExpendable removes cache entries marked expendable and
	// returns how many were evicted.
	EvictExpendable(ctx context.Context) (int64, error)
}

// Resyncer restores local state from the authoritative remote source.
type Resyncer interface {
	Resync(ctx context.Context) error
}

// StorageStrategy recovers from data failures: corruption clears the local
// cache and resynchronizes from the remote source, low-space conditions
// evict expendable cached data.
type StorageStrategy struct {
	cache CacheStore
	sync  Resyncer
}

// NewStorageStrategy creates the storage recovery strategy.
func NewStorageStrategy(cache CacheStore, sync Resyncer) *StorageStrategy {
	return &StorageStrategy{cache: cache, sync: sync}
}

func (s *StorageStrategy) Name() string { return "storage_repair" }

func (s *StorageStrategy) Recover(ctx context.Context, f domain.Failure) Result {
	df, ok := f.(*domain.DataFailure)
	if !ok {
		return Failed("not a data failure")
	}

	switch df.Record().Code {
	case domain.CodeCorruption:
		if s.cache == nil || s.sync == nil {
			return Failed("no cache store or resyncer configured")
		}
		namespace := df.Table
		if err := s.cache.Clear(ctx, namespace); err != nil {
			return Failed("failed to clear corrupted state: " + err.Error())
		}
		if err := s.sync.Resync(ctx); err != nil {
			return Failed("resync from remote failed: " + err.Error())
		}
		return Resolved("local state cleared and resynchronized")
	case domain.CodeLowSpace:
		if s.cache == nil {
			return Failed("no cache store configured")
		}
		evicted, err := s.cache.EvictExpendable(ctx)
		if err != nil {
			return Failed("cache eviction failed: " + err.Error())
		}
		return ResolvedWith(fmt.Sprintf("evicted %d expendable cache entries", evicted), map[string]any{
			"evicted": evicted,
		})
	default:
		return Failed("no recovery for data code " + df.Record().Code)
	}
}
