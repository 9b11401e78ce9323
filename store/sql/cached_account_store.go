package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-claims/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const accountCacheKeyPrefix = "go-claims::account::v1"

// CachedAccountStore layers read-through caching over an AccountStore.
// Only Get is cached; every write path invalidates the entry so callers
// never observe a stale account after their own update or delete.
type CachedAccountStore struct {
	base  core.AccountStore
	cache repositorycache.CacheService
}

func NewCachedAccountStore(base core.AccountStore, cacheService repositorycache.CacheService) (*CachedAccountStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base account store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: account cache service is required")
	}
	return &CachedAccountStore{base: base, cache: cacheService}, nil
}

// AccountCacheKey returns the deterministic cache key for account reads:
// go-claims::account::v1::<id> with the id URL-path escaped.
func AccountCacheKey(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", fmt.Errorf("sqlstore: account id is required")
	}
	return accountCacheKeyPrefix + "::" + url.PathEscape(trimmed), nil
}

func (s *CachedAccountStore) Get(ctx context.Context, id string) (core.Account, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Account{}, fmt.Errorf("sqlstore: cached account store is not configured")
	}
	cacheKey, err := AccountCacheKey(id)
	if err != nil {
		return core.Account{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Account, error) {
		return s.base.Get(ctx, id)
	})
}

func (s *CachedAccountStore) Create(ctx context.Context, in core.CreateAccountRecordInput) (core.Account, error) {
	if s == nil || s.base == nil {
		return core.Account{}, fmt.Errorf("sqlstore: cached account store is not configured")
	}
	return s.base.Create(ctx, in)
}

func (s *CachedAccountStore) GetIncludingDeleted(ctx context.Context, id string) (core.Account, error) {
	if s == nil || s.base == nil {
		return core.Account{}, fmt.Errorf("sqlstore: cached account store is not configured")
	}
	return s.base.GetIncludingDeleted(ctx, id)
}

func (s *CachedAccountStore) List(ctx context.Context, filter core.AccountFilter) (core.AccountPage, error) {
	if s == nil || s.base == nil {
		return core.AccountPage{}, fmt.Errorf("sqlstore: cached account store is not configured")
	}
	return s.base.List(ctx, filter)
}

func (s *CachedAccountStore) Update(ctx context.Context, id string, in core.UpdateAccountRecordInput) (core.Account, error) {
	if s == nil || s.base == nil {
		return core.Account{}, fmt.Errorf("sqlstore: cached account store is not configured")
	}
	updated, err := s.base.Update(ctx, id, in)
	if err != nil {
		return core.Account{}, err
	}
	if err := s.invalidate(ctx, id); err != nil {
		return core.Account{}, err
	}
	return updated, nil
}

func (s *CachedAccountStore) SoftDelete(ctx context.Context, id string, at time.Time) error {
	if s == nil || s.base == nil {
		return fmt.Errorf("sqlstore: cached account store is not configured")
	}
	if err := s.base.SoftDelete(ctx, id, at); err != nil {
		return err
	}
	return s.invalidate(ctx, id)
}

func (s *CachedAccountStore) SetExternalID(ctx context.Context, id string, externalID string) error {
	if s == nil || s.base == nil {
		return fmt.Errorf("sqlstore: cached account store is not configured")
	}
	if err := s.base.SetExternalID(ctx, id, externalID); err != nil {
		return err
	}
	return s.invalidate(ctx, id)
}

func (s *CachedAccountStore) EmailExists(ctx context.Context, email string) (bool, error) {
	if s == nil || s.base == nil {
		return false, fmt.Errorf("sqlstore: cached account store is not configured")
	}
	return s.base.EmailExists(ctx, email)
}

func (s *CachedAccountStore) EmailExistsExcluding(ctx context.Context, email string, excludeID string) (bool, error) {
	if s == nil || s.base == nil {
		return false, fmt.Errorf("sqlstore: cached account store is not configured")
	}
	return s.base.EmailExistsExcluding(ctx, email, excludeID)
}

func (s *CachedAccountStore) invalidate(ctx context.Context, id string) error {
	if s.cache == nil {
		return nil
	}
	cacheKey, err := AccountCacheKey(id)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

var _ core.AccountStore = (*CachedAccountStore)(nil)
