package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-bankfeed/core"
)

const institutionCacheKeyPrefix = "go-bankfeed::institutions::v1"

// CachedInstitutionStore fronts an InstitutionStore with a read-through
// cache. Upserts write through and invalidate both the item key and the
// provider listing.
type CachedInstitutionStore struct {
	base  core.InstitutionStore
	cache repositorycache.CacheService
}

func NewCachedInstitutionStore(
	base core.InstitutionStore,
	cacheService repositorycache.CacheService,
) (*CachedInstitutionStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base institution store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: institution cache service is required")
	}
	return &CachedInstitutionStore{base: base, cache: cacheService}, nil
}

// InstitutionCacheKey returns the deterministic item key:
// go-bankfeed::institutions::v1::<provider>::<external_id> with each segment
// URL-path escaped.
func InstitutionCacheKey(provider core.ProviderID, externalID string) (string, error) {
	providerID := strings.TrimSpace(string(provider))
	externalID = strings.TrimSpace(externalID)
	if providerID == "" || externalID == "" {
		return "", fmt.Errorf("sqlstore: provider and institution id are required for cache key")
	}
	return strings.Join([]string{
		institutionCacheKeyPrefix,
		url.PathEscape(providerID),
		url.PathEscape(externalID),
	}, "::"), nil
}

func institutionListCacheKey(provider core.ProviderID) (string, error) {
	providerID := strings.TrimSpace(string(provider))
	if providerID == "" {
		return "", fmt.Errorf("sqlstore: provider is required for cache key")
	}
	return strings.Join([]string{
		institutionCacheKeyPrefix,
		url.PathEscape(providerID),
		"list",
	}, "::"), nil
}

func (s *CachedInstitutionStore) Get(ctx context.Context, provider core.ProviderID, id string) (core.Institution, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Institution{}, fmt.Errorf("sqlstore: cached institution store is not configured")
	}
	cacheKey, err := InstitutionCacheKey(provider, id)
	if err != nil {
		return core.Institution{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Institution, error) {
		return s.base.Get(ctx, provider, id)
	})
}

func (s *CachedInstitutionStore) Upsert(ctx context.Context, institution core.Institution) (core.Institution, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Institution{}, fmt.Errorf("sqlstore: cached institution store is not configured")
	}
	stored, err := s.base.Upsert(ctx, institution)
	if err != nil {
		return core.Institution{}, err
	}

	if itemKey, keyErr := InstitutionCacheKey(stored.Provider, stored.ID); keyErr == nil {
		if err := s.cache.Delete(ctx, itemKey); err != nil {
			return core.Institution{}, err
		}
	}
	if listKey, keyErr := institutionListCacheKey(stored.Provider); keyErr == nil {
		if err := s.cache.Delete(ctx, listKey); err != nil {
			return core.Institution{}, err
		}
	}
	return stored, nil
}

func (s *CachedInstitutionStore) ListByProvider(ctx context.Context, provider core.ProviderID) ([]core.Institution, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached institution store is not configured")
	}
	cacheKey, err := institutionListCacheKey(provider)
	if err != nil {
		return nil, err
	}
	institutions, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) ([]core.Institution, error) {
		return s.base.ListByProvider(ctx, provider)
	})
	if err != nil {
		return nil, err
	}
	return append([]core.Institution(nil), institutions...), nil
}

var _ core.InstitutionStore = (*CachedInstitutionStore)(nil)
