package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/patrickmn/go-cache"

	"github.com/totegamma/aquamind/internal/domain"
	"github.com/totegamma/aquamind/internal/usecase"
)

const userCachePrefix = "aquamind:user:"

// CachedUserRepository fronts GetByID with a process cache and an optional
// memcached tier. Accounts never change after registration, so entries are
// only ever evicted by TTL. Cached copies carry no password hash.
type CachedUserRepository struct {
	inner usecase.UserRepository
	local *cache.Cache
	mc    *memcache.Client
	ttl   time.Duration
}

func NewCachedUserRepository(inner usecase.UserRepository, mc *memcache.Client, ttl time.Duration) *CachedUserRepository {
	return &CachedUserRepository{
		inner: inner,
		local: cache.New(ttl, 2*ttl),
		mc:    mc,
		ttl:   ttl,
	}
}

func (r *CachedUserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	return r.inner.Create(ctx, user)
}

func (r *CachedUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.inner.GetByEmail(ctx, email)
}

func (r *CachedUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	if cached, ok := r.local.Get(id); ok {
		return cached.(domain.User), nil
	}

	if r.mc != nil {
		item, err := r.mc.Get(userCachePrefix + id)
		if err == nil {
			var user domain.User
			if err := json.Unmarshal(item.Value, &user); err == nil {
				r.local.SetDefault(id, user)
				return user, nil
			}
		} else if err != memcache.ErrCacheMiss {
			slog.DebugContext(ctx, "memcached get failed", slog.String("error", err.Error()), slog.String("module", "repository"))
		}
	}

	user, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = ""

	r.local.SetDefault(id, user)
	if r.mc != nil {
		if value, err := json.Marshal(user); err == nil {
			err = r.mc.Set(&memcache.Item{
				Key:        userCachePrefix + id,
				Value:      value,
				Expiration: int32(r.ttl.Seconds()),
			})
			if err != nil {
				slog.DebugContext(ctx, "memcached set failed", slog.String("error", err.Error()), slog.String("module", "repository"))
			}
		}
	}

	return user, nil
}
