package services

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/apimgr/tripplanner/src/config"
	"github.com/apimgr/tripplanner/src/server/model"
)

// CatalogCache keeps frequently requested catalog reads in memory. The
// catalog changes only through admin operations, so entries are short-lived
// and flushed wholesale on any write.
type CatalogCache struct {
	store *gocache.Cache
}

// NewCatalogCache creates an in-memory catalog cache
func NewCatalogCache() *CatalogCache {
	return &CatalogCache{
		store: gocache.New(10*time.Minute, 20*time.Minute),
	}
}

// PopularCities returns cached popular cities, if present
func (cc *CatalogCache) PopularCities(limit int) ([]*models.City, bool) {
	if cached, found := cc.store.Get(fmt.Sprintf("popular-cities:%d", limit)); found {
		if cities, ok := cached.([]*models.City); ok {
			return cities, true
		}
	}
	return nil, false
}

// SetPopularCities stores a popular cities result
func (cc *CatalogCache) SetPopularCities(limit int, cities []*models.City) {
	cc.store.Set(fmt.Sprintf("popular-cities:%d", limit), cities, gocache.DefaultExpiration)
}

// Countries returns the cached country list, if present
func (cc *CatalogCache) Countries() ([]models.CountryCount, bool) {
	if cached, found := cc.store.Get("countries"); found {
		if countries, ok := cached.([]models.CountryCount); ok {
			return countries, true
		}
	}
	return nil, false
}

// SetCountries stores the country list
func (cc *CatalogCache) SetCountries(countries []models.CountryCount) {
	cc.store.Set("countries", countries, gocache.DefaultExpiration)
}

// Categories returns the cached activity category list, if present
func (cc *CatalogCache) Categories() ([]models.CategoryCount, bool) {
	if cached, found := cc.store.Get("activity-categories"); found {
		if categories, ok := cached.([]models.CategoryCount); ok {
			return categories, true
		}
	}
	return nil, false
}

// SetCategories stores the activity category list
func (cc *CatalogCache) SetCategories(categories []models.CategoryCount) {
	cc.store.Set("activity-categories", categories, gocache.DefaultExpiration)
}

// PopularActivities returns cached popular activities, if present
func (cc *CatalogCache) PopularActivities(limit int) ([]*models.Activity, bool) {
	if cached, found := cc.store.Get(fmt.Sprintf("popular-activities:%d", limit)); found {
		if activities, ok := cached.([]*models.Activity); ok {
			return activities, true
		}
	}
	return nil, false
}

// SetPopularActivities stores a popular activities result
func (cc *CatalogCache) SetPopularActivities(limit int, activities []*models.Activity) {
	cc.store.Set(fmt.Sprintf("popular-activities:%d", limit), activities, gocache.DefaultExpiration)
}

// Invalidate drops every cached catalog entry. Called after any admin
// write to cities or activities.
func (cc *CatalogCache) Invalidate() {
	cc.store.Flush()
}

// ItemCount returns the number of live cache entries
func (cc *CatalogCache) ItemCount() int {
	return cc.store.ItemCount()
}

// CacheManager handles optional Redis/Valkey caching for shared trip pages.
// Cache is optional: if the connection fails it gracefully disables itself
// and every operation becomes a no-op.
type CacheManager struct {
	client  *redis.Client
	enabled bool
	ctx     context.Context
}

// NewCacheManager creates a cache manager from configuration
func NewCacheManager(cfg config.CacheConfig) *CacheManager {
	ctx := context.Background()

	if !cfg.Enabled {
		return &CacheManager{enabled: false, ctx: ctx}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		// Cache unavailable, disable it gracefully
		client.Close()
		return &CacheManager{enabled: false, ctx: ctx}
	}

	return &CacheManager{client: client, enabled: true, ctx: ctx}
}

// IsEnabled returns whether caching is active
func (cm *CacheManager) IsEnabled() bool {
	return cm.enabled
}

// Get retrieves a value from cache
func (cm *CacheManager) Get(key string) (string, error) {
	if !cm.enabled {
		return "", fmt.Errorf("cache not enabled")
	}

	ctx, cancel := context.WithTimeout(cm.ctx, 1*time.Second)
	defer cancel()

	return cm.client.Get(ctx, key).Result()
}

// Set stores a value in cache with TTL
func (cm *CacheManager) Set(key string, value string, ttl time.Duration) error {
	if !cm.enabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(cm.ctx, 1*time.Second)
	defer cancel()

	return cm.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a key from cache
func (cm *CacheManager) Delete(key string) error {
	if !cm.enabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(cm.ctx, 1*time.Second)
	defer cancel()

	return cm.client.Del(ctx, key).Err()
}

// DeletePattern removes all keys matching a pattern
func (cm *CacheManager) DeletePattern(pattern string) error {
	if !cm.enabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(cm.ctx, 5*time.Second)
	defer cancel()

	iter := cm.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := cm.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Ping tests the cache connection
func (cm *CacheManager) Ping() error {
	if !cm.enabled {
		return fmt.Errorf("cache not enabled")
	}

	ctx, cancel := context.WithTimeout(cm.ctx, 2*time.Second)
	defer cancel()

	return cm.client.Ping(ctx).Err()
}

// Close closes the cache connection
func (cm *CacheManager) Close() error {
	if cm.enabled && cm.client != nil {
		return cm.client.Close()
	}
	return nil
}
