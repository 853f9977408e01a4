// Package services holds one client per lab entity. Each wraps the shared
// apiclient and the resource cache; reads go through the cache, writes clear
// every cache key that mentions the resource.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"labdesk/internal/apiclient"
	"labdesk/internal/cache"
	"labdesk/internal/logging"
	"labdesk/internal/metrics"
)

// Resource is the getAll/getById/create/update/delete client for one entity.
type Resource[T any] struct {
	name   string
	path   string
	client apiclient.Doer
	cache  cache.Cache
	log    *zap.Logger

	// gen counts invalidations. A read stores its payload only if no
	// invalidation ran while it was in flight.
	mu  sync.Mutex
	gen uint64
}

// NewResource creates a client for the entity served at path. name is the
// cache prefix; path is the collection endpoint, e.g. "/api/instruments".
func NewResource[T any](name, path string, client apiclient.Doer, c cache.Cache, log *zap.Logger) *Resource[T] {
	return &Resource[T]{name: name, path: path, client: client, cache: c, log: logging.OrNop(log)}
}

// Name returns the cache prefix.
func (r *Resource[T]) Name() string { return r.name }

func (r *Resource[T]) listKey(filter url.Values) string {
	if len(filter) == 0 {
		return r.name
	}
	return r.name + "?" + filter.Encode()
}

func (r *Resource[T]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

func (r *Resource[T]) cachedGet(ctx context.Context, key, path string, query url.Values, out any) error {
	if r.cache != nil {
		if payload, ok := r.cache.Get(ctx, key); ok {
			metrics.CacheLookups.WithLabelValues(r.name, "hit").Inc()
			return json.Unmarshal(payload, out)
		}
		metrics.CacheLookups.WithLabelValues(r.name, "miss").Inc()
	}
	gen := r.generation()
	var raw json.RawMessage
	if err := r.client.Get(ctx, path, query, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", r.name, err)
	}
	r.store(ctx, key, gen, raw)
	return nil
}

func (r *Resource[T]) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

func (r *Resource[T]) store(ctx context.Context, key string, gen uint64, raw []byte) {
	if r.cache == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		r.log.Debug("stale read not cached", zap.String("resource", r.name), zap.String("key", key))
		return
	}
	r.cache.Set(ctx, key, raw)
}

// GetAll lists records matching filter. A nil filter lists everything.
func (r *Resource[T]) GetAll(ctx context.Context, filter url.Values) ([]T, error) {
	var items []T
	if err := r.cachedGet(ctx, r.listKey(filter), r.path, filter, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// GetByID fetches one record.
func (r *Resource[T]) GetByID(ctx context.Context, id string) (T, error) {
	var item T
	err := r.cachedGet(ctx, r.name+"/"+id, r.itemPath(id), nil, &item)
	return item, err
}

// Create posts data and returns the server's record.
func (r *Resource[T]) Create(ctx context.Context, data any) (T, error) {
	defer r.invalidate(ctx)
	var out T
	err := r.client.Post(ctx, r.path, data, &out)
	return out, err
}

// Update replaces the record id with data.
func (r *Resource[T]) Update(ctx context.Context, id string, data any) (T, error) {
	defer r.invalidate(ctx)
	var out T
	err := r.client.Put(ctx, r.itemPath(id), data, &out)
	return out, err
}

// Delete removes the record id.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	defer r.invalidate(ctx)
	return r.client.Delete(ctx, r.itemPath(id), nil)
}

// Action posts to <path>/<id>/<action>, the shape used by lock, close and
// the other single-purpose mutations.
func (r *Resource[T]) Action(ctx context.Context, id, action string, body any) (T, error) {
	defer r.invalidate(ctx)
	var out T
	if body == nil {
		body = struct{}{}
	}
	err := r.client.Post(ctx, r.itemPath(id)+"/"+action, body, &out)
	return out, err
}

// Invalidate drops every cached read of this resource.
func (r *Resource[T]) Invalidate(ctx context.Context) { r.invalidate(ctx) }

func (r *Resource[T]) invalidate(ctx context.Context) {
	if r.cache == nil {
		return
	}
	r.mu.Lock()
	r.gen++
	n := r.cache.Invalidate(ctx, r.name)
	r.mu.Unlock()
	metrics.CacheInvalidations.WithLabelValues(r.name).Inc()
	r.log.Debug("cache invalidated", zap.String("resource", r.name), zap.Int("entries", n))
}
