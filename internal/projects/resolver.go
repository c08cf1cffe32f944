// Package projects resolves project ids to display names for row
// projection, with an optional Redis read-through cache in front of
// the backing store.
package projects

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrProjectNotFound is returned by stores when a project id no
// longer resolves (the project was deleted).
var ErrProjectNotFound = errors.New("project not found")

// Store looks up project display names.
type Store interface {
	GetProjectName(ctx context.Context, projectID string) (string, error)
}

// Resolver caches project display names. A nil Redis client degrades
// to direct store lookups.
type Resolver struct {
	store Store
	cache *redis.Client
	ttl   time.Duration
}

func NewResolver(store Store, cache *redis.Client, ttl time.Duration) *Resolver {
	return &Resolver{store: store, cache: cache, ttl: ttl}
}

// ResolveNames returns display names for each distinct project id that
// still resolves. Deleted projects are simply absent from the result;
// callers render the fallback form. Store errors other than not-found
// propagate.
func (r *Resolver) ResolveNames(ctx context.Context, projectIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(projectIDs))
	for _, id := range projectIDs {
		if id == "" {
			continue
		}
		if _, done := names[id]; done {
			continue
		}
		name, err := r.resolve(ctx, id)
		if errors.Is(err, ErrProjectNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve project %s: %w", id, err)
		}
		names[id] = name
	}
	return names, nil
}

func (r *Resolver) resolve(ctx context.Context, projectID string) (string, error) {
	if r.cache != nil {
		name, err := r.cache.Get(ctx, cacheKey(projectID)).Result()
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, redis.Nil) {
			// Cache trouble degrades to a store lookup.
			log.Printf("projects: cache read for %s: %v", projectID, err)
		}
	}

	name, err := r.store.GetProjectName(ctx, projectID)
	if err != nil {
		return "", err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, cacheKey(projectID), name, r.ttl).Err(); err != nil {
			log.Printf("projects: cache write for %s: %v", projectID, err)
		}
	}

	return name, nil
}

func cacheKey(projectID string) string {
	return "pn:" + projectID
}
