// Package catalog caches the course registry and reports what changed on
// each refresh.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/rcliao/ai-tutor/internal/model"
)

// Source fetches the full course list.
type Source interface {
	AllCourses(ctx context.Context) ([]model.Course, error)
}

// Diff lists the courses that differ between two refreshes.
type Diff struct {
	Added   []model.Course `json:"added,omitempty" yaml:"added,omitempty"`
	Removed []model.Course `json:"removed,omitempty" yaml:"removed,omitempty"`
	Changed []model.Course `json:"changed,omitempty" yaml:"changed,omitempty"`
}

// Empty reports whether nothing changed.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Cache holds one entry per course code. Entries expire after the TTL, at
// which point Lookup misses until the next Refresh. Diffs are computed
// against the unexpired entries.
type Cache struct {
	src   Source
	items *cache.Cache

	mu    sync.Mutex
	order []string
}

// New creates a cache. A ttl of zero never expires entries.
func New(src Source, ttl time.Duration) *Cache {
	exp, purge := cache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		exp, purge = ttl, 2*ttl
	}
	return &Cache{
		src:   src,
		items: cache.New(exp, purge),
	}
}

// Refresh refetches the catalog and replaces the cached entries.
func (c *Cache) Refresh(ctx context.Context) (Diff, error) {
	courses, err := c.src.AllCourses(ctx)
	if err != nil {
		return Diff{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var diff Diff
	seen := make(map[string]bool, len(courses))
	order := make([]string, 0, len(courses))
	for _, course := range courses {
		if seen[course.Code] {
			continue
		}
		seen[course.Code] = true
		order = append(order, course.Code)

		prev, ok := c.items.Get(course.Code)
		switch {
		case !ok:
			diff.Added = append(diff.Added, course)
		case prev.(model.Course) != course:
			diff.Changed = append(diff.Changed, course)
		}
		c.items.Set(course.Code, course, cache.DefaultExpiration)
	}
	for _, code := range c.order {
		if seen[code] {
			continue
		}
		if prev, ok := c.items.Get(code); ok {
			diff.Removed = append(diff.Removed, prev.(model.Course))
		}
		c.items.Delete(code)
	}
	c.order = order

	return diff, nil
}

// Seed loads a previously saved snapshot so the next Refresh reports the
// changes since then.
func (c *Cache) Seed(courses []model.Course) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items.Flush()
	c.order = c.order[:0]
	for _, course := range courses {
		if _, ok := c.items.Get(course.Code); ok {
			continue
		}
		c.order = append(c.order, course.Code)
		c.items.Set(course.Code, course, cache.DefaultExpiration)
	}
}

// Lookup returns a cached course.
func (c *Cache) Lookup(code string) (model.Course, bool) {
	v, ok := c.items.Get(code)
	if !ok {
		return model.Course{}, false
	}
	return v.(model.Course), true
}

// Courses returns the unexpired courses in registry order.
func (c *Cache) Courses() []model.Course {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Course, 0, len(c.order))
	for _, code := range c.order {
		if v, ok := c.items.Get(code); ok {
			out = append(out, v.(model.Course))
		}
	}
	return out
}

// Stale reports whether the cache needs a refresh before it can be trusted.
func (c *Cache) Stale() bool {
	return len(c.Courses()) == 0
}
