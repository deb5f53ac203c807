package metadata

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/jsonfilter/internal/filtererr"
)

// Cache is a read-through cache over a Provider and a ReferenceListSource.
//
// Entries are populated lazily, at most once per key: a read-locked lookup,
// then a single flight per key that re-checks before calling the source.
// Populated entries never change until Clear; readers only take the read
// lock. Source errors are returned but not cached. A fetch that was in flight
// when Clear or ClearReferenceList ran returns its result to its callers but
// does not store it.
//
// Thread-safety: Cache is safe for concurrent use.
type Cache struct {
	provider Provider
	lists    ReferenceListSource
	logger   *slog.Logger

	mu      sync.RWMutex
	props   map[propertyKey]propertyEntry
	display map[string]displayEntry
	items   map[CategoryID]itemsEntry
	gen     uint64 // bumped by every clear

	group singleflight.Group
}

type propertyKey struct {
	entityType string
	name       string
}

type propertyEntry struct {
	info PropertyInfo
	ok   bool
}

type displayEntry struct {
	name string
	ok   bool
}

type itemsEntry struct {
	items []ReferenceListItem
	ok    bool
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLogger sets the logger used for cache population events.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// NewCache creates a cache over provider and lists. Either may be nil; lookups
// against a nil source report "not found".
func NewCache(provider Provider, lists ReferenceListSource, opts ...CacheOption) *Cache {
	c := &Cache{
		provider: provider,
		lists:    lists,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		props:    make(map[propertyKey]propertyEntry),
		display:  make(map[string]displayEntry),
		items:    make(map[CategoryID]itemsEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Property implements Provider.
func (c *Cache) Property(entityType, name string) (PropertyInfo, bool, error) {
	key := propertyKey{entityType: entityType, name: name}
	entry, err := readThrough(c, c.props, key, "p\x00"+entityType+"\x00"+name, func() (propertyEntry, error) {
		if c.provider == nil {
			return propertyEntry{}, nil
		}
		info, ok, err := c.provider.Property(entityType, name)
		return propertyEntry{info: info, ok: ok}, err
	})
	return entry.info, entry.ok, err
}

// DisplayNameProperty implements Provider.
func (c *Cache) DisplayNameProperty(entityType string) (string, bool, error) {
	entry, err := readThrough(c, c.display, entityType, "d\x00"+entityType, func() (displayEntry, error) {
		if c.provider == nil {
			return displayEntry{}, nil
		}
		name, ok, err := c.provider.DisplayNameProperty(entityType)
		return displayEntry{name: name, ok: ok}, err
	})
	return entry.name, entry.ok, err
}

// ReferenceListItems implements ReferenceListSource.
func (c *Cache) ReferenceListItems(id CategoryID) ([]ReferenceListItem, bool, error) {
	entry, err := readThrough(c, c.items, id, "l\x00"+id.Namespace+"\x00"+id.Name, func() (itemsEntry, error) {
		if c.lists == nil {
			return itemsEntry{}, nil
		}
		items, ok, err := c.lists.ReferenceListItems(id)
		return itemsEntry{items: items, ok: ok}, err
	})
	return entry.items, entry.ok, err
}

// Clear drops every cached entry. Call it when upstream metadata or
// reference lists change.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.props)
	clear(c.display)
	clear(c.items)
	c.gen++
	c.logger.Debug("metadata cache cleared")
}

// ClearReferenceList drops the cached items of a single reference list.
func (c *Cache) ClearReferenceList(id CategoryID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, id)
	c.gen++
	c.logger.Debug("reference list evicted", slog.String("list", id.String()))
}

// readThrough returns entries[key], populating it with fetch on a miss.
// Flights are keyed by generation, so a lookup after a clear never joins a
// fetch that started before it.
func readThrough[K comparable, V any](c *Cache, entries map[K]V, key K, flightKey string, fetch func() (V, error)) (V, error) {
	c.mu.RLock()
	v, ok := entries[key]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	res, err, _ := c.group.Do(flightKey+"\x00"+strconv.FormatUint(gen, 10), func() (any, error) {
		// Re-check: another flight may have populated the key meanwhile.
		c.mu.RLock()
		v, ok := entries[key]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}

		v, err := fetch()
		if err != nil {
			return v, err
		}

		c.mu.Lock()
		current := c.gen == gen
		if current {
			entries[key] = v
		}
		c.mu.Unlock()

		if !current {
			c.logger.Debug("metadata cache fetch outlived a clear; not stored", slog.String("key", flightKey))
			return v, nil
		}
		c.logger.Debug("metadata cache populated", slog.String("key", flightKey))
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Items returns the items of a reference list, failing with a CONFIGURATION
// error when the list is unknown.
func Items(src ReferenceListSource, id CategoryID) ([]ReferenceListItem, error) {
	if src == nil {
		return nil, filtererr.Configurationf("no reference list source configured for %s", id)
	}
	items, ok, err := src.ReferenceListItems(id)
	if err != nil {
		return nil, fmt.Errorf("load reference list %s: %w", id, err)
	}
	if !ok {
		return nil, filtererr.Configurationf("unknown reference list %s", id)
	}
	return items, nil
}
