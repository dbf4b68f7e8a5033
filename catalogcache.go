package main

import (
	"fmt"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/patrickmn/go-cache"
)

// catalogCache keeps parsed catalogs for the life of a warm process. Catalogs
// are immutable once parsed, so entries are shared between requests.
type catalogCache struct {
	c *cache.Cache
}

func newCatalogCache(ttl time.Duration) *catalogCache {
	return &catalogCache{c: cache.New(ttl, 2*ttl)}
}

// load returns the catalog at path, reparsing when the file's size or
// modification time changes.
func (cc *catalogCache) load(path string) (*Catalog, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogRead, err)
	}
	key := fmt.Sprintf("file:%s:%d:%d", path, st.Size(), st.ModTime().UnixNano())
	if v, ok := cc.c.Get(key); ok {
		return v.(*Catalog), nil
	}
	cat, err := LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	cc.c.Set(key, cat, cache.DefaultExpiration)
	return cat, nil
}

// parse returns the catalog for an inline document, keyed by content hash.
func (cc *catalogCache) parse(doc []byte) (*Catalog, error) {
	key := fmt.Sprintf("doc:%016x:%d", xxhash.Sum64(doc), len(doc))
	if v, ok := cc.c.Get(key); ok {
		return v.(*Catalog), nil
	}
	cat, err := ParseCatalog(doc)
	if err != nil {
		return nil, err
	}
	cc.c.Set(key, cat, cache.DefaultExpiration)
	return cat, nil
}

// size reports the number of cached catalogs.
func (cc *catalogCache) size() int { return cc.c.ItemCount() }
