package resource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type openCache struct {
	cache    *PagedCache
	file     *os.File
	writable bool
}

// Caches is the category-keyed addressing strategy: one PagedCache per resource
// category, each backed by its own file in a directory and opened on first use.
//
// Caches is not safe for concurrent use.
type Caches struct {
	dir      string
	opts     []CacheOption
	fallback Category
	open     map[Category]*openCache
}

// NewCaches creates a set of caches rooted at dir. The options are applied to
// every cache opened.
func NewCaches(dir string, opts ...CacheOption) *Caches {
	return &Caches{
		dir:  dir,
		opts: opts,
		open: make(map[Category]*openCache),
	}
}

// SetAllocationCategory selects the cache Allocate stages new resources in.
// The default is Resources.
func (c *Caches) SetAllocationCategory(cat Category) {
	c.fallback = cat
}

// Path returns the file path of a category's cache.
func (c *Caches) Path(cat Category) string {
	return filepath.Join(c.dir, cat.FileName())
}

// OpenRead returns the cache for a category, opening its file if needed.
func (c *Caches) OpenRead(cat Category) (*PagedCache, error) {
	if oc, ok := c.open[cat]; ok {
		return oc.cache, nil
	}
	if cat >= categoryCount {
		return nil, fmt.Errorf("unknown resource category %d", cat)
	}
	f, err := os.Open(c.Path(cat))
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cat, err)
	}
	cache, err := OpenPagedCache(f, c.opts...)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s cache: %w", cat, err)
	}
	if cache.Category() != cat {
		f.Close()
		return nil, fmt.Errorf("%s holds category %s", c.Path(cat), cache.Category())
	}
	c.open[cat] = &openCache{cache: cache, file: f}
	return cache, nil
}

// OpenWrite returns the cache for a category and marks it for Save. A missing
// file starts an empty cache.
func (c *Caches) OpenWrite(cat Category) (*PagedCache, error) {
	if oc, ok := c.open[cat]; ok {
		oc.writable = true
		return oc.cache, nil
	}
	cache, err := c.OpenRead(cat)
	if errors.Is(err, os.ErrNotExist) {
		cache = NewPagedCache(cat, c.opts...)
		c.open[cat] = &openCache{cache: cache}
		err = nil
	}
	if err != nil {
		return nil, err
	}
	c.open[cat].writable = true
	return cache, nil
}

func (c *Caches) forAddress(op string, addr Address, size int, write bool) (*PagedCache, error) {
	if addr.Type() != Resource {
		return nil, unresolvable(op, addr, size, "caches hold only resources")
	}
	cat := addr.Category()
	if cat >= categoryCount {
		return nil, unresolvable(op, addr, size, "unknown category")
	}
	var (
		cache *PagedCache
		err   error
	)
	if write {
		cache, err = c.OpenWrite(cat)
	} else {
		cache, err = c.OpenRead(cat)
	}
	if err != nil {
		return nil, &AddressingError{Op: op, Addr: addr, Size: size, Err: ErrUnresolvable, Detail: err.Error()}
	}
	return cache, nil
}

// Resolve implements Context.
func (c *Caches) Resolve(addr Address, size int) ([]byte, error) {
	cache, err := c.forAddress("resolve", addr, size, false)
	if err != nil {
		return nil, err
	}
	return cache.Resolve(addr, size)
}

// Allocate implements Context in the allocation category.
func (c *Caches) Allocate(space AddressType, size, align int) (Address, error) {
	cache, err := c.forAddress("allocate", NewResourceAddress(c.fallback, 0), size, true)
	if err != nil {
		return Null, err
	}
	return cache.Allocate(space, size, align)
}

// Write implements Context.
func (c *Caches) Write(addr Address, p []byte) error {
	cache, err := c.forAddress("write", addr, len(p), true)
	if err != nil {
		return err
	}
	return cache.Write(addr, p)
}

// Save writes every cache opened for writing. Each file is written to a
// temporary file in the same directory and renamed over the original.
func (c *Caches) Save() error {
	for _, cat := range Categories() {
		oc, ok := c.open[cat]
		if !ok || !oc.writable {
			continue
		}
		if err := c.save(cat, oc); err != nil {
			return err
		}
	}
	return nil
}

func (c *Caches) save(cat Category, oc *openCache) error {
	tmp, err := os.CreateTemp(c.dir, cat.FileName()+".*")
	if err != nil {
		return fmt.Errorf("create %s cache: %w", cat, err)
	}
	defer os.Remove(tmp.Name())

	if err := oc.cache.Save(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s cache: %w", cat, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s cache: %w", cat, err)
	}

	if oc.file != nil {
		oc.file.Close()
	}
	if err := os.Rename(tmp.Name(), c.Path(cat)); err != nil {
		return fmt.Errorf("replace %s cache: %w", cat, err)
	}

	// Reopen so later reads see the saved layout.
	delete(c.open, cat)
	if _, err := c.OpenWrite(cat); err != nil {
		return err
	}
	return nil
}

// Close closes every open cache file. Unsaved changes are discarded.
func (c *Caches) Close() error {
	var errs []error
	for cat, oc := range c.open {
		if oc.file != nil {
			if err := oc.file.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s cache: %w", cat, err))
			}
		}
		delete(c.open, cat)
	}
	return errors.Join(errs...)
}
