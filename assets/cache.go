// Package assets resolves named sprite regions. Regions are loaded lazily
// per (kind, region) key and shared by every entity of that kind through an
// injected Repository instead of package-level state.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/samber/oops"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

var ErrRegionNotFound = errors.New("assets: region not found")

// Key identifies a region of an entity kind's sprite atlas.
type Key struct {
	Kind   string
	Region string
}

func (k Key) String() string {
	return k.Kind + "/" + k.Region
}

// Region is a rectangle of a sprite sheet.
type Region struct {
	Sheet string `yaml:"sheet"`
	X     int    `yaml:"x"`
	Y     int    `yaml:"y"`
	W     int    `yaml:"w"`
	H     int    `yaml:"h"`
}

// Repository resolves regions.
type Repository interface {
	Region(ctx context.Context, key Key) (Region, error)
}

// Loader loads a region that is not cached yet.
type Loader func(ctx context.Context, key Key) (Region, error)

// Cache is a Repository that calls its Loader once per key and serves the
// stored result afterwards. Failed loads are not cached.
type Cache struct {
	load Loader

	mu      sync.RWMutex
	regions map[Key]Region
	group   singleflight.Group
}

// NewCache wraps load in a cache.
func NewCache(load Loader) *Cache {
	return &Cache{
		load:    load,
		regions: make(map[Key]Region),
	}
}

// Region returns the cached region for key, loading it on first use.
func (c *Cache) Region(ctx context.Context, key Key) (Region, error) {
	c.mu.RLock()
	r, ok := c.regions[key]
	c.mu.RUnlock()
	if ok {
		return r, nil
	}
	if c.load == nil {
		return Region{}, oops.Code("ASSET_NOT_FOUND").With("key", key.String()).Wrapf(ErrRegionNotFound, "no loader")
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		loaded, err := c.load(ctx, key)
		if err != nil {
			return Region{}, err
		}
		c.mu.Lock()
		c.regions[key] = loaded
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return Region{}, err
	}
	return v.(Region), nil
}

// Len reports how many regions are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.regions)
}

// Purge drops every cached region of kind. Used when atlas files change.
func (c *Cache) Purge(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.regions {
		if k.Kind == kind {
			delete(c.regions, k)
		}
	}
}

type atlasFile struct {
	Sheet   string            `yaml:"sheet"`
	Regions map[string]Region `yaml:"regions"`
}

// AtlasLoader loads regions from <kind>.yaml files in fsys. A region that
// leaves Sheet empty inherits the file's sheet.
func AtlasLoader(fsys fs.FS) Loader {
	return func(ctx context.Context, key Key) (Region, error) {
		if err := ctx.Err(); err != nil {
			return Region{}, err
		}
		name := cleanAtlasPath(key.Kind)
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Region{}, oops.Code("ASSET_NOT_FOUND").With("key", key.String()).Wrapf(ErrRegionNotFound, "atlas %s", name)
			}
			return Region{}, fmt.Errorf("assets: read %s: %w", name, err)
		}

		var atlas atlasFile
		if err := yaml.Unmarshal(data, &atlas); err != nil {
			return Region{}, fmt.Errorf("assets: unmarshal %s: %w", name, err)
		}

		r, ok := atlas.Regions[key.Region]
		if !ok {
			return Region{}, oops.Code("ASSET_NOT_FOUND").With("key", key.String()).Wrapf(ErrRegionNotFound, "atlas %s has no region %q", name, key.Region)
		}
		if r.Sheet == "" {
			r.Sheet = atlas.Sheet
		}
		return r, nil
	}
}
