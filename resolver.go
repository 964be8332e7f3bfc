// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Marbleland
// Source: github.com/marbleland/missionzip

package missionzip

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// dirCacheSize bounds the process-wide directory listing cache.
const dirCacheSize = 4096

// DefaultResolveExtensions are the suffixes tried for extensionless texture
// references, in priority order.
var DefaultResolveExtensions = []string{".png", ".jpg", ".jpeg"}

var (
	dirCacheOnce sync.Once
	dirCache     *lru.Cache[string, map[string]string]
)

// directoryListing returns the lower-case name to on-disk name mapping for
// dir, read through the shared cache. Listings are never invalidated during
// the process lifetime; concurrent combine operations share them safely.
// Missing or unreadable directories cache an empty listing.
func directoryListing(dir string) map[string]string {
	dirCacheOnce.Do(func() {
		// Size is a positive constant, New cannot fail.
		dirCache, _ = lru.New[string, map[string]string](dirCacheSize)
	})

	if listing, ok := dirCache.Get(dir); ok {
		return listing
	}

	listing := make(map[string]string)
	if dirEntries, err := os.ReadDir(dir); err == nil {
		for _, de := range dirEntries {
			if de.IsDir() {
				continue
			}

			listing[strings.ToLower(de.Name())] = de.Name()
		}
	}

	dirCache.Add(dir, listing)

	return listing
}

// DirResolver resolves declared mission dependencies against a root data
// directory. Lookups are case-insensitive against cached directory listings,
// and extensionless references fall back to known image extensions. Wire its
// methods into Mission.FindPath and Mission.Normalize.
type DirResolver struct {
	// Root is the base directory containing mission assets.
	Root string
	// Extensions overrides DefaultResolveExtensions when non-nil.
	Extensions []string
}

// FindPath returns the absolute file path for dep, or empty string when the
// file does not exist under the resolver root.
func (r *DirResolver) FindPath(dep string) string {
	name := NormalizeDependency(dep)
	if name == "" {
		return ""
	}

	dir := filepath.Join(r.Root, filepath.FromSlash(path.Dir(name)))
	base := path.Base(name)

	listing := directoryListing(dir)
	if actual, ok := listing[base]; ok {
		return filepath.Join(dir, actual)
	}

	if path.Ext(base) == "" {
		for _, ext := range r.resolveExtensions() {
			if actual, ok := listing[base+ext]; ok {
				return filepath.Join(dir, actual)
			}
		}
	}

	return ""
}

// Normalize returns the canonical dependency path with the on-disk extension
// applied to extensionless references, so that a mission declaring
// "textures/wall" and one declaring "textures/wall.jpg" deduplicate to the
// same archive entry.
func (r *DirResolver) Normalize(dep string) string {
	name := NormalizeDependency(dep)
	if name == "" || path.Ext(name) != "" {
		return name
	}

	if resolved := r.FindPath(dep); resolved != "" {
		return name + strings.ToLower(filepath.Ext(resolved))
	}

	return name
}

// resolveExtensions returns the configured extension fallback list.
func (r *DirResolver) resolveExtensions() []string {
	if r.Extensions != nil {
		return r.Extensions
	}

	return DefaultResolveExtensions
}
