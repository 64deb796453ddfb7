// Package maploader is a configuration loader for the riskconf package. It
// loads configuration layers from a map; configuration locators are just
// keys of the map, for example:
//
//	map:base
//	map:uat
//
// A missing key is reported with fs.ErrNotExist, the same way a file-based
// loader reports a missing document. The loader is intended for tests and
// for embedding defaults in code.
package maploader

import (
	"fmt"
	"io/fs"

	"github.com/judejinjin/riskconf"
)

// Loader loads configuration layers from a map.
type Loader struct {
	m riskconf.M
}

// NewLoader creates a new loader instance.
func NewLoader(m riskconf.M) *Loader {
	return &Loader{
		m: m,
	}
}

// Load loads a configuration layer from the map.
func (l *Loader) Load(loc *riskconf.Locator) (any, error) {
	layer, ok := l.m[loc.Value]

	if !ok {
		return nil, fmt.Errorf("maploader: %s: %w", loc.Value, fs.ErrNotExist)
	}

	return layer, nil
}
