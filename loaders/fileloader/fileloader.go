// Package fileloader is a configuration loader for the riskconf package. It
// loads configuration layers from structured documents on disk; the format
// is chosen by file extension (.yml/.yaml, .json, .toml). Locator values are
// file names, for example:
//
//	file:base.yaml
//	file:uat.yaml
//
// Documents are searched across an ordered list of directories and documents
// found in later directories are deep-merged onto earlier ones. A layer that
// exists in no directory is reported with fs.ErrNotExist so the resolver can
// distinguish a missing base document (fatal) from a missing override
// (tolerated).
package fileloader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/iph0/merger"
	"gopkg.in/yaml.v3"

	"github.com/judejinjin/riskconf"
)

const errPref = "fileloader"

var parsers = map[string]func(bytes []byte) (any, error){
	"yml":  unmarshalYAML,
	"yaml": unmarshalYAML,
	"json": unmarshalJSON,
	"toml": unmarshalTOML,
}

// Loader loads configuration layers from structured documents.
type Loader struct {
	dirs []string
}

// NewLoader creates a new loader instance. Directories are searched in the
// given order; when none are given the current directory is used.
func NewLoader(dirs ...string) *Loader {
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	return &Loader{
		dirs: dirs,
	}
}

// Load loads a configuration layer from a structured document.
func (l *Loader) Load(loc *riskconf.Locator) (any, error) {
	name := loc.Value

	if name == "" {
		return nil, fmt.Errorf("%s: empty file locator specified", errPref)
	}

	ext := strings.TrimPrefix(filepath.Ext(name), ".")

	if ext == "" {
		return nil, fmt.Errorf("%s: file extension not specified: %s", errPref, name)
	}

	parser, ok := parsers[ext]

	if !ok {
		return nil, fmt.Errorf("%s: unknown file extension .%s", errPref, ext)
	}

	var config any
	var found bool

	for _, dir := range l.dirs {
		path := filepath.Join(dir, name)
		bytes, err := os.ReadFile(path)

		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return nil, fmt.Errorf("%s: %w", errPref, err)
		}

		found = true
		data, err := parser(bytes)

		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", errPref, path, err)
		}

		if data == nil {
			continue
		}

		config = merger.Merge(config, data)
	}

	if !found {
		return nil, fmt.Errorf("%s: %s: %w", errPref, name, fs.ErrNotExist)
	}

	return config, nil
}

func unmarshalYAML(bytes []byte) (any, error) {
	var data any

	if err := yaml.Unmarshal(bytes, &data); err != nil {
		return nil, err
	}

	return data, nil
}

func unmarshalJSON(bytes []byte) (any, error) {
	var data any

	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, err
	}

	return data, nil
}

func unmarshalTOML(bytes []byte) (any, error) {
	var data map[string]any

	if err := toml.Unmarshal(bytes, &data); err != nil {
		return nil, err
	}

	return data, nil
}
