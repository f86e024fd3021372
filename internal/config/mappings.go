package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/DeusData/joi-to-zod/internal/joizod"
)

// MappingFile is the YAML document holding extra validation mappings:
//
//	mappings:
//	  - primitive: string
//	    joi: token()
//	    zod: regex(/^[a-zA-Z0-9_]+$/)
type MappingFile struct {
	Mappings []joizod.MappingEntry `yaml:"mappings"`
}

// LoadMappings reads a mapping file. A missing file yields no mappings. A
// file that does not decode is an error, since silently dropping user
// mappings would change the rewrite output.
func LoadMappings(path string) ([]joizod.MappingEntry, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mappings: %w", err)
	}

	var mf MappingFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parse mappings %s: %w", path, err)
	}
	for i, m := range mf.Mappings {
		if m.Source == "" {
			return nil, fmt.Errorf("mappings %s: entry %d has no joi call", path, i)
		}
		if m.Primitive == "" {
			mf.Mappings[i].Primitive = "*"
		}
	}
	return mf.Mappings, nil
}
