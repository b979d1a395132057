package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
)

// LoadFile applies the TOML file at path on top of base. A missing file is
// not an error when optional is true.
//
//	columns = 60
//	density = 0.65
//	diagonal = false
//	steps_per_tick = 4
//	tick = "30ms"
func LoadFile(base Config, path string, optional bool) (Config, error) {
	values := make(map[string]any)
	if _, err := toml.DecodeFile(path, &values); err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return base, nil
		}
		return base, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return FromValues(base, values), nil
}

// Parse applies TOML text on top of base.
func Parse(base Config, data string) (Config, error) {
	values := make(map[string]any)
	if _, err := toml.Decode(data, &values); err != nil {
		return base, fmt.Errorf("failed to parse config: %w", err)
	}
	return FromValues(base, values), nil
}
