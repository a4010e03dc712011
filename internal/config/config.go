// Package config loads record-store creation parameters from an optional
// HuJSON file, layered with command-line overrides.
//
// HuJSON (Human JSON) is used instead of plain JSON because operators tend
// to hand-edit this file to try different block/header sizes, and HuJSON
// tolerates trailing commas and "//" comments while still parsing as
// standard JSON underneath.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// Default store-creation parameters.
const (
	DefaultBlockSize  = 40960
	DefaultHeaderSize = 48
)

// Store holds the parameters needed to create or open a record store file.
type Store struct {
	// Path is the record store's backing file.
	Path string `json:"path"`

	// BlockSize is the fixed size of each block. Must be >= 128.
	BlockSize int64 `json:"blockSize"`

	// HeaderSize is the size of each block's header region in bytes.
	// Must be < BlockSize and a multiple of 8 (at least 48, to hold the
	// five reserved i64 fields).
	HeaderSize int64 `json:"headerSize"`
}

// Default returns a [Store] populated with the default block/header sizes
// and no path set.
func Default() Store {
	return Store{
		BlockSize:  DefaultBlockSize,
		HeaderSize: DefaultHeaderSize,
	}
}

// Load reads a HuJSON config file at path and overlays it onto [Default].
// Fields absent from the file keep their default value. A missing file is
// not an error - Load simply returns [Default].
func Load(path string) (Store, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Store{}, fmt.Errorf("config: read %q: %w", path, err)
	}

	standard, err := hujson.Standardize(raw)
	if err != nil {
		return Store{}, fmt.Errorf("config: parse %q: %w", path, err)
	}

	// Standardize preserves object shape, so unset fields in the file leave
	// cfg's defaults untouched rather than zeroing them.
	if err := json.Unmarshal(standard, &cfg); err != nil {
		return Store{}, fmt.Errorf("config: decode %q: %w", path, err)
	}
	return cfg, nil
}

// ApplyOverrides replaces any field in cfg whose override is non-zero,
// modeling how CLI flags in cmd/recstore take precedence over the config
// file.
func ApplyOverrides(cfg Store, path string, blockSize, headerSize int64) Store {
	if path != "" {
		cfg.Path = path
	}
	if blockSize != 0 {
		cfg.BlockSize = blockSize
	}
	if headerSize != 0 {
		cfg.HeaderSize = headerSize
	}
	return cfg
}
