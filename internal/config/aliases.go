package config

import (
	"os"
	"path/filepath"

	"github.com/blackwell-systems/stashfinder/internal/region"
)

// AliasConfig maps feed structure tags onto canonical structure types, so a
// feed reporting "minecraft:chest" or "double_chest" can be counted as a chest.
type AliasConfig struct {
	Aliases map[region.StructureType]region.StructureType
}

// LoadAliases reads the aliases file at {dir}/aliases and returns the parsed
// config. If the file does not exist, an empty config is returned without an
// error. Invalid or malformed lines are silently skipped.
func LoadAliases(dir string) (*AliasConfig, error) {
	cfg := &AliasConfig{
		Aliases: make(map[region.StructureType]region.StructureType),
	}

	f, err := os.Open(filepath.Join(dir, "aliases"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()

	err = readPairs(f, func(_ int, alias, target string) {
		a := region.ParseStructureType(alias)
		t := region.ParseStructureType(target)
		if a != "" && t != "" {
			cfg.Aliases[a] = t
		}
	})
	return cfg, err
}

// Resolve returns the canonical type for t. Unaliased types are returned as is.
func (c *AliasConfig) Resolve(t region.StructureType) region.StructureType {
	if c == nil {
		return t
	}
	if target, ok := c.Aliases[t]; ok {
		return target
	}
	return t
}
