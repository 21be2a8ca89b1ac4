// Package config holds the JSON debug session configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config describes per-session debugger settings: which extra CSRs to
// expose to the client and the geometry of the target memory cache.
type Config struct {
	// ExposeCSRs lists CSR addresses to expose beyond the standard
	// register set.
	ExposeCSRs []uint16 `json:"expose_csr"`

	// HideCSRs lists CSR addresses to hide again after exposure.
	HideCSRs []uint16 `json:"hide_csr"`

	// MemCacheSize is the target memory cache size in bytes.
	MemCacheSize int `json:"mem_cache_size"`

	// MemCacheAssociativity is the number of ways.
	MemCacheAssociativity int `json:"mem_cache_associativity"`

	// MemCacheBlockSize is the cache block size in bytes, which is also
	// the debug-link transfer unit.
	MemCacheBlockSize int `json:"mem_cache_block_size"`
}

// Default returns a Config with no extra CSRs and the default memory
// cache geometry.
func Default() *Config {
	return &Config{
		MemCacheSize:          16 * 1024,
		MemCacheAssociativity: 4,
		MemCacheBlockSize:     64,
	}
}

// Load reads a Config from a JSON file. Missing fields keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// Save writes the Config to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	for _, csr := range c.ExposeCSRs {
		if csr > 4095 {
			return fmt.Errorf("expose_csr entry 0x%x out of range", csr)
		}
	}
	for _, csr := range c.HideCSRs {
		if csr > 4095 {
			return fmt.Errorf("hide_csr entry 0x%x out of range", csr)
		}
	}
	if c.MemCacheSize <= 0 {
		return fmt.Errorf("mem_cache_size must be > 0")
	}
	if c.MemCacheAssociativity <= 0 {
		return fmt.Errorf("mem_cache_associativity must be > 0")
	}
	if c.MemCacheBlockSize <= 0 {
		return fmt.Errorf("mem_cache_block_size must be > 0")
	}
	if c.MemCacheSize%(c.MemCacheAssociativity*c.MemCacheBlockSize) != 0 {
		return fmt.Errorf("mem_cache_size must be a multiple of way size")
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.ExposeCSRs = append([]uint16(nil), c.ExposeCSRs...)
	clone.HideCSRs = append([]uint16(nil), c.HideCSRs...)
	return &clone
}
