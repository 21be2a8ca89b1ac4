// Package targetmem caches target memory read over the debug link. Debug
// transports are slow (often milliseconds per word), so while the hart is
// halted the debugger keeps recently touched memory in a small
// set-associative cache built on Akita cache components. The cache is
// write-back: local writes are delayed until Flush, which must run before
// the hart resumes.
package targetmem

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds the cache geometry.
type Config struct {
	// Size in bytes.
	Size int
	// Associativity (number of ways).
	Associativity int
	// BlockSize in bytes; also the debug-link transfer unit.
	BlockSize int
}

// DefaultConfig returns a geometry suited to typical debug sessions:
// 16KB, 4-way, 64-byte blocks (one block per link round trip).
func DefaultConfig() Config {
	return Config{
		Size:          16 * 1024,
		Associativity: 4,
		BlockSize:     64,
	}
}

// Validate checks the geometry for consistency.
func (c Config) Validate() error {
	if c.Size <= 0 || c.Associativity <= 0 || c.BlockSize <= 0 {
		return fmt.Errorf("cache geometry values must be > 0")
	}
	if c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("cache size %d is not a multiple of way size %d",
			c.Size, c.Associativity*c.BlockSize)
	}
	return nil
}

// BackingStore is the next level behind the cache: the debug transport's
// memory access. Both operations can fail with link errors.
type BackingStore interface {
	// Read fills buf from target memory at addr.
	Read(addr uint64, buf []byte) error
	// Write stores data to target memory at addr.
	Write(addr uint64, data []byte) error
}

// Statistics holds cache performance counters.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// Cache is a write-back cache of target memory.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl

	// dataStore is indexed by setID*associativity + wayID.
	dataStore [][]byte

	stats   Statistics
	backing BackingStore
}

// New creates a cache with the given geometry over a backing store.
func New(config Config, backing BackingStore) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}, nil
}

// Config returns the cache geometry.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns the performance counters.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears the performance counters.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) blockAddr(addr uint64) uint64 {
	return addr / uint64(c.config.BlockSize) * uint64(c.config.BlockSize)
}

// Read fills buf from target memory at addr, fetching whole blocks over
// the link on miss. The access may span block boundaries.
func (c *Cache) Read(addr uint64, buf []byte) error {
	c.stats.Reads++
	for len(buf) > 0 {
		data, err := c.block(addr)
		if err != nil {
			return err
		}
		offset := int(addr % uint64(c.config.BlockSize))
		n := copy(buf, data[offset:])
		addr += uint64(n)
		buf = buf[n:]
	}
	return nil
}

// Write stores data to the cached view of target memory at addr, marking
// the touched blocks dirty. The target itself is not updated until Flush.
// Write-allocate: missing blocks are fetched first.
func (c *Cache) Write(addr uint64, data []byte) error {
	c.stats.Writes++
	for len(data) > 0 {
		blockData, err := c.block(addr)
		if err != nil {
			return err
		}
		// block() leaves the block looked up and visited; re-find it
		// to set the dirty bit.
		block := c.directory.Lookup(0, c.blockAddr(addr))
		offset := int(addr % uint64(c.config.BlockSize))
		n := copy(blockData[offset:], data)
		block.IsDirty = true
		addr += uint64(n)
		data = data[n:]
	}
	return nil
}

// block returns the data of the block containing addr, fetching it from
// the backing store on miss.
func (c *Cache) block(addr uint64) ([]byte, error) {
	blockAddr := c.blockAddr(addr)

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		return c.dataStore[c.blockIndex(block)], nil
	}

	c.stats.Misses++
	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return nil, fmt.Errorf("no victim block for address 0x%x", addr)
	}
	victimData := c.dataStore[c.blockIndex(victim)]

	if victim.IsValid {
		c.stats.Evictions++
		if victim.IsDirty {
			c.stats.Writebacks++
			if err := c.backing.Write(victim.Tag, victimData); err != nil {
				return nil, fmt.Errorf("writeback of 0x%x failed: %w",
					victim.Tag, err)
			}
		}
		victim.IsValid = false
		victim.IsDirty = false
	}

	if err := c.backing.Read(blockAddr, victimData); err != nil {
		return nil, fmt.Errorf("fetch of 0x%x failed: %w", blockAddr, err)
	}

	// Tag stores the block-aligned address.
	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)
	return victimData, nil
}

// Flush writes every dirty block back to the target and invalidates the
// whole cache. It must run before the hart resumes, or the target would
// execute against stale memory.
func (c *Cache) Flush() error {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				c.stats.Writebacks++
				data := c.dataStore[c.blockIndex(block)]
				if err := c.backing.Write(block.Tag, data); err != nil {
					return fmt.Errorf("writeback of 0x%x failed: %w",
						block.Tag, err)
				}
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
	return nil
}

// Invalidate drops the block containing addr without writing it back.
func (c *Cache) Invalidate(addr uint64) {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Reset invalidates all blocks without writeback and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
