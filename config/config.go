// Package config loads the storage core's tunables: pool size, the LRU-K
// history depth, page size, and per-node capacities. Grounded on
// tuannm99-novasql's internal/config.go, the one example repo in the pack
// with a configuration loader; the teacher itself has none.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/ryogrid/bptreestore/types"
)

// Options holds every knob a BufferPoolManager/B+ tree pair is built
// from.
type Options struct {
	Buffer struct {
		PoolSize  int `mapstructure:"pool_size"`
		ReplacerK int `mapstructure:"replacer_k"`
		PageSize  int `mapstructure:"page_size"`
	} `mapstructure:"buffer"`

	Index struct {
		LeafMaxSize     int `mapstructure:"leaf_max_size"`
		InternalMaxSize int `mapstructure:"internal_max_size"`
	} `mapstructure:"index"`
}

// Defaults returns the configuration this module falls back to when no
// config file is supplied, sized for the page size most of its tests are
// built around.
func Defaults() Options {
	var o Options
	o.Buffer.PoolSize = 64
	o.Buffer.ReplacerK = 2
	o.Buffer.PageSize = types.PageSize
	o.Index.LeafMaxSize = 128
	o.Index.InternalMaxSize = 128
	return o
}

// Load reads YAML configuration from path, falling back to Defaults for
// any field the file doesn't set, and validates the result.
func Load(path string) (Options, error) {
	opts := Defaults()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("buffer.pool_size", opts.Buffer.PoolSize)
	v.SetDefault("buffer.replacer_k", opts.Buffer.ReplacerK)
	v.SetDefault("buffer.page_size", opts.Buffer.PageSize)
	v.SetDefault("index.leaf_max_size", opts.Index.LeafMaxSize)
	v.SetDefault("index.internal_max_size", opts.Index.InternalMaxSize)

	if err := v.ReadInConfig(); err != nil {
		return Options{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := v.Unmarshal(&opts); err != nil {
		return Options{}, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate reports an error if the pool size, replacer K or page size is
// not positive, or if either node max size is below 3. Settings are checked
// one by one; pool size is not compared against K, nor max sizes against
// the page size.
func (o Options) Validate() error {
	if o.Buffer.PoolSize <= 0 {
		return fmt.Errorf("config: buffer.pool_size must be positive, got %d", o.Buffer.PoolSize)
	}
	if o.Buffer.ReplacerK <= 0 {
		return fmt.Errorf("config: buffer.replacer_k must be positive, got %d", o.Buffer.ReplacerK)
	}
	if o.Buffer.PageSize <= 0 {
		return fmt.Errorf("config: buffer.page_size must be positive, got %d", o.Buffer.PageSize)
	}
	if o.Index.LeafMaxSize < 3 {
		return fmt.Errorf("config: index.leaf_max_size must be at least 3, got %d", o.Index.LeafMaxSize)
	}
	if o.Index.InternalMaxSize < 3 {
		return fmt.Errorf("config: index.internal_max_size must be at least 3, got %d", o.Index.InternalMaxSize)
	}
	return nil
}
