// Package htconfig loads the YAML configuration of the hashtree command
// and resolves hasher names to [hthash.Hasher] values.
package htconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gordian-engine/hashtree"
	"github.com/gordian-engine/hashtree/hthash"
	"gopkg.in/yaml.v3"
)

// Config is the file representation of tree settings.
// Flags given on the command line override these values.
type Config struct {
	// Name of the hasher that combines nodes.
	Hash string `yaml:"hash"`

	// Name of the hasher that turns input data into leaves.
	// Empty means the same as Hash.
	LeafHash string `yaml:"leaf_hash"`

	// "duplicate" or "promote".
	OddNodes string `yaml:"odd_nodes"`

	// Combine each pair with the larger digest first.
	Sorted bool `yaml:"sorted"`

	// Domain-separate leaves from interior nodes.
	Prefixed bool `yaml:"prefixed"`

	Shard ShardConfig `yaml:"shard"`
}

// ShardConfig holds defaults for the shard command.
type ShardConfig struct {
	MaxShardSize int     `yaml:"max_shard_size"`
	ParityRatio  float32 `yaml:"parity_ratio"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Hash:     "sha256",
		OddNodes: hashtree.DuplicateOdd.String(),
		Shard: ShardConfig{
			MaxShardSize: 1024,
			ParityRatio:  0.25,
		},
	}
}

// Load reads the YAML file at path on top of [Default].
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of [Default] and validates the result.
func Parse(raw []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting in c.
func (c Config) Validate() error {
	if _, _, err := c.Hashers(); err != nil {
		return err
	}
	if _, err := hashtree.ParseOddPolicy(c.OddNodes); err != nil {
		return err
	}
	if c.Shard.MaxShardSize <= 0 {
		return fmt.Errorf("shard.max_shard_size must be positive (got %d)", c.Shard.MaxShardSize)
	}
	if c.Shard.ParityRatio < 0 {
		return fmt.Errorf("shard.parity_ratio must be non-negative (got %g)", c.Shard.ParityRatio)
	}
	return nil
}

// Hashers resolves the leaf and node hashers named in c,
// applying the Sorted and Prefixed options.
func (c Config) Hashers() (leaf, node hthash.Hasher, err error) {
	nodeBase, err := lookup(c.Hash)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid hash: %w", err)
	}

	leafName := c.LeafHash
	if leafName == "" {
		leafName = c.Hash
	}
	leafBase, err := lookup(leafName)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid leaf_hash: %w", err)
	}

	if leafBase.Size() != nodeBase.Size() {
		return nil, nil, fmt.Errorf(
			"leaf hash %s produces %d bytes but node hash %s produces %d",
			leafName, leafBase.Size(), c.Hash, nodeBase.Size(),
		)
	}

	leaf, node = leafBase, nodeBase
	if c.Prefixed {
		leaf = hthash.Prefixed(leafBase)
		node = hthash.Prefixed(nodeBase)
	}
	if c.Sorted {
		node = hthash.SortedPairs(node)
	}
	return leaf, node, nil
}

// BuildConfig returns the [hashtree.BuildConfig] described by c.
func (c Config) BuildConfig(log *slog.Logger) (hashtree.BuildConfig, error) {
	_, node, err := c.Hashers()
	if err != nil {
		return hashtree.BuildConfig{}, err
	}

	odd, err := hashtree.ParseOddPolicy(c.OddNodes)
	if err != nil {
		return hashtree.BuildConfig{}, err
	}

	return hashtree.BuildConfig{
		Hasher:   node,
		OddNodes: odd,
		Log:      log,
	}, nil
}
