// Package htshard erasure-codes a payload into shards
// and commits to every shard with a hash tree,
// so that each shard can be checked on its own before reconstruction.
package htshard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gordian-engine/hashtree"
	"github.com/gordian-engine/hashtree/hthash"
	"github.com/gordian-engine/hashtree/internal/dtrace"
	"github.com/klauspost/reedsolomon"
)

// MaxShards is the largest total shard count Prepare produces.
const MaxShards = (1 << 16) - 1

const minShardSize = 32

// ErrEmptyData is returned from [Prepare] when there is nothing to shard.
var ErrEmptyData = errors.New("no data to shard")

// PrepareConfig is the config for [Prepare].
type PrepareConfig struct {
	// Desired maximum size of each shard.
	// The actual size may be slightly smaller,
	// to satisfy alignment requirements of the erasure coder.
	MaxShardSize int

	// ParityRatio indicates the desired ratio of
	// parity shards to data shards.
	// For example, ParityRatio=0.5 means there will be
	// one parity shard for every two data shards.
	// The parity count is rounded down.
	ParityRatio float32

	// LeafHasher hashes shard contents into leaves.
	LeafHasher hthash.Hasher

	// NodeHasher combines nodes of the tree.
	// If nil, LeafHasher is used.
	NodeHasher hthash.Hasher

	OddNodes hashtree.OddPolicy

	Log *slog.Logger

	// Optional; nil means no tracing.
	Tracer dtrace.Tracer
}

// Prepared is the value returned by [Prepare].
type Prepared struct {
	// The number of data and parity shards.
	NumData, NumParity int

	// Length of the original payload,
	// needed to strip padding on reconstruction.
	DataLen int

	// Data shards followed by parity shards, all of the same size.
	Shards [][]byte

	// Root of the tree whose leaves are the hashed shards.
	Root hashtree.Digest

	// Proofs[i] proves inclusion of Shards[i].
	Proofs []hashtree.Proof
}

// Prepare splits data into data and parity shards
// and builds a hash tree over the shards.
func Prepare(ctx context.Context, data []byte, cfg PrepareConfig) (Prepared, error) {
	if cfg.ParityRatio < 0 {
		panic(fmt.Errorf(
			"BUG: ParityRatio must be non-negative (got %g)", cfg.ParityRatio,
		))
	}
	if cfg.MaxShardSize <= 0 {
		panic(fmt.Errorf(
			"BUG: MaxShardSize must be positive (got %d)", cfg.MaxShardSize,
		))
	}
	if cfg.LeafHasher == nil {
		panic(errors.New("BUG: LeafHasher must not be nil"))
	}
	nodeHasher := cfg.NodeHasher
	if nodeHasher == nil {
		nodeHasher = cfg.LeafHasher
	}

	_, span := dtrace.TracerOrNop(cfg.Tracer).Start(ctx, "prepare shards")
	defer span.End()

	p, err := prepare(span, data, cfg, nodeHasher)
	if err != nil {
		dtrace.SpanError(span, err)
	}
	return p, err
}

func prepare(
	span dtrace.Span, data []byte, cfg PrepareConfig, nodeHasher hthash.Hasher,
) (Prepared, error) {
	if len(data) == 0 {
		return Prepared{}, ErrEmptyData
	}

	shardSize := cfg.MaxShardSize
	if shardSize < minShardSize {
		return Prepared{}, fmt.Errorf(
			"shard size too small: minimum is %d but got %d",
			minShardSize, shardSize,
		)
	}

	nData, nParity := shardCounts(len(data), shardSize, cfg.ParityRatio)
	if nData+nParity > 256 {
		// Above 256 shards the encoder switches to a field
		// that requires 64-byte aligned shards.
		shardSize -= shardSize % 64
		if shardSize < minShardSize {
			return Prepared{}, fmt.Errorf(
				"shard size too small after aligning for %d shards: minimum is %d but calculated %d",
				nData+nParity, minShardSize, shardSize,
			)
		}
		nData, nParity = shardCounts(len(data), shardSize, cfg.ParityRatio)
	}

	if nData+nParity > MaxShards {
		return Prepared{}, fmt.Errorf(
			"data too large: resulted in %d data and %d parity shards, but limit is %d",
			nData, nParity, MaxShards,
		)
	}

	enc, err := reedsolomon.New(
		nData, nParity,
		reedsolomon.WithAutoGoroutines(shardSize),
	)
	if err != nil {
		return Prepared{}, fmt.Errorf(
			"failed to build Reed-Solomon encoder: %w", err,
		)
	}

	p := Prepared{
		NumData:   nData,
		NumParity: nParity,
		DataLen:   len(data),
	}

	span.AddEvent("split data", dtrace.WithAttributes(dtrace.ShardCountsAttrs(nData, nParity)...))
	shards, err := enc.Split(data)
	if err != nil {
		return p, fmt.Errorf("failed to split data into shards: %w", err)
	}

	if err := enc.Encode(shards); err != nil {
		return p, fmt.Errorf("failed to erasure-code data: %w", err)
	}
	p.Shards = shards
	span.AddEvent("erasure-coded data")

	// Now that the data is erasure-coded,
	// we can build the tree over every shard.
	tree, err := hashtree.Build(
		hashtree.LeafDigests(cfg.LeafHasher, shards...),
		hashtree.BuildConfig{
			Hasher:   nodeHasher,
			OddNodes: cfg.OddNodes,
		},
	)
	if err != nil {
		return p, fmt.Errorf("failed to build shard tree: %w", err)
	}

	p.Root, err = tree.RootHash()
	if err != nil {
		return p, fmt.Errorf("failed to get shard tree root: %w", err)
	}
	span.AddEvent("built shard tree", dtrace.WithAttributes(dtrace.DigestAttr("root", p.Root)))

	// Shards may repeat, for instance with long runs of zeros,
	// so proofs are looked up by index rather than by value.
	p.Proofs = make([]hashtree.Proof, len(shards))
	for i := range shards {
		p.Proofs[i], err = tree.ProofAt(i)
		if err != nil {
			return p, fmt.Errorf("failed to generate proof for shard %d: %w", i, err)
		}
	}

	if cfg.Log != nil {
		cfg.Log.Debug(
			"Prepared shards",
			"data_len", len(data),
			"n_data", nData,
			"n_parity", nParity,
			"shard_size", len(shards[0]),
			"root", p.Root.String(),
		)
	}

	return p, nil
}

func shardCounts(dataLen, shardSize int, parityRatio float32) (nData, nParity int) {
	nData = dataLen / shardSize
	if dataLen%shardSize > 0 {
		nData++
	}
	nParity = int(parityRatio * float32(nData))
	return nData, nParity
}
