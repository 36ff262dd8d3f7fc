package htshard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bits-and-blooms/bitset"
	"github.com/gordian-engine/hashtree"
	"github.com/gordian-engine/hashtree/hthash"
	"github.com/gordian-engine/hashtree/internal/dtrace"
	"github.com/klauspost/reedsolomon"
)

// ErrTooFewShards is returned from [Reconstruct]
// when fewer than NumData shards passed verification.
var ErrTooFewShards = errors.New("too few verified shards to reconstruct")

// ReconstructConfig is the config for [Reconstruct].
// Every field except Log must match the values used in [Prepare].
type ReconstructConfig struct {
	NumData, NumParity int
	DataLen            int

	Root hashtree.Digest

	LeafHasher hthash.Hasher
	NodeHasher hthash.Hasher
	OddNodes   hashtree.OddPolicy

	Log *slog.Logger

	// Optional; nil means no tracing.
	Tracer dtrace.Tracer
}

// Shard is a single received shard,
// with the index it claims and the proof of its inclusion.
type Shard struct {
	Index int
	Data  []byte
	Proof hashtree.Proof
}

// Reconstructed is the value returned by [Reconstruct].
type Reconstructed struct {
	Data []byte

	// Indices of the input shards that passed verification.
	Verified *bitset.BitSet

	// Number of input shards that were rejected,
	// either for a bad proof or a duplicate index.
	Rejected int
}

// Reconstruct verifies each of the given shards against cfg.Root
// and, if at least cfg.NumData of them are valid,
// recovers the original payload.
//
// Shards whose proof does not validate,
// or whose proof does not correspond to the claimed index,
// are logged and skipped.
func Reconstruct(ctx context.Context, shards []Shard, cfg ReconstructConfig) (Reconstructed, error) {
	if cfg.LeafHasher == nil {
		panic(errors.New("BUG: LeafHasher must not be nil"))
	}
	if cfg.NumData <= 0 || cfg.NumParity < 0 {
		panic(fmt.Errorf(
			"BUG: invalid shard counts (data=%d parity=%d)", cfg.NumData, cfg.NumParity,
		))
	}
	nodeHasher := cfg.NodeHasher
	if nodeHasher == nil {
		nodeHasher = cfg.LeafHasher
	}

	log := cfg.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	_, span := dtrace.TracerOrNop(cfg.Tracer).Start(
		ctx, "reconstruct shards",
		dtrace.WithAttributes(dtrace.ShardCountsAttrs(cfg.NumData, cfg.NumParity)...),
	)
	defer span.End()

	res, err := reconstruct(span, log, shards, cfg, nodeHasher)
	if err != nil {
		dtrace.SpanError(span, err)
	}
	return res, err
}

func reconstruct(
	span dtrace.Span,
	log *slog.Logger,
	shards []Shard,
	cfg ReconstructConfig,
	nodeHasher hthash.Hasher,
) (Reconstructed, error) {
	total := cfg.NumData + cfg.NumParity

	res := Reconstructed{
		Verified: bitset.MustNew(uint(total)),
	}
	have := make([][]byte, total)

	var leaf []byte
	for _, s := range shards {
		if s.Index < 0 || s.Index >= total {
			log.Warn("Rejected shard with out of range index", "index", s.Index, "total", total)
			res.Rejected++
			continue
		}
		if res.Verified.Test(uint(s.Index)) {
			log.Debug("Ignoring duplicate shard", "index", s.Index)
			res.Rejected++
			continue
		}

		if !sidesMatchIndex(s.Proof, s.Index, total, cfg.OddNodes) {
			log.Warn("Rejected shard whose proof is for a different index", "index", s.Index)
			res.Rejected++
			continue
		}

		leaf = cfg.LeafHasher.Hash(s.Data, leaf[:0])
		if !s.Proof.Validate(nodeHasher, cfg.Root, leaf) {
			log.Warn("Rejected shard with invalid proof", "index", s.Index)
			span.AddEvent("rejected shard", dtrace.WithAttributes(dtrace.ShardIndexAttr(s.Index)))
			res.Rejected++
			continue
		}

		// The encoder may reuse the shard memory,
		// so hold a copy rather than the caller's slice.
		have[s.Index] = bytes.Clone(s.Data)
		res.Verified.Set(uint(s.Index))
	}

	if n := res.Verified.Count(); n < uint(cfg.NumData) {
		return res, fmt.Errorf(
			"have %d of %d required shards: %w", n, cfg.NumData, ErrTooFewShards,
		)
	}

	span.AddEvent("verified shards")

	enc, err := reedsolomon.New(cfg.NumData, cfg.NumParity)
	if err != nil {
		return res, fmt.Errorf("failed to build Reed-Solomon encoder: %w", err)
	}

	if err := enc.Reconstruct(have); err != nil {
		// Every shard we hold passed its proof,
		// so this means the shards were inconsistent when prepared.
		span.AddEvent("erasure decoding failed", dtrace.WithAttributes(dtrace.ErrorAttr(err)))
		return res, fmt.Errorf("failed to reconstruct shards: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(cfg.DataLen)
	if err := enc.Join(&buf, have, cfg.DataLen); err != nil {
		return res, fmt.Errorf("failed to join data shards: %w", err)
	}
	res.Data = buf.Bytes()

	log.Debug(
		"Reconstructed data",
		"verified", res.Verified.Count(),
		"rejected", res.Rejected,
		"data_len", cfg.DataLen,
	)

	return res, nil
}

// sidesMatchIndex reports whether the sides of p
// are exactly the path from leaf idx in a tree of total leaves.
// A valid proof for one shard must not be accepted under another index.
func sidesMatchIndex(p hashtree.Proof, idx, total int, odd hashtree.OddPolicy) bool {
	step := 0
	for width := total; width > 1; width = (width + 1) / 2 {
		sibling := idx ^ 1

		var want hashtree.Side
		switch {
		case sibling < width:
			want = hashtree.SideRight
			if sibling < idx {
				want = hashtree.SideLeft
			}
		case odd == hashtree.DuplicateOdd:
			want = hashtree.SideRight
		default:
			// Promoted node, no step at this level.
			idx >>= 1
			continue
		}

		if step >= p.Len() || p.Step(step).Side != want {
			return false
		}
		step++
		idx >>= 1
	}

	return step == p.Len()
}
