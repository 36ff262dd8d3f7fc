package hashtree

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gordian-engine/hashtree/internal/htcodec"
	"github.com/tchajed/marshal"
)

// Tree file layout, every integer written with marshal.WriteInt:
//
//	magic, version, odd policy, leaf count, digest size,
//	root digest (digest size bytes),
//	snappy block of all leaves concatenated.
//
// Interior levels are not stored; [ReadTree] rebuilds them
// and checks the result against the stored root.
const (
	treeFileMagic   uint64 = 0x0031_3045_4552_5448 // "HTREE01\x00" when written little-endian.
	treeFileVersion uint64 = 1

	treeFileHeaderSize = 5 * 8

	// Upper bound on leaves accepted by ReadTree,
	// to keep a corrupt header from driving a huge allocation.
	MaxTreeFileLeaves = 1 << 24

	maxTreeFileLeafBytes = 1 << 30
)

// ErrNotTreeFile is returned from [ReadTree] when the input does not start
// with the tree file magic number.
var ErrNotTreeFile = errors.New("not a hash tree file")

// WriteTo writes the tree's leaves, odd policy and root to w.
// The hasher is not recorded; the reader must supply the same one.
func (t *Tree) WriteTo(w io.Writer) (int64, error) {
	root, err := t.RootHash()
	if err != nil {
		return 0, err
	}

	leaves := t.levels[0]
	hashSize := len(root)

	raw := make([]byte, 0, len(leaves)*hashSize)
	for _, l := range leaves {
		raw = append(raw, l...)
	}

	b := make([]byte, 0, treeFileHeaderSize+hashSize+8+len(raw))
	b = marshal.WriteInt(b, treeFileMagic)
	b = marshal.WriteInt(b, treeFileVersion)
	b = marshal.WriteInt(b, uint64(t.odd))
	b = marshal.WriteInt(b, uint64(len(leaves)))
	b = marshal.WriteInt(b, uint64(hashSize))
	b = marshal.WriteBytes(b, root)
	b = htcodec.AppendSnappyBlock(b, raw)

	n, err := w.Write(b)
	if err != nil {
		return int64(n), fmt.Errorf("failed to write tree file: %w", err)
	}
	return int64(n), nil
}

// ReadTree reads a tree written by [*Tree.WriteTo] and rebuilds it.
//
// The odd policy stored in the file overrides cfg.OddNodes.
// If the rebuilt root differs from the stored root,
// for instance because cfg.Hasher is not the hasher that built the tree,
// ReadTree returns a [RootMismatchError].
func ReadTree(r io.Reader, cfg BuildConfig) (*Tree, error) {
	hdr := make([]byte, treeFileHeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("failed to read tree file header: %w", err)
	}

	magic, hdr := marshal.ReadInt(hdr)
	if magic != treeFileMagic {
		return nil, ErrNotTreeFile
	}

	version, hdr := marshal.ReadInt(hdr)
	if version != treeFileVersion {
		return nil, fmt.Errorf("unsupported tree file version %d", version)
	}

	odd, hdr := marshal.ReadInt(hdr)
	if odd > uint64(PromoteOdd) {
		return nil, fmt.Errorf("invalid odd node policy %d in tree file", odd)
	}

	nLeaves, hdr := marshal.ReadInt(hdr)
	if nLeaves == 0 {
		return nil, ErrEmptyInput
	}
	if nLeaves > MaxTreeFileLeaves {
		return nil, fmt.Errorf(
			"tree file declares %d leaves; maximum is %d", nLeaves, MaxTreeFileLeaves,
		)
	}

	hashSize, _ := marshal.ReadInt(hdr)
	if hashSize == 0 || hashSize > MaxDigestSize {
		return nil, fmt.Errorf("invalid digest size %d in tree file", hashSize)
	}

	if nLeaves*hashSize > maxTreeFileLeafBytes {
		return nil, fmt.Errorf(
			"tree file declares %d leaves of %d bytes; too large", nLeaves, hashSize,
		)
	}

	// The rest is bounded by the header values, so read it all at once.
	// The extra byte lets trailing garbage be detected.
	rawLen := int(nLeaves * hashSize)
	limit := int64(hashSize) + int64(htcodec.MaxSnappyBlockLen(rawLen)) + 1
	rest, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read tree file body: %w", err)
	}

	storedRoot, rest, err := htcodec.ReadBytes(rest, hashSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored root: %w", err)
	}

	raw, rest, err := htcodec.ReadSnappyBlock(rest, rawLen)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaves: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%d trailing bytes after tree file", len(rest))
	}

	leaves := make([]Digest, nLeaves)
	for i := range leaves {
		start := uint64(i) * hashSize
		leaves[i] = Digest(raw[start : start+hashSize])
	}

	cfg.OddNodes = OddPolicy(odd)
	t, err := Build(leaves, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild tree: %w", err)
	}

	root, _ := t.RootHash()
	if !bytes.Equal(root, storedRoot) {
		return nil, RootMismatchError{Stored: Digest(storedRoot), Rebuilt: root}
	}

	return t, nil
}
