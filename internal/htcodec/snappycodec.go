package htcodec

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/tchajed/marshal"
)

// AppendSnappyBlock appends src to b as a snappy block,
// prefixed with the encoded length.
func AppendSnappyBlock(b, src []byte) []byte {
	enc := snappy.Encode(nil, src)
	b = marshal.WriteInt(b, uint64(len(enc)))
	return marshal.WriteBytes(b, enc)
}

// ReadSnappyBlock reads a block written by [AppendSnappyBlock]
// from the front of b, and returns the decoded bytes and the remainder of b.
//
// The decoded size must be exactly wantLen;
// this bounds the allocation before any decompression happens.
func ReadSnappyBlock(b []byte, wantLen int) ([]byte, []byte, error) {
	encSz, b, err := ReadInt(b)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read snappy block length: %w", err)
	}

	if maxEnc := snappy.MaxEncodedLen(wantLen); maxEnc < 0 || encSz > uint64(maxEnc) {
		return nil, nil, fmt.Errorf(
			"snappy block length %d too large for %d decoded bytes", encSz, wantLen,
		)
	}

	if uint64(len(b)) < encSz {
		return nil, nil, fmt.Errorf(
			"need %d bytes for snappy block, have %d: %w", encSz, len(b), ErrTruncated,
		)
	}
	enc, b := marshal.ReadBytes(b, encSz)

	decSz, err := snappy.DecodedLen(enc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to calculate snappy-decoded length: %w", err)
	}
	if decSz != wantLen {
		return nil, nil, fmt.Errorf(
			"calculated decoded size of %d bytes but expected %d", decSz, wantLen,
		)
	}

	dec, err := snappy.Decode(make([]byte, decSz), enc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode snappy block: %w", err)
	}

	return dec, b, nil
}

// MaxSnappyBlockLen returns the largest size [AppendSnappyBlock]
// can produce for n bytes of input, including the length prefix.
func MaxSnappyBlockLen(n int) int {
	return 8 + snappy.MaxEncodedLen(n)
}
