package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/danmuck/pepys/internal/protocol/block"
)

// DataHeaderSize is the length prefix in front of every data block.
const DataHeaderSize = 4

// PutData writes a 4-byte length followed by d. When d already sits where
// its bytes would be written (see StageData) the copy is skipped.
func PutData(b *block.Block, d []byte) error {
	if uint64(len(d)) > math.MaxUint32 {
		return ErrDataTooLarge
	}
	p, err := b.Extend(DataHeaderSize + len(d))
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(p, uint32(len(d)))
	dst := p[DataHeaderSize:]
	if len(d) > 0 && &dst[0] != &d[0] {
		copy(dst, d)
	}
	return nil
}

// Data reads a 4-byte length and returns a view of that many bytes. The view
// aliases the block storage: it is valid while the block's group is handled
// and must be copied to outlive it.
func Data(b *block.Block) ([]byte, error) {
	head := b.Peek(DataHeaderSize)
	if len(head) < DataHeaderSize {
		return nil, fmt.Errorf("%w: truncated data length", ErrOutOfSpace)
	}
	n := binary.BigEndian.Uint32(head)
	if uint64(n) > uint64(b.Len()-DataHeaderSize) {
		return nil, fmt.Errorf("%w: data %d, unread %d", ErrOutOfSpace, n, b.Len()-DataHeaderSize)
	}
	p, err := b.Next(DataHeaderSize + int(n))
	if err != nil {
		return nil, err
	}
	return p[DataHeaderSize:], nil
}

// StageData returns the n bytes where the payload of a PutData issued after
// skip more bytes of encoding would land. Filling them and passing the slice
// (or a prefix of it) to PutData avoids the copy.
func StageData(b *block.Block, skip, n int) ([]byte, error) {
	return b.Unwritten(skip+DataHeaderSize, n)
}
