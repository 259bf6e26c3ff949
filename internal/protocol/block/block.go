package block

import (
	"errors"
	"fmt"
)

// ErrOutOfSpace reports an encode into a full block or a decode past the
// written data. Both mean the current message is malformed or truncated.
var ErrOutOfSpace = errors.New("block: out of space")

// Block is one owned byte region with independent read and write cursors.
//
// Layout:
//
//	0 <= read <= write <= limit == len(buf)
//
// Bytes in [read, write) are unread data, bytes in [write, limit) are free.
// A Block serves exactly one message group and is never reused.
type Block struct {
	buf   []byte
	read  int
	write int
}

// New returns an empty block with size bytes of storage, ready for encoding.
func New(size int) *Block {
	if size < 0 {
		size = 0
	}
	return &Block{buf: make([]byte, size)}
}

// Wrap returns a block whose storage is p and whose written data is all of p,
// ready for decoding. The block takes ownership of p.
func Wrap(p []byte) *Block {
	return &Block{buf: p, write: len(p)}
}

// ReserveWrite fails unless n more bytes fit behind the write cursor.
func (b *Block) ReserveWrite(n int) error {
	if n < 0 || b.Free() < n {
		return fmt.Errorf("%w: write %d, free %d", ErrOutOfSpace, n, b.Free())
	}
	return nil
}

// ReserveRead fails unless n unread bytes sit between the cursors.
func (b *Block) ReserveRead(n int) error {
	if n < 0 || b.Len() < n {
		return fmt.Errorf("%w: read %d, unread %d", ErrOutOfSpace, n, b.Len())
	}
	return nil
}

// Extend advances the write cursor by n and returns the n bytes to fill.
// On failure the cursor does not move.
func (b *Block) Extend(n int) ([]byte, error) {
	if err := b.ReserveWrite(n); err != nil {
		return nil, err
	}
	p := b.buf[b.write : b.write+n : b.write+n]
	b.write += n
	return p, nil
}

// Next advances the read cursor by n and returns the consumed bytes. The slice
// aliases the block storage. On failure the cursor does not move.
func (b *Block) Next(n int) ([]byte, error) {
	if err := b.ReserveRead(n); err != nil {
		return nil, err
	}
	p := b.buf[b.read : b.read+n : b.read+n]
	b.read += n
	return p, nil
}

// Peek returns up to n unread bytes without advancing.
func (b *Block) Peek(n int) []byte {
	if n > b.Len() {
		n = b.Len()
	}
	if n < 0 {
		n = 0
	}
	return b.buf[b.read : b.read+n : b.read+n]
}

// Unwritten returns the n free bytes starting at offset off past the write
// cursor without advancing. Callers use it to produce data in place before a
// later Extend covers the same bytes.
func (b *Block) Unwritten(off, n int) ([]byte, error) {
	if off < 0 {
		return nil, fmt.Errorf("%w: negative offset %d", ErrOutOfSpace, off)
	}
	if err := b.ReserveWrite(off + n); err != nil {
		return nil, err
	}
	start := b.write + off
	return b.buf[start : start+n : start+n], nil
}

// Truncate moves the write cursor back to mark, a value previously returned
// by Written. It drops a partially encoded message; read never passes write.
func (b *Block) Truncate(mark int) {
	if mark < 0 || mark > b.write {
		panic(fmt.Sprintf("block: truncate %d out of range [0, %d]", mark, b.write))
	}
	b.write = mark
	if b.read > b.write {
		b.read = b.write
	}
}

// Len returns the number of unread bytes.
func (b *Block) Len() int { return b.write - b.read }

// Free returns the number of bytes that can still be written.
func (b *Block) Free() int { return len(b.buf) - b.write }

// Cap returns the size of the owned storage.
func (b *Block) Cap() int { return len(b.buf) }

// Written returns the number of bytes written since the start of storage.
func (b *Block) Written() int { return b.write }

// Consumed returns the number of bytes read since the start of storage.
func (b *Block) Consumed() int { return b.read }

// Exhausted reports whether every written byte has been read.
func (b *Block) Exhausted() bool { return b.read == b.write }

// Bytes returns the written region [0, write). It aliases the storage.
func (b *Block) Bytes() []byte { return b.buf[:b.write:b.write] }
