package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/pepys/internal/protocol/block"
)

// HeaderLen is the size of the big-endian byte count preceding every group.
const HeaderLen = 4

var (
	ErrShortHeader   = errors.New("frame: short group header")
	ErrShortGroup    = errors.New("frame: short group body")
	ErrGroupTooLarge = errors.New("frame: group too large")
	ErrShortWrite    = errors.New("frame: short write")
)

// Limits constrains group decode/encode memory use.
type Limits struct {
	// MaxGroupBytes bounds the byte count accepted from a peer.
	MaxGroupBytes uint32
	// OutboundBytes sizes the block a server encodes responses into.
	OutboundBytes int
}

// DefaultLimits allows a full group of default-sized messages each way.
func DefaultLimits() Limits {
	return Limits{
		MaxGroupBytes: groupBytes,
		OutboundBytes: groupBytes,
	}
}

// 16 messages of 8192+24 bytes, matching the protocol defaults.
const groupBytes = 16 * (8192 + 24)

// WithDefaults fills zero fields with DefaultLimits values.
func (l Limits) WithDefaults() Limits {
	def := DefaultLimits()
	if l.MaxGroupBytes == 0 {
		l.MaxGroupBytes = def.MaxGroupBytes
	}
	if l.OutboundBytes <= 0 {
		l.OutboundBytes = def.OutboundBytes
	}
	return l
}

// ReadGroup reads one size-prefixed group and returns it as a block ready
// for decoding. A peer that closes cleanly before any header byte yields
// io.EOF.
func ReadGroup(r io.Reader, limits Limits) (*block.Block, error) {
	var hdr [HeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortHeader
		}
		return nil, err
	}

	n := binary.BigEndian.Uint32(hdr[:])
	if n > limits.MaxGroupBytes {
		return nil, fmt.Errorf("%w: %d > %d", ErrGroupTooLarge, n, limits.MaxGroupBytes)
	}

	body := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: want %d bytes", ErrShortGroup, n)
			}
			return nil, err
		}
	}
	return block.Wrap(body), nil
}

// WriteGroup writes the written region of b as one size-prefixed group.
func WriteGroup(w io.Writer, b *block.Block, limits Limits) error {
	body := b.Bytes()
	if uint64(len(body)) > uint64(limits.MaxGroupBytes) {
		return fmt.Errorf("%w: %d > %d", ErrGroupTooLarge, len(body), limits.MaxGroupBytes)
	}

	buf := make([]byte, HeaderLen+len(body))
	binary.BigEndian.PutUint32(buf[:HeaderLen], uint32(len(body)))
	copy(buf[HeaderLen:], body)

	n, err := w.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("%w: %d of %d bytes", ErrShortWrite, n, len(buf))
	}
	return nil
}
