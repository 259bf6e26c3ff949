package wire

import (
	"encoding/binary"

	"github.com/danmuck/pepys/internal/protocol/block"
)

func PutU8(b *block.Block, v uint8) error {
	p, err := b.Extend(1)
	if err != nil {
		return err
	}
	p[0] = v
	return nil
}

func PutU16(b *block.Block, v uint16) error {
	p, err := b.Extend(2)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(p, v)
	return nil
}

func PutU32(b *block.Block, v uint32) error {
	p, err := b.Extend(4)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(p, v)
	return nil
}

func PutU64(b *block.Block, v uint64) error {
	p, err := b.Extend(8)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint64(p, v)
	return nil
}

func U8(b *block.Block) (uint8, error) {
	p, err := b.Next(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func U16(b *block.Block) (uint16, error) {
	p, err := b.Next(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(p), nil
}

func U32(b *block.Block) (uint32, error) {
	p, err := b.Next(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(p), nil
}

func U64(b *block.Block) (uint64, error) {
	p, err := b.Next(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(p), nil
}
