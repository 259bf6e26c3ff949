package wire

import (
	"errors"

	"github.com/danmuck/pepys/internal/protocol/block"
)

var (
	// ErrOutOfSpace is block.ErrOutOfSpace, re-exported for codec callers.
	ErrOutOfSpace = block.ErrOutOfSpace
	// ErrBadEncoding reports a string length that is not a valid rune.
	ErrBadEncoding = errors.New("wire: bad rune encountered")
	// ErrDataTooLarge reports a data block longer than a u32 can describe.
	ErrDataTooLarge = errors.New("wire: data too large")
)
