package message

import (
	"errors"
	"fmt"

	"github.com/danmuck/pepys/internal/protocol/block"
	"github.com/danmuck/pepys/internal/protocol/wire"
)

// CodeSize is the length of the code that starts every message.
const CodeSize = 2

// ErrBadCode reports a code outside the catalogue.
var ErrBadCode = errors.New("message: " + Ebadcode)

// FieldError names the field of a message that failed to decode.
type FieldError struct {
	Code  Code
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("message: %s field=%s: %v", e.Code, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Encode writes the code of m followed by its fields. On failure the block
// may hold a partial message; callers that continue must Truncate it.
func Encode(b *block.Block, m Message) error {
	if err := wire.PutU16(b, uint16(m.Code())); err != nil {
		return err
	}
	e := encoder{b: b}
	m.encode(&e)
	return e.err
}

// Decode reads the next message from b. An unknown code fails with
// ErrBadCode after consuming the code.
func Decode(b *block.Block) (Message, error) {
	v, err := wire.U16(b)
	if err != nil {
		return nil, err
	}
	c := Code(v)
	m, ok := New(c)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrBadCode, v)
	}
	d := decoder{b: b, code: c}
	m.decode(&d)
	if err := d.result(); err != nil {
		return nil, err
	}
	return m, nil
}

// StageRread returns the n bytes where the data of an Rread encoded next
// into b would land. A handler fills them and answers with
// &Rread{Dat: p[:k]} so that Encode writes the length without copying.
func StageRread(b *block.Block, n int) ([]byte, error) {
	return wire.StageData(b, CodeSize, n)
}
