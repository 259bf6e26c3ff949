package message

import (
	"github.com/danmuck/pepys/internal/protocol/block"
	"github.com/danmuck/pepys/internal/protocol/wire"
)

// encoder writes body fields until the first failure and keeps that error.
type encoder struct {
	b   *block.Block
	err error
}

func (e *encoder) u32(v uint32) {
	if e.err == nil {
		e.err = wire.PutU32(e.b, v)
	}
}

func (e *encoder) u64(v uint64) {
	if e.err == nil {
		e.err = wire.PutU64(e.b, v)
	}
}

func (e *encoder) str(s string) {
	if e.err == nil {
		e.err = wire.PutString(e.b, s)
	}
}

func (e *encoder) data(d []byte) {
	if e.err == nil {
		e.err = wire.PutData(e.b, d)
	}
}

// decoder reads body fields until the first failure, remembering which
// field failed for FieldError.
type decoder struct {
	b     *block.Block
	code  Code
	field string
	err   error
}

func (d *decoder) fail(field string, err error) {
	d.field = field
	d.err = err
}

func (d *decoder) u32(field string) uint32 {
	if d.err != nil {
		return 0
	}
	v, err := wire.U32(d.b)
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *decoder) u64(field string) uint64 {
	if d.err != nil {
		return 0
	}
	v, err := wire.U64(d.b)
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *decoder) str(field string) string {
	if d.err != nil {
		return ""
	}
	s, err := wire.String(d.b)
	if err != nil {
		d.fail(field, err)
	}
	return s
}

func (d *decoder) data(field string) []byte {
	if d.err != nil {
		return nil
	}
	p, err := wire.Data(d.b)
	if err != nil {
		d.fail(field, err)
	}
	return p
}

func (d *decoder) result() error {
	if d.err == nil {
		return nil
	}
	return &FieldError{Code: d.code, Field: d.field, Err: d.err}
}
