package dispatch

import (
	"errors"
	"fmt"

	"github.com/danmuck/pepys/internal/protocol/message"
)

var (
	ErrHandlerNil   = errors.New("dispatch: handler is nil")
	ErrResultCode   = errors.New("dispatch: result code cannot be handled")
	ErrUnknownCode  = errors.New("dispatch: unknown code")
	ErrHandlerUnset = errors.New("dispatch: " + message.Enotimpl)
)

// Table maps request codes to handlers. It is built once and never mutated,
// so connections may share it without locking.
type Table struct {
	slots [message.MaxCode + 1]Handler
}

// NewTable validates bind and returns the table. Only known request codes
// may be bound.
func NewTable(bind map[message.Code]Handler) (*Table, error) {
	t := &Table{}
	for code, h := range bind {
		if h == nil {
			return nil, fmt.Errorf("%w: %s", ErrHandlerNil, code)
		}
		if !code.Known() {
			return nil, fmt.Errorf("%w: %d", ErrUnknownCode, code)
		}
		if !code.IsRequest() {
			return nil, fmt.Errorf("%w: %s", ErrResultCode, code)
		}
		t.slots[code] = h
	}
	return t, nil
}

// Lookup returns the handler for c.
func (t *Table) Lookup(c message.Code) (Handler, bool) {
	if t == nil || int(c) >= len(t.slots) {
		return nil, false
	}
	h := t.slots[c]
	return h, h != nil
}

// Codes lists the bound codes in ascending order.
func (t *Table) Codes() []message.Code {
	codes := make([]message.Code, 0, len(t.slots))
	for i, h := range t.slots {
		if h != nil {
			codes = append(codes, message.Code(i))
		}
	}
	return codes
}
