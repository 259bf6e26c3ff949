package dispatch

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/danmuck/pepys/internal/protocol/block"
	"github.com/danmuck/pepys/internal/protocol/message"
)

var ErrNoResponse = errors.New("dispatch: handler returned no response")

// Stop says why a group finished.
type Stop int

const (
	// StopExhausted means every message of the group was answered.
	StopExhausted Stop = iota
	// StopNotImplemented means a code had no handler; Rerror was sent.
	StopNotImplemented
	// StopHandlerError means a handler failed; its error was sent as Rerror.
	StopHandlerError
	// StopMalformed means a message could not be decoded; it got no response.
	StopMalformed
	// StopOutOfSpace means a response did not fit the outbound block.
	StopOutOfSpace
	// StopCanceled means the context ended before the group did.
	StopCanceled
)

func (s Stop) String() string {
	switch s {
	case StopExhausted:
		return "exhausted"
	case StopNotImplemented:
		return "not_implemented"
	case StopHandlerError:
		return "handler_error"
	case StopMalformed:
		return "malformed"
	case StopOutOfSpace:
		return "out_of_space"
	case StopCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("stop(%d)", int(s))
	}
}

// Outcome records what happened to one message of a group.
type Outcome struct {
	Code message.Code
	Stop Stop
}

// GroupResult summarizes one call to ProcessGroup.
type GroupResult struct {
	Decoded  int
	Answered int
	Stop     Stop
	Err      error
	Outcomes []Outcome
}

func (r *GroupResult) record(c message.Code, s Stop) {
	r.Outcomes = append(r.Outcomes, Outcome{Code: c, Stop: s})
}

func (r *GroupResult) end(s Stop, err error) {
	r.Stop = s
	r.Err = err
}

// ProcessGroup decodes the messages of in one at a time, routes each to its
// handler and encodes the responses into out.
//
// The first message without a handler is answered with Rerror(Enotimpl) and
// the first handler error with Rerror(err); either ends the group and the
// remaining messages are never decoded. A message that fails to decode ends
// the group without a response. A response that does not fit is dropped and
// replaced by Rerror(Enomem) when that fits.
//
// The returned error is non-nil only when ctx ends; out then holds the
// responses encoded so far.
func ProcessGroup(ctx context.Context, t *Table, conn *Conn, in, out *block.Block) (GroupResult, error) {
	var res GroupResult
	for !in.Exhausted() {
		if err := ctx.Err(); err != nil {
			res.end(StopCanceled, err)
			return res, err
		}

		code := peekCode(in)
		m, err := message.Decode(in)
		if err != nil {
			res.record(code, StopMalformed)
			res.end(StopMalformed, err)
			return res, nil
		}
		res.Decoded++

		mark := out.Written()
		h, ok := t.Lookup(code)
		if !ok {
			res.record(code, StopNotImplemented)
			res.end(StopNotImplemented, fmt.Errorf("%w: %s", ErrHandlerUnset, code))
			res.answerError(out, mark, message.Enotimpl)
			return res, nil
		}

		resp, err := h.Handle(ctx, NewRequest(conn, m, out))
		if err == nil && resp == nil {
			err = fmt.Errorf("%w: %s", ErrNoResponse, code)
		}
		if err != nil {
			res.record(code, StopHandlerError)
			res.end(StopHandlerError, err)
			res.answerError(out, mark, err.Error())
			return res, nil
		}

		if err := message.Encode(out, resp); err != nil {
			res.record(code, StopOutOfSpace)
			res.end(StopOutOfSpace, err)
			res.answerError(out, mark, message.Enomem)
			return res, nil
		}
		res.Answered++
		res.record(code, StopExhausted)
	}
	res.end(StopExhausted, nil)
	return res, nil
}

// answerError drops anything encoded past mark and tries to encode Rerror in
// its place. If even that does not fit, out is left at mark.
func (r *GroupResult) answerError(out *block.Block, mark int, ename string) {
	out.Truncate(mark)
	if err := message.Encode(out, &message.Rerror{Ename: ename}); err != nil {
		out.Truncate(mark)
		return
	}
	r.Answered++
}

func peekCode(in *block.Block) message.Code {
	p := in.Peek(message.CodeSize)
	if len(p) < message.CodeSize {
		return message.Code(0xFFFF)
	}
	return message.Code(binary.BigEndian.Uint16(p))
}
