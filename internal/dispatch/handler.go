package dispatch

import (
	"context"

	"github.com/danmuck/pepys/internal/protocol/block"
	"github.com/danmuck/pepys/internal/protocol/message"
)

// Handler answers one request with exactly one result message. A returned
// error is sent to the peer as Rerror and ends processing of the group.
type Handler interface {
	Handle(ctx context.Context, req *Request) (message.Message, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *Request) (message.Message, error)

func (f HandlerFunc) Handle(ctx context.Context, req *Request) (message.Message, error) {
	return f(ctx, req)
}

// Conn is the state one connection carries across its groups. It is owned by
// the goroutine serving the connection.
type Conn struct {
	ID         uint64
	RemoteAddr string

	// Aux holds handler state scoped to the connection, such as a fid table.
	Aux any
}

// Request is one decoded message on its way to a handler.
type Request struct {
	Conn    *Conn
	Message message.Message

	out *block.Block
}

// NewRequest binds m to the outbound block its response will be encoded into.
func NewRequest(conn *Conn, m message.Message, out *block.Block) *Request {
	return &Request{Conn: conn, Message: m, out: out}
}

// StageRead returns up to n bytes of outbound storage where the data of an
// Rread response will be encoded. Handlers that fill it in place and return
// &message.Rread{Dat: p[:k]} skip the copy.
func (r *Request) StageRead(n int) ([]byte, error) {
	if r.out == nil {
		return make([]byte, n), nil
	}
	return message.StageRread(r.out, n)
}
