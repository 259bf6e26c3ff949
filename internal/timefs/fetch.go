package timefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/danmuck/pepys/internal/client"
	"github.com/danmuck/pepys/internal/protocol/message"
)

var ErrUnexpectedResponse = errors.New("timefs: unexpected response")

const (
	rootFid uint32 = 1
	timeFid uint32 = 2
)

// Fetch runs the whole timefs conversation on c: negotiate, open a session,
// then attach, open, read and clunk in a single group. It returns the text
// served by /time.
func Fetch(ctx context.Context, c *client.Client, uname string) (string, error) {
	if _, err := expect[*message.Rproto](ctx, c, &message.Tproto{Msize: message.Msize, Nmsgs: message.Nmsgs}); err != nil {
		return "", err
	}
	if _, err := expect[*message.Rsession](ctx, c, &message.Tsession{Csid: 1, Uname: uname, Afid: message.Nofid}); err != nil {
		return "", err
	}

	resp, err := c.Exchange(ctx,
		&message.Tattach{Fid: rootFid, Afid: message.Nofid, Uname: uname, Aname: RootPath},
		&message.Topen{Fid: timeFid, Path: TimePath, Mode: message.Oread},
		&message.Tread{Fid: timeFid, Offset: 0, Count: Iounit},
		&message.Tclunk{Fid: timeFid},
		&message.Tclunk{Fid: rootFid},
	)
	if err != nil {
		return "", err
	}
	for _, m := range resp {
		if err := client.AsError(m); err != nil {
			return "", err
		}
	}
	if len(resp) != 5 {
		return "", fmt.Errorf("%w: %d answers to 5 requests", ErrUnexpectedResponse, len(resp))
	}
	rread, ok := resp[2].(*message.Rread)
	if !ok {
		return "", fmt.Errorf("%w: %s in place of Rread", ErrUnexpectedResponse, resp[2].Code())
	}
	return string(rread.Dat), nil
}

func expect[T message.Message](ctx context.Context, c *client.Client, m message.Message) (T, error) {
	var zero T
	resp, err := c.Exchange(ctx, m)
	if err != nil {
		return zero, err
	}
	if len(resp) != 1 {
		return zero, fmt.Errorf("%w: %d answers to %s", ErrUnexpectedResponse, len(resp), m.Code())
	}
	if err := client.AsError(resp[0]); err != nil {
		return zero, err
	}
	r, ok := resp[0].(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s answering %s", ErrUnexpectedResponse, resp[0].Code(), m.Code())
	}
	return r, nil
}
