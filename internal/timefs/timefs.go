package timefs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/pepys/internal/dispatch"
	"github.com/danmuck/pepys/internal/protocol/message"
)

const (
	// Iounit is the largest read answered in one Rread.
	Iounit uint32 = 1024
	// TimePath is the only openable file.
	TimePath = "/time"
	RootPath = "/"
)

var (
	ErrNotExist = errors.New(message.Enotexist)
	ErrBadFid   = errors.New(message.Ebadfid)
	ErrFidInUse = errors.New("fid already in use")
	ErrIsDir    = errors.New(message.Eisdir)
)

// FS answers the timefs subset of the catalogue. Flush, create, write and
// remove stay unbound and are answered with Enotimpl.
type FS struct {
	// Now supplies the time served by /time.
	Now    func() time.Time
	Layout string
	Logger zerolog.Logger
}

func New() *FS {
	return &FS{
		Now:    time.Now,
		Layout: time.RFC1123,
		Logger: log.Logger,
	}
}

// Table binds the timefs handlers.
func (fs *FS) Table() (*dispatch.Table, error) {
	return dispatch.NewTable(map[message.Code]dispatch.Handler{
		message.CodeTproto:   dispatch.HandlerFunc(fs.proto),
		message.CodeTsession: dispatch.HandlerFunc(fs.session),
		message.CodeTattach:  dispatch.HandlerFunc(fs.attach),
		message.CodeTopen:    dispatch.HandlerFunc(fs.open),
		message.CodeTread:    dispatch.HandlerFunc(fs.read),
		message.CodeTclunk:   dispatch.HandlerFunc(fs.clunk),
	})
}

// InitConn gives a new connection its empty fid table.
func (fs *FS) InitConn(c *dispatch.Conn) {
	c.Aux = NewFidMap()
}

func fids(c *dispatch.Conn) *FidMap {
	fm, ok := c.Aux.(*FidMap)
	if !ok {
		fm = NewFidMap()
		c.Aux = fm
	}
	return fm
}

func (fs *FS) proto(_ context.Context, req *dispatch.Request) (message.Message, error) {
	arg := req.Message.(*message.Tproto)
	msize, nmsgs := uint32(message.Msize), uint32(message.Nmsgs)
	if arg.Msize != 0 && arg.Msize < msize {
		msize = arg.Msize
	}
	if arg.Nmsgs != 0 && arg.Nmsgs < nmsgs {
		nmsgs = arg.Nmsgs
	}
	fs.Logger.Debug().Str("remote", req.Conn.RemoteAddr).Uint32("msize", msize).Uint32("nmsgs", nmsgs).Msg("timefs proto")
	return &message.Rproto{Msize: msize, Nmsgs: nmsgs}, nil
}

func (fs *FS) session(_ context.Context, req *dispatch.Request) (message.Message, error) {
	arg := req.Message.(*message.Tsession)
	fs.Logger.Debug().Str("remote", req.Conn.RemoteAddr).Str("uname", arg.Uname).Msg("timefs session")
	return &message.Rsession{Ssid: uint32(req.Conn.ID)}, nil
}

func (fs *FS) attach(_ context.Context, req *dispatch.Request) (message.Message, error) {
	arg := req.Message.(*message.Tattach)
	if arg.Fid == 0 || arg.Fid == message.Nofid {
		return nil, ErrBadFid
	}
	if arg.Aname != "" && arg.Aname != RootPath {
		return nil, ErrNotExist
	}
	if !fids(req.Conn).Add(arg.Fid, RootPath) {
		return nil, ErrFidInUse
	}
	return &message.Rattach{Fref: arg.Fid}, nil
}

func (fs *FS) open(_ context.Context, req *dispatch.Request) (message.Message, error) {
	arg := req.Message.(*message.Topen)
	if arg.Path != TimePath {
		return nil, ErrNotExist
	}
	if arg.Fid == 0 || arg.Fid == message.Nofid {
		return nil, ErrBadFid
	}
	if arg.Mode&message.Owrite != 0 || arg.Mode&message.Otrunc != 0 {
		return nil, errors.New(message.Eperm)
	}
	if !fids(req.Conn).Add(arg.Fid, arg.Path) {
		return nil, ErrFidInUse
	}
	fs.Logger.Debug().Str("remote", req.Conn.RemoteAddr).Uint32("fid", arg.Fid).Str("path", arg.Path).Msg("timefs open")
	return &message.Ropen{Iounit: Iounit}, nil
}

func (fs *FS) read(_ context.Context, req *dispatch.Request) (message.Message, error) {
	arg := req.Message.(*message.Tread)
	path, ok := fids(req.Conn).Get(arg.Fid)
	if !ok {
		return nil, ErrBadFid
	}
	if path != TimePath {
		return nil, ErrIsDir
	}

	text := fs.Now().Format(fs.Layout) + "\n"
	if arg.Offset >= uint64(len(text)) {
		return &message.Rread{}, nil
	}
	text = text[arg.Offset:]

	n := min(int(arg.Count), int(Iounit), len(text))
	p, err := req.StageRead(n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", message.Enomem, err)
	}
	copy(p, text)
	return &message.Rread{Dat: p}, nil
}

func (fs *FS) clunk(_ context.Context, req *dispatch.Request) (message.Message, error) {
	arg := req.Message.(*message.Tclunk)
	if !fids(req.Conn).Del(arg.Fid) {
		return nil, ErrBadFid
	}
	return &message.Rclunk{}, nil
}
