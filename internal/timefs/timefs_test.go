package timefs

import (
	"context"
	"errors"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/pepys/internal/client"
	"github.com/danmuck/pepys/internal/dispatch"
	"github.com/danmuck/pepys/internal/protocol/block"
	"github.com/danmuck/pepys/internal/protocol/message"
	"github.com/danmuck/pepys/internal/server"
	"github.com/danmuck/pepys/internal/testutil/testlog"
)

var fixedNow = time.Date(2024, time.March, 9, 12, 30, 0, 0, time.UTC)

func newFS() *FS {
	fs := New()
	fs.Now = func() time.Time { return fixedNow }
	fs.Logger = zerolog.Nop()
	return fs
}

func process(t *testing.T, fs *FS, conn *dispatch.Conn, msgs ...message.Message) []message.Message {
	t.Helper()
	table, err := fs.Table()
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	in := block.New(4096)
	for _, m := range msgs {
		if err := message.Encode(in, m); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	out := block.New(4096)
	if _, err := dispatch.ProcessGroup(context.Background(), table, conn, block.Wrap(in.Bytes()), out); err != nil {
		t.Fatalf("process: %v", err)
	}
	res := block.Wrap(out.Bytes())
	var got []message.Message
	for !res.Exhausted() {
		m, err := message.Decode(res)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		got = append(got, m)
	}
	return got
}

func TestFidMap(t *testing.T) {
	fm := NewFidMap()
	if !fm.Add(1, "/") || fm.Add(1, "/time") {
		t.Fatalf("duplicate fid accepted")
	}
	if p, ok := fm.Get(1); !ok || p != "/" {
		t.Fatalf("get: %q %v", p, ok)
	}
	if !fm.Del(1) || fm.Del(1) || fm.Exists(1) || fm.Len() != 0 {
		t.Fatalf("delete semantics broken")
	}
}

func TestOpenReadClunk(t *testing.T) {
	fs := newFS()
	conn := &dispatch.Conn{ID: 3}
	fs.InitConn(conn)

	got := process(t, fs, conn,
		&message.Tattach{Fid: 1, Afid: message.Nofid, Uname: "glenda", Aname: "/"},
		&message.Topen{Fid: 2, Path: TimePath, Mode: message.Oread},
		&message.Tread{Fid: 2, Count: Iounit},
		&message.Tread{Fid: 2, Offset: 5, Count: 3},
		&message.Tclunk{Fid: 2},
	)
	text := fixedNow.Format(time.RFC1123) + "\n"
	want := []message.Message{
		&message.Rattach{Fref: 1},
		&message.Ropen{Iounit: Iounit},
		&message.Rread{Dat: []byte(text)},
		&message.Rread{Dat: []byte(text[5:8])},
		&message.Rclunk{},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected answers:\n got=%+v\nwant=%+v", got, want)
	}
	if fids(conn).Exists(2) || !fids(conn).Exists(1) {
		t.Fatalf("fid table not updated")
	}
}

func TestReadPastEnd(t *testing.T) {
	fs := newFS()
	conn := &dispatch.Conn{}
	got := process(t, fs, conn,
		&message.Topen{Fid: 2, Path: TimePath},
		&message.Tread{Fid: 2, Offset: 1 << 20, Count: 16},
	)
	if r, ok := got[1].(*message.Rread); !ok || len(r.Dat) != 0 {
		t.Fatalf("expected empty read, got %+v", got[1])
	}
}

func TestErrorsEndTheGroup(t *testing.T) {
	cases := []struct {
		name string
		msgs []message.Message
		want string
	}{
		{"missing file", []message.Message{&message.Topen{Fid: 2, Path: "/date"}}, message.Enotexist},
		{"zero fid", []message.Message{&message.Topen{Fid: 0, Path: TimePath}}, message.Ebadfid},
		{"write mode", []message.Message{&message.Topen{Fid: 2, Path: TimePath, Mode: message.Ordwr}}, message.Eperm},
		{"unknown fid", []message.Message{&message.Tread{Fid: 9}}, message.Ebadfid},
		{"read root", []message.Message{&message.Tattach{Fid: 1, Aname: "/"}, &message.Tread{Fid: 1}}, message.Eisdir},
		{"clunk unknown", []message.Message{&message.Tclunk{Fid: 4}}, message.Ebadfid},
		{"fid reuse", []message.Message{&message.Topen{Fid: 2, Path: TimePath}, &message.Topen{Fid: 2, Path: TimePath}}, ErrFidInUse.Error()},
		{"write unbound", []message.Message{&message.Twrite{Fid: 2}}, message.Enotimpl},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msgs := append(tc.msgs, &message.Tclunk{Fid: 1})
			got := process(t, newFS(), &dispatch.Conn{}, msgs...)
			last, ok := got[len(got)-1].(*message.Rerror)
			if !ok || last.Ename != tc.want {
				t.Fatalf("expected Rerror %q, got %+v", tc.want, got)
			}
			if len(got) != len(tc.msgs) {
				t.Fatalf("group continued past the error: %d answers", len(got))
			}
		})
	}
}

func TestProtoClampsParameters(t *testing.T) {
	got := process(t, newFS(), &dispatch.Conn{}, &message.Tproto{Msize: 512, Nmsgs: 64})
	want := []message.Message{&message.Rproto{Msize: 512, Nmsgs: message.Nmsgs}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected answer: %+v", got)
	}
}

func TestFetchOverServer(t *testing.T) {
	testlog.Start(t)
	fs := newFS()
	table, err := fs.Table()
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	srv, err := server.New(server.DefaultConfig(), table,
		server.WithConnInit(fs.InitConn),
		server.WithLogger(testlog.Logger(t)),
	)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()
	defer func() {
		cancel()
		<-done
	}()

	c, err := client.Dial(ctx, ln.Addr().String(), client.DefaultConfig())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	got, err := Fetch(ctx, c, "glenda")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if want := fixedNow.Format(time.RFC1123) + "\n"; got != want {
		t.Fatalf("fetch got %q want %q", got, want)
	}

	// fids were clunked, so the conversation can run again on the same connection.
	if _, err := Fetch(ctx, c, "glenda"); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
}

func TestFetchSurfacesRemoteErrors(t *testing.T) {
	fs := newFS()
	table, err := fs.Table()
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	srv, err := server.New(server.DefaultConfig(), table, server.WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	a, b := net.Pipe()
	go func() { _ = srv.ServeConn(context.Background(), b) }()
	c := client.NewClient(a, client.DefaultConfig())
	defer c.Close()

	if _, err := c.Exchange(context.Background(), &message.Topen{Fid: 2, Path: TimePath}); err != nil {
		t.Fatalf("pre-open: %v", err)
	}
	_, err = Fetch(context.Background(), c, "glenda")
	var remote *client.RemoteError
	if !errors.As(err, &remote) || remote.Ename != ErrFidInUse.Error() {
		t.Fatalf("expected fid in use, got %v", err)
	}
}
