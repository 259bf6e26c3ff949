package dispatch

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/pepys/internal/protocol/block"
	"github.com/danmuck/pepys/internal/protocol/message"
)

func encodeGroup(t *testing.T, msgs ...message.Message) *block.Block {
	t.Helper()
	b := block.New(1024)
	for _, m := range msgs {
		if err := message.Encode(b, m); err != nil {
			t.Fatalf("encode %s: %v", m.Code(), err)
		}
	}
	return block.Wrap(b.Bytes())
}

func decodeAll(t *testing.T, out *block.Block) []message.Message {
	t.Helper()
	in := block.Wrap(out.Bytes())
	var msgs []message.Message
	for !in.Exhausted() {
		m, err := message.Decode(in)
		if err != nil {
			t.Fatalf("decode response %d: %v", len(msgs), err)
		}
		msgs = append(msgs, m)
	}
	return msgs
}

func clunkTable(t *testing.T, calls *[]message.Code) *Table {
	t.Helper()
	record := func(resp message.Message) Handler {
		return HandlerFunc(func(_ context.Context, req *Request) (message.Message, error) {
			*calls = append(*calls, req.Message.Code())
			return resp, nil
		})
	}
	table, err := NewTable(map[message.Code]Handler{
		message.CodeTclunk:  record(&message.Rclunk{}),
		message.CodeTremove: record(&message.Rremove{}),
	})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	return table
}

func TestNewTableRejectsResultCodes(t *testing.T) {
	h := HandlerFunc(func(context.Context, *Request) (message.Message, error) { return &message.Rflush{}, nil })
	if _, err := NewTable(map[message.Code]Handler{message.CodeRflush: h}); !errors.Is(err, ErrResultCode) {
		t.Fatalf("expected ErrResultCode, got %v", err)
	}
	if _, err := NewTable(map[message.Code]Handler{message.Code(6): h}); !errors.Is(err, ErrUnknownCode) {
		t.Fatalf("expected ErrUnknownCode, got %v", err)
	}
	if _, err := NewTable(map[message.Code]Handler{message.CodeTflush: nil}); !errors.Is(err, ErrHandlerNil) {
		t.Fatalf("expected ErrHandlerNil, got %v", err)
	}
}

func TestTableCodes(t *testing.T) {
	var calls []message.Code
	table := clunkTable(t, &calls)
	want := []message.Code{message.CodeTremove, message.CodeTclunk}
	if got := table.Codes(); !reflect.DeepEqual(got, want) {
		t.Fatalf("codes mismatch: got=%v want=%v", got, want)
	}
	if _, ok := table.Lookup(message.CodeTread); ok {
		t.Fatalf("unbound code resolved")
	}
}

func TestProcessGroupAnswersEveryMessage(t *testing.T) {
	var calls []message.Code
	table := clunkTable(t, &calls)
	in := encodeGroup(t, &message.Tclunk{Fid: 1}, &message.Tremove{Fid: 2}, &message.Tclunk{Fid: 3})
	out := block.New(256)

	res, err := ProcessGroup(context.Background(), table, &Conn{}, in, out)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Stop != StopExhausted || res.Decoded != 3 || res.Answered != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	got := decodeAll(t, out)
	want := []message.Message{&message.Rclunk{}, &message.Rremove{}, &message.Rclunk{}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("responses mismatch: got=%+v", got)
	}
}

func TestProcessGroupStopsAtMissingHandler(t *testing.T) {
	var calls []message.Code
	table := clunkTable(t, &calls)
	in := encodeGroup(t, &message.Tclunk{Fid: 1}, &message.Tflush{Oldtag: 1}, &message.Tclunk{Fid: 2})
	out := block.New(256)

	res, err := ProcessGroup(context.Background(), table, &Conn{}, in, out)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Stop != StopNotImplemented {
		t.Fatalf("expected not implemented stop, got %s", res.Stop)
	}
	if res.Decoded != 2 {
		t.Fatalf("third message must not be decoded, decoded=%d", res.Decoded)
	}
	if !reflect.DeepEqual(calls, []message.Code{message.CodeTclunk}) {
		t.Fatalf("unexpected handler calls: %v", calls)
	}
	if in.Exhausted() {
		t.Fatalf("remaining message was consumed")
	}
	got := decodeAll(t, out)
	want := []message.Message{&message.Rclunk{}, &message.Rerror{Ename: message.Enotimpl}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("responses mismatch: got=%+v", got)
	}
	if !errors.Is(res.Err, ErrHandlerUnset) {
		t.Fatalf("expected ErrHandlerUnset, got %v", res.Err)
	}
}

func TestProcessGroupHandlerErrorBecomesRerror(t *testing.T) {
	fail := HandlerFunc(func(context.Context, *Request) (message.Message, error) {
		return nil, errors.New(message.Enotexist)
	})
	table, err := NewTable(map[message.Code]Handler{message.CodeTopen: fail})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	in := encodeGroup(t, &message.Topen{Fid: 1, Path: "missing"}, &message.Topen{Fid: 1, Path: "again"})
	out := block.New(128)

	res, _ := ProcessGroup(context.Background(), table, &Conn{}, in, out)
	if res.Stop != StopHandlerError || res.Decoded != 1 || res.Answered != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	got := decodeAll(t, out)
	if !reflect.DeepEqual(got, []message.Message{&message.Rerror{Ename: message.Enotexist}}) {
		t.Fatalf("responses mismatch: got=%+v", got)
	}
}

func TestProcessGroupNilResponse(t *testing.T) {
	table, err := NewTable(map[message.Code]Handler{
		message.CodeTclunk: HandlerFunc(func(context.Context, *Request) (message.Message, error) { return nil, nil }),
	})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	res, _ := ProcessGroup(context.Background(), table, &Conn{}, encodeGroup(t, &message.Tclunk{}), block.New(128))
	if !errors.Is(res.Err, ErrNoResponse) {
		t.Fatalf("expected ErrNoResponse, got %v", res.Err)
	}
}

func TestProcessGroupMalformedMessageGetsNoResponse(t *testing.T) {
	var calls []message.Code
	table := clunkTable(t, &calls)
	good := encodeGroup(t, &message.Tclunk{Fid: 1})
	raw := append(append([]byte{}, good.Bytes()...), 0, byte(message.CodeTclunk), 0, 0)
	out := block.New(128)

	res, err := ProcessGroup(context.Background(), table, &Conn{}, block.Wrap(raw), out)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Stop != StopMalformed || res.Answered != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := decodeAll(t, out); len(got) != 1 {
		t.Fatalf("expected one response, got %d", len(got))
	}
	last := res.Outcomes[len(res.Outcomes)-1]
	if last.Code != message.CodeTclunk || last.Stop != StopMalformed {
		t.Fatalf("unexpected outcome: %+v", last)
	}
}

func TestProcessGroupUnknownCode(t *testing.T) {
	var calls []message.Code
	table := clunkTable(t, &calls)
	res, _ := ProcessGroup(context.Background(), table, &Conn{}, block.Wrap([]byte{0x01, 0x00}), block.New(64))
	if res.Stop != StopMalformed || !errors.Is(res.Err, message.ErrBadCode) {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestProcessGroupResponseOverflow(t *testing.T) {
	big := HandlerFunc(func(context.Context, *Request) (message.Message, error) {
		return &message.Rread{Dat: make([]byte, 512)}, nil
	})
	table, err := NewTable(map[message.Code]Handler{message.CodeTread: big})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	out := block.New(64)
	res, _ := ProcessGroup(context.Background(), table, &Conn{}, encodeGroup(t, &message.Tread{Count: 512}), out)
	if res.Stop != StopOutOfSpace {
		t.Fatalf("expected out of space stop, got %s", res.Stop)
	}
	got := decodeAll(t, out)
	if !reflect.DeepEqual(got, []message.Message{&message.Rerror{Ename: message.Enomem}}) {
		t.Fatalf("responses mismatch: got=%+v", got)
	}
}

func TestProcessGroupNoRoomForRerror(t *testing.T) {
	var calls []message.Code
	table := clunkTable(t, &calls)
	out := block.New(1)
	res, _ := ProcessGroup(context.Background(), table, &Conn{}, encodeGroup(t, &message.Tread{}), out)
	if res.Stop != StopNotImplemented || res.Answered != 0 || out.Written() != 0 {
		t.Fatalf("unexpected result: %+v written=%d", res, out.Written())
	}
}

func TestProcessGroupStagedRead(t *testing.T) {
	read := HandlerFunc(func(_ context.Context, req *Request) (message.Message, error) {
		p, err := req.StageRead(int(req.Message.(*message.Tread).Count))
		if err != nil {
			return nil, err
		}
		n := copy(p, "zero copy")
		return &message.Rread{Dat: p[:n]}, nil
	})
	table, err := NewTable(map[message.Code]Handler{message.CodeTread: read})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	out := block.New(128)
	in := encodeGroup(t, &message.Tread{Count: 32}, &message.Tread{Count: 32})
	if _, err := ProcessGroup(context.Background(), table, &Conn{}, in, out); err != nil {
		t.Fatalf("process: %v", err)
	}
	got := decodeAll(t, out)
	if len(got) != 2 {
		t.Fatalf("expected two responses, got %d", len(got))
	}
	for i, m := range got {
		if string(m.(*message.Rread).Dat) != "zero copy" {
			t.Fatalf("response %d mismatch: %q", i, m.(*message.Rread).Dat)
		}
	}
}

func TestProcessGroupCanceled(t *testing.T) {
	var calls []message.Code
	table := clunkTable(t, &calls)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := ProcessGroup(ctx, table, &Conn{}, encodeGroup(t, &message.Tclunk{}), block.New(64))
	if !errors.Is(err, context.Canceled) || res.Stop != StopCanceled {
		t.Fatalf("expected canceled, got res=%+v err=%v", res, err)
	}
	if len(calls) != 0 {
		t.Fatalf("handler ran after cancel")
	}
}

func TestProcessGroupEmpty(t *testing.T) {
	var calls []message.Code
	res, err := ProcessGroup(context.Background(), clunkTable(t, &calls), &Conn{}, block.Wrap(nil), block.New(8))
	if err != nil || res.Stop != StopExhausted || res.Decoded != 0 {
		t.Fatalf("unexpected result: %+v err=%v", res, err)
	}
}
