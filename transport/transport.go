// Package transport implements the bidirectional message stream
// between the boss and each doer (spec §4.4): either an in-process
// pair of channels (local doer), or a framed byte stream read/written
// over an already-opened pipe (remote doer reached via a shell
// transport). Both present the same Conn interface so the boss driver
// never needs to know which one it's talking to.
package transport

import (
	"context"
	"io"
	"reflect"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/gryfn-io/rjrssync/wireproto"
)

// Conn is one end of a boss<->doer message stream.
type Conn interface {
	// Send queues a message for delivery. It blocks when the transport's
	// bounded in-flight buffering is full (spec §4.4 backpressure); this
	// is the engine's sole rate-limiting mechanism, there is no separate
	// credit protocol.
	Send(ctx context.Context, kind wireproto.Kind, meta interface{}, raw []byte) error

	// Recv blocks until the next message arrives, ctx is cancelled, or
	// the peer closes the connection (io.EOF).
	Recv(ctx context.Context) (wireproto.Message, error)

	// Close tears down the underlying transport. Safe to call more than
	// once.
	Close() error
}

// inFlightFrame is one message queued on an InProcess Conn's channel,
// delivered to the peer without wire encoding.
type inFlightFrame struct {
	kind wireproto.Kind
	meta interface{}
	raw  []byte
}

// inProcessConn implements Conn over a pair of buffered Go channels,
// used when the boss and a doer share one process (the local-doer
// fast path spec §1 calls out).
type inProcessConn struct {
	out     chan inFlightFrame
	in      chan wireproto.Message
	inErr   chan error
	closeMu sync.Mutex
	closed  bool
}

// InProcess returns a connected pair of Conns: whatever is sent on one
// is received on the other. bufSize bounds the in-flight queue depth
// (spec §4.4's "bounded in-flight buffering").
func InProcess(bufSize int) (Conn, Conn) {
	ab := make(chan inFlightFrame, bufSize)
	ba := make(chan inFlightFrame, bufSize)

	a := &inProcessConn{out: ab, in: toMessages(ba), inErr: make(chan error, 1)}
	b := &inProcessConn{out: ba, in: toMessages(ab), inErr: make(chan error, 1)}
	return a, b
}

// toMessages adapts a raw inFlightFrame channel into the decoded
// Message form Recv hands back, without going through the wire framing
// (there is no encoding cost to pay in-process). Metadata is handed back
// as a pointer, the shape wireproto.ReadMessage decodes into, so callers
// type-assert the same way whichever Conn they hold.
func toMessages(frames chan inFlightFrame) chan wireproto.Message {
	out := make(chan wireproto.Message, cap(frames))
	go func() {
		defer close(out)
		for f := range frames {
			meta := f.meta
			if v := reflect.ValueOf(meta); v.IsValid() && v.Kind() != reflect.Ptr {
				p := reflect.New(v.Type())
				p.Elem().Set(v)
				meta = p.Interface()
			}
			out <- wireproto.Message{Kind: f.kind, Meta: meta, Raw: f.raw}
		}
	}()
	return out
}

func (c *inProcessConn) Send(ctx context.Context, kind wireproto.Kind, meta interface{}, raw []byte) error {
	select {
	case c.out <- inFlightFrame{kind: kind, meta: meta, raw: raw}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *inProcessConn) Recv(ctx context.Context) (wireproto.Message, error) {
	select {
	case msg, ok := <-c.in:
		if !ok {
			return wireproto.Message{}, io.EOF
		}
		return msg, nil
	case <-ctx.Done():
		return wireproto.Message{}, ctx.Err()
	}
}

func (c *inProcessConn) Close() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.out)
	return nil
}

// stdioConn implements Conn over a raw byte stream (an opened shell
// pipe to a re-exec'd doer, spec §9 "self-as-doer reentry"), applying
// wireproto's length-framed encoding. Receiving runs on one dedicated
// reader goroutine under an errgroup that Close waits on; each Send
// writes under a mutex from a short-lived goroutine so it can honor
// ctx. A read failure does not stop Send.
type stdioConn struct {
	w       io.Writer
	sendMu  sync.Mutex
	in      chan wireproto.Message
	readErr chan error
	closer  io.Closer
	group   *errgroup.Group
	cancel  context.CancelFunc
}

// Stdio wraps an already-opened bidirectional byte stream (r for
// reading replies, w for writing commands) in a framed Conn. closer,
// if non-nil, is invoked once on Close (e.g. to kill the underlying
// process).
func Stdio(r io.Reader, w io.Writer, closer io.Closer) Conn {
	ctx, cancel := context.WithCancel(context.Background())
	g, _ := errgroup.WithContext(ctx)

	c := &stdioConn{
		w:       w,
		in:      make(chan wireproto.Message, 32),
		readErr: make(chan error, 1),
		closer:  closer,
		group:   g,
		cancel:  cancel,
	}

	g.Go(func() error {
		defer close(c.in)
		for {
			msg, err := wireproto.ReadMessage(r)
			if err != nil {
				c.readErr <- err
				return err
			}
			select {
			case c.in <- msg:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	return c
}

func (c *stdioConn) Send(ctx context.Context, kind wireproto.Kind, meta interface{}, raw []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	done := make(chan error, 1)
	go func() { done <- wireproto.WriteMessage(c.w, kind, meta, raw) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *stdioConn) Recv(ctx context.Context) (wireproto.Message, error) {
	select {
	case msg, ok := <-c.in:
		if !ok {
			select {
			case err := <-c.readErr:
				return wireproto.Message{}, err
			default:
				return wireproto.Message{}, io.EOF
			}
		}
		return msg, nil
	case <-ctx.Done():
		return wireproto.Message{}, ctx.Err()
	}
}

func (c *stdioConn) Close() error {
	c.cancel()
	var closeErr error
	if c.closer != nil {
		closeErr = c.closer.Close()
	}
	_ = c.group.Wait() // reader goroutine exits once the stream above is closed
	if closeErr != nil {
		return errors.Wrap(closeErr, "transport: close underlying stream")
	}
	return nil
}
