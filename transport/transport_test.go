package transport

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gryfn-io/rjrssync/wireproto"
)

func TestInProcessSendRecvRoundTrip(t *testing.T) {
	boss, doer := InProcess(8)
	ctx := context.Background()

	require.NoError(t, boss.Send(ctx, wireproto.EKind.SetRoot(), wireproto.SetRootMeta{Root: "/data"}, nil))

	msg, err := doer.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, wireproto.EKind.SetRoot(), msg.Kind)
	assert.Equal(t, &wireproto.SetRootMeta{Root: "/data"}, msg.Meta)

	require.NoError(t, boss.Close())
	require.NoError(t, doer.Close())
}

func TestInProcessRecvReturnsEOFAfterClose(t *testing.T) {
	boss, doer := InProcess(1)
	require.NoError(t, boss.Close())

	_, err := doer.Recv(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestInProcessRecvRespectsContextCancellation(t *testing.T) {
	_, doer := InProcess(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := doer.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStdioSendRecvRoundTrip(t *testing.T) {
	aConn, bConn := net.Pipe()

	a := Stdio(aConn, aConn, aConn)
	b := Stdio(bConn, bConn, bConn)
	defer a.Close()
	defer b.Close()

	ctx := context.Background()
	go func() {
		_ = a.Send(ctx, wireproto.EKind.Handshake(), wireproto.HandshakeMeta{Version: wireproto.ProtocolVersion, Side: "source"}, nil)
	}()

	msg, err := b.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, wireproto.EKind.Handshake(), msg.Kind)
	got := msg.Meta.(*wireproto.HandshakeMeta)
	assert.Equal(t, wireproto.ProtocolVersion, got.Version)
}

func TestStdioCarriesRawPayload(t *testing.T) {
	aConn, bConn := net.Pipe()
	a := Stdio(aConn, aConn, aConn)
	b := Stdio(bConn, bConn, bConn)
	defer a.Close()
	defer b.Close()

	ctx := context.Background()
	payload := []byte{9, 8, 7, 6}
	go func() {
		_ = a.Send(ctx, wireproto.EKind.WriteFileChunk(), wireproto.WriteFileChunkMeta{Path: "x", RawLength: uint32(len(payload))}, payload)
	}()

	msg, err := b.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, msg.Raw)
}
