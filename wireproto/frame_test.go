package wireproto

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadMessageRoundTripNoRaw(t *testing.T) {
	var buf bytes.Buffer
	in := SetRootMeta{Root: "/srv/data"}
	require.NoError(t, WriteMessage(&buf, EKind.SetRoot(), in, nil))

	msg, err := ReadMessage(&buf)
	require.NoError(t, err)
	assert.Equal(t, EKind.SetRoot(), msg.Kind)
	assert.Equal(t, &in, msg.Meta)
	assert.Empty(t, msg.Raw)
}

func TestWriteReadMessageRoundTripWithRawPayload(t *testing.T) {
	var buf bytes.Buffer
	meta := WriteFileChunkMeta{Path: "a/b.bin", Offset: 4096, RawLength: 5}
	payload := []byte{1, 2, 3, 4, 5}
	require.NoError(t, WriteMessage(&buf, EKind.WriteFileChunk(), meta, payload))

	msg, err := ReadMessage(&buf)
	require.NoError(t, err)
	assert.Equal(t, EKind.WriteFileChunk(), msg.Kind)
	got := msg.Meta.(*WriteFileChunkMeta)
	assert.Equal(t, meta.Path, got.Path)
	assert.Equal(t, meta.Offset, got.Offset)
	assert.Equal(t, payload, msg.Raw)
}

func TestWriteRejectsRawForNonChunkKind(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMessage(&buf, EKind.Ack(), AckMeta{}, []byte{1})
	assert.Error(t, err)
}

func TestMultipleMessagesSequentially(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, EKind.Handshake(), HandshakeMeta{Version: ProtocolVersion, Side: "source"}, nil))
	require.NoError(t, WriteMessage(&buf, EKind.EntryMsg(), EntryMsgMeta{Path: "x.txt"}, nil))
	require.NoError(t, WriteMessage(&buf, EKind.EndOfEntries(), EndOfEntriesMeta{Count: 1}, nil))

	m1, err := ReadMessage(&buf)
	require.NoError(t, err)
	assert.Equal(t, EKind.Handshake(), m1.Kind)

	m2, err := ReadMessage(&buf)
	require.NoError(t, err)
	assert.Equal(t, EKind.EntryMsg(), m2.Kind)

	m3, err := ReadMessage(&buf)
	require.NoError(t, err)
	assert.Equal(t, EKind.EndOfEntries(), m3.Kind)
}

func TestProgressMarkerEchoPreservesFields(t *testing.T) {
	var buf bytes.Buffer
	meta := ProgressMarkerMeta{SentWork: 2 << 20, Count: 3, Bytes: 1024, CurrentEntryID: 42}
	require.NoError(t, WriteMessage(&buf, EKind.ProgressMarker(), meta, nil))

	msg, err := ReadMessage(&buf)
	require.NoError(t, err)
	got := msg.Meta.(*ProgressMarkerMeta)
	assert.Equal(t, meta, *got)
}

func TestEntryDetailsCarriesModifiedTime(t *testing.T) {
	var buf bytes.Buffer
	mt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	meta := EntryMsgMeta{Path: "f.txt", Details: EntryDetails{Size: 10, Modified: mt}}
	require.NoError(t, WriteMessage(&buf, EKind.EntryMsg(), meta, nil))

	msg, err := ReadMessage(&buf)
	require.NoError(t, err)
	got := msg.Meta.(*EntryMsgMeta)
	assert.True(t, mt.Equal(got.Details.Modified))
	assert.Equal(t, uint64(10), got.Details.Size)
}
