package wireproto

import (
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// maxFrameLength bounds a single frame's metadata+payload size, guarding
// against a corrupt length prefix turning into an unbounded allocation.
const maxFrameLength = 256 * 1024 * 1024

// metaFactory returns a fresh, zero-valued pointer to the Go type that
// decodes a given Kind's JSON metadata.
func metaFactory(k Kind) (interface{}, error) {
	switch k {
	case EKind.Handshake():
		return &HandshakeMeta{}, nil
	case EKind.SetRoot():
		return &SetRootMeta{}, nil
	case EKind.GetEntries():
		return &GetEntriesMeta{}, nil
	case EKind.EntryMsg():
		return &EntryMsgMeta{}, nil
	case EKind.EndOfEntries():
		return &EndOfEntriesMeta{}, nil
	case EKind.GetFileContentChunk():
		return &GetFileContentChunkMeta{}, nil
	case EKind.FileChunk():
		return &FileChunkMeta{}, nil
	case EKind.EndOfFile():
		return &EndOfFileMeta{}, nil
	case EKind.CreateFolder():
		return &CreateFolderMeta{}, nil
	case EKind.CreateSymlink():
		return &CreateSymlinkMeta{}, nil
	case EKind.WriteFileStart():
		return &WriteFileStartMeta{}, nil
	case EKind.WriteFileChunk():
		return &WriteFileChunkMeta{}, nil
	case EKind.WriteFileEnd():
		return &WriteFileEndMeta{}, nil
	case EKind.DeleteEntry():
		return &DeleteEntryMeta{}, nil
	case EKind.ProgressMarker():
		return &ProgressMarkerMeta{}, nil
	case EKind.Shutdown():
		return &ShutdownMeta{}, nil
	case EKind.Ack():
		return &AckMeta{}, nil
	case EKind.ErrorMsg():
		return &ErrorMsgMeta{}, nil
	case EKind.RootInfo():
		return &RootInfoMeta{}, nil
	default:
		return nil, errors.Errorf("wireproto: unknown message kind %d", k)
	}
}

// WriteMessage encodes and writes one frame: 4-byte little-endian
// length, 1-byte kind, JSON metadata, then raw bytes if the kind
// carries a raw payload.
func WriteMessage(w io.Writer, kind Kind, meta interface{}, raw []byte) error {
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return errors.Wrap(err, "wireproto: marshal metadata")
	}
	if !kind.CarriesRawPayload() && len(raw) != 0 {
		return errors.Errorf("wireproto: kind %s does not carry a raw payload", kind)
	}

	payloadLen := 1 + len(metaBytes) + len(raw)
	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, uint32(payloadLen))

	if _, err := w.Write(header); err != nil {
		return errors.Wrap(err, "wireproto: write length prefix")
	}
	if _, err := w.Write([]byte{byte(kind)}); err != nil {
		return errors.Wrap(err, "wireproto: write kind byte")
	}
	if _, err := w.Write(metaBytes); err != nil {
		return errors.Wrap(err, "wireproto: write metadata")
	}
	if len(raw) != 0 {
		if _, err := w.Write(raw); err != nil {
			return errors.Wrap(err, "wireproto: write raw payload")
		}
	}
	return nil
}

// ReadMessage reads and decodes one frame written by WriteMessage.
func ReadMessage(r io.Reader) (Message, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return Message{}, err // EOF propagates as-is so callers can detect clean close
	}
	payloadLen := binary.LittleEndian.Uint32(header)
	if payloadLen == 0 {
		return Message{}, errors.New("wireproto: empty frame (missing kind byte)")
	}
	if payloadLen > maxFrameLength {
		return Message{}, errors.Errorf("wireproto: frame of %d bytes exceeds limit", payloadLen)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Message{}, errors.Wrap(err, "wireproto: read frame payload")
	}

	kind := Kind(payload[0])
	rest := payload[1:]

	meta, err := metaFactory(kind)
	if err != nil {
		return Message{}, err
	}

	var raw []byte
	metaJSON := rest
	if kind.CarriesRawPayload() {
		// The JSON metadata for chunk-carrying kinds is itself a
		// length-delimited value: json.Decoder tells us where it ends.
		dec := json.NewDecoder(bytesReader(rest))
		if err := dec.Decode(meta); err != nil {
			return Message{}, errors.Wrap(err, "wireproto: unmarshal metadata")
		}
		consumed := dec.InputOffset()
		raw = rest[consumed:]
		return Message{Kind: kind, Meta: meta, Raw: raw}, nil
	}

	if err := json.Unmarshal(metaJSON, meta); err != nil {
		return Message{}, errors.Wrap(err, "wireproto: unmarshal metadata")
	}
	return Message{Kind: kind, Meta: meta, Raw: raw}, nil
}

type byteReader struct {
	b []byte
	i int
}

func bytesReader(b []byte) *byteReader {
	return &byteReader{b: b}
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.i >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.i:])
	r.i += n
	return n, nil
}
