package doer

import (
	"context"
	"errors"
	"io"
)

// ChunkedWriter turns WriteFileChunk commands for one open file into a
// sequential write stream, adapted from the teacher's
// chunkedFileWriter: chunks are accepted in any offset order and bytes
// reach disk in offset order, a chunk that arrives ahead of its
// predecessor waiting for it. The boss's copyFile requests and forwards
// chunks one at a time in offset order, so in practice they arrive in
// order.
type ChunkedWriter struct {
	file     io.WriteCloser
	incoming chan chunk
	done     chan error
}

type chunk struct {
	data   []byte
	offset int64
}

// ErrWriterAlreadyFailed is the sentinel error for a writer whose
// background write has already failed. Neither EnqueueChunk nor Close
// returns it: Close reports the original write error, and EnqueueChunk
// does not check for an earlier failure.
var ErrWriterAlreadyFailed = errors.New("doer: chunked writer already failed")

// NewChunkedWriter starts the background goroutine that serializes
// writes to file. Call Close exactly once, after the last EnqueueChunk,
// to flush remaining data and learn whether every chunk landed.
func NewChunkedWriter(ctx context.Context, file io.WriteCloser) *ChunkedWriter {
	w := &ChunkedWriter{
		file:     file,
		incoming: make(chan chunk, 256),
		done:     make(chan error, 1),
	}
	go w.run(ctx)
	return w
}

// EnqueueChunk hands off chunk bytes at offset for writing. It is safe
// to call from multiple goroutines, as the teacher's original is; the
// doer calls it from its single receive loop.
func (w *ChunkedWriter) EnqueueChunk(ctx context.Context, data []byte, offset int64) error {
	select {
	case w.incoming <- chunk{data: data, offset: offset}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals no more chunks are coming and waits for every
// buffered-but-not-yet-sequential chunk to be written and the
// underlying file closed.
func (w *ChunkedWriter) Close(ctx context.Context) error {
	close(w.incoming)
	select {
	case err := <-w.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *ChunkedWriter) run(ctx context.Context) {
	nextOffset := int64(0)
	pending := make(map[int64]chunk)

	finish := func(err error) {
		closeErr := w.file.Close()
		if err == nil {
			err = closeErr
		}
		w.done <- err
	}

	for {
		select {
		case c, open := <-w.incoming:
			if !open {
				finish(nil)
				return
			}
			pending[c.offset] = c
			if err := w.drain(pending, &nextOffset); err != nil {
				finish(err)
				return
			}
		case <-ctx.Done():
			finish(ctx.Err())
			return
		}
	}
}

func (w *ChunkedWriter) drain(pending map[int64]chunk, nextOffset *int64) error {
	for {
		c, ok := pending[*nextOffset]
		if !ok {
			return nil
		}
		delete(pending, *nextOffset)
		if _, err := w.file.Write(c.data); err != nil {
			return err
		}
		*nextOffset += int64(len(c.data))
	}
}
