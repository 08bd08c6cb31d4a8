package log

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// JSONLZstdWriter appends JSON lines to a zstd file that rotates every UTC
// hour. Lines are buffered and pushed through the encoder according to the
// writer's flush policy; Close always flushes.
type JSONLZstdWriter struct {
	baseDir    string
	prefix     string
	now        func() time.Time
	flushEvery int
	level      zstd.EncoderLevel

	mu        sync.Mutex
	seg       *segment
	unflushed int
	lines     uint64
}

// Option configures a JSONLZstdWriter.
type Option func(*JSONLZstdWriter)

// FlushEvery completes a zstd block on disk after every n lines. With n <= 0
// lines stay buffered until rotation, Flush or Close.
func FlushEvery(n int) Option {
	return func(w *JSONLZstdWriter) { w.flushEvery = n }
}

func Level(l zstd.EncoderLevel) Option {
	return func(w *JSONLZstdWriter) { w.level = l }
}

func NewJSONLZstdWriter(baseDir, prefix string, opts ...Option) *JSONLZstdWriter {
	w := &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
		now:     time.Now,
		level:   zstd.SpeedFastest,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// segment is the open file for one hour.
type segment struct {
	hour string
	f    *os.File
	enc  *zstd.Encoder
	buf  *bufio.Writer
}

func (s *segment) flush() error {
	if err := s.buf.Flush(); err != nil {
		return err
	}
	return s.enc.Flush()
}

func (s *segment) close() error {
	return errors.Join(s.buf.Flush(), s.enc.Close(), s.f.Close())
}

func (w *JSONLZstdWriter) Write(v any) error {
	// Encode first so a bad value never opens or rotates a file.
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if w.seg == nil || w.seg.hour != hour {
		if err := w.openLocked(hour); err != nil {
			return err
		}
	}
	b = append(b, '\n')
	if _, err := w.seg.buf.Write(b); err != nil {
		return err
	}
	w.lines++
	w.unflushed++
	if w.flushEvery > 0 && w.unflushed >= w.flushEvery {
		w.unflushed = 0
		return w.seg.flush()
	}
	return nil
}

// Flush pushes buffered lines to disk regardless of the policy.
func (w *JSONLZstdWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seg == nil {
		return nil
	}
	w.unflushed = 0
	return w.seg.flush()
}

// Lines counts every line accepted since the writer was created.
func (w *JSONLZstdWriter) Lines() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lines
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// openLocked closes the current hour and appends a new frame to the file for
// hour.
func (w *JSONLZstdWriter) openLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(w.level), zstd.WithEncoderConcurrency(1))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.seg = &segment{hour: hour, f: f, enc: enc, buf: bufio.NewWriterSize(enc, 64*1024)}
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	if w.seg == nil {
		return nil
	}
	err := w.seg.close()
	w.seg = nil
	w.unflushed = 0
	return err
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// ReadJSONL decodes every line of a rotated file. A reopened hour appends a
// second zstd frame, which the decoder reads back to back. A file whose last
// frame was never closed yields the lines of its flushed blocks together
// with an error.
func ReadJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []json.RawMessage
	br := bufio.NewReader(dec)
	for {
		line, err := br.ReadBytes('\n')
		if line = bytes.TrimSuffix(line, []byte("\n")); len(line) > 0 {
			out = append(out, json.RawMessage(line))
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return out, nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			return out, fmt.Errorf("%s: truncated frame: %w", path, err)
		default:
			return out, err
		}
	}
}

// QueryLogEntry is one served query.
type QueryLogEntry struct {
	Time      time.Time `json:"time"`
	Transport string    `json:"transport"` // "rest" or "ws"
	Kind      string    `json:"kind"`      // "height", "point", "tile"
	Session   string    `json:"session,omitempty"`
	X         float64   `json:"x,omitempty"`
	Z         float64   `json:"z,omitempty"`
	TileX     int       `json:"tile_x,omitempty"`
	TileZ     int       `json:"tile_z,omitempty"`
	Micros    int64     `json:"micros"`
	Error     string    `json:"error,omitempty"`
}

// QueryLogger writes one JSONL entry per served query (compressed).
type QueryLogger struct{ w *JSONLZstdWriter }

func NewQueryLogger(dataDir string) *QueryLogger {
	return &QueryLogger{w: NewJSONLZstdWriter(filepath.Join(dataDir, "queries"), "queries", FlushEvery(64))}
}

func (l *QueryLogger) WriteQuery(v QueryLogEntry) error { return l.w.Write(v) }
func (l *QueryLogger) Close() error                     { return l.w.Close() }

// BakeEvent records progress of a bake run.
type BakeEvent struct {
	Time  time.Time `json:"time"`
	RunID string    `json:"run_id"`
	Event string    `json:"event"` // "start", "tile", "done", "error"
	TileX int       `json:"tile_x,omitempty"`
	TileZ int       `json:"tile_z,omitempty"`
	Bytes int64     `json:"bytes,omitempty"`
	Error string    `json:"error,omitempty"`
}

// BakeLogger writes bake events (compressed).
type BakeLogger struct{ w *JSONLZstdWriter }

func NewBakeLogger(dataDir string) *BakeLogger {
	return &BakeLogger{w: NewJSONLZstdWriter(filepath.Join(dataDir, "bake"), "bake", FlushEvery(1))}
}

func (l *BakeLogger) WriteEvent(v BakeEvent) error { return l.w.Write(v) }
func (l *BakeLogger) Close() error                 { return l.w.Close() }
