// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package snaplog records seat map snapshots to a compressed file and
// reads them back, so a push session can be replayed offline.
//
// A recording is an 8-byte header (magic "BXSNAP", format version,
// compression tag) followed by a compressed CBOR sequence of
// [Record] values. Compression is zstd by default; lz4 trades ratio
// for speed on long sessions.
package snaplog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/seatwise/boxoffice/lib/codec"
	"github.com/seatwise/boxoffice/lib/schema"
)

const (
	magic         = "BXSNAP"
	formatVersion = 1
)

// ErrBadHeader is returned when a file is not a recording this
// package can read.
var ErrBadHeader = errors.New("snaplog: not a snapshot recording")

// Compression identifies the stream compressor. The values are
// stored in the file header.
type Compression uint8

const (
	CompressionZstd Compression = 1
	CompressionLZ4  Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

// ParseCompression accepts "zstd" (or empty) and "lz4".
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	}
	return 0, fmt.Errorf("snaplog: unknown compression %q (want zstd or lz4)", s)
}

// Record is one received snapshot.
type Record struct {
	ReceivedAt time.Time        `cbor:"received_at"`
	Source     string           `cbor:"source"`
	Snapshot   schema.Structure `cbor:"snapshot"`
}

// Recorder appends records to a recording. Safe for concurrent use.
type Recorder struct {
	mu         sync.Mutex
	compressor io.WriteCloser
	encoder    *codec.Encoder
	underlying io.Closer
	count      int
	closed     bool
}

// Create creates (or truncates) path and starts a recording in it.
func Create(path string, compression Compression) (*Recorder, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("snaplog: creating %s: %w", path, err)
	}
	recorder, err := NewRecorder(file, compression)
	if err != nil {
		file.Close()
		return nil, err
	}
	recorder.underlying = file
	return recorder, nil
}

// NewRecorder writes the header to w and returns a Recorder appending
// to it. Close flushes the compressor but does not close w.
func NewRecorder(w io.Writer, compression Compression) (*Recorder, error) {
	if compression != CompressionZstd && compression != CompressionLZ4 {
		return nil, fmt.Errorf("snaplog: unsupported %s", compression)
	}
	header := append([]byte(magic), formatVersion, byte(compression))
	if _, err := w.Write(header); err != nil {
		return nil, fmt.Errorf("snaplog: writing header: %w", err)
	}

	var compressor io.WriteCloser
	if compression == CompressionLZ4 {
		compressor = lz4.NewWriter(w)
	} else {
		encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("snaplog: zstd encoder: %w", err)
		}
		compressor = encoder
	}
	return &Recorder{compressor: compressor, encoder: codec.NewEncoder(compressor)}, nil
}

// Record appends one record.
func (r *Recorder) Record(record Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("snaplog: recorder is closed")
	}
	if err := r.encoder.Encode(record); err != nil {
		return fmt.Errorf("snaplog: encoding record: %w", err)
	}
	r.count++
	return nil
}

// Count returns the number of records written.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Close flushes buffered data and, for recorders made by Create,
// closes the file. Calling Close twice is a no-op.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.compressor.Close()
	if r.underlying != nil {
		err = errors.Join(err, r.underlying.Close())
	}
	if err != nil {
		return fmt.Errorf("snaplog: closing: %w", err)
	}
	return nil
}

// Reader reads records back in order.
type Reader struct {
	compression Compression
	decoder     *codec.Decoder
	release     func()
	underlying  io.Closer
}

// Open opens a recording file.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snaplog: opening %s: %w", path, err)
	}
	reader, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	reader.underlying = file
	return reader, nil
}

// NewReader checks the header on r and returns a Reader over the
// records that follow.
func NewReader(r io.Reader) (*Reader, error) {
	buffered := bufio.NewReader(r)
	header := make([]byte, len(magic)+2)
	if _, err := io.ReadFull(buffered, header); err != nil {
		return nil, fmt.Errorf("%w: reading header: %w", ErrBadHeader, err)
	}
	if string(header[:len(magic)]) != magic {
		return nil, ErrBadHeader
	}
	if version := header[len(magic)]; version != formatVersion {
		return nil, fmt.Errorf("%w: format version %d", ErrBadHeader, version)
	}

	reader := &Reader{compression: Compression(header[len(magic)+1])}
	var decompressed io.Reader
	switch reader.compression {
	case CompressionZstd:
		decoder, err := zstd.NewReader(buffered)
		if err != nil {
			return nil, fmt.Errorf("snaplog: zstd decoder: %w", err)
		}
		decompressed = decoder
		reader.release = decoder.Close
	case CompressionLZ4:
		decompressed = lz4.NewReader(buffered)
	default:
		return nil, fmt.Errorf("%w: unsupported %s", ErrBadHeader, reader.compression)
	}
	reader.decoder = codec.NewDecoder(decompressed)
	return reader, nil
}

// Compression reports how the recording is compressed.
func (r *Reader) Compression() Compression { return r.compression }

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	var record Record
	if err := r.decoder.Decode(&record); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("snaplog: decoding record: %w", err)
	}
	return record, nil
}

// Close releases decoder resources and, for readers made by Open,
// closes the file.
func (r *Reader) Close() error {
	if r.release != nil {
		r.release()
		r.release = nil
	}
	if r.underlying != nil {
		err := r.underlying.Close()
		r.underlying = nil
		return err
	}
	return nil
}
