// Package persistence implements the binary frame format of colony
// snapshot files. A snapshot is a sequence of frames: one meta frame
// carrying the tick counter and record counts, then one frame per
// node and per edge. Every frame is CRC-checked so a truncated or
// corrupted file is detected on load, never silently half-applied.
package persistence

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
)

const (
	// MagicByte marks the start of a valid frame and allows scanning
	// for resynchronization on heavily corrupted files.
	MagicByte = 0xA5

	// HeaderSize is the fixed frame metadata size:
	// 1 (Magic) + 1 (OpCode) + 4 (Length) + 4 (CRC32) = 10 bytes.
	HeaderSize = 10

	// Frame opcodes.
	OpCodeMeta = 0x01
	OpCodeNode = 0x02
	OpCodeEdge = 0x03
)

var (
	// ErrInvalidMagic indicates the stream lost synchronization or is
	// not a snapshot file.
	ErrInvalidMagic = errors.New("persistence: invalid magic byte")
	// ErrChecksumMismatch indicates payload corruption.
	ErrChecksumMismatch = errors.New("persistence: crc32 checksum mismatch")
	// ErrIncompleteFrame indicates the file ended mid-frame.
	ErrIncompleteFrame = errors.New("persistence: incomplete frame")
)

// FrameWriter writes binary frames to an underlying writer. Wrap the
// target in a bufio.Writer so header and payload coalesce into one
// syscall.
type FrameWriter struct {
	w io.Writer
}

// NewFrameWriter wraps w.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame writes one frame:
// [Magic(1)][OpCode(1)][Length(4)][CRC(4)][Payload(N)]
func (fw *FrameWriter) WriteFrame(op byte, payload []byte) error {
	header := make([]byte, HeaderSize)
	header[0] = MagicByte
	header[1] = op
	binary.LittleEndian.PutUint32(header[2:6], uint32(len(payload)))
	binary.LittleEndian.PutUint32(header[6:10], crc32.ChecksumIEEE(payload))

	if _, err := fw.w.Write(header); err != nil {
		return err
	}
	_, err := fw.w.Write(payload)
	return err
}

// ReadFrame reads and validates the next frame. A clean io.EOF at a
// frame boundary is returned as io.EOF; a partial header or payload
// is ErrIncompleteFrame.
func ReadFrame(r io.Reader) (op byte, payload []byte, err error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, ErrIncompleteFrame
	}

	if header[0] != MagicByte {
		return 0, nil, ErrInvalidMagic
	}
	op = header[1]
	length := binary.LittleEndian.Uint32(header[2:6])
	expectedCRC := binary.LittleEndian.Uint32(header[6:10])

	payload = make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return op, nil, ErrIncompleteFrame
	}

	if crc32.ChecksumIEEE(payload) != expectedCRC {
		return op, nil, ErrChecksumMismatch
	}
	return op, payload, nil
}
