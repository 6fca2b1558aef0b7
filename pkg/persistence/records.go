package persistence

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/clemens865/phago/pkg/core"
)

// ErrShortRecord indicates a frame payload smaller than its record
// layout.
var ErrShortRecord = errors.New("persistence: short record payload")

// Meta is the snapshot header record.
type Meta struct {
	Tick      uint64
	NodeCount uint64
	EdgeCount uint64
}

// EncodeMeta serializes the meta record: three uint64 fields.
func EncodeMeta(m Meta) []byte {
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint64(buf[0:8], m.Tick)
	binary.LittleEndian.PutUint64(buf[8:16], m.NodeCount)
	binary.LittleEndian.PutUint64(buf[16:24], m.EdgeCount)
	return buf
}

// DecodeMeta parses a meta payload.
func DecodeMeta(buf []byte) (Meta, error) {
	if len(buf) < 24 {
		return Meta{}, ErrShortRecord
	}
	return Meta{
		Tick:      binary.LittleEndian.Uint64(buf[0:8]),
		NodeCount: binary.LittleEndian.Uint64(buf[8:16]),
		EdgeCount: binary.LittleEndian.Uint64(buf[16:24]),
	}, nil
}

// EncodeNode serializes a node record:
// [ID(8)][Access(8)][X(8)][Y(8)][CreatedTick(8)]
// [LabelLen(2)][Label][CategoryLen(2)][Category]
func EncodeNode(n core.ConceptNode) []byte {
	label := []byte(n.Label)
	category := []byte(n.Category)
	buf := make([]byte, 40+2+len(label)+2+len(category))

	binary.LittleEndian.PutUint64(buf[0:8], uint64(n.ID))
	binary.LittleEndian.PutUint64(buf[8:16], n.AccessCount)
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(n.Position.X))
	binary.LittleEndian.PutUint64(buf[24:32], math.Float64bits(n.Position.Y))
	binary.LittleEndian.PutUint64(buf[32:40], n.CreatedTick)

	off := 40
	binary.LittleEndian.PutUint16(buf[off:off+2], uint16(len(label)))
	off += 2
	copy(buf[off:], label)
	off += len(label)
	binary.LittleEndian.PutUint16(buf[off:off+2], uint16(len(category)))
	off += 2
	copy(buf[off:], category)
	return buf
}

// DecodeNode parses a node payload.
func DecodeNode(buf []byte) (core.ConceptNode, error) {
	if len(buf) < 44 {
		return core.ConceptNode{}, ErrShortRecord
	}
	n := core.ConceptNode{
		ID:          core.NodeID(binary.LittleEndian.Uint64(buf[0:8])),
		AccessCount: binary.LittleEndian.Uint64(buf[8:16]),
		Position: core.Position{
			X: math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24])),
			Y: math.Float64frombits(binary.LittleEndian.Uint64(buf[24:32])),
		},
		CreatedTick: binary.LittleEndian.Uint64(buf[32:40]),
	}

	off := 40
	labelLen := int(binary.LittleEndian.Uint16(buf[off : off+2]))
	off += 2
	if len(buf) < off+labelLen+2 {
		return core.ConceptNode{}, ErrShortRecord
	}
	n.Label = string(buf[off : off+labelLen])
	off += labelLen
	catLen := int(binary.LittleEndian.Uint16(buf[off : off+2]))
	off += 2
	if len(buf) < off+catLen {
		return core.ConceptNode{}, ErrShortRecord
	}
	n.Category = string(buf[off : off+catLen])
	return n, nil
}

// EncodeEdge serializes an edge record, fixed 48 bytes:
// [A(8)][B(8)][Weight(8)][CoActivations(8)][CreatedTick(8)][LastActivatedTick(8)]
func EncodeEdge(e core.HebbianEdge) []byte {
	buf := make([]byte, 48)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(e.A))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(e.B))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(e.Weight))
	binary.LittleEndian.PutUint64(buf[24:32], e.CoActivations)
	binary.LittleEndian.PutUint64(buf[32:40], e.CreatedTick)
	binary.LittleEndian.PutUint64(buf[40:48], e.LastActivatedTick)
	return buf
}

// DecodeEdge parses an edge payload.
func DecodeEdge(buf []byte) (core.HebbianEdge, error) {
	if len(buf) < 48 {
		return core.HebbianEdge{}, ErrShortRecord
	}
	return core.HebbianEdge{
		A:                 core.NodeID(binary.LittleEndian.Uint64(buf[0:8])),
		B:                 core.NodeID(binary.LittleEndian.Uint64(buf[8:16])),
		Weight:            math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24])),
		CoActivations:     binary.LittleEndian.Uint64(buf[24:32]),
		CreatedTick:       binary.LittleEndian.Uint64(buf[32:40]),
		LastActivatedTick: binary.LittleEndian.Uint64(buf[40:48]),
	}, nil
}
