package persistence

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/clemens865/phago/pkg/core"
)

func TestFrameWriteRead(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)

	if err := fw.WriteFrame(OpCodeMeta, EncodeMeta(Meta{Tick: 42, NodeCount: 1, EdgeCount: 1})); err != nil {
		t.Fatal(err)
	}
	if err := fw.WriteFrame(OpCodeNode, EncodeNode(core.ConceptNode{ID: 3, Label: "membrane", Category: "concept"})); err != nil {
		t.Fatal(err)
	}

	op, payload, err := ReadFrame(&buf)
	if err != nil || op != OpCodeMeta {
		t.Fatalf("first frame: op=0x%02x err=%v", op, err)
	}
	meta, err := DecodeMeta(payload)
	if err != nil || meta.Tick != 42 {
		t.Fatalf("meta = %+v, err=%v", meta, err)
	}

	op, payload, err = ReadFrame(&buf)
	if err != nil || op != OpCodeNode {
		t.Fatalf("second frame: op=0x%02x err=%v", op, err)
	}
	n, err := DecodeNode(payload)
	if err != nil || n.Label != "membrane" || n.ID != 3 {
		t.Fatalf("node = %+v, err=%v", n, err)
	}

	if _, _, err := ReadFrame(&buf); err != io.EOF {
		t.Fatalf("end of stream = %v, want io.EOF", err)
	}
}

func TestChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	if err := fw.WriteFrame(OpCodeEdge, EncodeEdge(core.HebbianEdge{A: 1, B: 2, Weight: 0.5})); err != nil {
		t.Fatal(err)
	}

	raw := buf.Bytes()
	raw[HeaderSize+4] ^= 0xFF // corrupt the payload

	if _, _, err := ReadFrame(bytes.NewReader(raw)); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("corrupted frame read = %v, want ErrChecksumMismatch", err)
	}
}

func TestInvalidMagic(t *testing.T) {
	raw := []byte{0x00, 0x01, 0, 0, 0, 0, 0, 0, 0, 0}
	if _, _, err := ReadFrame(bytes.NewReader(raw)); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("bad magic read = %v, want ErrInvalidMagic", err)
	}
}

func TestTruncatedStream(t *testing.T) {
	var buf bytes.Buffer
	fw := NewFrameWriter(&buf)
	if err := fw.WriteFrame(OpCodeEdge, EncodeEdge(core.HebbianEdge{A: 1, B: 2})); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()

	if _, _, err := ReadFrame(bytes.NewReader(raw[:5])); !errors.Is(err, ErrIncompleteFrame) {
		t.Fatalf("partial header read = %v, want ErrIncompleteFrame", err)
	}
	if _, _, err := ReadFrame(bytes.NewReader(raw[:HeaderSize+3])); !errors.Is(err, ErrIncompleteFrame) {
		t.Fatalf("partial payload read = %v, want ErrIncompleteFrame", err)
	}
}

func TestEdgeRecordRoundTrip(t *testing.T) {
	want := core.HebbianEdge{A: 10, B: 22, Weight: 0.73125, CoActivations: 9, CreatedTick: 100, LastActivatedTick: 230}
	got, err := DecodeEdge(EncodeEdge(want))
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("edge round trip = %+v, want %+v", got, want)
	}
}
