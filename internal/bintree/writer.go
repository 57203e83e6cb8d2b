package bintree

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// nodeBuf accumulates one node's already-escaped payload bytes plus the
// node type that will prefix it when the node closes.
type nodeBuf struct {
	nodeType byte
	buf      bytes.Buffer
}

// Writer writes an escaped binary tree. Node bodies are buffered in memory
// (mirroring Reader's substream isolation) and only flushed to the
// underlying sink when their closing marker is written, so a node never
// partially escapes into its parent.
type Writer struct {
	out   io.Writer
	stack []*nodeBuf
}

// NewWriter wraps an arbitrary io.Writer, e.g. a temp file created by the
// atomic-write path in internal/otb, or a bytes.Buffer in tests.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// CreateFile opens path for writing (truncating any existing content) and
// returns a Writer plus the underlying *os.File so callers can fsync/rename
// it as part of an atomic commit.
func CreateFile(path string) (*Writer, *os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create binary tree %s: %w", path, err)
	}
	return NewWriter(f), f, nil
}

func (w *Writer) sink() io.Writer {
	if n := len(w.stack); n > 0 {
		return &w.stack[n-1].buf
	}
	return w.out
}

// writeRaw writes bytes with no escaping applied — used only for the
// structural bytes of node markers and for file-level writes that occur
// before any node is open (e.g. the OTB signature).
func (w *Writer) writeRaw(b []byte) error {
	_, err := w.sink().Write(b)
	return err
}

// writeData escapes b against the three sentinel bytes before writing.
// Used for every value written while at least one node is open; at file
// level (no node open) sentinel bytes cannot occur in well-formed input, so
// plain writeRaw is used instead.
func (w *Writer) writeData(b []byte) error {
	if len(w.stack) == 0 {
		return w.writeRaw(b)
	}
	return w.writeRaw(Escape(b))
}

// WriteNodeStart opens a new node of the given type.
func (w *Writer) WriteNodeStart(nodeType byte) {
	w.stack = append(w.stack, &nodeBuf{nodeType: nodeType})
}

// WriteNodeEnd closes the innermost open node, framing its buffered payload
// as 0xFE <type> payload 0xFF and flushing that frame into whatever sink is
// now current (the parent node, or the underlying writer at depth zero).
func (w *Writer) WriteNodeEnd() error {
	if len(w.stack) == 0 {
		return newErr(KindInvalidNodeStructure, "write_node_end called with no node open")
	}
	top := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]

	if err := w.writeRaw([]byte{NodeStart, top.nodeType}); err != nil {
		return err
	}
	if err := w.writeRaw(top.buf.Bytes()); err != nil {
		return err
	}
	return w.writeRaw([]byte{NodeEnd})
}

// WriteBytes writes raw bytes, escape-coded if a node is currently open.
func (w *Writer) WriteBytes(b []byte) error {
	return w.writeData(b)
}

// WriteByte writes a single byte.
func (w *Writer) WriteByte(b byte) error {
	return w.writeData([]byte{b})
}

// WriteUint16 writes a little-endian u16.
func (w *Writer) WriteUint16(v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return w.writeData(b[:])
}

// WriteUint32 writes a little-endian u32.
func (w *Writer) WriteUint32(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return w.writeData(b[:])
}

// WriteUint64 writes a little-endian u64.
func (w *Writer) WriteUint64(v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return w.writeData(b[:])
}

// WriteString writes s's bytes, optionally prefixed with a u16 length.
func (w *Writer) WriteString(s string, withLengthPrefix bool) error {
	if withLengthPrefix {
		if err := w.WriteUint16(uint16(len(s))); err != nil {
			return err
		}
	}
	return w.writeData([]byte(s))
}

// WriteProp writes one <attr><len:u16><data> record, escape-coding every
// byte of data (and the attr/len header, since it too lives inside a node).
func (w *Writer) WriteProp(attr byte, data []byte) error {
	if err := w.WriteByte(attr); err != nil {
		return err
	}
	if err := w.WriteUint16(uint16(len(data))); err != nil {
		return err
	}
	return w.WriteBytes(data)
}
