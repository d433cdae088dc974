/*
 * S370 - Checkpoint record stream
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package checkpoint

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pingcap/errors"
)

/* Checkpoint stream format:
 *
 * <stream> ::= *(<record>)
 * <record> ::= <tag:u32> <length:u32> <value:length bytes>
 *
 * All integers are big endian. Each subsystem owns a tag prefix and
 * stops reading at the first tag outside of it.
 */

const headerSize = 8

var (
	ErrTruncated    = errors.New("checkpoint record truncated")
	ErrRecordLength = errors.New("checkpoint record has wrong length")
)

// One tagged value.
type Record struct {
	Tag   uint32
	Value []byte
}

// Return value as 64 bit number.
func (r Record) Uint64() (uint64, error) {
	if len(r.Value) != 8 {
		return 0, errors.Annotatef(ErrRecordLength, "tag %08x length %d", r.Tag, len(r.Value))
	}
	return binary.BigEndian.Uint64(r.Value), nil
}

// Return value as text.
func (r Record) String() string {
	return string(r.Value)
}

// Record writer. The first error is kept and later writes are dropped.
type Writer struct {
	w   io.Writer
	err error
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write one record.
func (w *Writer) Put(tag uint32, value []byte) {
	if w.err != nil {
		return
	}
	var hdr [headerSize]byte
	binary.BigEndian.PutUint32(hdr[0:], tag)
	binary.BigEndian.PutUint32(hdr[4:], uint32(len(value)))
	if _, err := w.w.Write(hdr[:]); err != nil {
		w.err = errors.Trace(err)
		return
	}
	if _, err := w.w.Write(value); err != nil {
		w.err = errors.Trace(err)
	}
}

func (w *Writer) PutUint64(tag uint32, value uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], value)
	w.Put(tag, buf[:])
}

func (w *Writer) PutString(tag uint32, value string) {
	w.Put(tag, []byte(value))
}

// First error encountered while writing.
func (w *Writer) Err() error {
	return w.err
}

// Record reader.
type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return &Reader{r: br}
	}
	return &Reader{r: bufio.NewReader(r)}
}

// Return tag of next record without consuming it. Returns io.EOF at
// a clean end of stream.
func (r *Reader) PeekTag() (uint32, error) {
	hdr, err := r.r.Peek(4)
	if err != nil {
		if errors.Cause(err) == io.EOF && len(hdr) == 0 {
			return 0, io.EOF
		}
		return 0, errors.Trace(ErrTruncated)
	}
	return binary.BigEndian.Uint32(hdr), nil
}

// Read next record.
func (r *Reader) Next() (Record, error) {
	var hdr [headerSize]byte
	n, err := io.ReadFull(r.r, hdr[:])
	if err != nil {
		if n == 0 && errors.Cause(err) == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, errors.Trace(ErrTruncated)
	}
	rec := Record{Tag: binary.BigEndian.Uint32(hdr[0:])}
	size := binary.BigEndian.Uint32(hdr[4:])
	rec.Value = make([]byte, size)
	if _, err := io.ReadFull(r.r, rec.Value); err != nil {
		return Record{}, errors.Annotatef(ErrTruncated, "tag %08x", rec.Tag)
	}
	return rec, nil
}
