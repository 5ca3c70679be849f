// Copyright 2025 The pagedio Authors
// This file is part of the pagedio library.
//
// The pagedio library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The pagedio library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the pagedio library. If not, see <http://www.gnu.org/licenses/>.

package paged

import (
	"fmt"
	"io"

	"github.com/pagedio/pagedio/compress"
	"github.com/pagedio/pagedio/crypt"
)

const (
	// DefaultPageSize is the page payload size used when none is given.
	DefaultPageSize = 64 * 1024

	// maxWritePageSize keeps even an incompressible, encrypted payload well
	// inside the 23-bit header length field.
	maxWritePageSize = 4 * 1024 * 1024
)

// Writer encodes a paged stream: logical bytes accumulate into fixed-size
// pages, each emitted as a 3-byte little-endian header followed by the
// payload. Pages are compressed when the codec actually shrinks them and
// kept verbatim otherwise, then optionally encrypted.
type Writer struct {
	w          io.Writer
	compressor compress.Compressor
	encrypter  crypt.Encrypter

	pageSize int
	buf      []byte // pending logical bytes of the open page
	cbuf     []byte // compression scratch, grows only
	offset   uint64 // physical bytes emitted so far
}

// NewWriter returns a paged stream writer on top of w. pageSize <= 0 selects
// DefaultPageSize. A nil compressor stores every page verbatim; a nil
// encrypter leaves pages in the clear.
func NewWriter(w io.Writer, pageSize int, compressor compress.Compressor, encrypter crypt.Encrypter) (*Writer, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > maxWritePageSize {
		return nil, fmt.Errorf("page size %d exceeds the maximum of %d", pageSize, maxWritePageSize)
	}
	return &Writer{
		w:          w,
		compressor: compressor,
		encrypter:  encrypter,
		pageSize:   pageSize,
		buf:        make([]byte, 0, pageSize),
	}, nil
}

// Write implements io.Writer, flushing a page whenever one fills up.
func (w *Writer) Write(p []byte) (int, error) {
	var total int
	for len(p) > 0 {
		n := w.pageSize - len(w.buf)
		if n > len(p) {
			n = len(p)
		}
		w.buf = append(w.buf, p[:n]...)
		total += n
		p = p[n:]
		if len(w.buf) == w.pageSize {
			if err := w.Flush(); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// Flush emits the pending partial page, if any. Further writes start a new
// page, so flushing mid-stream trades density for an addressable boundary.
func (w *Writer) Flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	payload, verbatim := w.buf, true
	if w.compressor != nil {
		out, err := w.compressor.Compress(w.cbuf[:cap(w.cbuf)], w.buf)
		if err != nil {
			return err
		}
		w.cbuf = out
		if len(out) < len(w.buf) {
			payload, verbatim = out, false
		}
	}
	if w.encrypter != nil {
		sealed, err := w.encrypter.Encrypt(payload)
		if err != nil {
			return err
		}
		payload = sealed
	}
	if len(payload) > MaxPageLength {
		return fmt.Errorf("page payload of %d bytes exceeds the %d byte framing limit", len(payload), MaxPageLength)
	}
	header := uint32(len(payload)) << 1
	if verbatim {
		header |= 1
	}
	if _, err := w.w.Write([]byte{byte(header), byte(header >> 8), byte(header >> 16)}); err != nil {
		return err
	}
	if _, err := w.w.Write(payload); err != nil {
		return err
	}
	w.offset += uint64(headerSize + len(payload))
	w.buf = w.buf[:0]
	return nil
}

// Position reports the bookmark of the writer's current logical position: the
// physical offset the open page's header will land at, and the number of
// logical bytes already pending inside that page. Feeding it back to
// Reader.SeekToPosition after the stream is written lands on the same byte.
func (w *Writer) Position() Position {
	return Position{Offset: w.offset, PageOffset: uint64(len(w.buf))}
}
