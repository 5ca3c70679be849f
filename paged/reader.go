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
	"errors"
	"fmt"
	"io"

	"github.com/pagedio/pagedio/compress"
	"github.com/pagedio/pagedio/crypt"
)

const (
	// headerSize is the length of the framing header preceding every page.
	headerSize = 3

	// MaxPageLength is the largest payload length the 23-bit header field
	// can describe.
	MaxPageLength = 1<<23 - 1
)

// streamState tracks where the reader is within the page framing.
type streamState int

const (
	stateHeader   streamState = iota // the next page header still needs parsing
	stateOriginal                    // current page is stored verbatim
	stateStart                       // current page is compressed, not yet decoded
	stateEnd                         // upstream cleanly exhausted
)

// Reader decodes a paged stream pulled from an upstream InputStream. Pages
// stored verbatim are returned as views straight into the upstream window
// whenever possible; compressed or encrypted pages are assembled into owned
// scratch buffers, decoded whole and returned from there.
//
// A Reader is stateful and single-threaded. Slices returned by Next alias
// reader-owned memory and are only valid until the next call into the reader.
// The Reader itself implements InputStream, so paged streams stack.
type Reader struct {
	input        InputStream
	decompressor compress.Decompressor
	decrypter    crypt.Decrypter

	state     streamState
	remaining int // payload bytes of the current page not yet consumed

	// Current physical window from the upstream source. window[pos:] is the
	// unconsumed tail; the window start bounds how far BackUp may rewind on
	// verbatim pages.
	window []byte
	pos    int

	assembly   []byte // scratch for pages fragmented across physical windows
	decoded    []byte // scratch for decompressed output, grows only
	decryptBuf []byte // plaintext owned until the next dispatch, then released

	// The most recently produced output window, kept for BackUp replay. out
	// aliases window, decoded or decryptBuf; out[outPos:outPos+outLen] is the
	// range backed up and not yet reclaimed.
	out    []byte
	outPos int
	outLen int

	pendingSkip   int64  // logical bytes to discard before the next real read
	bytesReturned uint64 // cumulative logical bytes delivered

	lastHeaderOffset uint64 // physical offset of the last parsed page header
	returnedAtHeader uint64 // bytesReturned snapshot at that parse
	lastWindowSize   int    // size of the last produced output window
}

// Reader is itself a paged layer over its source, so streams stack.
var _ InputStream = (*Reader)(nil)

// NewReader returns a reader decoding the paged stream supplied by input.
// A nil decompressor restricts the stream to verbatim pages; a nil decrypter
// means pages are not encrypted.
func NewReader(input InputStream, decompressor compress.Decompressor, decrypter crypt.Decrypter) *Reader {
	return &Reader{
		input:        input,
		decompressor: decompressor,
		decrypter:    decrypter,
	}
}

// Next returns the next window of decoded bytes, draining any pending skip
// first. It returns io.EOF once the stream is cleanly exhausted. The returned
// slice is valid only until the next call into the reader.
func (r *Reader) Next() ([]byte, error) {
	if err := r.skipAllPending(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: read demanded with %d bytes of skip past end of stream", ErrPrecondition, r.pendingSkip)
		}
		return nil, err
	}
	data, _, err := r.readOrSkip(true)
	return data, err
}

// readChunk pulls the next physical window from the upstream source. A clean
// end of input transitions to stateEnd if permitted, and is a hard error
// otherwise.
func (r *Reader) readChunk(failOnEOF bool) error {
	data, err := r.input.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			if failOnEOF {
				return fmt.Errorf("%w: read past EOF", ErrUnexpectedEOF)
			}
			r.state = stateEnd
			r.window = nil
			r.pos = 0
			return nil
		}
		return err
	}
	r.window = data
	r.pos = 0
	return nil
}

// readByte consumes one byte, transparently refilling the physical window.
func (r *Reader) readByte(failOnEOF bool) (byte, error) {
	if r.pos == len(r.window) {
		if err := r.readChunk(failOnEOF); err != nil {
			return 0, err
		}
		if r.state == stateEnd {
			return 0, nil
		}
	}
	b := r.window[r.pos]
	r.pos++
	return b, nil
}

// readHeader parses the next 3-byte little-endian page header: bit 0 flags a
// verbatim page, the remaining 23 bits carry the payload length. Failing to
// read the first byte is a clean end of stream; failing after that is not.
func (r *Reader) readHeader() error {
	b0, err := r.readByte(false)
	if err != nil {
		return err
	}
	// Offset of the header byte just read: the window may extend past it, so
	// discount whatever the source has delivered but we have not consumed.
	r.lastHeaderOffset = r.input.ByteCount() - uint64(len(r.window)-r.pos) - 1
	r.returnedAtHeader = r.bytesReturned

	if r.state == stateEnd {
		r.remaining = 0
		return nil
	}
	b1, err := r.readByte(true)
	if err != nil {
		return err
	}
	b2, err := r.readByte(true)
	if err != nil {
		return err
	}
	header := uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16
	if header&1 != 0 {
		r.state = stateOriginal
	} else {
		r.state = stateStart
	}
	r.remaining = int(header >> 1)
	return nil
}

// ensureContiguous returns a contiguous view of the current page's remaining
// payload, given that avail bytes of it sit in the current physical window.
// If the window already holds the whole remainder this is zero-copy;
// otherwise successive windows are copied into the owned assembly buffer.
func (r *Reader) ensureContiguous(avail int) ([]byte, error) {
	if r.remaining <= avail {
		data := r.window[r.pos : r.pos+avail]
		r.pos += avail
		return data, nil
	}
	if cap(r.assembly) < r.remaining {
		r.assembly = make([]byte, r.remaining)
	}
	r.assembly = r.assembly[:r.remaining]

	n := copy(r.assembly, r.window[r.pos:r.pos+avail])
	r.pos += avail
	for n < r.remaining {
		if err := r.readChunk(true); err != nil {
			return nil, err
		}
		take := len(r.window)
		if take > r.remaining-n {
			take = r.remaining - n
		}
		copy(r.assembly[n:], r.window[:take])
		r.pos = take
		n += take
	}
	return r.assembly, nil
}

// readOrSkip is the single engine behind both reads and skips: a skip is a
// read whose bytes nobody asked for. It returns the produced window, its
// size, and io.EOF on clean exhaustion. With wantData false the window may be
// nil even though the size is reported, when a compressed page could be
// skipped without decompressing it.
func (r *Reader) readOrSkip(wantData bool) ([]byte, int, error) {
	// If the consumer pushed output back, replay it before touching any
	// page state. A replay does not count towards lastWindowSize.
	if r.outLen > 0 {
		data := r.out[r.outPos : r.outPos+r.outLen]
		n := r.outLen
		r.outPos += n
		r.outLen = 0
		r.bytesReturned += uint64(n)
		return data, n, nil
	}

	// Release the previous decryption buffer.
	r.decryptBuf = nil

	if r.state == stateHeader || r.remaining == 0 {
		if err := r.readHeader(); err != nil {
			return nil, 0, err
		}
	}
	if r.state == stateEnd {
		return nil, 0, io.EOF
	}
	if r.pos == len(r.window) {
		if err := r.readChunk(true); err != nil {
			return nil, 0, err
		}
	}
	avail := len(r.window) - r.pos
	if avail > r.remaining {
		avail = r.remaining
	}

	// Verbatim pages with no decryption are served straight out of the
	// physical window. Everything else needs the whole page contiguous
	// before it can be decoded.
	original := r.decrypter == nil && r.state == stateOriginal

	var (
		data  []byte
		n     int
		input []byte
	)
	if original {
		data = r.window[r.pos : r.pos+avail]
		n = avail
		r.pos += avail
		r.out = r.window
		r.outPos = r.pos
		r.remaining -= avail
	} else {
		var err error
		if input, err = r.ensureContiguous(avail); err != nil {
			return nil, 0, err
		}
	}

	if r.decrypter != nil {
		plain, err := r.decrypter.Decrypt(input)
		if err != nil {
			return nil, 0, err
		}
		r.decryptBuf = plain
		input = plain
		r.remaining = len(plain)
		data = plain
		n = len(plain)
		r.out = plain
		r.outPos = len(plain)
	}

	if r.state == stateStart {
		if r.decompressor == nil {
			return nil, 0, fmt.Errorf("%w: compressed page with no decompressor configured", ErrInvalidState)
		}
		length, exact := r.decompressor.DecompressedLength(input)
		if !wantData && exact && int64(length) <= r.pendingSkip {
			// The whole page is being skipped anyway: report its size
			// without materializing a single byte.
			n = length
			data = nil
			r.out = nil
			r.outPos = 0
		} else {
			if cap(r.decoded) < length {
				r.decoded = make([]byte, length)
			}
			out, err := r.decompressor.Decompress(r.decoded[:cap(r.decoded)], input)
			if err != nil {
				return nil, 0, err
			}
			r.decoded = out
			data = out
			n = len(out)
			r.out = out
			r.outPos = n
		}
		r.decryptBuf = nil
	}

	// Non-verbatim pages are always consumed whole; none straddle calls.
	if !original {
		r.remaining = 0
		r.state = stateHeader
	}
	r.outLen = 0
	r.bytesReturned += uint64(n)
	r.lastWindowSize = n
	if !wantData {
		data = nil
	}
	return data, n, nil
}

// BackUp returns count bytes of the most recently produced output to the
// reader, so the next read redelivers them without re-fetching or decoding.
// Pending skip is absorbed first. On verbatim pages the rewind cannot cross
// the start of the current physical window, since earlier windows are gone.
func (r *Reader) BackUp(count int) error {
	if count < 0 {
		return fmt.Errorf("%w: negative backup count %d", ErrPrecondition, count)
	}
	if r.pendingSkip > 0 {
		n := int64(count)
		if n > r.pendingSkip {
			n = r.pendingSkip
		}
		r.pendingSkip -= n
		count -= int(n)
		if count == 0 {
			return nil
		}
	}
	if r.out == nil {
		return fmt.Errorf("%w: backup without a previous read", ErrPrecondition)
	}
	// The rewind is bounded by the last produced window: outPos keeps the
	// replay slice in range, and the window size caps the cumulative total.
	// On verbatim pages outPos is the raw input cursor, which also covers
	// the page header, so the size check is the binding one there.
	if count > r.outPos || count+r.outLen > r.lastWindowSize {
		return fmt.Errorf("%w: backup of %d bytes exceeds produced output", ErrPrecondition, count)
	}
	if r.state == stateOriginal {
		// The output window aliases the physical input buffer, so the rewind
		// is bounded by how far the cursor advanced into it.
		if count > r.pos {
			return fmt.Errorf("%w: backup of %d bytes crosses a window boundary", ErrPrecondition, count)
		}
	}
	r.outPos -= count
	r.outLen += count
	r.bytesReturned -= uint64(count)
	return nil
}

// Skip arranges for count logical bytes to be discarded. No I/O happens until
// data is actually demanded, so pages that a later seek would discard anyway
// are never decoded.
func (r *Reader) Skip(count int64) error {
	if count < 0 {
		return fmt.Errorf("%w: negative skip count %d", ErrPrecondition, count)
	}
	r.pendingSkip += count
	return nil
}

// skipAllPending materializes the accumulated skip through the dispatcher,
// backing up any overshoot past the requested amount. It returns io.EOF if
// the stream ends with skip still pending.
func (r *Reader) skipAllPending() error {
	for r.pendingSkip > 0 {
		_, n, err := r.readOrSkip(false)
		if err != nil {
			return err
		}
		if int64(n) > r.pendingSkip {
			over := int64(n) - r.pendingSkip
			r.pendingSkip = 0
			if err := r.BackUp(int(over)); err != nil {
				return err
			}
		} else {
			r.pendingSkip -= int64(n)
		}
	}
	return nil
}

// clearState resets all decode state ahead of an upstream re-seek.
func (r *Reader) clearState() {
	r.state = stateHeader
	r.outLen = 0
	r.remaining = 0
	r.window = nil
	r.pos = 0
}

// SeekToPosition repositions the reader at the bookmark pair consumed from
// the provider: the physical offset of a page header, then the logical
// offset within that page's decoded bytes. If the target lies within the
// current page and, for verbatim pages, within the currently buffered
// window, the reader adjusts in place; otherwise the upstream source is
// re-seeked and the decode state reset.
func (r *Reader) SeekToPosition(provider *PositionProvider) error {
	var (
		compressedOffset   = provider.Next()
		uncompressedOffset = provider.Next()
	)
	// Logical bytes of the current page conceptually consumed, counting the
	// skip not yet materialized.
	alreadyRead := r.bytesReturned - r.returnedAtHeader + uint64(r.pendingSkip)

	// When output windows alias the input buffer directly, we can only back
	// up to the later of the last window start and the last header. Seeking
	// below that must go through the source.
	outsideWindow := r.state == stateOriginal && compressedOffset == r.lastHeaderOffset &&
		uncompressedOffset < alreadyRead &&
		uint64(r.lastWindowSize) < alreadyRead-uncompressedOffset

	if compressedOffset != r.lastHeaderOffset || outsideWindow {
		if err := r.input.SeekToPosition(NewPositionProvider([]uint64{compressedOffset})); err != nil {
			return err
		}
		r.clearState()
		r.pendingSkip = int64(uncompressedOffset)
		return nil
	}
	if uncompressedOffset < alreadyRead {
		return r.BackUp(int(alreadyRead - uncompressedOffset))
	}
	r.pendingSkip += int64(uncompressedOffset - alreadyRead)
	return nil
}

// ByteCount reports the cumulative logical bytes delivered to the consumer.
func (r *Reader) ByteCount() uint64 {
	return r.bytesReturned
}
