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

// Package paged implements a pull-based input stream over a self-framed
// sequence of pages, each independently stored verbatim or compressed, and
// optionally encrypted. The reader supports backing up bytes it just
// returned, lazy forward skipping and random-access repositioning through
// opaque position bookmarks, while reusing its scratch buffers across pages.
package paged

import "fmt"

// InputStream is a pull source of physical byte windows. Windows returned by
// Next alias memory owned by the stream and stay valid only until the next
// call into it.
type InputStream interface {
	// Next returns the next physical window, or io.EOF once the stream is
	// cleanly exhausted. The window may be arbitrarily short but never empty.
	Next() ([]byte, error)

	// BackUp rewinds the stream by count bytes of the window most recently
	// returned by Next, so that a following Next redelivers them.
	BackUp(count int) error

	// SeekToPosition repositions the stream, consuming as many bookmark
	// values from the provider as the stream's layering requires.
	SeekToPosition(provider *PositionProvider) error

	// ByteCount reports the stream offset just past the most recently
	// returned window, i.e. the position the next window starts at.
	ByteCount() uint64
}

// A Position bookmarks a logical location inside a paged stream. Offset is
// the physical offset of the header of the page holding the target byte and
// PageOffset the logical offset of that byte within the decoded page.
type Position struct {
	Offset     uint64
	PageOffset uint64
}

// Provider wraps the position into the bookmark sequence form consumed by
// InputStream.SeekToPosition.
func (p Position) Provider() *PositionProvider {
	return NewPositionProvider([]uint64{p.Offset, p.PageOffset})
}

// PositionProvider hands out the values of a bookmark sequence one at a time.
// Nested stream layers each consume the values describing their own level:
// a paged reader takes two, a raw byte source takes one.
type PositionProvider struct {
	positions []uint64
	next      int
}

// NewPositionProvider returns a provider over the given bookmark values.
func NewPositionProvider(positions []uint64) *PositionProvider {
	return &PositionProvider{positions: positions}
}

// Next consumes and returns the next bookmark value. Consuming past the end
// of the sequence is a programming error and panics.
func (p *PositionProvider) Next() uint64 {
	if p.next >= len(p.positions) {
		panic(fmt.Sprintf("position provider exhausted after %d values", p.next))
	}
	v := p.positions[p.next]
	p.next++
	return v
}
