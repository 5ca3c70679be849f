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

package pagefile

import "encoding/binary"

// indexEntry marks where a page starts: the data-file offset of its header
// and the logical offset of its first decoded byte. The index file is a flat
// sequence of these, closed by a terminal entry holding the physical and
// logical sizes of the whole container.
type indexEntry struct {
	offset  uint64 // data-file offset of the page header
	logical uint64 // logical offset of the page's first byte
}

const indexEntrySize = 16

// unmarshalBinary deserializes binary b into the index entry.
func (e *indexEntry) unmarshalBinary(b []byte) {
	e.offset = binary.BigEndian.Uint64(b[:8])
	e.logical = binary.BigEndian.Uint64(b[8:16])
}

// append adds the encoded entry to the end of b.
func (e *indexEntry) append(b []byte) []byte {
	offset := len(b)
	out := append(b, make([]byte, indexEntrySize)...)
	binary.BigEndian.PutUint64(out[offset:], e.offset)
	binary.BigEndian.PutUint64(out[offset+8:], e.logical)
	return out
}
