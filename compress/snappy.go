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

package compress

import "github.com/golang/snappy"

// Snappy is the snappy block-format codec. Snappy frames carry their decoded
// length, so DecompressedLength is always exact and skipped pages never need
// to be decompressed.
type Snappy struct{}

// DecompressedLength implements Decompressor.
func (Snappy) DecompressedLength(src []byte) (int, bool) {
	n, err := snappy.DecodedLen(src)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Decompress implements Decompressor.
func (Snappy) Decompress(dst, src []byte) ([]byte, error) {
	return snappy.Decode(dst, src)
}

// Compress implements Compressor.
func (Snappy) Compress(dst, src []byte) ([]byte, error) {
	return snappy.Encode(dst, src), nil
}
