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

// Package compress defines the block compression collaborators of the paged
// stream codec and provides snappy and zstd implementations.
package compress

import "fmt"

// Decompressor decodes whole compressed page payloads.
type Decompressor interface {
	// DecompressedLength reports the decoded size of src. If the size cannot
	// be determined from src alone, it returns a sizing hint and exact=false.
	DecompressedLength(src []byte) (n int, exact bool)

	// Decompress decodes src, using dst as the destination if it is large
	// enough, and returns the decoded bytes.
	Decompress(dst, src []byte) ([]byte, error)
}

// Compressor encodes whole page payloads.
type Compressor interface {
	// Compress encodes src, using dst as the destination if it is large
	// enough, and returns the encoded bytes.
	Compress(dst, src []byte) ([]byte, error)
}

// Codec is a matching compressor/decompressor pair.
type Codec interface {
	Compressor
	Decompressor
}

// ByName returns the codec registered under the given name, or nil for the
// empty string and "none".
func ByName(name string) (Codec, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "snappy":
		return Snappy{}, nil
	case "zstd":
		return NewZstd()
	default:
		return nil, fmt.Errorf("unknown compression codec %q", name)
	}
}
