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

import "github.com/klauspost/compress/zstd"

// Zstd is the zstandard codec. Frames produced by Compress carry their
// content size, so round trips through this codec report exact decoded
// lengths; foreign frames without one fall back to an inexact hint.
type Zstd struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstd returns a Zstd codec with default encoder settings.
func NewZstd() (*Zstd, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return &Zstd{enc: enc, dec: dec}, nil
}

// maxFrameContentSize caps the content size a frame header may claim. No
// page decodes to more than the write-side page limit, so larger claims are
// hostile frames; trusting them would overflow int on 32-bit builds.
const maxFrameContentSize = 1 << 23

// DecompressedLength implements Decompressor.
func (z *Zstd) DecompressedLength(src []byte) (int, bool) {
	var h zstd.Header
	if err := h.Decode(src); err != nil {
		return 0, false
	}
	if h.HasFCS && h.FrameContentSize <= maxFrameContentSize {
		return int(h.FrameContentSize), true
	}
	// No trustworthy content size in the frame header: guess generously,
	// the decoder grows the buffer as needed anyway.
	return 4 * len(src), false
}

// Decompress implements Decompressor.
func (z *Zstd) Decompress(dst, src []byte) ([]byte, error) {
	return z.dec.DecodeAll(src, dst[:0])
}

// Compress implements Compressor.
func (z *Zstd) Compress(dst, src []byte) ([]byte, error) {
	return z.enc.EncodeAll(src, dst[:0]), nil
}
