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
)

// BytesStream is an in-memory InputStream over a byte slice. A non-zero
// chunk size caps how many bytes each Next returns, which is mostly useful
// for exercising consumers against fragmented sources.
type BytesStream struct {
	data  []byte
	pos   int
	chunk int
}

var _ InputStream = (*BytesStream)(nil)

// NewBytesStream returns a stream over data, delivering at most chunk bytes
// per Next call. chunk <= 0 delivers everything at once.
func NewBytesStream(data []byte, chunk int) *BytesStream {
	return &BytesStream{data: data, chunk: chunk}
}

// Next implements InputStream.
func (s *BytesStream) Next() ([]byte, error) {
	if s.pos >= len(s.data) {
		return nil, io.EOF
	}
	n := len(s.data) - s.pos
	if s.chunk > 0 && n > s.chunk {
		n = s.chunk
	}
	window := s.data[s.pos : s.pos+n]
	s.pos += n
	return window, nil
}

// BackUp implements InputStream.
func (s *BytesStream) BackUp(count int) error {
	if count < 0 || count > s.pos {
		return fmt.Errorf("%w: cannot back up %d of %d delivered bytes", ErrPrecondition, count, s.pos)
	}
	s.pos -= count
	return nil
}

// SeekToPosition implements InputStream, consuming one absolute offset.
func (s *BytesStream) SeekToPosition(provider *PositionProvider) error {
	offset := provider.Next()
	if offset > uint64(len(s.data)) {
		return fmt.Errorf("%w: seek to %d past stream end %d", ErrPrecondition, offset, len(s.data))
	}
	s.pos = int(offset)
	return nil
}

// ByteCount implements InputStream.
func (s *BytesStream) ByteCount() uint64 {
	return uint64(s.pos)
}
