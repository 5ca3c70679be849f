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
)

// defaultFileBuffer is the read buffer size used when none is given.
const defaultFileBuffer = 64 * 1024

// FileStream is an InputStream over an io.ReaderAt, typically an *os.File.
// It owns a single read buffer which every returned window aliases, so
// windows are invalidated by the next call, per the InputStream contract.
type FileStream struct {
	src io.ReaderAt
	buf []byte
	win int   // length of the window currently backed by buf
	off int64 // file offset just past that window
}

var _ InputStream = (*FileStream)(nil)

// NewFileStream returns a stream reading src in bufSize chunks from offset
// zero. bufSize <= 0 selects a default.
func NewFileStream(src io.ReaderAt, bufSize int) *FileStream {
	if bufSize <= 0 {
		bufSize = defaultFileBuffer
	}
	return &FileStream{src: src, buf: make([]byte, bufSize)}
}

// Next implements InputStream.
func (s *FileStream) Next() ([]byte, error) {
	n, err := s.src.ReadAt(s.buf, s.off)
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	// A short read at the file tail still delivers valid bytes.
	s.win = n
	s.off += int64(n)
	return s.buf[:n], nil
}

// BackUp implements InputStream. The bytes are re-read from the file on the
// next call.
func (s *FileStream) BackUp(count int) error {
	if count < 0 || count > s.win {
		return fmt.Errorf("%w: cannot back up %d of the last %d-byte window", ErrPrecondition, count, s.win)
	}
	s.off -= int64(count)
	s.win -= count
	return nil
}

// SeekToPosition implements InputStream, consuming one absolute offset.
func (s *FileStream) SeekToPosition(provider *PositionProvider) error {
	s.off = int64(provider.Next())
	s.win = 0
	return nil
}

// ByteCount implements InputStream.
func (s *FileStream) ByteCount() uint64 {
	return uint64(s.off)
}
