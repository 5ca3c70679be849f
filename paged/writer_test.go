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
	"bytes"
	"math/rand"
	"testing"

	"github.com/pagedio/pagedio/compress"
	"github.com/stretchr/testify/require"
)

func TestWriterFraming(t *testing.T) {
	t.Parallel()
	var encoded bytes.Buffer
	w, err := NewWriter(&encoded, 16, nil, nil)
	require.NoError(t, err)

	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)
	require.Zero(t, encoded.Len()) // page not full, nothing emitted yet
	require.NoError(t, w.Flush())

	require.Equal(t, []byte{0x07, 0x00, 0x00, 'a', 'b', 'c'}, encoded.Bytes())
}

// TestWriterIncompressibleFallback checks that a page the codec cannot
// shrink is stored verbatim, header bit 0 set.
func TestWriterIncompressibleFallback(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(42))
	noise := make([]byte, 100)
	rng.Read(noise)

	var encoded bytes.Buffer
	w, err := NewWriter(&encoded, 100, compress.Snappy{}, nil)
	require.NoError(t, err)
	_, err = w.Write(noise)
	require.NoError(t, err)

	require.Equal(t, byte(1), encoded.Bytes()[0]&1, "random page should fall back to verbatim")
	require.Equal(t, noise, encoded.Bytes()[3:])

	// A compressible page keeps the flag clear.
	encoded.Reset()
	w, err = NewWriter(&encoded, 100, compress.Snappy{}, nil)
	require.NoError(t, err)
	_, err = w.Write(getChunk(100, 0xAA))
	require.NoError(t, err)
	require.Equal(t, byte(0), encoded.Bytes()[0]&1)
}

func TestWriterPosition(t *testing.T) {
	t.Parallel()
	var encoded bytes.Buffer
	w, err := NewWriter(&encoded, 8, nil, nil)
	require.NoError(t, err)

	require.Equal(t, Position{}, w.Position())
	_, err = w.Write([]byte("abcde"))
	require.NoError(t, err)
	require.Equal(t, Position{Offset: 0, PageOffset: 5}, w.Position())

	// Crossing the page boundary flushes an 8-byte page (3-byte header + 8).
	_, err = w.Write([]byte("fghij"))
	require.NoError(t, err)
	require.Equal(t, Position{Offset: 11, PageOffset: 2}, w.Position())

	require.NoError(t, w.Flush())
	require.Equal(t, Position{Offset: 16, PageOffset: 0}, w.Position())
}

func TestWriterFlushBoundaries(t *testing.T) {
	t.Parallel()
	// Flushing mid-page creates an addressable boundary without corrupting
	// the stream.
	var encoded bytes.Buffer
	w, err := NewWriter(&encoded, 100, nil, nil)
	require.NoError(t, err)
	for _, part := range []string{"hello ", "paged ", "world"} {
		_, err = w.Write([]byte(part))
		require.NoError(t, err)
		require.NoError(t, w.Flush())
	}
	require.NoError(t, w.Flush()) // empty flush is a no-op

	r := NewReader(NewBytesStream(encoded.Bytes(), 0), nil, nil)
	require.Equal(t, []byte("hello paged world"), readAll(t, r))
}
