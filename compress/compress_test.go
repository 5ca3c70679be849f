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

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func testPayload() []byte {
	var buf bytes.Buffer
	for i := 0; i < 100; i++ {
		buf.WriteString("the quick brown fox jumps over the lazy dog ")
	}
	return buf.Bytes()
}

func TestCodecRoundTrip(t *testing.T) {
	t.Parallel()
	zstd, err := NewZstd()
	require.NoError(t, err)

	for name, codec := range map[string]Codec{"snappy": Snappy{}, "zstd": zstd} {
		payload := testPayload()
		enc, err := codec.Compress(nil, payload)
		require.NoError(t, err, name)
		require.Less(t, len(enc), len(payload), name)

		n, exact := codec.DecompressedLength(enc)
		require.True(t, exact, name)
		require.Equal(t, len(payload), n, name)

		dec, err := codec.Decompress(make([]byte, n), enc)
		require.NoError(t, err, name)
		require.Equal(t, payload, dec, name)
	}
}

func TestDecompressedLengthGarbage(t *testing.T) {
	t.Parallel()
	zstd, err := NewZstd()
	require.NoError(t, err)

	for name, d := range map[string]Decompressor{"snappy": Snappy{}, "zstd": zstd} {
		_, exact := d.DecompressedLength([]byte{0xff})
		require.False(t, exact, name)
	}
}

// TestZstdHostileContentSize feeds a syntactically valid frame header
// claiming an absurd content size; the length must not be trusted.
func TestZstdHostileContentSize(t *testing.T) {
	t.Parallel()
	zstd, err := NewZstd()
	require.NoError(t, err)

	// Magic, descriptor selecting an 8-byte content size field, window
	// descriptor, the claimed size, and an empty last raw block.
	frame := []byte{0x28, 0xb5, 0x2f, 0xfd, 0xc0, 0x00}
	frame = append(frame, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f)
	frame = append(frame, 0x01, 0x00, 0x00)

	n, exact := zstd.DecompressedLength(frame)
	require.False(t, exact)
	require.LessOrEqual(t, n, 4*len(frame))
}

func TestDecompressReusesBuffer(t *testing.T) {
	t.Parallel()
	payload := testPayload()
	enc, err := Snappy{}.Compress(nil, payload)
	require.NoError(t, err)

	dst := make([]byte, len(payload)+100)
	dec, err := Snappy{}.Decompress(dst, enc)
	require.NoError(t, err)
	require.Equal(t, payload, dec)
	require.Equal(t, &dst[0], &dec[0], "should decode into the provided buffer")
}

func TestByName(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"", "none"} {
		codec, err := ByName(name)
		require.NoError(t, err)
		require.Nil(t, codec)
	}
	for _, name := range []string{"snappy", "zstd"} {
		codec, err := ByName(name)
		require.NoError(t, err)
		require.NotNil(t, codec)
	}
	_, err := ByName("lzma")
	require.Error(t, err)
}
