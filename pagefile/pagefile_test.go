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

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pagedio/pagedio/compress"
	"github.com/pagedio/pagedio/crypt"
	"github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/require"
)

// getChunk returns a size-long byte slice filled with fill.
func getChunk(size int, fill byte) []byte {
	chunk := make([]byte, size)
	for i := range chunk {
		chunk[i] = fill
	}
	return chunk
}

// buildContainer writes 64 chunks of 100 patterned bytes and returns the
// base path plus the logical contents.
func buildContainer(t *testing.T, cfg Config) (string, []byte) {
	t.Helper()
	base := filepath.Join(t.TempDir(), "container")
	w, err := Create(base, cfg)
	require.NoError(t, err)

	var original []byte
	for i := 0; i < 64; i++ {
		chunk := getChunk(100, byte('0'+i%10))
		original = append(original, chunk...)
		_, err := w.Write(chunk)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return base, original
}

func TestContainerRoundTrip(t *testing.T) {
	t.Parallel()
	zstd, err := compress.NewZstd()
	require.NoError(t, err)

	for name, codec := range map[string]compress.Codec{"none": nil, "snappy": compress.Snappy{}, "zstd": zstd} {
		cfg := Config{PageSize: 256, Codec: codec}
		base, original := buildContainer(t, cfg)

		f, err := Open(base, cfg)
		require.NoError(t, err, name)
		require.Equal(t, uint64(len(original)), f.Size(), name)

		got, err := io.ReadAll(f)
		require.NoError(t, err, name)
		require.True(t, bytes.Equal(got, original), name)
		require.NoError(t, f.Close(), name)
	}
}

func TestContainerEncrypted(t *testing.T) {
	t.Parallel()
	key, err := crypt.Key("open sesame", []byte("salt"), crypt.LightScryptN, crypt.LightScryptP)
	require.NoError(t, err)
	cipher, err := crypt.NewCipher(key)
	require.NoError(t, err)

	cfg := Config{PageSize: 512, Codec: compress.Snappy{}, Encrypter: cipher, Decrypter: cipher}
	base, original := buildContainer(t, cfg)

	// The raw data file must not leak page plaintext.
	raw, err := os.ReadFile(base + ".dat")
	require.NoError(t, err)
	require.NotContains(t, string(raw), string(original[:100]))

	f, err := Open(base, cfg)
	require.NoError(t, err)
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	require.True(t, bytes.Equal(got, original))
	require.NoError(t, f.Close())
}

func TestContainerSeek(t *testing.T) {
	t.Parallel()
	cfg := Config{PageSize: 256, Codec: compress.Snappy{}, ReadMeter: metrics.NewMeter()}
	base, original := buildContainer(t, cfg)

	f, err := Open(base, cfg)
	require.NoError(t, err)
	defer f.Close()

	// Random access: tails must match a straight slice of the original.
	for _, target := range []int64{0, 1, 255, 256, 257, 3000, 6399, 6400, 100, 6000} {
		got, err := f.Seek(target, io.SeekStart)
		require.NoError(t, err)
		require.Equal(t, target, got)

		rest, err := io.ReadAll(f)
		require.NoError(t, err)
		require.True(t, bytes.Equal(rest, original[target:]), "seek to %d", target)
	}

	// Relative and end-anchored seeks.
	_, err = f.Seek(100, io.SeekStart)
	require.NoError(t, err)
	pos, err := f.Seek(50, io.SeekCurrent)
	require.NoError(t, err)
	require.Equal(t, int64(150), pos)

	pos, err = f.Seek(-400, io.SeekEnd)
	require.NoError(t, err)
	require.Equal(t, int64(len(original)-400), pos)
	rest, err := io.ReadAll(f)
	require.NoError(t, err)
	require.True(t, bytes.Equal(rest, original[len(original)-400:]))

	// Out of range.
	_, err = f.Seek(int64(len(original))+1, io.SeekStart)
	require.ErrorIs(t, err, errOutOfBounds)
	_, err = f.Seek(-1, io.SeekStart)
	require.ErrorIs(t, err, errOutOfBounds)
}

func TestContainerShortReads(t *testing.T) {
	t.Parallel()
	cfg := Config{PageSize: 128}
	base, original := buildContainer(t, cfg)

	f, err := Open(base, cfg)
	require.NoError(t, err)
	defer f.Close()

	// A tiny destination buffer forces the excess to be backed up and
	// replayed; the stream must still come out whole.
	var got []byte
	buf := make([]byte, 7)
	for {
		n, err := f.Read(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	require.True(t, bytes.Equal(got, original))
}

func TestContainerEmpty(t *testing.T) {
	t.Parallel()
	base := filepath.Join(t.TempDir(), "empty")
	w, err := Create(base, Config{})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f, err := Open(base, Config{})
	require.NoError(t, err)
	defer f.Close()
	require.Zero(t, f.Size())

	_, err = f.Read(make([]byte, 1))
	require.Equal(t, io.EOF, err)
	pos, err := f.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	require.Zero(t, pos)
}

func TestContainerClosed(t *testing.T) {
	t.Parallel()
	base, _ := buildContainer(t, Config{})
	w, err := Create(base, Config{})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	_, err = w.Write([]byte("late"))
	require.ErrorIs(t, err, errClosed)
	require.ErrorIs(t, w.Close(), errClosed)

	f, err := Open(base, Config{})
	require.NoError(t, err)
	require.NoError(t, f.Close())
	_, err = f.Read(make([]byte, 1))
	require.ErrorIs(t, err, errClosed)
	require.ErrorIs(t, f.Close(), errClosed)
}

func TestCorruptIndex(t *testing.T) {
	t.Parallel()
	base, _ := buildContainer(t, Config{})

	// Truncate the index to a partial entry.
	require.NoError(t, os.Truncate(base+".idx", indexEntrySize+3))
	_, err := Open(base, Config{})
	require.ErrorIs(t, err, errBadIndex)

	require.NoError(t, os.Truncate(base+".idx", 0))
	_, err = Open(base, Config{})
	require.ErrorIs(t, err, errBadIndex)
}
