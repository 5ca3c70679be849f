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
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pagedio/pagedio/paged"
	"github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"
)

// File reads a container back as an io.ReadSeeker over its logical bytes.
// Seeks resolve through the page index, so landing anywhere in the stream
// decodes at most one page. A File is single-threaded, like the paged reader
// underneath it.
type File struct {
	data   *os.File
	reader *paged.Reader
	index  []indexEntry // all entries including the terminal one

	pos  uint64 // current logical position
	size uint64 // total logical bytes in the container

	meter metrics.Meter
	log   *logrus.Entry
}

// Open opens a container written by Writer. The config's codec and decrypter
// must match the ones it was created with.
func Open(base string, cfg Config) (*File, error) {
	blob, err := os.ReadFile(base + ".idx")
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 || len(blob)%indexEntrySize != 0 {
		return nil, fmt.Errorf("%w: index size %d", errBadIndex, len(blob))
	}
	index := make([]indexEntry, len(blob)/indexEntrySize)
	for i := range index {
		index[i].unmarshalBinary(blob[i*indexEntrySize:])
	}
	if index[0].logical != 0 || index[0].offset != 0 {
		return nil, fmt.Errorf("%w: first entry not at origin", errBadIndex)
	}
	for i := 1; i < len(index); i++ {
		if index[i].logical < index[i-1].logical || index[i].offset <= index[i-1].offset {
			return nil, fmt.Errorf("%w: entry %d not monotonic", errBadIndex, i)
		}
	}
	data, err := os.Open(base + ".dat")
	if err != nil {
		return nil, err
	}
	f := &File{
		data:   data,
		reader: paged.NewReader(paged.NewFileStream(data, cfg.BufferSize), cfg.Codec, cfg.Decrypter),
		index:  index,
		size:   index[len(index)-1].logical,
		meter:  meterOrNil(cfg.ReadMeter),
		log:    logrus.WithField("path", base),
	}
	f.log.WithFields(logrus.Fields{"pages": len(index) - 1, "bytes": f.size}).Debug("Opened page file")
	return f, nil
}

// Size reports the container's total logical bytes.
func (f *File) Size() uint64 {
	return f.size
}

// Read implements io.Reader over the logical stream.
func (f *File) Read(p []byte) (int, error) {
	if f.data == nil {
		return 0, errClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	data, err := f.reader.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		return 0, err
	}
	n := copy(p, data)
	// Hand back whatever did not fit, to be replayed by the next Read.
	if n < len(data) {
		if err := f.reader.BackUp(len(data) - n); err != nil {
			return n, err
		}
	}
	f.pos += uint64(n)
	f.meter.Mark(int64(n))
	return n, nil
}

// Seek implements io.Seeker over the logical stream. Seeking anywhere within
// the page currently buffered by the reader adjusts in place without
// touching the data file.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.data == nil {
		return 0, errClosed
	}
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = int64(f.pos) + offset
	case io.SeekEnd:
		target = int64(f.size) + offset
	default:
		return 0, fmt.Errorf("invalid seek whence %d", whence)
	}
	if target < 0 || uint64(target) > f.size {
		return 0, fmt.Errorf("%w: seek to %d of %d logical bytes", errOutOfBounds, target, f.size)
	}
	// Find the last page starting at or before the target, excluding the
	// terminal entry.
	pages := f.index[:len(f.index)-1]
	if len(pages) == 0 {
		f.pos = 0
		return 0, nil
	}
	i := sort.Search(len(pages), func(i int) bool { return pages[i].logical > uint64(target) })
	if i == 0 {
		return 0, fmt.Errorf("%w: no page covers offset %d", errBadIndex, target)
	}
	entry := pages[i-1]
	pos := paged.Position{Offset: entry.offset, PageOffset: uint64(target) - entry.logical}
	if err := f.reader.SeekToPosition(pos.Provider()); err != nil {
		return 0, err
	}
	f.pos = uint64(target)
	return target, nil
}

// Close releases the underlying data file.
func (f *File) Close() error {
	if f.data == nil {
		return errClosed
	}
	err := f.data.Close()
	f.data = nil
	return err
}
