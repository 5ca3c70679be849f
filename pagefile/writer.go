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
	"os"

	"github.com/pagedio/pagedio/paged"
	"github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"
)

// Writer builds a container, streaming logical bytes into paged form and
// appending an index entry for every page boundary it crosses. Bytes are
// only guaranteed durable after Close.
type Writer struct {
	data  *os.File
	index *os.File
	pw    *paged.Writer

	pageSize int
	logical  uint64 // logical bytes accepted so far
	scratch  []byte // index entry encoding buffer

	meter  metrics.Meter
	log    *logrus.Entry
	closed bool
}

// Create creates the <base>.dat / <base>.idx pair, truncating previous
// contents, and returns a Writer streaming into it.
func Create(base string, cfg Config) (*Writer, error) {
	data, err := os.Create(base + ".dat")
	if err != nil {
		return nil, err
	}
	index, err := os.Create(base + ".idx")
	if err != nil {
		data.Close()
		return nil, err
	}
	pw, err := paged.NewWriter(data, cfg.PageSize, cfg.Codec, cfg.Encrypter)
	if err != nil {
		data.Close()
		index.Close()
		return nil, err
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = paged.DefaultPageSize
	}
	w := &Writer{
		data:     data,
		index:    index,
		pw:       pw,
		pageSize: pageSize,
		meter:    meterOrNil(cfg.WriteMeter),
		log:      logrus.WithField("path", base),
	}
	w.log.Debug("Created page file")
	return w, nil
}

// Write implements io.Writer over the logical stream.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errClosed
	}
	var total int
	for len(p) > 0 {
		pos := w.pw.Position()
		if pos.PageOffset == 0 {
			// A fresh page is about to open here: bookmark it.
			if err := w.appendIndex(pos.Offset); err != nil {
				return total, err
			}
		}
		n := w.pageSize - int(pos.PageOffset)
		if n > len(p) {
			n = len(p)
		}
		nn, err := w.pw.Write(p[:n])
		w.logical += uint64(nn)
		total += nn
		if err != nil {
			return total, err
		}
		p = p[n:]
	}
	w.meter.Mark(int64(total))
	return total, nil
}

// appendIndex writes one entry pairing a data-file offset with the current
// logical offset.
func (w *Writer) appendIndex(offset uint64) error {
	entry := indexEntry{offset: offset, logical: w.logical}
	w.scratch = entry.append(w.scratch[:0])
	_, err := w.index.Write(w.scratch)
	return err
}

// Close flushes the tail page, appends the terminal index entry carrying the
// container's physical and logical sizes, and syncs both files.
func (w *Writer) Close() error {
	if w.closed {
		return errClosed
	}
	w.closed = true
	if err := w.pw.Flush(); err != nil {
		return err
	}
	if err := w.appendIndex(w.pw.Position().Offset); err != nil {
		return err
	}
	for _, f := range []*os.File{w.data, w.index} {
		if err := f.Sync(); err != nil {
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	w.log.WithField("bytes", w.logical).Debug("Sealed page file")
	return nil
}
