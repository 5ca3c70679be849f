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

// Package pagefile persists a paged stream alongside a fixed-width binary
// index of its page boundaries, giving random access into the decoded bytes
// by logical offset. A container is a pair of files sharing a base path: the
// paged data in <base>.dat and the page index in <base>.idx.
package pagefile

import (
	"errors"

	"github.com/pagedio/pagedio/compress"
	"github.com/pagedio/pagedio/crypt"
	"github.com/rcrowley/go-metrics"
)

var (
	// errClosed is returned if an operation reaches the container after it
	// has already been closed.
	errClosed = errors.New("closed")

	// errOutOfBounds is returned if a seek target lies outside the logical
	// bytes the container holds.
	errOutOfBounds = errors.New("out of bounds")

	// errBadIndex is returned if the index file fails validation on open.
	errBadIndex = errors.New("corrupted page index")
)

// Config carries the page encoding parameters of a container. The codec and
// crypter values have to match between the writer that produced a container
// and the readers opening it; neither is recorded in the files.
type Config struct {
	PageSize   int            // page payload size, 0 for the default
	BufferSize int            // read buffer for the data file, 0 for the default
	Codec      compress.Codec // nil stores pages verbatim
	Encrypter  crypt.Encrypter
	Decrypter  crypt.Decrypter

	// Optional meters measuring the effective amount of logical data moved.
	WriteMeter metrics.Meter
	ReadMeter  metrics.Meter
}

func meterOrNil(m metrics.Meter) metrics.Meter {
	if m == nil {
		return metrics.NilMeter{}
	}
	return m
}
