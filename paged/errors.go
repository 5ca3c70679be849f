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

import "errors"

var (
	// ErrUnexpectedEOF is returned if the upstream source runs out while a
	// page header or page body has only been partially read. A page that
	// begins must be fully describable.
	ErrUnexpectedEOF = errors.New("unexpected end of paged stream")

	// ErrInvalidState is returned if decoding hits a configuration hole, such
	// as a compressed page arriving with no decompressor configured.
	ErrInvalidState = errors.New("invalid stream state")

	// ErrPrecondition is returned if the caller breaks the reader's calling
	// contract, e.g. backing up more bytes than the last call returned.
	ErrPrecondition = errors.New("precondition violation")
)
