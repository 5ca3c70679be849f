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

// Package crypt defines the page encryption collaborators of the paged
// stream codec and provides an AES-CTR implementation with scrypt key
// derivation.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	// StandardScryptN is the N parameter of the scrypt encryption algorithm,
	// using 256MB memory and taking approximately 1s CPU time on a modern
	// processor.
	StandardScryptN = 1 << 18

	// StandardScryptP is the P parameter of the scrypt encryption algorithm,
	// using 256MB memory and taking approximately 1s CPU time on a modern
	// processor.
	StandardScryptP = 1

	// LightScryptN is the N parameter of the scrypt encryption algorithm,
	// using 4MB memory and taking approximately 100ms CPU time on a modern
	// processor.
	LightScryptN = 1 << 12

	// LightScryptP is the P parameter of the scrypt encryption algorithm,
	// using 4MB memory and taking approximately 100ms CPU time on a modern
	// processor.
	LightScryptP = 6

	scryptR     = 8
	scryptDKLen = 32
)

// Encrypter seals whole page payloads.
type Encrypter interface {
	// Encrypt returns the sealed form of src in a freshly owned buffer.
	Encrypt(src []byte) ([]byte, error)
}

// Decrypter opens whole page payloads. The returned plaintext is owned by
// the caller until it releases it; implementations never retain it.
type Decrypter interface {
	// Decrypt returns the plaintext of src in a freshly owned buffer.
	Decrypt(src []byte) ([]byte, error)
}

// Cipher encrypts and decrypts page payloads with AES-CTR. Every page gets a
// fresh random IV, prepended to the ciphertext.
type Cipher struct {
	block cipher.Block
}

// NewCipher returns a page cipher for the given AES key (16, 24 or 32 bytes).
func NewCipher(key []byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &Cipher{block: block}, nil
}

// Encrypt implements Encrypter.
func (c *Cipher) Encrypt(src []byte) ([]byte, error) {
	out := make([]byte, aes.BlockSize+len(src))
	iv := out[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}
	cipher.NewCTR(c.block, iv).XORKeyStream(out[aes.BlockSize:], src)
	return out, nil
}

// Decrypt implements Decrypter.
func (c *Cipher) Decrypt(src []byte) ([]byte, error) {
	if len(src) < aes.BlockSize {
		return nil, errors.New("crypt: page shorter than its IV")
	}
	out := make([]byte, len(src)-aes.BlockSize)
	cipher.NewCTR(c.block, src[:aes.BlockSize]).XORKeyStream(out, src[aes.BlockSize:])
	return out, nil
}

// Key derives a 32-byte AES key from a passphrase and salt using scrypt with
// the given difficulty parameters.
func Key(passphrase string, salt []byte, scryptN, scryptP int) ([]byte, error) {
	return scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, scryptDKLen)
}
