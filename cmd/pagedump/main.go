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

// pagedump packs files into paged containers and back, and inspects the
// page framing of existing containers.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/pagedio/pagedio/compress"
	"github.com/pagedio/pagedio/crypt"
	"github.com/pagedio/pagedio/pagefile"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	codecFlag = &cli.StringFlag{
		Name:  "codec",
		Usage: "page compression codec (none, snappy, zstd)",
		Value: "snappy",
	}
	pageSizeFlag = &cli.IntFlag{
		Name:  "page-size",
		Usage: "page payload size in bytes",
		Value: 64 * 1024,
	}
	passphraseFlag = &cli.StringFlag{
		Name:  "passphrase",
		Usage: "encrypt/decrypt pages with a key derived from this passphrase",
	}
	saltFlag = &cli.StringFlag{
		Name:  "salt",
		Usage: "hex-encoded scrypt salt, required with --passphrase",
	}
	lightKDFFlag = &cli.BoolFlag{
		Name:  "lightkdf",
		Usage: "reduce key derivation RAM & CPU usage at some expense of KDF strength",
	}
	verbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "logging level (panic, fatal, error, warn, info, debug, trace)",
		Value: "info",
	}
)

func main() {
	app := &cli.App{
		Name:  "pagedump",
		Usage: "pack, unpack and inspect paged stream containers",
		Flags: []cli.Flag{verbosityFlag},
		Before: func(ctx *cli.Context) error {
			level, err := logrus.ParseLevel(ctx.String(verbosityFlag.Name))
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "pack",
				Usage:     "encode a file into a <base>.dat/<base>.idx container pair",
				ArgsUsage: "<source> <base>",
				Flags:     []cli.Flag{codecFlag, pageSizeFlag, passphraseFlag, saltFlag, lightKDFFlag},
				Action:    pack,
			},
			{
				Name:      "unpack",
				Usage:     "decode a container pair back into a plain file",
				ArgsUsage: "<base> <destination>",
				Flags:     []cli.Flag{codecFlag, passphraseFlag, saltFlag, lightKDFFlag},
				Action:    unpack,
			},
			{
				Name:      "info",
				Usage:     "walk a container's page headers and print the framing",
				ArgsUsage: "<base>",
				Action:    info,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

// cipherFromFlags derives the page cipher, or nil if no passphrase is given.
func cipherFromFlags(ctx *cli.Context) (*crypt.Cipher, error) {
	passphrase := ctx.String(passphraseFlag.Name)
	if passphrase == "" {
		return nil, nil
	}
	salt, err := hex.DecodeString(ctx.String(saltFlag.Name))
	if err != nil {
		return nil, fmt.Errorf("invalid --salt: %v", err)
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("--passphrase requires a --salt")
	}
	scryptN, scryptP := crypt.StandardScryptN, crypt.StandardScryptP
	if ctx.Bool(lightKDFFlag.Name) {
		scryptN, scryptP = crypt.LightScryptN, crypt.LightScryptP
	}
	key, err := crypt.Key(passphrase, salt, scryptN, scryptP)
	if err != nil {
		return nil, err
	}
	return crypt.NewCipher(key)
}

func configFromFlags(ctx *cli.Context) (pagefile.Config, error) {
	codec, err := compress.ByName(ctx.String(codecFlag.Name))
	if err != nil {
		return pagefile.Config{}, err
	}
	cipher, err := cipherFromFlags(ctx)
	if err != nil {
		return pagefile.Config{}, err
	}
	cfg := pagefile.Config{
		PageSize: ctx.Int(pageSizeFlag.Name),
		Codec:    codec,
	}
	if cipher != nil {
		cfg.Encrypter = cipher
		cfg.Decrypter = cipher
	}
	return cfg, nil
}

func pack(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return fmt.Errorf("usage: pagedump pack <source> <base>")
	}
	cfg, err := configFromFlags(ctx)
	if err != nil {
		return err
	}
	src, err := os.Open(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := pagefile.Create(ctx.Args().Get(1), cfg)
	if err != nil {
		return err
	}
	n, err := io.Copy(w, src)
	if err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	logrus.WithField("bytes", n).Info("Packed container")
	return nil
}

func unpack(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return fmt.Errorf("usage: pagedump unpack <base> <destination>")
	}
	cfg, err := configFromFlags(ctx)
	if err != nil {
		return err
	}
	f, err := pagefile.Open(ctx.Args().Get(0), cfg)
	if err != nil {
		return err
	}
	defer f.Close()

	dst, err := os.Create(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	n, err := io.Copy(dst, f)
	if err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	logrus.WithField("bytes", n).Info("Unpacked container")
	return nil
}

// info walks the raw page framing without decoding any payloads.
func info(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("usage: pagedump info <base>")
	}
	data, err := os.Open(ctx.Args().Get(0) + ".dat")
	if err != nil {
		return err
	}
	defer data.Close()

	var (
		header [3]byte
		offset int64
		page   int
	)
	for {
		if _, err := io.ReadFull(data, header[:]); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("page %d: truncated header: %v", page, err)
		}
		v := uint32(header[0]) | uint32(header[1])<<8 | uint32(header[2])<<16
		length := int64(v >> 1)
		kind := "compressed"
		if v&1 != 0 {
			kind = "verbatim"
		}
		fmt.Printf("page %4d  offset %10d  %-10s  %8d bytes\n", page, offset, kind, length)
		if _, err := data.Seek(length, io.SeekCurrent); err != nil {
			return err
		}
		offset += 3 + length
		page++
	}
	fmt.Printf("%d pages, %d bytes total\n", page, offset)
	return nil
}
