// Copyright (c) 2019 Oasis Labs Inc. <info@oasislabs.com>
//
// Permission is hereby granted, free of charge, to any person obtaining
// a copy of this software and associated documentation files (the
// "Software"), to deal in the Software without restriction, including
// without limitation the rights to use, copy, modify, merge, publish,
// distribute, sublicense, and/or sell copies of the Software, and to
// permit persons to whom the Software is furnished to do so, subject to
// the following conditions:
//
// The above copyright notice and this permission notice shall be
// included in all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
// MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS
// BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN
// ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package api provides the block cipher engine contract shared by the
// sealbox engine implementations, along with the AES-256 key schedule
// and assorted helpers.
package api

import "errors"

const (
	// KeySize is the AES-256 key size in bytes.
	KeySize = 32

	// BlockSize is the AES block size in bytes.
	BlockSize = 16

	// Rounds is the AES-256 round count.
	Rounds = 14

	// RoundKeys is the number of 16 byte round keys in the AES-256
	// key schedule.
	RoundKeys = Rounds + 1
)

var (
	// ErrEngineState is the error returned when an engine is used
	// before (or after a failed) Init.
	ErrEngineState = errors.New("aes: engine not initialized")

	// ErrInvalidKeySize is the error returned when the key passed to
	// Init is not KeySize bytes.
	ErrInvalidKeySize = errors.New("aes: invalid key size")

	// ErrUnsupportedDirection is the error returned by engines that
	// only implement the forward transform when asked to initialize
	// for decryption.
	ErrUnsupportedDirection = errors.New("aes: inverse transform not supported")
)

// Engine is a single block AES-256 transform.
//
// An Engine instance is not safe for concurrent use, the round key
// schedule is mutable state.
type Engine interface {
	// Init computes the round key schedule for key.  The direction
	// flag selects the forward or the inverse transform.  A failed
	// Init leaves the engine uninitialized.
	Init(forEncryption bool, key []byte) error

	// BlockSize returns the block size in bytes (always BlockSize).
	BlockSize() int

	// ProcessBlock transforms the BlockSize bytes at in[inOff:] into
	// out[outOff:] and returns the number of bytes processed.  The
	// caller guarantees both slices have sufficient capacity.
	ProcessBlock(in []byte, inOff int, out []byte, outOff int) (int, error)

	// Reset is a semantic no-op, retained so callers can express
	// intent between messages.
	Reset()

	// Destroy zeroes the round key schedule and marks the engine
	// uninitialized.
	Destroy()
}

// Factory constructs Engine instances.
type Factory interface {
	// Name returns the name of the implementation.
	Name() string

	// New constructs a new uninitialized Engine.
	New() Engine
}

var sbox = [256]byte{
	0x63, 0x7c, 0x77, 0x7b, 0xf2, 0x6b, 0x6f, 0xc5, 0x30, 0x01, 0x67, 0x2b, 0xfe, 0xd7, 0xab, 0x76,
	0xca, 0x82, 0xc9, 0x7d, 0xfa, 0x59, 0x47, 0xf0, 0xad, 0xd4, 0xa2, 0xaf, 0x9c, 0xa4, 0x72, 0xc0,
	0xb7, 0xfd, 0x93, 0x26, 0x36, 0x3f, 0xf7, 0xcc, 0x34, 0xa5, 0xe5, 0xf1, 0x71, 0xd8, 0x31, 0x15,
	0x04, 0xc7, 0x23, 0xc3, 0x18, 0x96, 0x05, 0x9a, 0x07, 0x12, 0x80, 0xe2, 0xeb, 0x27, 0xb2, 0x75,
	0x09, 0x83, 0x2c, 0x1a, 0x1b, 0x6e, 0x5a, 0xa0, 0x52, 0x3b, 0xd6, 0xb3, 0x29, 0xe3, 0x2f, 0x84,
	0x53, 0xd1, 0x00, 0xed, 0x20, 0xfc, 0xb1, 0x5b, 0x6a, 0xcb, 0xbe, 0x39, 0x4a, 0x4c, 0x58, 0xcf,
	0xd0, 0xef, 0xaa, 0xfb, 0x43, 0x4d, 0x33, 0x85, 0x45, 0xf9, 0x02, 0x7f, 0x50, 0x3c, 0x9f, 0xa8,
	0x51, 0xa3, 0x40, 0x8f, 0x92, 0x9d, 0x38, 0xf5, 0xbc, 0xb6, 0xda, 0x21, 0x10, 0xff, 0xf3, 0xd2,
	0xcd, 0x0c, 0x13, 0xec, 0x5f, 0x97, 0x44, 0x17, 0xc4, 0xa7, 0x7e, 0x3d, 0x64, 0x5d, 0x19, 0x73,
	0x60, 0x81, 0x4f, 0xdc, 0x22, 0x2a, 0x90, 0x88, 0x46, 0xee, 0xb8, 0x14, 0xde, 0x5e, 0x0b, 0xdb,
	0xe0, 0x32, 0x3a, 0x0a, 0x49, 0x06, 0x24, 0x5c, 0xc2, 0xd3, 0xac, 0x62, 0x91, 0x95, 0xe4, 0x79,
	0xe7, 0xc8, 0x37, 0x6d, 0x8d, 0xd5, 0x4e, 0xa9, 0x6c, 0x56, 0xf4, 0xea, 0x65, 0x7a, 0xae, 0x08,
	0xba, 0x78, 0x25, 0x2e, 0x1c, 0xa6, 0xb4, 0xc6, 0xe8, 0xdd, 0x74, 0x1f, 0x4b, 0xbd, 0x8b, 0x8a,
	0x70, 0x3e, 0xb5, 0x66, 0x48, 0x03, 0xf6, 0x0e, 0x61, 0x35, 0x57, 0xb9, 0x86, 0xc1, 0x1d, 0x9e,
	0xe1, 0xf8, 0x98, 0x11, 0x69, 0xd9, 0x8e, 0x94, 0x9b, 0x1e, 0x87, 0xe9, 0xce, 0x55, 0x28, 0xdf,
	0x8c, 0xa1, 0x89, 0x0d, 0xbf, 0xe6, 0x42, 0x68, 0x41, 0x99, 0x2d, 0x0f, 0xb0, 0x54, 0xbb, 0x16,
}

var invSbox [256]byte

func init() {
	for i, v := range sbox {
		invSbox[v] = byte(i)
	}
}

// Sbox returns the AES S-box value of b.
func Sbox(b byte) byte {
	return sbox[b]
}

// InvSbox returns the inverse AES S-box value of b.
func InvSbox(b byte) byte {
	return invSbox[b]
}

var rcon = [7]uint32{
	0x01000000, 0x02000000, 0x04000000, 0x08000000,
	0x10000000, 0x20000000, 0x40000000,
}

func subWord(w uint32) uint32 {
	return uint32(sbox[w>>24])<<24 |
		uint32(sbox[(w>>16)&0xff])<<16 |
		uint32(sbox[(w>>8)&0xff])<<8 |
		uint32(sbox[w&0xff])
}

func rotWord(w uint32) uint32 {
	return w<<8 | w>>24
}

// ExpandKey computes the FIPS 197 AES-256 key schedule (Nk = 8,
// Nr = Rounds) for a KeySize byte key, as RoundKeys 16 byte round keys.
// The caller is responsible for validating the key length.
func ExpandKey(key []byte, rks *[RoundKeys][BlockSize]byte) {
	const nk = KeySize / 4

	var w [4 * RoundKeys]uint32
	for i := 0; i < nk; i++ {
		w[i] = uint32(key[4*i])<<24 | uint32(key[4*i+1])<<16 |
			uint32(key[4*i+2])<<8 | uint32(key[4*i+3])
	}
	for i := nk; i < len(w); i++ {
		tmp := w[i-1]
		switch {
		case i%nk == 0:
			tmp = subWord(rotWord(tmp)) ^ rcon[i/nk-1]
		case i%nk == 4:
			tmp = subWord(tmp)
		}
		w[i] = w[i-nk] ^ tmp
	}

	for r := 0; r < RoundKeys; r++ {
		for c := 0; c < 4; c++ {
			word := w[4*r+c]
			rks[r][4*c] = byte(word >> 24)
			rks[r][4*c+1] = byte(word >> 16)
			rks[r][4*c+2] = byte(word >> 8)
			rks[r][4*c+3] = byte(word)
		}
	}
}

// XORBytes sets dst[i] = a[i] ^ b[i] for n bytes.
func XORBytes(dst, a, b []byte, n int) {
	for i := 0; i < n; i++ {
		dst[i] = a[i] ^ b[i]
	}
}

// Bzero zeroes the slice.
func Bzero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
