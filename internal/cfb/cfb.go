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

// Package cfb implements the Cipher Feedback (CFB-128) mode of
// operation over the engine contract.
//
// Each top level Encrypt/Decrypt call restarts from the IV, the mode
// keeps no feedback state across calls.  The output length always
// equals the input length, no padding is applied or expected.
package cfb

import (
	"errors"
	"fmt"

	"github.com/oasisprotocol/sealbox/internal/api"
)

var (
	// ErrNotInitialized is the error returned by New when no usable
	// engine is given, and by Encrypt/Decrypt on a destroyed Mode.
	ErrNotInitialized = errors.New("cfb: mode not initialized")

	// ErrNoInput is the error returned when an empty message is
	// passed to Encrypt or Decrypt.
	ErrNoInput = errors.New("cfb: no input given")

	// ErrInvalidKeySize is the error returned when the key is shorter
	// than one cipher block.
	ErrInvalidKeySize = errors.New("cfb: invalid key size")

	// ErrInvalidIVSize is the error returned when the IV length does
	// not match the engine block size.
	ErrInvalidIVSize = errors.New("cfb: invalid initialization vector size")
)

// Mode is a CFB-128 encryptor/decryptor bound to an engine, a key and
// an IV.  The key and IV are copied at construction and are immutable
// afterwards.  A Mode is not safe for concurrent use.
type Mode struct {
	engine      api.Engine
	key         []byte
	iv          []byte
	initialized bool
}

// New constructs a CFB mode over engine with the given key and IV.
// The key must be at least one block long (the engine applies its own
// exact key size check at Init), the IV exactly one block.
func New(engine api.Engine, key, iv []byte) (*Mode, error) {
	if engine == nil || engine.BlockSize() <= 0 {
		return nil, ErrNotInitialized
	}
	if len(key) < engine.BlockSize() {
		return nil, ErrInvalidKeySize
	}
	if len(iv) != engine.BlockSize() {
		return nil, ErrInvalidIVSize
	}

	m := &Mode{
		engine: engine,
		key:    append([]byte(nil), key...),
		iv:     append([]byte(nil), iv...),
	}
	m.initialized = true

	return m, nil
}

// Encrypt encrypts plainText and returns the ciphertext, which is
// exactly as long as the input.
func (m *Mode) Encrypt(plainText []byte) ([]byte, error) {
	return m.process(plainText, true)
}

// Decrypt decrypts cipherText and returns the plaintext, which is
// exactly as long as the input.
func (m *Mode) Decrypt(cipherText []byte) ([]byte, error) {
	return m.process(cipherText, false)
}

func (m *Mode) process(in []byte, encrypt bool) ([]byte, error) {
	if !m.initialized {
		return nil, ErrNotInitialized
	}
	if len(in) == 0 {
		return nil, ErrNoInput
	}

	// CFB uses the forward transform for both encryption and
	// decryption, the engine is always initialized for encryption.
	// This is not a typo.
	if err := m.engine.Init(true, m.key); err != nil {
		return nil, fmt.Errorf("cfb: initialization of crypto engine failed: %w", err)
	}
	m.engine.Reset()

	blockSize := m.engine.BlockSize()
	out := make([]byte, len(in))

	feedback := make([]byte, blockSize)
	stream := make([]byte, blockSize)
	copy(feedback, m.iv)

	for off := 0; off < len(in); off += blockSize {
		n := len(in) - off
		if n > blockSize {
			n = blockSize
		}

		if _, err := m.engine.ProcessBlock(feedback, 0, stream, 0); err != nil {
			api.Bzero(feedback)
			api.Bzero(stream)
			if encrypt {
				return nil, fmt.Errorf("cfb: encryption failed: %w", err)
			}
			return nil, fmt.Errorf("cfb: decryption failed: %w", err)
		}

		api.XORBytes(out[off:], stream, in[off:], n)

		// The next feedback block is the ciphertext block just
		// produced (encrypting) or just consumed (decrypting).
		if encrypt {
			copy(feedback[:n], out[off:off+n])
		} else {
			copy(feedback[:n], in[off:off+n])
		}
	}

	api.Bzero(feedback)
	api.Bzero(stream)

	return out, nil
}

// Destroy zeroes the key and IV copies and the engine key schedule.
func (m *Mode) Destroy() {
	api.Bzero(m.key)
	api.Bzero(m.iv)
	if m.engine != nil {
		m.engine.Destroy()
	}
	m.initialized = false
}
