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

// Package ct64 provides a portable constant time AES-256 engine built
// on the 64 bit bitsliced round primitives from bsaes.
//
// Only the forward transform is implemented.  The feedback modes this
// library ships use the forward transform in both directions, so the
// inverse is never needed on the hot path; the vartime engine provides
// it for callers that ask.
package ct64

import (
	aes "gitlab.com/yawning/bsaes.git/ct64"

	"github.com/oasisprotocol/sealbox/internal/api"
)

// Factory constructs ct64 engines.
var Factory api.Factory = &ct64Factory{}

type ct64Factory struct{}

func (f *ct64Factory) Name() string {
	return "ct64"
}

func (f *ct64Factory) New() api.Engine {
	return &ct64Engine{}
}

type ct64Engine struct {
	rks         [api.RoundKeys][api.BlockSize]byte
	initialized bool
}

var _ api.Engine = (*ct64Engine)(nil)

func (e *ct64Engine) Init(forEncryption bool, key []byte) error {
	e.initialized = false
	if len(key) != api.KeySize {
		return api.ErrInvalidKeySize
	}
	if !forEncryption {
		return api.ErrUnsupportedDirection
	}

	api.ExpandKey(key, &e.rks)
	e.initialized = true

	return nil
}

func (e *ct64Engine) BlockSize() int {
	return api.BlockSize
}

func (e *ct64Engine) ProcessBlock(in []byte, inOff int, out []byte, outOff int) (int, error) {
	if !e.initialized {
		return 0, api.ErrEngineState
	}

	var block [api.BlockSize]byte
	api.XORBytes(block[:], in[inOff:], e.rks[0][:], api.BlockSize)

	var q, rk [8]uint64
	aes.Load4xU32(&q, block[:])

	for r := 1; r < api.Rounds; r++ {
		aes.Sbox(&q)
		aes.ShiftRows(&q)
		aes.MixColumns(&q)

		aes.Load4xU32(&rk, e.rks[r][:])
		aes.AddRoundKey(&q, rk[:])
	}
	aes.Sbox(&q)
	aes.ShiftRows(&q)
	aes.Load4xU32(&rk, e.rks[api.Rounds][:])
	aes.AddRoundKey(&q, rk[:])

	aes.Store4xU32(block[:], &q)
	copy(out[outOff:outOff+api.BlockSize], block[:])
	api.Bzero(block[:])

	return api.BlockSize, nil
}

func (e *ct64Engine) Reset() {}

func (e *ct64Engine) Destroy() {
	for i := range e.rks {
		api.Bzero(e.rks[i][:])
	}
	e.initialized = false
}
