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

// Package vartime provides a variable time AES-256 engine.
//
// The S-box lookups are table driven and leak timing information.
// Use the ct64 engine unless the inverse transform is required.
package vartime

import (
	"github.com/oasisprotocol/sealbox/internal/api"
)

// Factory constructs vartime engines.
var Factory api.Factory = &vartimeFactory{}

type vartimeFactory struct{}

func (f *vartimeFactory) Name() string {
	return "vartime"
}

func (f *vartimeFactory) New() api.Engine {
	return &vartimeEngine{}
}

type vartimeEngine struct {
	rks           [api.RoundKeys][api.BlockSize]byte
	forEncryption bool
	initialized   bool
}

var _ api.Engine = (*vartimeEngine)(nil)

func (e *vartimeEngine) Init(forEncryption bool, key []byte) error {
	e.initialized = false
	if len(key) != api.KeySize {
		return api.ErrInvalidKeySize
	}

	api.ExpandKey(key, &e.rks)
	e.forEncryption = forEncryption
	e.initialized = true

	return nil
}

func (e *vartimeEngine) BlockSize() int {
	return api.BlockSize
}

func (e *vartimeEngine) ProcessBlock(in []byte, inOff int, out []byte, outOff int) (int, error) {
	if !e.initialized {
		return 0, api.ErrEngineState
	}

	var state [api.BlockSize]byte
	copy(state[:], in[inOff:inOff+api.BlockSize])

	if e.forEncryption {
		e.encryptBlock(&state)
	} else {
		e.decryptBlock(&state)
	}

	copy(out[outOff:outOff+api.BlockSize], state[:])
	api.Bzero(state[:])

	return api.BlockSize, nil
}

func (e *vartimeEngine) Reset() {}

func (e *vartimeEngine) Destroy() {
	for i := range e.rks {
		api.Bzero(e.rks[i][:])
	}
	e.initialized = false
}

// The state layout is the FIPS 197 one: byte i of the input occupies
// row i%4 of column i/4, so state[4*c+r] is row r of column c.

func (e *vartimeEngine) encryptBlock(state *[api.BlockSize]byte) {
	addRoundKey(state, &e.rks[0])
	for r := 1; r < api.Rounds; r++ {
		subBytes(state)
		shiftRows(state)
		mixColumns(state)
		addRoundKey(state, &e.rks[r])
	}
	subBytes(state)
	shiftRows(state)
	addRoundKey(state, &e.rks[api.Rounds])
}

func (e *vartimeEngine) decryptBlock(state *[api.BlockSize]byte) {
	addRoundKey(state, &e.rks[api.Rounds])
	for r := api.Rounds - 1; r >= 1; r-- {
		invShiftRows(state)
		invSubBytes(state)
		addRoundKey(state, &e.rks[r])
		invMixColumns(state)
	}
	invShiftRows(state)
	invSubBytes(state)
	addRoundKey(state, &e.rks[0])
}

func addRoundKey(state, rk *[api.BlockSize]byte) {
	for i := range state {
		state[i] ^= rk[i]
	}
}

func subBytes(state *[api.BlockSize]byte) {
	for i, b := range state {
		state[i] = api.Sbox(b)
	}
}

func invSubBytes(state *[api.BlockSize]byte) {
	for i, b := range state {
		state[i] = api.InvSbox(b)
	}
}

// shiftRows rotates row r left by r columns.
func shiftRows(state *[api.BlockSize]byte) {
	var tmp [api.BlockSize]byte
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			tmp[4*c+r] = state[4*((c+r)&3)+r]
		}
	}
	*state = tmp
}

func invShiftRows(state *[api.BlockSize]byte) {
	var tmp [api.BlockSize]byte
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			tmp[4*((c+r)&3)+r] = state[4*c+r]
		}
	}
	*state = tmp
}

// xtime is multiplication by x in GF(2^8) modulo the AES polynomial.
func xtime(b byte) byte {
	v := b << 1
	if b&0x80 != 0 {
		v ^= 0x1b
	}
	return v
}

func gmul(a, b byte) byte {
	var p byte
	for b != 0 {
		if b&1 != 0 {
			p ^= a
		}
		a = xtime(a)
		b >>= 1
	}
	return p
}

func mixColumns(state *[api.BlockSize]byte) {
	for c := 0; c < 4; c++ {
		col := state[4*c : 4*c+4]
		a0, a1, a2, a3 := col[0], col[1], col[2], col[3]
		col[0] = xtime(a0) ^ xtime(a1) ^ a1 ^ a2 ^ a3
		col[1] = a0 ^ xtime(a1) ^ xtime(a2) ^ a2 ^ a3
		col[2] = a0 ^ a1 ^ xtime(a2) ^ xtime(a3) ^ a3
		col[3] = xtime(a0) ^ a0 ^ a1 ^ a2 ^ xtime(a3)
	}
}

func invMixColumns(state *[api.BlockSize]byte) {
	for c := 0; c < 4; c++ {
		col := state[4*c : 4*c+4]
		a0, a1, a2, a3 := col[0], col[1], col[2], col[3]
		col[0] = gmul(a0, 0x0e) ^ gmul(a1, 0x0b) ^ gmul(a2, 0x0d) ^ gmul(a3, 0x09)
		col[1] = gmul(a0, 0x09) ^ gmul(a1, 0x0e) ^ gmul(a2, 0x0b) ^ gmul(a3, 0x0d)
		col[2] = gmul(a0, 0x0d) ^ gmul(a1, 0x09) ^ gmul(a2, 0x0e) ^ gmul(a3, 0x0b)
		col[3] = gmul(a0, 0x0b) ^ gmul(a1, 0x0d) ^ gmul(a2, 0x09) ^ gmul(a3, 0x0e)
	}
}
