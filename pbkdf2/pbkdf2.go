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

// Package pbkdf2 implements the PKCS #5 v2.0 password based key
// derivation function (RFC 2898) over a caller supplied HMAC hash.
//
// The defaults (HMAC-SHA1, 10000 iterations and the hard coded salt)
// match the parameters the sealbox container format has always been
// derived with and must not change, existing containers depend on
// them.  RFC 6070 provides the test vectors.
package pbkdf2

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec
	"errors"
	"hash"
)

// DefaultIterations is the iteration count used when none is set.
const DefaultIterations = 10000

// ErrInvalidParameter is the error returned when the passphrase is
// empty or the requested key length is not positive.
var ErrInvalidParameter = errors.New("pbkdf2: invalid parameters")

// defaultSalt is the MD5 digest of "com.jkovacic.cryptoutil.Pbkdf2".
var defaultSalt = []byte{
	0x79, 0xc0, 0x5b, 0x84, 0xb7, 0xa8, 0x9e, 0x10,
	0x78, 0xdc, 0x35, 0x05, 0xbd, 0x34, 0x6b, 0x23,
}

// DefaultSalt returns a copy of the hard coded default salt.
func DefaultSalt() []byte {
	return append([]byte(nil), defaultSalt...)
}

// KDF derives keys of arbitrary length from a passphrase.  The
// parameters may be reconfigured between Key calls.  A KDF is not safe
// for concurrent use.
type KDF struct {
	hash func() hash.Hash
	salt []byte
	iter int
}

// New constructs a KDF.  Any nil or non-positive parameter falls back
// to its default: HMAC-SHA1, the hard coded salt, DefaultIterations.
func New(h func() hash.Hash, salt []byte, iterations int) *KDF {
	k := new(KDF)
	k.SetHash(h)
	k.SetSalt(salt)
	k.SetIterations(iterations)
	return k
}

// NewDefault constructs a KDF with all parameters at their defaults.
func NewDefault() *KDF {
	return New(nil, nil, 0)
}

// SetHash sets the HMAC hash constructor, nil selects SHA-1.
func (k *KDF) SetHash(h func() hash.Hash) {
	if h == nil {
		h = sha1.New
	}
	k.hash = h
}

// SetSalt sets the salt, nil selects the hard coded default.
func (k *KDF) SetSalt(salt []byte) {
	if salt == nil {
		salt = defaultSalt
	}
	k.salt = append([]byte(nil), salt...)
}

// SetIterations sets the iteration count, non-positive values select
// DefaultIterations.
func (k *KDF) SetIterations(iterations int) {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	k.iter = iterations
}

// Salt returns a copy of the configured salt.
func (k *KDF) Salt() []byte {
	return append([]byte(nil), k.salt...)
}

// Iterations returns the configured iteration count.
func (k *KDF) Iterations() int {
	return k.iter
}

// Key derives dkLen bytes from passPhrase per RFC 2898: the derived
// key is the concatenation of blocks T_i = U_1 ^ U_2 ^ ... ^ U_c with
// U_1 = HMAC(P, S || INT32BE(i)) and U_j = HMAC(P, U_{j-1}), truncated
// to dkLen bytes.
func (k *KDF) Key(passPhrase []byte, dkLen int) ([]byte, error) {
	if len(passPhrase) == 0 || dkLen <= 0 {
		return nil, ErrInvalidParameter
	}

	// The HMAC secret is the passphrase at every iteration, so the
	// MAC is keyed once and reset between invocations.
	mac := hmac.New(k.hash, passPhrase)
	hLen := mac.Size()

	dk := make([]byte, 0, dkLen)
	u := make([]byte, 0, hLen)
	t := make([]byte, hLen)
	blocks := (dkLen + hLen - 1) / hLen

	for i := 1; i <= blocks; i++ {
		mac.Reset()
		mac.Write(k.salt)
		mac.Write([]byte{byte(i >> 24), byte(i >> 16), byte(i >> 8), byte(i)})
		u = mac.Sum(u[:0])
		copy(t, u)

		for c := 1; c < k.iter; c++ {
			mac.Reset()
			mac.Write(u)
			u = mac.Sum(u[:0])
			for x := range t {
				t[x] ^= u[x]
			}
		}

		dk = append(dk, t...)
	}

	return dk[:dkLen], nil
}
