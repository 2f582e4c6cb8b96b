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

package pbkdf2

import (
	"crypto/sha1" //nolint:gosec
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	xpbkdf2 "golang.org/x/crypto/pbkdf2"
)

func mustDecodeHexString(t *testing.T, s string) []byte {
	s = strings.Join(strings.Fields(s), "")
	b, err := hex.DecodeString(s)
	require.NoError(t, err, "hex.DecodeString()")
	return b
}

// RFC 6070 PBKDF2 HMAC-SHA1 test vectors.
var rfc6070Vectors = []struct {
	Password   string
	Salt       string
	Iterations int
	DKLen      int
	Expected   string
	Slow       bool
}{
	{
		Password:   "password",
		Salt:       "salt",
		Iterations: 1,
		DKLen:      20,
		Expected:   "0c60c80f 961f0e71 f3a9b524 af601206 2fe037a6",
	},
	{
		Password:   "password",
		Salt:       "salt",
		Iterations: 2,
		DKLen:      20,
		Expected:   "ea6c014d c72d6f8c cd1ed92a ce1d41f0 d8de8957",
	},
	{
		Password:   "password",
		Salt:       "salt",
		Iterations: 4096,
		DKLen:      20,
		Expected:   "4b007901 b765489a bead49d9 26f721d0 65a429c1",
	},
	{
		Password:   "password",
		Salt:       "salt",
		Iterations: 16777216,
		DKLen:      20,
		Expected:   "eefe3d61 cd4da4e4 e9945b3d 6ba2158c 2634e984",
		Slow:       true,
	},
	{
		Password:   "passwordPASSWORDpassword",
		Salt:       "saltSALTsaltSALTsaltSALTsaltSALTsalt",
		Iterations: 4096,
		DKLen:      25,
		Expected:   "3d2eec4f e41c849b 80c8d836 62c0e44a 8b291a96 4cf2f070 38",
	},
	{
		Password:   "pass\x00word",
		Salt:       "sa\x00lt",
		Iterations: 4096,
		DKLen:      16,
		Expected:   "56fa6aa7 5548099d cc37d7f0 3425e0c3",
	},
}

func TestVectors(t *testing.T) {
	require := require.New(t)

	for i, tc := range rfc6070Vectors {
		if tc.Slow && testing.Short() {
			continue
		}

		kdf := New(sha1.New, []byte(tc.Salt), tc.Iterations)
		dk, err := kdf.Key([]byte(tc.Password), tc.DKLen)
		require.NoError(err, "kdf.Key(): vector %d", i+1)
		require.Equal(mustDecodeHexString(t, tc.Expected), dk, "kdf.Key(): vector %d", i+1)
	}
}

func TestDefaults(t *testing.T) {
	require := require.New(t)

	kdf := NewDefault()
	require.Equal(DefaultIterations, kdf.Iterations(), "kdf.Iterations()")
	require.Equal(
		mustDecodeHexString(t, "79c05b84 b7a89e10 78dc3505 bd346b23"),
		kdf.Salt(),
		"kdf.Salt(): MD5 of the historical class name",
	)

	// Nil/non-positive parameters select the defaults.
	fallback := New(nil, nil, -5)
	require.Equal(kdf.Salt(), fallback.Salt(), "New(): salt fallback")
	require.Equal(kdf.Iterations(), fallback.Iterations(), "New(): iteration fallback")

	// The defaults are part of the wire compatibility contract, a key
	// derived with them must never change.
	dk, err := kdf.Key([]byte("passphrase"), 32)
	require.NoError(err, "kdf.Key()")
	require.Equal(
		xpbkdf2.Key([]byte("passphrase"), kdf.Salt(), DefaultIterations, 32, sha1.New),
		dk,
		"kdf.Key(): default parameters",
	)
}

func TestInvalidParameters(t *testing.T) {
	require := require.New(t)

	kdf := NewDefault()

	dk, err := kdf.Key(nil, 20)
	require.Equal(ErrInvalidParameter, err, "kdf.Key(): nil passphrase")
	require.Nil(dk, "kdf.Key(): nil passphrase")

	dk, err = kdf.Key([]byte{}, 20)
	require.Equal(ErrInvalidParameter, err, "kdf.Key(): empty passphrase")
	require.Nil(dk, "kdf.Key(): empty passphrase")

	dk, err = kdf.Key([]byte("passphrase"), 0)
	require.Equal(ErrInvalidParameter, err, "kdf.Key(): zero length")
	require.Nil(dk, "kdf.Key(): zero length")

	dk, err = kdf.Key([]byte("passphrase"), -1)
	require.Equal(ErrInvalidParameter, err, "kdf.Key(): negative length")
	require.Nil(dk, "kdf.Key(): negative length")
}

// Differential test against the x/crypto implementation across hash
// functions, iteration counts and block boundary straddling output
// lengths.
func TestAgainstXCrypto(t *testing.T) {
	require := require.New(t)

	hashes := []struct {
		Name string
		New  func() hash.Hash
	}{
		{"SHA1", sha1.New},
		{"SHA256", sha256.New},
	}

	for _, h := range hashes {
		hLen := h.New().Size()
		for _, iter := range []int{1, 2, 37, 1000} {
			kdf := New(h.New, []byte("NaCl"), iter)
			for _, dkLen := range []int{1, hLen - 1, hLen, hLen + 1, 2*hLen + 5, 64} {
				dk, err := kdf.Key([]byte("passphrase"), dkLen)
				require.NoError(err, "%s/%d/%d: kdf.Key()", h.Name, iter, dkLen)
				require.Equal(
					xpbkdf2.Key([]byte("passphrase"), []byte("NaCl"), iter, dkLen, h.New),
					dk,
					"%s/%d/%d: kdf.Key() output", h.Name, iter, dkLen,
				)
			}
		}
	}
}

func TestReconfigure(t *testing.T) {
	require := require.New(t)

	kdf := New(sha1.New, []byte("salt"), 1)
	first, err := kdf.Key([]byte("password"), 20)
	require.NoError(err, "kdf.Key(): before reconfigure")

	kdf.SetIterations(4096)
	second, err := kdf.Key([]byte("password"), 20)
	require.NoError(err, "kdf.Key(): after reconfigure")
	require.Equal(mustDecodeHexString(t, "4b007901 b765489a bead49d9 26f721d0 65a429c1"), second,
		"kdf.Key(): reconfigured iterations")
	require.NotEqual(first, second, "kdf.Key(): parameters took effect")

	// The salt is copied at configuration time.
	salt := []byte("salt")
	kdf.SetSalt(salt)
	salt[0] = 'x'
	third, err := kdf.Key([]byte("password"), 20)
	require.NoError(err, "kdf.Key(): after salt mutation")
	require.Equal(second, third, "kdf.Key(): salt copied")
}
