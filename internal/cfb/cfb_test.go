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

package cfb

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oasisprotocol/sealbox/internal/api"
	"github.com/oasisprotocol/sealbox/internal/ct64"
	"github.com/oasisprotocol/sealbox/internal/vartime"
)

var testFactories = []api.Factory{
	ct64.Factory,
	vartime.Factory,
}

func mustDecodeHexString(t *testing.T, s string) []byte {
	b, err := hex.DecodeString(s)
	require.NoError(t, err, "hex.DecodeString()")
	return b
}

// NIST CAVP AES-256 CFB128 known answer tests (KAT_AES.zip).
var katVectors = []struct {
	Name       string
	Key        string
	IV         string
	PlainText  string
	CipherText string
}{
	{
		Name:       "CFB128VarTxt256",
		Key:        "0000000000000000000000000000000000000000000000000000000000000000",
		IV:         "fffe0000000000000000000000000000",
		PlainText:  "00000000000000000000000000000000",
		CipherText: "1569859ea6b7206c30bf4fd0cbfac33c",
	},
	{
		Name:       "CFB128KeySbox256",
		Key:        "b7a5794d52737475d53d5a377200849be0260a67a2b22ced8bbef12882270d07",
		IV:         "00000000000000000000000000000000",
		PlainText:  "00000000000000000000000000000000",
		CipherText: "637c31dc2591a07636f646b72daabbe7",
	},
}

func TestVectors(t *testing.T) {
	for _, f := range testFactories {
		t.Run("KnownAnswerTest_"+f.Name(), func(t *testing.T) {
			require := require.New(t)

			for _, tc := range katVectors {
				key := mustDecodeHexString(t, tc.Key)
				iv := mustDecodeHexString(t, tc.IV)
				plainText := mustDecodeHexString(t, tc.PlainText)
				cipherText := mustDecodeHexString(t, tc.CipherText)

				mode, err := New(f.New(), key, iv)
				require.NoError(err, "%s: New()", tc.Name)

				c, err := mode.Encrypt(plainText)
				require.NoError(err, "%s: mode.Encrypt()", tc.Name)
				require.Equal(cipherText, c, "%s: mode.Encrypt() output", tc.Name)

				p, err := mode.Decrypt(c)
				require.NoError(err, "%s: mode.Decrypt()", tc.Name)
				require.Equal(plainText, p, "%s: mode.Decrypt() output", tc.Name)
			}
		})
	}
}

func testInputs() (key, iv, msg []byte) {
	key = make([]byte, api.KeySize)
	iv = make([]byte, api.BlockSize)
	msg = make([]byte, 256)

	for i := range key {
		key[i] = byte(255 & (i*191 + 123))
	}
	for i := range iv {
		iv[i] = byte(255 & (i*181 + 123))
	}
	for i := range msg {
		msg[i] = byte(255 & (i*197 + 123))
	}

	return
}

func TestRoundTrip(t *testing.T) {
	key, iv, msg := testInputs()

	for _, f := range testFactories {
		t.Run("RoundTrip_"+f.Name(), func(t *testing.T) {
			require := require.New(t)

			mode, err := New(f.New(), key, iv)
			require.NoError(err, "New()")

			// Exercise short, aligned and straddling lengths, the
			// final block may be partial and no padding is added.
			for i := 1; i <= len(msg); i++ {
				c, err := mode.Encrypt(msg[:i])
				require.NoError(err, "mode.Encrypt(): %d", i)
				require.Len(c, i, "mode.Encrypt(): length %d", i)

				p, err := mode.Decrypt(c)
				require.NoError(err, "mode.Decrypt(): %d", i)
				require.Len(p, i, "mode.Decrypt(): length %d", i)
				require.Equal(msg[:i], p, "mode.Decrypt(): output %d", i)
			}
		})
	}
}

// Both engines implement the same transform, the mode must produce
// identical output over either of them.
func TestImplAgreement(t *testing.T) {
	require := require.New(t)

	key, iv, msg := testInputs()

	ctMode, err := New(ct64.Factory.New(), key, iv)
	require.NoError(err, "New(ct64)")
	vtMode, err := New(vartime.Factory.New(), key, iv)
	require.NoError(err, "New(vartime)")

	for _, n := range []int{1, 15, 16, 17, 32, 33, 255, 256} {
		a, err := ctMode.Encrypt(msg[:n])
		require.NoError(err, "ct64: Encrypt(%d)", n)
		b, err := vtMode.Encrypt(msg[:n])
		require.NoError(err, "vartime: Encrypt(%d)", n)
		require.Equal(a, b, "implementation agreement: %d", n)
	}
}

func TestConstruction(t *testing.T) {
	require := require.New(t)

	key, iv, _ := testInputs()

	mode, err := New(nil, key, iv)
	require.Equal(ErrNotInitialized, err, "New(): nil engine")
	require.Nil(mode, "New(): nil engine")

	mode, err = New(vartime.Factory.New(), key[:api.BlockSize-1], iv)
	require.Equal(ErrInvalidKeySize, err, "New(): short key")
	require.Nil(mode, "New(): short key")

	mode, err = New(vartime.Factory.New(), key, iv[:api.BlockSize-1])
	require.Equal(ErrInvalidIVSize, err, "New(): short IV")
	require.Nil(mode, "New(): short IV")

	mode, err = New(vartime.Factory.New(), key, append(iv, 0))
	require.Equal(ErrInvalidIVSize, err, "New(): long IV")
	require.Nil(mode, "New(): long IV")
}

func TestNoInput(t *testing.T) {
	require := require.New(t)

	key, iv, _ := testInputs()
	mode, err := New(vartime.Factory.New(), key, iv)
	require.NoError(err, "New()")

	_, err = mode.Encrypt(nil)
	require.Equal(ErrNoInput, err, "mode.Encrypt(nil)")
	_, err = mode.Encrypt([]byte{})
	require.Equal(ErrNoInput, err, "mode.Encrypt(empty)")
	_, err = mode.Decrypt(nil)
	require.Equal(ErrNoInput, err, "mode.Decrypt(nil)")
}

// A key between one block and the AES-256 key size passes the mode's
// configuration check but must be rejected by the engine, surfaced as
// a wrapped failure.
func TestEngineKeyMismatch(t *testing.T) {
	require := require.New(t)

	key, iv, msg := testInputs()
	mode, err := New(vartime.Factory.New(), key[:24], iv)
	require.NoError(err, "New()")

	_, err = mode.Encrypt(msg[:16])
	require.Error(err, "mode.Encrypt(): 24 byte key")
	require.True(errors.Is(err, api.ErrInvalidKeySize), "mode.Encrypt(): wrapped engine error")
}

// directionEngine wraps an engine and records the direction flag of
// every Init call.
type directionEngine struct {
	api.Engine
	dirs []bool
}

func (e *directionEngine) Init(forEncryption bool, key []byte) error {
	e.dirs = append(e.dirs, forEncryption)
	return e.Engine.Init(forEncryption, key)
}

// CFB uses the forward transform for decryption as well, the mode must
// never initialize the engine for decryption.
func TestForwardTransformBothDirections(t *testing.T) {
	require := require.New(t)

	key, iv, msg := testInputs()
	eng := &directionEngine{Engine: vartime.Factory.New()}
	mode, err := New(eng, key, iv)
	require.NoError(err, "New()")

	c, err := mode.Encrypt(msg[:48])
	require.NoError(err, "mode.Encrypt()")
	p, err := mode.Decrypt(c)
	require.NoError(err, "mode.Decrypt()")
	require.Equal(msg[:48], p, "round trip")

	require.Len(eng.dirs, 2, "engine initialized once per call")
	for i, dir := range eng.dirs {
		require.True(dir, "Init %d: forEncryption", i)
	}
}

func TestDestroy(t *testing.T) {
	require := require.New(t)

	key, iv, msg := testInputs()
	mode, err := New(vartime.Factory.New(), key, iv)
	require.NoError(err, "New()")

	mode.Destroy()
	_, err = mode.Encrypt(msg[:16])
	require.Equal(ErrNotInitialized, err, "mode.Encrypt(): after Destroy")
	require.Equal(make([]byte, api.KeySize), mode.key, "key zeroed")
	require.Equal(make([]byte, api.BlockSize), mode.iv, "iv zeroed")
}
