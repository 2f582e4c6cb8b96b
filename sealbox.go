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

// Package sealbox stores arbitrary plaintext as an authenticated,
// encrypted DER blob (the "container") and recovers the plaintext on a
// host holding the key material.
//
// Data is encrypted with AES-256 in Cipher Feedback (CFB) mode and
// authenticated with HMAC-SHA1 over the plaintext.  The container is
// the DER encoded structure
//
//	Container ::= SEQUENCE {
//	        version      INTEGER,          -- currently always 0
//	        cipherText   OCTET STRING,
//	        hmac         OCTET STRING }
//
// The MAC covers the plaintext, not the ciphertext.  This
// encrypt-and-MAC composition is inherited from the existing on disk
// format and is kept for compatibility with previously written
// containers.
package sealbox

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec
	"crypto/subtle"
	"errors"
	"fmt"
	"hash"

	"github.com/oasisprotocol/sealbox/der"
	"github.com/oasisprotocol/sealbox/internal/api"
	"github.com/oasisprotocol/sealbox/internal/cfb"
	"github.com/oasisprotocol/sealbox/internal/ct64"
	"github.com/oasisprotocol/sealbox/pbkdf2"
)

const (
	// KeySize is the AES-256 key size in bytes.
	KeySize = 32

	// CipherBlockSize is the AES block size in bytes, and so the size
	// of an initialization vector.
	CipherBlockSize = 16

	// RecommendedSaltSize is the recommended HMAC salt size in bytes.
	// Any positive salt size is accepted.
	RecommendedSaltSize = 24

	// TagSize is the size of the container's HMAC-SHA1 tag in bytes.
	TagSize = sha1.Size

	// Version is the container format version this package produces.
	Version = 0
)

var (
	// ErrInvalidParameter is the error returned when key material
	// fails its documented length constraints.
	ErrInvalidParameter = errors.New("sealbox: invalid input parameters")

	// ErrNoInput is the error returned when an empty plaintext or
	// blob is passed to Encode or Decode.
	ErrNoInput = errors.New("sealbox: no input given")

	// ErrNotInitialized is the error returned when a destroyed or
	// improperly constructed container is used.
	ErrNotInitialized = errors.New("sealbox: container engine not initialized")

	// ErrIntegrity is the error returned by Decode when the stored
	// HMAC does not match the one computed over the recovered
	// plaintext.
	ErrIntegrity = errors.New("sealbox: hmac verification failed")

	factory api.Factory = ct64.Factory
)

// Container encrypts plaintexts into DER blobs and authenticates and
// decrypts such blobs back into plaintexts.  A Container instance is
// not safe for concurrent use, independent instances are.
type Container struct {
	mode *cfb.Mode
	mac  hash.Hash

	key  []byte
	iv   []byte
	salt []byte

	initialized bool
}

// New constructs a Container from a symmetric key, an initialization
// vector and an HMAC salt.  Only the first KeySize bytes of key and the
// first CipherBlockSize bytes of iv are used, the salt is used in full
// and must be at least one byte.  All inputs are copied, the caller may
// zero its buffers as soon as New returns.
func New(key, iv, hmacSalt []byte) (*Container, error) {
	if len(key) < KeySize || len(iv) < CipherBlockSize || len(hmacSalt) == 0 {
		return nil, ErrInvalidParameter
	}

	c := &Container{
		key:  append([]byte(nil), key[:KeySize]...),
		iv:   append([]byte(nil), iv[:CipherBlockSize]...),
		salt: append([]byte(nil), hmacSalt...),
	}

	mode, err := cfb.New(factory.New(), c.key, c.iv)
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("sealbox: initialization of crypto engine failed: %w", err)
	}
	c.mode = mode
	c.mac = hmac.New(sha1.New, c.salt)
	c.initialized = true

	return c, nil
}

// NewFromKeyMaterial constructs a Container from a single buffer,
// carved as key [0:KeySize), IV [KeySize:KeySize+CipherBlockSize) and
// HMAC salt (the rest, at least one byte).  The buffer is copied, the
// caller may zero it as soon as NewFromKeyMaterial returns.
func NewFromKeyMaterial(keyMaterial []byte) (*Container, error) {
	if len(keyMaterial) <= KeySize+CipherBlockSize {
		return nil, ErrInvalidParameter
	}

	return New(
		keyMaterial[:KeySize],
		keyMaterial[KeySize:KeySize+CipherBlockSize],
		keyMaterial[KeySize+CipherBlockSize:],
	)
}

// NewFromPassphrase constructs a Container whose key material is
// derived from passPhrase with the default PBKDF2 parameters
// (HMAC-SHA1, 10000 iterations, the fixed salt).  The derived material
// is zeroed before returning.
func NewFromPassphrase(passPhrase []byte) (*Container, error) {
	kdf := pbkdf2.NewDefault()
	keyMaterial, err := kdf.Key(passPhrase, KeySize+CipherBlockSize+RecommendedSaltSize)
	if err != nil {
		return nil, ErrInvalidParameter
	}
	defer api.Bzero(keyMaterial)

	return NewFromKeyMaterial(keyMaterial)
}

// Encode encrypts plainText and packs it into a DER encoded container.
func (c *Container) Encode(plainText []byte) ([]byte, error) {
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	if len(plainText) == 0 {
		return nil, ErrNoInput
	}

	cipherText, err := c.mode.Encrypt(plainText)
	if err != nil {
		return nil, fmt.Errorf("sealbox: encryption failed: %w", err)
	}

	c.mac.Reset()
	c.mac.Write(plainText)
	tag := c.mac.Sum(nil)

	enc := der.NewEncoder()
	enc.AppendInt(Version)
	enc.AppendOctetString(cipherText)
	enc.AppendOctetString(tag)

	return enc.Encode(), nil
}

// Decode parses a DER encoded container, decrypts the ciphertext and
// verifies the HMAC over the recovered plaintext.  On any failure no
// partial plaintext is returned.
func (c *Container) Decode(blob []byte) ([]byte, error) {
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	if len(blob) == 0 {
		return nil, ErrNoInput
	}

	cipherText, storedTag, err := parseContainer(blob)
	if err != nil {
		return nil, err
	}

	plainText, err := c.mode.Decrypt(cipherText)
	if err != nil {
		return nil, fmt.Errorf("sealbox: decryption failed: %w", err)
	}

	c.mac.Reset()
	c.mac.Write(plainText)
	computed := c.mac.Sum(nil)

	if subtle.ConstantTimeCompare(computed, storedTag) != 1 {
		// Do not release unauthenticated plaintext.
		api.Bzero(plainText)
		return nil, ErrIntegrity
	}

	return plainText, nil
}

// parseContainer unpacks the ciphertext and the stored tag out of the
// container structure.
func parseContainer(blob []byte) ([]byte, []byte, error) {
	dec := der.NewDecoder(blob)

	seq, err := dec.ParseSequence()
	if err != nil {
		return nil, nil, containerErr(err)
	}
	if dec.MoreAt(seq.Start + seq.Len) {
		return nil, nil, containerErr(fmt.Errorf("%w: trailing bytes after container", der.ErrMalformed))
	}

	verRange, err := dec.ParseInteger()
	if err != nil {
		return nil, nil, containerErr(err)
	}
	version, err := dec.ToInt(verRange)
	if err != nil {
		return nil, nil, containerErr(err)
	}
	if version != Version {
		return nil, nil, containerErr(fmt.Errorf("%w: unsupported container version %d", der.ErrMalformed, version))
	}

	textRange, err := dec.ParseOctetString()
	if err != nil {
		return nil, nil, containerErr(err)
	}
	tagRange, err := dec.ParseOctetString()
	if err != nil {
		return nil, nil, containerErr(err)
	}
	if dec.More() {
		return nil, nil, containerErr(fmt.Errorf("%w: trailing bytes in container body", der.ErrMalformed))
	}

	return dec.Bytes(textRange), dec.Bytes(tagRange), nil
}

func containerErr(err error) error {
	return fmt.Errorf("sealbox: parsing of the container failed: %w", err)
}

// Destroy overwrites the container's key material copies with zero.
// The container is unusable afterwards.
func (c *Container) Destroy() {
	api.Bzero(c.key)
	api.Bzero(c.iv)
	api.Bzero(c.salt)
	if c.mode != nil {
		c.mode.Destroy()
	}
	c.initialized = false
}
