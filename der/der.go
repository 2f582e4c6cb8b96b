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

// Package der encodes and decodes the small ASN.1 DER profile used by
// the sealbox container format: a SEQUENCE of INTEGER and OCTET STRING
// elements with minimal length encodings.
//
// See ITU-T X.690 for the encoding rules.
package der

import "errors"

// ASN.1 tags of the supported types.
const (
	TagInteger     = 0x02
	TagOctetString = 0x04
	TagSequence    = 0x30
)

// ErrMalformed is the error returned when the input is not a well
// formed DER structure of the supported profile.
var ErrMalformed = errors.New("der: malformed structure")

// Range describes where a parsed payload lies within the input blob.
type Range struct {
	// Start is the offset of the first payload byte.
	Start int

	// Len is the payload length in bytes.
	Len int
}
