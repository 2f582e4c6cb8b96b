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

package der

import (
	"gitlab.com/yawning/slice.git"
)

type sequenceItem struct {
	tag      byte
	contents []byte
}

// Encoder accumulates SEQUENCE elements and serializes them in append
// order.  Calling Encode does not consume the accumulated elements,
// more may be appended and Encode called again.
type Encoder struct {
	sequence []sequenceItem
}

// NewEncoder constructs an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// AppendOctetString appends an OCTET STRING element.  A nil slice is
// silently ignored.
func (e *Encoder) AppendOctetString(octets []byte) {
	if octets == nil {
		return
	}

	e.sequence = append(e.sequence, sequenceItem{
		tag:      TagOctetString,
		contents: append([]byte(nil), octets...),
	})
}

// AppendInt appends an INTEGER element holding the minimal big endian
// two's complement encoding of val: positive values whose high bit is
// set gain a single 0x00 pad byte, negative values whose high bit is
// clear gain a single 0xff pad byte.
func (e *Encoder) AppendInt(val int32) {
	buf := []byte{
		byte(uint32(val) >> 24),
		byte(uint32(val) >> 16),
		byte(uint32(val) >> 8),
		byte(uint32(val)),
	}

	// Strip redundant leading bytes.  A leading byte is redundant iff
	// it is 0x00 or 0xff and the following byte repeats its sign bit,
	// which also covers the one byte encodings of 0 and -1.
	for len(buf) > 1 {
		if buf[0] == 0x00 && buf[1]&0x80 == 0 {
			buf = buf[1:]
			continue
		}
		if buf[0] == 0xff && buf[1]&0x80 != 0 {
			buf = buf[1:]
			continue
		}
		break
	}

	e.sequence = append(e.sequence, sequenceItem{
		tag:      TagInteger,
		contents: buf,
	})
}

// Encode serializes the appended elements into a DER SEQUENCE.
func (e *Encoder) Encode() []byte {
	var inner int
	for _, item := range e.sequence {
		inner += 1 + lenOfLen(len(item.contents)) + len(item.contents)
	}

	ret, out := slice.ForAppend(nil, 1+lenOfLen(inner)+inner)

	out[0] = TagSequence
	pos := 1 + putLen(out[1:], inner)
	for _, item := range e.sequence {
		out[pos] = item.tag
		pos++
		pos += putLen(out[pos:], len(item.contents))
		pos += copy(out[pos:], item.contents)
	}

	return ret
}

// lenOfLen returns the number of bytes the DER length encoding of n
// occupies.
func lenOfLen(n int) int {
	if n <= 127 {
		return 1
	}

	var k int
	for ; n > 0; n >>= 8 {
		k++
	}
	return 1 + k
}

// putLen writes the minimal DER length encoding of n into out and
// returns the number of bytes written.
func putLen(out []byte, n int) int {
	if n <= 127 {
		out[0] = byte(n)
		return 1
	}

	k := lenOfLen(n) - 1
	out[0] = 0x80 | byte(k)
	for i := k; i >= 1; i-- {
		out[i] = byte(n)
		n >>= 8
	}
	return 1 + k
}
