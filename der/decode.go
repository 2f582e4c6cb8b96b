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

import "fmt"

// Decoder is a cursor over a DER blob.  Parse operations advance the
// cursor and return the Range where the parsed payload lies, payload
// bytes are only copied out on request via Bytes.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	data []byte
	pos  int
}

// NewDecoder constructs a Decoder over blob.  The blob is referenced,
// not copied, and must not be mutated while the Decoder is in use.
func NewDecoder(blob []byte) *Decoder {
	return &Decoder{data: blob}
}

// ParseSequence parses a SEQUENCE header at the cursor and returns the
// range of its payload.  The cursor is advanced to the payload start,
// so the sequence elements can be parsed next.
func (d *Decoder) ParseSequence() (Range, error) {
	return d.parseHeader(TagSequence, false)
}

// ParseInteger parses an INTEGER at the cursor and advances past its
// payload.
func (d *Decoder) ParseInteger() (Range, error) {
	return d.parseHeader(TagInteger, true)
}

// ParseOctetString parses an OCTET STRING at the cursor and advances
// past its payload.
func (d *Decoder) ParseOctetString() (Range, error) {
	return d.parseHeader(TagOctetString, true)
}

func (d *Decoder) parseHeader(tag byte, skipPayload bool) (Range, error) {
	if d.pos >= len(d.data) {
		return Range{}, fmt.Errorf("%w: unexpected end of input", ErrMalformed)
	}
	if d.data[d.pos] != tag {
		return Range{}, fmt.Errorf("%w: unexpected tag 0x%02x", ErrMalformed, d.data[d.pos])
	}
	pos := d.pos + 1

	if pos >= len(d.data) {
		return Range{}, fmt.Errorf("%w: truncated length", ErrMalformed)
	}
	var length64 int64
	switch b := d.data[pos]; {
	case b&0x80 == 0:
		length64 = int64(b)
		pos++
	default:
		k := int(b & 0x7f)
		if k == 0 || k > 4 {
			return Range{}, fmt.Errorf("%w: unsupported length of length %d", ErrMalformed, k)
		}
		pos++
		if pos+k > len(d.data) {
			return Range{}, fmt.Errorf("%w: truncated length", ErrMalformed)
		}
		for i := 0; i < k; i++ {
			length64 = length64<<8 | int64(d.data[pos+i])
		}
		pos += k
	}

	if length64 > int64(len(d.data)-pos) {
		return Range{}, fmt.Errorf("%w: length exceeds input", ErrMalformed)
	}
	length := int(length64)

	r := Range{Start: pos, Len: length}
	d.pos = pos
	if skipPayload {
		d.pos += length
	}

	return r, nil
}

// ToInt interprets the range as a big endian two's complement integer.
// Payloads longer than 4 bytes are rejected, this profile only encodes
// 32 bit values.
func (d *Decoder) ToInt(r Range) (int32, error) {
	if r.Len < 1 || r.Len > 4 {
		return 0, fmt.Errorf("%w: unsupported integer size %d", ErrMalformed, r.Len)
	}

	var val int32
	if d.data[r.Start]&0x80 != 0 {
		val = -1
	}
	for _, b := range d.data[r.Start : r.Start+r.Len] {
		val = val<<8 | int32(b)
	}

	return val, nil
}

// Bytes returns a copy of the range's payload.
func (d *Decoder) Bytes(r Range) []byte {
	return append([]byte(nil), d.data[r.Start:r.Start+r.Len]...)
}

// More reports whether any input remains past the cursor.
func (d *Decoder) More() bool {
	return d.MoreAt(d.pos)
}

// MoreAt reports whether any input remains past pos.
func (d *Decoder) MoreAt(pos int) bool {
	return pos < len(d.data)
}
