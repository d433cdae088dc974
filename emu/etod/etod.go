/*
 * S370 - Extended TOD clock values
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package etod

import (
	"math/bits"
	"strings"
	"time"

	"github.com/rcornwell/todclock/util/hex"
)

// Clock units. Bit 59 of the high word is one microsecond.
const (
	Microsecond uint64 = 16
	Millisecond        = 1000 * Microsecond
	Second             = 1000 * Millisecond
	Minute             = 60 * Second
	Hour               = 60 * Minute
	Day                = 24 * Hour

	// Days from 1900-01-01 to 1970-01-01.
	Days1900To1970 = 25567

	// Clock value of 1970-01-01 00:00:00 UTC.
	Epoch1970 uint64 = Days1900To1970 * Day
)

// Extended TOD value. High holds the architected clock, Low
// carries the extra resolution bits.
type ETOD struct {
	High uint64
	Low  uint64
}

// Convert a host time into clock format with the given precision.
// All arithmetic is integer and wraps modulo the clock period.
func FromHost(sec int64, nsec int64, prec Precision) ETOD {
	ns := uint64(nsec)
	high := uint64(sec)*Second + (ns*2)/125 + Epoch1970
	rem := (ns * 2) % 125
	low, _ := bits.Div64(rem, 0, 125)
	return ETOD{High: high, Low: low & prec.Mask()}
}

// Convert a time.Time into clock format.
func FromTime(t time.Time, prec Precision) ETOD {
	return FromHost(t.Unix(), int64(t.Nanosecond()), prec)
}

// Return true if value is zero.
func (e ETOD) IsZero() bool {
	return e.High == 0 && e.Low == 0
}

// 128 bit add with carry.
func (e ETOD) Add(o ETOD) ETOD {
	low, carry := bits.Add64(e.Low, o.Low, 0)
	high, _ := bits.Add64(e.High, o.High, carry)
	return ETOD{High: high, Low: low}
}

// 128 bit subtract with borrow.
func (e ETOD) Sub(o ETOD) ETOD {
	low, borrow := bits.Sub64(e.Low, o.Low, 0)
	high, _ := bits.Sub64(e.High, o.High, borrow)
	return ETOD{High: high, Low: low}
}

// Logical right shift of the 128 bit value, n < 64.
func (e ETOD) Shr(n uint) ETOD {
	if n == 0 {
		return e
	}
	return ETOD{High: e.High >> n, Low: (e.Low >> n) | (e.High << (64 - n))}
}

// Unsigned 128 bit compare.
func (e ETOD) Less(o ETOD) bool {
	if e.High != o.High {
		return e.High < o.High
	}
	return e.Low < o.Low
}

// Compare for the clock watermark. A value whose top bit is clear is
// treated as later than one with the top bit set when it is less than
// half the clock period ahead, so the clock keeps advancing across the
// wrap of the high word.
func (e ETOD) After(o ETOD) bool {
	if e.High > o.High || (e.High == o.High && e.Low > o.Low) {
		return true
	}
	return o.High>>63 == 1 && e.High>>63 == 0 && e.High-o.High < 1<<63
}

// Architected 64 bit STCK image, bit 51 is one microsecond.
func (e ETOD) TOD() uint64 {
	return e.High<<8 | e.Low>>56
}

func (e ETOD) String() string {
	var str strings.Builder
	hex.FormatDouble(&str, e.High)
	str.WriteByte('.')
	hex.FormatDouble(&str, e.Low)
	return str.String()
}
