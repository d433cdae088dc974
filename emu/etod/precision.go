/*
 * S370 - Clock precision
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

import "github.com/pingcap/errors"

// Number of significant bits in a clock value.
type Precision int

const (
	Precision64  Precision = 64
	Precision95  Precision = 95
	Precision120 Precision = 120
)

var ErrPrecision = errors.New("clock precision must be 64, 95 or 120")

// Validate and return precision.
func ParsePrecision(bits int) (Precision, error) {
	p := Precision(bits)
	if !p.Valid() {
		return 0, errors.Annotatef(ErrPrecision, "precision %d", bits)
	}
	return p, nil
}

func (p Precision) Valid() bool {
	switch p {
	case Precision64, Precision95, Precision120:
		return true
	}
	return false
}

// Mask of the low word bits kept at this precision.
func (p Precision) Mask() uint64 {
	switch p {
	case Precision64:
		return 0
	case Precision95:
		return 0xFFFFFFFE00000000
	default:
		return 0xFFFFFFFFFFFFFF00
	}
}

// Smallest nonzero step representable at this precision.
func (p Precision) MinIncrement() ETOD {
	switch p {
	case Precision64:
		return ETOD{High: 1}
	case Precision95:
		return ETOD{Low: 1 << 33}
	default:
		return ETOD{Low: 1 << 8}
	}
}
