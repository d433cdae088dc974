/*
 * S370 - Extended TOD clock value tests
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
	"testing"
	"time"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"
)

func TestFromHostEpoch(t *testing.T) {
	re := require.New(t)
	re.Equal(ETOD{High: Epoch1970}, FromHost(0, 0, Precision120))
	re.Equal(uint64(0x007D91048BCA0000), Epoch1970)
	re.Equal(uint64(0x141DD760000), Day)

	v := FromHost(1, 500, Precision120)
	re.Equal(Epoch1970+Second+8, v.High)
	re.Zero(v.Low)
}

func TestFromHostRemainder(t *testing.T) {
	re := require.New(t)

	// 62ns is less than one high unit, 63ns is just over.
	v := FromHost(0, 62, Precision120)
	re.Equal(Epoch1970, v.High)
	re.NotZero(v.Low)
	w := FromHost(0, 63, Precision120)
	re.Equal(Epoch1970+1, w.High)
	re.True(v.Less(w))

	for _, tc := range []struct {
		prec Precision
		keep uint64
	}{
		{Precision64, 0},
		{Precision95, 0xFFFFFFFE00000000},
		{Precision120, 0xFFFFFFFFFFFFFF00},
	} {
		v := FromHost(0, 999_999_999, tc.prec)
		re.Equal(uint64(0), v.Low&^tc.keep, "precision %d", tc.prec)
		if tc.prec != Precision64 {
			re.NotZero(v.Low)
		}
	}
}

func TestFromTime(t *testing.T) {
	re := require.New(t)
	now := time.Unix(1717200000, 250_000_000)
	re.Equal(FromHost(1717200000, 250_000_000, Precision95), FromTime(now, Precision95))
}

func TestArithmetic(t *testing.T) {
	re := require.New(t)
	re.Equal(ETOD{High: 2}, ETOD{High: 1, Low: ^uint64(0)}.Add(ETOD{Low: 1}))
	re.Equal(ETOD{High: 1, Low: ^uint64(0)}, ETOD{High: 2}.Sub(ETOD{Low: 1}))
	re.Equal(ETOD{Low: 1 << 63}, ETOD{High: 1}.Shr(1))
	re.Equal(ETOD{High: 1 << 16}, ETOD{High: 1 << 32}.Shr(16))
	re.True(ETOD{High: 1}.Less(ETOD{High: 1, Low: 1}))
	re.False(ETOD{High: 1}.Less(ETOD{High: 1}))
	re.True(ETOD{}.IsZero())
}

func TestAfterWraps(t *testing.T) {
	re := require.New(t)
	re.True(ETOD{High: 5, Low: 1}.After(ETOD{High: 5}))
	re.False(ETOD{High: 5}.After(ETOD{High: 5}))
	re.False(ETOD{High: 4}.After(ETOD{High: 5}))
	re.True(ETOD{}.After(ETOD{High: ^uint64(0)}))
	re.True(ETOD{High: 1 << 40}.After(ETOD{High: ^uint64(0) - 1<<40}))
	re.False(ETOD{}.After(ETOD{High: 1 << 63}))
	re.False(ETOD{High: 1 << 62}.After(ETOD{High: 1<<63 | 5}))
	re.False(ETOD{High: 1<<63 - 1}.After(ETOD{High: 1 << 63}))
	re.False(ETOD{High: 1 << 63}.After(ETOD{High: 1<<63 + 1}))
}

func TestTODImage(t *testing.T) {
	re := require.New(t)
	re.Equal(uint64(0x1FF), ETOD{High: 1, Low: 0xFF << 56}.TOD())
	re.Equal("0000000000000001.FF00000000000000", ETOD{High: 1, Low: 0xFF << 56}.String())
}

func TestPrecision(t *testing.T) {
	re := require.New(t)
	p, err := ParsePrecision(95)
	re.NoError(err)
	re.Equal(Precision95, p)
	_, err = ParsePrecision(100)
	re.Equal(ErrPrecision, errors.Cause(err))

	re.Equal(ETOD{High: 1}, Precision64.MinIncrement())
	re.Equal(ETOD{Low: 1 << 33}, Precision95.MinIncrement())
	re.Equal(ETOD{Low: 1 << 8}, Precision120.MinIncrement())
	re.Equal(Precision120.MinIncrement().Low, Precision120.MinIncrement().Low&Precision120.Mask())
}
