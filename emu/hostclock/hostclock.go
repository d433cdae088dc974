/*
 * S370 - Host wall clock source
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

package hostclock

import (
	"log/slog"

	"github.com/rcornwell/todclock/emu/etod"
)

// Source of host wall clock time in seconds and nanoseconds since 1970.
type Reader interface {
	Now() (sec int64, nsec int64, err error)
}

// Adapter to allow ordinary functions as a Reader.
type ReaderFunc func() (int64, int64, error)

func (f ReaderFunc) Now() (int64, int64, error) {
	return f()
}

// Host clock sampler. Not safe for concurrent use, the owner
// serializes access.
type Clock struct {
	reader Reader
	prec   etod.Precision
	sec    int64     // Last good host reading.
	nsec   int64     // Nanoseconds of last good reading.
	last   etod.ETOD // Last universal sample handed out.
	failed bool      // Set once a read error has been reported.
}

// Create a host clock sampler.
func New(reader Reader, prec etod.Precision) *Clock {
	if reader == nil {
		reader = System()
	}
	return &Clock{reader: reader, prec: prec}
}

// Return current host time in clock format. A failed read reuses
// the previous host reading.
func (c *Clock) Sample() etod.ETOD {
	sec, nsec, err := c.reader.Now()
	if err != nil {
		hostReadErrors.Inc()
		if !c.failed {
			c.failed = true
			slog.Warn("Host clock read failed, reusing previous sample", "error", err)
		}
		sec, nsec = c.sec, c.nsec
	} else {
		c.sec, c.nsec = sec, nsec
	}
	c.last = etod.FromHost(sec, nsec, c.prec)
	return c.last
}

// Last universal sample returned.
func (c *Clock) Last() etod.ETOD {
	return c.last
}

// Replace cached sample, used on restore.
func (c *Clock) SetLast(v etod.ETOD) {
	c.last = v
}

func (c *Clock) Precision() etod.Precision {
	return c.prec
}
