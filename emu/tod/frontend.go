/*
 * S370 - TOD clock frontend
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

package tod

import (
	"log/slog"

	"github.com/rcornwell/todclock/emu/etod"
)

// Clock read formats.
type Format int

const (
	Standard Format = iota // STCK, strictly increasing, CPU stamped.
	Extended               // STCKE, strictly increasing, CPU stamped.
	Raw                    // May return the previous value.
	Fast                   // STCKF, may return the previous value.
)

func (f Format) String() string {
	switch f {
	case Standard:
		return "standard"
	case Extended:
		return "extended"
	case Raw:
		return "raw"
	case Fast:
		return "fast"
	}
	return "unknown"
}

// Retries before a stuck read is reported. The loop itself is not
// capped: the hardware clock gains at least one uniqueness step per
// retry, so the stamped value passes the watermark.
const spinWarnThreshold = 1 << 20

// Read the architected clock on behalf of cpu, or NoCPU. The epoch of
// the CPU is added to the result. An address outside the configured
// range reads as NoCPU.
func (e *Engine) ArchitectedClock(cpu int, format Format) etod.ETOD {
	var c *cpuState
	if cpu != NoCPU {
		c = e.cpu(cpu)
	}

	e.mu.Lock()
	value, spins := e.readLocked(c, cpu, format)
	epoch := e.epoch
	e.mu.Unlock()

	if spins >= spinWarnThreshold {
		slog.Warn("TOD clock read spun past threshold", "cpu", cpu, "format", format.String(), "spins", spins)
	}
	if c != nil {
		c.mu.Lock()
		epoch = c.epoch
		c.mu.Unlock()
	}
	value.High += uint64(epoch)
	return value
}

// Architected 64 bit STCK value.
func (e *Engine) StoreClock(cpu int) uint64 {
	return e.ArchitectedClock(cpu, Standard).TOD()
}

// Full 128 bit STCKE value.
func (e *Engine) ExtendedClock(cpu int) etod.ETOD {
	return e.ArchitectedClock(cpu, Extended)
}

// Produce the next frontend value. Caller must hold e.mu.
func (e *Engine) readLocked(c *cpuState, cpu int, format Format) (etod.ETOD, int) {
	spins := 0
	for {
		hw := e.hwSample()
		value := etod.ETOD{High: hw.High + uint64(e.steer.Current().BaseOffset), Low: hw.Low}
		if c != nil && (format == Standard || format == Extended) {
			value = e.stamp(c, uint64(cpu), value, format)
		}
		if value.After(e.todValue) {
			e.todValue = value
			e.lastSTCK.Store(etod.ETOD{High: value.High + uint64(e.epoch), Low: value.Low}.TOD())
			return value, spins
		}
		if format == Raw || format == Fast {
			staleReads.Inc()
			return e.todValue, spins
		}
		spins++
		frontendSpins.Inc()
		if spins == spinWarnThreshold {
			spinDiagnostics.Inc()
		}
	}
}

// Bits of the low word that appear in the 64 bit STCK image.
const stckLowMask = 0xFF00000000000000

// Put CPU address into the uniqueness bits of value. Standard values
// are cut to the STCK image so the watermark compares what the caller
// sees.
func (e *Engine) stamp(c *cpuState, cpu uint64, value etod.ETOD, format Format) etod.ETOD {
	if format == Standard {
		value.Low = (value.Low&stckLowMask)&^(e.cpuMask<<56) | cpu<<56
		return value
	}
	field := uint64(1)<<(16+e.cpuWidth) - 1
	value.Low = (value.Low &^ field) | (cpu << 16)
	if value.Low == 0 {
		c.rotation++
		value.Low = (e.cpuMask+1)<<16 | uint64(c.rotation)
	}
	return value
}

// STCK image of the last value handed out, with the global epoch. Zero
// before the first read. Does not take the clock lock, so it is safe
// to call from a log handler.
func (e *Engine) LastStoreClock() uint64 {
	return e.lastSTCK.Load()
}

// Last value handed out by the frontend, without epoch.
func (e *Engine) Watermark() etod.ETOD {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.todValue
}
