/*
 * S370 - Hardware clock
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

// Host samples taken to estimate the host clock resolution.
const calibrationSamples = 1 << 16

// Return next steered hardware clock value. Every value is strictly
// greater than the previous one. Caller must hold e.mu.
func (e *Engine) hwSample() etod.ETOD {
	for {
		universal := e.host.Sample()
		if e.steer.Pending() {
			steeringEpisodes.Inc()
			if e.debugOn(debugSteering) {
				e.debugf(debugSteering, "episode start fine=%d gross=%d offset=%d",
					e.steer.New().FineRate, e.steer.New().GrossRate, e.steer.New().BaseOffset)
			}
		}
		adjusted := e.steer.Apply(universal.High)
		if adjusted > e.last.High {
			e.last = etod.ETOD{High: adjusted, Low: universal.Low}
			return e.last
		}
		if e.unique.IsZero() {
			e.calibrate()
			continue
		}
		e.last = e.last.Add(e.unique)
		return e.last
	}
}

// Estimate the smallest step of the host clock. Used to make clock
// values unique when the host clock has not moved. Caller must hold e.mu.
func (e *Engine) calibrate() {
	start := e.host.Sample()
	end := start
	for range calibrationSamples {
		end = e.host.Sample()
	}

	var inc etod.ETOD
	if start.Less(end) {
		inc = end.Sub(start).Sub(etod.ETOD{Low: 1}).Shr(16)
	}
	inc.Low &= e.prec.Mask()
	if inc.IsZero() {
		inc = e.prec.MinIncrement()
	}
	if step := e.stckStep(); inc.Less(step) {
		inc = step
	}
	e.unique = inc

	calibrations.Inc()
	uniqueIncrement.Set(float64(inc.High) + float64(inc.Low)/(1<<64))
	e.debugf(debugCalibrate, "unique increment %s", inc.String())
	slog.Info("TOD clock calibrated", "increment", inc.String())
}

// Smallest step that changes a CPU stamped STCK image.
func (e *Engine) stckStep() etod.ETOD {
	if e.prec == etod.Precision64 || e.cpuWidth >= 8 {
		return etod.ETOD{High: 1}
	}
	return etod.ETOD{Low: 1 << (56 + e.cpuWidth)}
}

// Calibrate the uniqueness increment now rather than on first need.
func (e *Engine) Calibrate() {
	e.mu.Lock()
	e.calibrate()
	e.mu.Unlock()
}

// Current steered hardware clock, high word.
func (e *Engine) HardwareClock() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hwSample().High
}

// Current uniqueness increment, zero when not yet calibrated.
func (e *Engine) UniqueIncrement() etod.ETOD {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unique
}
