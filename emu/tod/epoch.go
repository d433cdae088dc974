/*
 * S370 - TOD clock epoch
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

// Lock order: epochMu, then Engine.mu or a CPU lock. A CPU lock may
// be held while taking Engine.mu, never the reverse.

// Set the epoch and copy it to every online CPU. Steering registers
// are reset.
func (e *Engine) SetEpoch(epoch int64) {
	e.epochMu.Lock()
	defer e.epochMu.Unlock()
	e.setEpochLocked(epoch)
}

// Caller must hold e.epochMu.
func (e *Engine) setEpochLocked(epoch int64) {
	e.mu.Lock()
	e.steer.ResetRegisters()
	e.epoch = epoch
	e.mu.Unlock()

	e.propagateEpoch(epoch)
}

// Add delta to the epoch and copy it to every online CPU.
func (e *Engine) AdjustEpoch(delta int64) {
	e.epochMu.Lock()
	defer e.epochMu.Unlock()

	e.mu.Lock()
	e.steer.ResetRegisters()
	epoch := e.epoch + delta
	e.epoch = epoch
	e.mu.Unlock()

	e.propagateEpoch(epoch)
}

// Install epoch without touching steering state.
func (e *Engine) installEpoch(epoch int64) {
	e.epochMu.Lock()
	defer e.epochMu.Unlock()

	e.mu.Lock()
	e.epoch = epoch
	e.mu.Unlock()

	e.propagateEpoch(epoch)
}

// Set the epoch so the hardware clock reads as value now.
func (e *Engine) SetClock(value uint64) {
	e.SetEpoch(int64(value - e.HardwareClock()))
}

// Current global epoch.
func (e *Engine) Epoch() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.epoch
}

// Epoch as seen by cpu.
func (e *Engine) CPUEpoch(cpu int) (int64, error) {
	c, err := e.checkCPU(cpu)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch, nil
}

func (e *Engine) propagateEpoch(epoch int64) {
	epochGauge.Set(float64(epoch))
	if e.debugOn(debugEpoch) {
		e.debugf(debugEpoch, "epoch set %d", epoch)
	}
	for _, c := range e.cpus {
		c.mu.Lock()
		if c.online {
			c.epoch = epoch
		}
		c.mu.Unlock()
	}
}
