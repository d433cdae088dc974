/*
 * S370 - Per CPU clock state
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
	"github.com/pingcap/errors"
	"github.com/rcornwell/todclock/util/syncutil"
)

// Clock state owned by one CPU.
type cpuState struct {
	mu       syncutil.Mutex
	online   bool
	epoch    int64                  // Copy of the global epoch.
	timers   [timerCount]timerState // Timers, absolute hardware targets.
	rotation uint16                 // Extended format rotation, guarded by Engine.mu.
}

// Return state of CPU, nil if address not valid.
func (e *Engine) cpu(cpu int) *cpuState {
	if cpu < 0 || cpu >= len(e.cpus) {
		return nil
	}
	return e.cpus[cpu]
}

// Return state of CPU or error.
func (e *Engine) checkCPU(cpu int) (*cpuState, error) {
	c := e.cpu(cpu)
	if c == nil {
		return nil, errors.Annotatef(ErrCPUAddress, "cpu %d", cpu)
	}
	return c, nil
}

// Bring CPU online. It receives the current epoch.
func (e *Engine) Online(cpu int) error {
	c, err := e.checkCPU(cpu)
	if err != nil {
		return err
	}
	c.mu.Lock()
	e.mu.Lock()
	c.epoch = e.epoch
	e.mu.Unlock()
	c.online = true
	c.mu.Unlock()
	return nil
}

// Take CPU offline. Its timers are cleared.
func (e *Engine) Offline(cpu int) error {
	c, err := e.checkCPU(cpu)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.online = false
	c.timers = [timerCount]timerState{}
	c.mu.Unlock()
	return nil
}

// Return true if CPU is online.
func (e *Engine) IsOnline(cpu int) bool {
	c := e.cpu(cpu)
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}
