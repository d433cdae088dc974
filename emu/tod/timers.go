/*
 * S370 - CPU timers
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
	"github.com/rcornwell/todclock/util/debug"
)

// Timer sources of a CPU, usable as a bit mask.
type TimerKind int

const (
	TimerCPU        TimerKind = 1 << iota // CPU timer.
	TimerInterval                         // Interval timer at location 0x50.
	TimerVirtual                          // Virtual interval timer.
	TimerComparator                       // Clock comparator.
)

const timerCount = 4

var timerKinds = [timerCount]TimerKind{TimerCPU, TimerInterval, TimerVirtual, TimerComparator}

func (k TimerKind) String() string {
	switch k {
	case TimerCPU:
		return "cpu"
	case TimerInterval:
		return "interval"
	case TimerVirtual:
		return "virtual"
	case TimerComparator:
		return "comparator"
	}
	return "unknown"
}

func (k TimerKind) index() int {
	for i, kind := range timerKinds {
		if kind == k {
			return i
		}
	}
	return -1
}

// Receiver of timer interrupts, implemented by the CPU dispatcher.
type Interrupter interface {
	PostTimerInterrupt(cpu int, kind TimerKind)
}

// One timer. Target is the hardware clock value where it reaches zero,
// or for the comparator the architected value it compares against.
type timerState struct {
	set      bool
	target   uint64
	negative bool // Timer was expired at the last check.
}

// Interval timer units are 1/76800 second. One unit is 625/3 clock units.
func intervalToClock(v int32) uint64 {
	return uint64(int64(v) * 625 / 3)
}

func clockToInterval(v int64) int32 {
	return int32(v * 3 / 625)
}

// Load a timer with target relative to the hardware clock.
func (e *Engine) setTimer(cpu int, kind TimerKind, delta uint64) error {
	c, err := e.checkCPU(cpu)
	if err != nil {
		return err
	}
	now := e.HardwareClock()
	c.mu.Lock()
	t := &c.timers[kind.index()]
	t.set = true
	t.target = now + delta
	t.negative = int64(delta) < 0
	c.mu.Unlock()
	if e.debugOn(debugTimer) {
		debug.DebugCPUf(cpu, int(e.debugMsk.Load()), debugTimer, "%s timer target %016x", kind.String(), now+delta)
	}
	return nil
}

// Remaining clock units of a timer, zero if never set.
func (e *Engine) remaining(cpu int, kind TimerKind) (int64, error) {
	c, err := e.checkCPU(cpu)
	if err != nil {
		return 0, err
	}
	now := e.HardwareClock()
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.timers[kind.index()]
	if !t.set {
		return 0, nil
	}
	return int64(t.target - now), nil
}

// Set CPU timer. Bit 51 of the timer is one microsecond.
func (e *Engine) SetCPUTimer(cpu int, value int64) error {
	return e.setTimer(cpu, TimerCPU, uint64(value>>8))
}

// Current CPU timer value.
func (e *Engine) CPUTimer(cpu int) (int64, error) {
	rem, err := e.remaining(cpu, TimerCPU)
	return rem << 8, err
}

// Set interval timer in 1/76800 second units.
func (e *Engine) SetIntervalTimer(cpu int, value int32) error {
	return e.setTimer(cpu, TimerInterval, intervalToClock(value))
}

// Current interval timer value.
func (e *Engine) IntervalTimer(cpu int) (int32, error) {
	rem, err := e.remaining(cpu, TimerInterval)
	return clockToInterval(rem), err
}

// Set virtual interval timer in 1/76800 second units.
func (e *Engine) SetVirtualTimer(cpu int, value int32) error {
	return e.setTimer(cpu, TimerVirtual, intervalToClock(value))
}

// Current virtual interval timer value.
func (e *Engine) VirtualTimer(cpu int) (int32, error) {
	rem, err := e.remaining(cpu, TimerVirtual)
	return clockToInterval(rem), err
}

// Set clock comparator, value is an architected clock high word.
func (e *Engine) SetClockComparator(cpu int, value uint64) error {
	c, err := e.checkCPU(cpu)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.timers[TimerComparator.index()] = timerState{set: true, target: value}
	c.mu.Unlock()
	return nil
}

// Current clock comparator.
func (e *Engine) ClockComparator(cpu int) (uint64, error) {
	c, err := e.checkCPU(cpu)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers[TimerComparator.index()].target, nil
}

// Check all timers of cpu. Timers that went from not expired to expired
// since the last check are posted to the interrupter and returned.
func (e *Engine) CheckTimers(cpu int) (TimerKind, error) {
	c, err := e.checkCPU(cpu)
	if err != nil {
		return 0, err
	}
	now := e.HardwareClock()
	tod := e.ArchitectedClock(cpu, Fast).High

	var fired TimerKind
	c.mu.Lock()
	if !c.online {
		c.mu.Unlock()
		return 0, errors.Annotatef(ErrCPUOffline, "cpu %d", cpu)
	}
	for i, kind := range timerKinds {
		t := &c.timers[i]
		if !t.set {
			continue
		}
		var expired bool
		if kind == TimerComparator {
			expired = tod > t.target
		} else {
			expired = int64(t.target-now) < 0
		}
		if expired && !t.negative {
			fired |= kind
		}
		t.negative = expired
	}
	c.mu.Unlock()

	e.post(cpu, fired)
	return fired, nil
}

// Check interval timer of cpu, posting an interrupt on expiry. Returns
// true while the interval timer is negative.
func (e *Engine) CheckIntervalTimerPending(cpu int) (bool, error) {
	c, err := e.checkCPU(cpu)
	if err != nil {
		return false, err
	}
	now := e.HardwareClock()

	var fired TimerKind
	c.mu.Lock()
	t := &c.timers[TimerInterval.index()]
	expired := t.set && int64(t.target-now) < 0
	if expired && !t.negative {
		fired = TimerInterval
	}
	t.negative = expired
	c.mu.Unlock()

	e.post(cpu, fired)
	return expired, nil
}

// Deliver fired timers to the interrupter.
func (e *Engine) post(cpu int, fired TimerKind) {
	if fired == 0 {
		return
	}
	e.irqMu.Lock()
	irq := e.irq
	e.irqMu.Unlock()
	for _, kind := range timerKinds {
		if fired&kind == 0 {
			continue
		}
		timerInterruptCounters[kind].Inc()
		if e.debugOn(debugTimer) {
			debug.DebugCPUf(cpu, int(e.debugMsk.Load()), debugTimer, "%s timer interrupt", kind.String())
		}
		if irq != nil {
			irq.PostTimerInterrupt(cpu, kind)
		}
	}
}
