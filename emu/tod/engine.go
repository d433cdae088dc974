/*
 * S370 - TOD clock engine
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
	"sync/atomic"

	"github.com/pingcap/errors"
	"github.com/rcornwell/todclock/emu/etod"
	"github.com/rcornwell/todclock/emu/hostclock"
	"github.com/rcornwell/todclock/emu/steering"
	"github.com/rcornwell/todclock/util/syncutil"
)

// Used when a clock request is not made on behalf of a CPU.
const NoCPU = -1

// Largest number of CPUs supported.
const MaxCPUs = 256

// Engine construction parameters.
type Config struct {
	Precision   etod.Precision   // Clock precision, default 120 bits.
	MaxCPU      int              // Number of CPU slots, default 1.
	Host        hostclock.Reader // Host clock, default system clock.
	Interrupter Interrupter      // Receives timer interrupts.
}

// TOD clock engine. One instance serves every CPU of the machine.
type Engine struct {
	epochMu  syncutil.Mutex   // Serializes epoch updates.
	mu       syncutil.Mutex   // Guards everything up to cpus.
	host     *hostclock.Clock // Universal time source.
	steer    steering.Engine  // Steering registers.
	last     etod.ETOD        // Last hardware clock value.
	unique   etod.ETOD        // Uniqueness step, zero until calibrated.
	todValue etod.ETOD        // Last value handed out by the frontend.
	lastSTCK atomic.Uint64    // STCK image of todValue with global epoch.
	epoch    int64            // Global epoch.
	prec     etod.Precision   // Clock precision.
	cpuWidth uint             // Width of CPU stamp field.
	cpuMask  uint64           // Mask of CPU stamp field.
	sysEpoch epochConfig      // Configured epoch parameters.
	debugMsk atomic.Int32     // Debug option mask.
	cpus     []*cpuState      // Per CPU state, fixed at creation.
	irqMu    syncutil.Mutex   // Guards irq.
	irq      Interrupter      // Timer interrupt sink.
}

// Create a TOD clock engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Precision == 0 {
		cfg.Precision = etod.Precision120
	}
	if !cfg.Precision.Valid() {
		return nil, errors.Annotatef(etod.ErrPrecision, "precision %d", cfg.Precision)
	}
	if cfg.MaxCPU == 0 {
		cfg.MaxCPU = 1
	}
	if cfg.MaxCPU < 1 || cfg.MaxCPU > MaxCPUs {
		return nil, errors.Annotatef(ErrMaxCPU, "max cpu %d", cfg.MaxCPU)
	}

	e := &Engine{
		host:     hostclock.New(cfg.Host, cfg.Precision),
		prec:     cfg.Precision,
		irq:      cfg.Interrupter,
		sysEpoch: epochConfig{year: 1900},
	}
	switch {
	case cfg.MaxCPU <= 64:
		e.cpuWidth = 6
	case cfg.MaxCPU <= 128:
		e.cpuWidth = 7
	default:
		e.cpuWidth = 8
	}
	e.cpuMask = (1 << e.cpuWidth) - 1
	e.cpus = make([]*cpuState, cfg.MaxCPU)
	for i := range e.cpus {
		e.cpus[i] = &cpuState{}
	}
	slog.Debug("TOD clock created", "precision", int(e.prec), "cpus", cfg.MaxCPU)
	return e, nil
}

// Number of CPU slots.
func (e *Engine) MaxCPU() int {
	return len(e.cpus)
}

func (e *Engine) Precision() etod.Precision {
	return e.prec
}

// Install interrupt sink for timer events.
func (e *Engine) SetInterrupter(irq Interrupter) {
	e.irqMu.Lock()
	e.irq = irq
	e.irqMu.Unlock()
}

// Return clock to power on state. Epoch, steering, timers and the
// uniqueness calibration are cleared. The hardware and frontend
// watermarks are kept so the clock never goes backward.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.steer.Reset()
	e.unique = etod.ETOD{}
	e.epoch = 0
	e.mu.Unlock()
	epochGauge.Set(0)
	for _, c := range e.cpus {
		c.mu.Lock()
		c.epoch = 0
		c.timers = [timerCount]timerState{}
		c.mu.Unlock()
	}
}
