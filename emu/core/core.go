/*
 * S370 - Clock core
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

package core

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rcornwell/todclock/config/clockconfig"
	"github.com/rcornwell/todclock/emu/hostclock"
	"github.com/rcornwell/todclock/emu/master"
	"github.com/rcornwell/todclock/emu/timer"
	"github.com/rcornwell/todclock/emu/tod"
	"github.com/rcornwell/todclock/util/syncutil"
)

type Core struct {
	wg      sync.WaitGroup
	done    chan struct{} // Signal to shutdown core.
	running atomic.Bool   // Indicate when timers should be checked.
	Master  chan master.Packet
	engine  *tod.Engine
	timer   *timer.Timer
	irqMu   syncutil.Mutex
	pending []tod.TimerKind // Posted timer interrupts by CPU.
}

// Create clock core from settings. A nil host uses the system clock.
func NewCore(settings *clockconfig.Settings, host hostclock.Reader) (*Core, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	core := &Core{
		Master:  make(chan master.Packet),
		done:    make(chan struct{}),
		pending: make([]tod.TimerKind, settings.MaxCPU),
	}
	engine, err := settings.NewEngine(host, core)
	if err != nil {
		return nil, err
	}
	core.engine = engine
	core.timer = timer.NewTimer(core.Master, settings.Interval())
	return core, nil
}

// Clock engine owned by the core.
func (core *Core) Engine() *tod.Engine {
	return core.engine
}

// Start processing packets.
func (core *Core) Start() {
	core.wg.Add(1)
	go core.run()
}

func (core *Core) run() {
	defer core.wg.Done()
	for {
		select {
		case <-core.done:
			return
		case packet := <-core.Master:
			core.processPacket(packet)
		}
	}
}

// Shut down the core and its timer.
func (core *Core) Stop() {
	slog.Info("Shutting down clock")
	core.timer.Shutdown()
	close(core.done)
	done := make(chan struct{})
	go func() {
		core.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(time.Second):
		slog.Warn("Timed out waiting for clock to finish.")
		return
	}
}

// Start checking timers.
func (core *Core) SendStart() {
	core.Master <- master.Packet{Msg: master.Start}
}

// Stop checking timers.
func (core *Core) SendStop() {
	core.Master <- master.Packet{Msg: master.Stop}
}

// Reset clock to power on state.
func (core *Core) SendReset() {
	core.Master <- master.Packet{Msg: master.Reset}
}

// True when timers are being checked.
func (core *Core) Running() bool {
	return core.running.Load()
}

// Process a packet sent to the core.
func (core *Core) processPacket(packet master.Packet) {
	switch packet.Msg {
	case master.TimeClock:
		if core.running.Load() {
			core.checkTimers()
		}
	case master.Start:
		if !core.running.Swap(true) {
			core.timer.Start()
		}
	case master.Stop:
		if core.running.Swap(false) {
			core.timer.Stop()
		}
	case master.Reset:
		core.engine.Reset()
		core.irqMu.Lock()
		clear(core.pending)
		core.irqMu.Unlock()
	}
}

// Check timers of every online CPU.
func (core *Core) checkTimers() {
	for cpu := range core.engine.MaxCPU() {
		if !core.engine.IsOnline(cpu) {
			continue
		}
		if _, err := core.engine.CheckTimers(cpu); err != nil {
			slog.Debug("Timer check skipped", "cpu", cpu, "error", err)
		}
	}
}

// Record timer interrupt for CPU.
func (core *Core) PostTimerInterrupt(cpu int, kind tod.TimerKind) {
	core.irqMu.Lock()
	if cpu >= 0 && cpu < len(core.pending) {
		core.pending[cpu] |= kind
	}
	core.irqMu.Unlock()
	slog.Debug("Timer interrupt", "cpu", cpu, "timer", kind.String())
}

// Return timer interrupts pending for CPU.
func (core *Core) Pending(cpu int) tod.TimerKind {
	core.irqMu.Lock()
	defer core.irqMu.Unlock()
	if cpu < 0 || cpu >= len(core.pending) {
		return 0
	}
	return core.pending[cpu]
}

// Clear pending timer interrupts of CPU.
func (core *Core) ClearPending(cpu int, kind tod.TimerKind) {
	core.irqMu.Lock()
	if cpu >= 0 && cpu < len(core.pending) {
		core.pending[cpu] &^= kind
	}
	core.irqMu.Unlock()
}
