/*
 * S370 - Regular timer event
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

package timer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pingcap/errors"
	"github.com/rcornwell/todclock/emu/master"
	"github.com/rcornwell/todclock/util/debug"
)

// Default tick interval.
const DefaultInterval = 10 * time.Millisecond

const (
	// Debug options.
	debugTick = 1 << iota
	debugCmd
)

var debugOption = map[string]int{
	"TICK": debugTick,
	"CMD":  debugCmd,
}

var debugMsk int

type Timer struct {
	wg       sync.WaitGroup
	running  bool // Indicate when ticks should be sent.
	interval time.Duration
	master   chan master.Packet
	enable   chan bool     // Enable or disable timer.
	done     chan struct{} // Stop timer task.
	ticker   *time.Ticker  // Regular timer interval.
}

// Create instance of clock timer sending a tick every interval.
func NewTimer(masterChannel chan master.Packet, interval time.Duration) *Timer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	timer := &Timer{
		master:   masterChannel,
		interval: interval,
		enable:   make(chan bool, 1),
		done:     make(chan struct{}),
	}
	// Run ticker to deliver regular commands on master channel.
	timer.wg.Add(1)
	go timer.run()
	return timer
}

// Start delivering clock ticks.
func (timer *Timer) Start() {
	debug.Debugf("TIMER", debugMsk, debugCmd, "start")
	timer.enable <- true
}

// Stop a timer for some time.
func (timer *Timer) Stop() {
	debug.Debugf("TIMER", debugMsk, debugCmd, "stop")
	timer.enable <- false
}

// Interval between ticks.
func (timer *Timer) Interval() time.Duration {
	return timer.interval
}

// Shutdown a running timer.
func (timer *Timer) Shutdown() {
	close(timer.done)
	done := make(chan struct{})
	go func() {
		timer.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(time.Second):
		slog.Warn("Timed out waiting for timer to finish.")
		return
	}
}

// Interval timer routine to send timer events on master channel.
func (timer *Timer) run() {
	defer timer.wg.Done()
	timer.ticker = time.NewTicker(timer.interval)
	defer timer.ticker.Stop()
	timer.running = false

	for {
		select {
		case <-timer.ticker.C:
			if timer.running {
				debug.Debugf("TIMER", debugMsk, debugTick, "tick")
				select {
				case timer.master <- master.Packet{Msg: master.TimeClock}:
				case running := <-timer.enable:
					timer.setRunning(running)
				case <-timer.done:
					return
				}
			}
		case running := <-timer.enable:
			timer.setRunning(running)
		case <-timer.done:
			return
		}
	}
}

// Enable or disable ticks, restarting the interval on enable.
func (timer *Timer) setRunning(running bool) {
	timer.running = running
	if running {
		timer.ticker.Reset(timer.interval)
	}
}

// Enable debug options.
func Debug(opt string) error {
	flag, ok := debugOption[opt]
	if !ok {
		return errors.New("timer debug option invalid: " + opt)
	}
	debugMsk |= flag
	return nil
}
