/*
 * S370 - Clock steering registers
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

package steering

import "math"

// Clock steering register.
type CSR struct {
	StartTime  uint64 // Start of the episode in hardware clock units.
	BaseOffset int64  // Logical TOD offset.
	FineRate   int32  // Fine steering rate.
	GrossRate  int32  // Gross steering rate.
}

// Which register is in effect.
type Active int

const (
	New Active = iota // Steady, new register in effect.
	Old               // New episode pending, old register in effect.
)

func (a Active) String() string {
	if a == Old {
		return "old"
	}
	return "new"
}

// Steering rate per unit of fine or gross steering.
var rateUnit = math.Ldexp(2, -44)

// Double buffered steering state. Not safe for concurrent use, the
// clock engine serializes all access under its lock.
type Engine struct {
	old          CSR
	new          CSR
	current      Active
	rate         float64 // Effective slew rate.
	episodeStart uint64  // Hardware clock at start of episode.
	offset       int64   // Frozen offset from universal time.
}

// Full register state, used for checkpoint.
type State struct {
	Current      Active
	Rate         float64
	EpisodeStart uint64
	Offset       int64
	Old          CSR
	New          CSR
}

// Clear all steering state.
func (e *Engine) Reset() {
	*e = Engine{}
}

// Clear both steering registers, keeping the current episode.
func (e *Engine) ResetRegisters() {
	e.old = CSR{}
	e.new = CSR{}
	e.current = New
}

// True when a new episode has been requested but not started.
func (e *Engine) Pending() bool {
	return e.current == Old
}

// Register currently in effect.
func (e *Engine) Current() CSR {
	if e.current == Old {
		return e.old
	}
	return e.new
}

func (e *Engine) Old() CSR {
	return e.old
}

func (e *Engine) New() CSR {
	return e.new
}

func (e *Engine) Rate() float64 {
	return e.rate
}

func (e *Engine) EpisodeStart() uint64 {
	return e.episodeStart
}

func (e *Engine) Offset() int64 {
	return e.offset
}

// Snapshot of registers.
func (e *Engine) State() State {
	return State{
		Current:      e.current,
		Rate:         e.rate,
		EpisodeStart: e.episodeStart,
		Offset:       e.offset,
		Old:          e.old,
		New:          e.new,
	}
}

// Load registers from snapshot.
func (e *Engine) SetState(s State) {
	e.current = s.Current
	e.rate = s.Rate
	e.episodeStart = s.EpisodeStart
	e.offset = s.Offset
	e.old = s.Old
	e.new = s.New
}

// Save new register into old and mark episode pending. Only the
// first request of an episode takes the snapshot.
func (e *Engine) beginPending() {
	if e.current == New {
		e.old = e.new
		e.current = Old
	}
}

func (e *Engine) SetFineRate(rate int32) {
	e.beginPending()
	e.new.FineRate = rate
}

func (e *Engine) AdjustFineRate(delta int32) {
	e.beginPending()
	e.new.FineRate += delta
}

func (e *Engine) SetGrossRate(rate int32) {
	e.beginPending()
	e.new.GrossRate = rate
}

func (e *Engine) AdjustGrossRate(delta int32) {
	e.beginPending()
	e.new.GrossRate += delta
}

func (e *Engine) SetOffset(offset int64) {
	e.beginPending()
	e.new.BaseOffset = offset
}

func (e *Engine) AdjustOffset(delta int64) {
	e.beginPending()
	e.new.BaseOffset += delta
}

// Steered value of universal time under the current episode.
func (e *Engine) adjusted(universal uint64) uint64 {
	adj := universal + uint64(e.offset)
	return adj + uint64(int64(float64(int64(adj-e.episodeStart))*e.rate))
}

// Start the pending episode at hardware time hwNow. The offset is
// frozen so the clock continues from hwNow without a jump.
func (e *Engine) Activate(hwNow uint64, universal uint64) {
	e.offset = int64(hwNow - universal)
	e.episodeStart = hwNow
	e.new.StartTime = hwNow
	e.rate = rateUnit * float64(int64(e.new.FineRate)+int64(e.new.GrossRate))
	e.current = New
}

// Commit any pending episode and return the steering parameters in
// effect at universal time.
func (e *Engine) EffectiveRateAndOffset(universal uint64) (rate float64, start uint64, offset int64) {
	if e.current == Old {
		e.Activate(e.adjusted(universal), universal)
	}
	return e.rate, e.episodeStart, e.offset
}

// Return steered hardware time for universal time, committing any
// pending episode first.
func (e *Engine) Apply(universal uint64) uint64 {
	e.EffectiveRateAndOffset(universal)
	return e.adjusted(universal)
}

// Directly set slew rate. The current offset is frozen and a new
// episode begins now.
func (e *Engine) SetRate(rate float64, universal uint64) {
	hw := e.Apply(universal)
	e.offset = int64(hw - universal)
	e.episodeStart = hw
	e.rate = rate
}
