/*
 * S370 - PTFF query functions
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

import "github.com/rcornwell/todclock/emu/steering"

// PTFF function codes.
const (
	FuncQAF = 0x00 // Query available functions.
	FuncQTO = 0x01 // Query TOD offset.
	FuncQSI = 0x02 // Query steering information.
	FuncQPT = 0x03 // Query physical clock.
	FuncATO = 0x40 // Adjust TOD offset.
	FuncSTO = 0x41 // Set TOD offset.
	FuncSFS = 0x42 // Set fine steering rate.
	FuncSGS = 0x43 // Set gross steering rate.
)

var availableFunctions = []int{FuncQAF, FuncQTO, FuncQSI, FuncQPT, FuncATO, FuncSTO, FuncSFS, FuncSGS}

// Result of query steering information.
type SteeringInfo struct {
	PhysicalClock uint64
	Old           steering.CSR
	New           steering.CSR
}

// Result of query TOD offset.
type TODOffsetInfo struct {
	PhysicalClock uint64
	TODOffset     int64 // Hardware clock less physical clock.
	LogicalOffset int64 // Base offset of register in effect.
	Epoch         int64
}

// Return function code bitmap, bit 0 is the leftmost bit of word 0.
func (e *Engine) QueryAvailableFunctions() [4]uint32 {
	var words [4]uint32
	for _, fc := range availableFunctions {
		words[fc/32] |= 0x80000000 >> (fc % 32)
	}
	return words
}

// Return the unsteered physical clock.
func (e *Engine) QueryPhysicalClock() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.host.Sample().High
}

// Return physical clock and both steering registers.
func (e *Engine) QuerySteeringInformation() SteeringInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return SteeringInfo{
		PhysicalClock: e.host.Sample().High,
		Old:           e.steer.Old(),
		New:           e.steer.New(),
	}
}

// Return clock offsets as seen by cpu, NoCPU uses the global epoch.
func (e *Engine) QueryTODOffset(cpu int) (TODOffsetInfo, error) {
	var c *cpuState
	if cpu != NoCPU {
		var err error
		if c, err = e.checkCPU(cpu); err != nil {
			return TODOffsetInfo{}, err
		}
	}

	e.mu.Lock()
	hw := e.hwSample().High
	physical := e.host.Last().High
	info := TODOffsetInfo{
		PhysicalClock: physical,
		TODOffset:     int64(hw - physical),
		LogicalOffset: e.steer.Current().BaseOffset,
		Epoch:         e.epoch,
	}
	e.mu.Unlock()

	if c != nil {
		c.mu.Lock()
		info.Epoch = c.epoch
		c.mu.Unlock()
	}
	return info, nil
}
