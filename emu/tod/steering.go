/*
 * S370 - TOD clock steering interface
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

// Directly set the steering rate. The current offset is frozen and a
// new episode starts now.
func (e *Engine) SetSteering(rate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	universal := e.host.Sample()
	e.steer.SetRate(rate, universal.High)
	steeringEpisodes.Inc()
	e.debugf(debugSteering, "steering rate set %g", rate)
}

// Current steering rate.
func (e *Engine) Steering() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.steer.Rate()
}

// Set fine steering rate, effective from the next clock read.
func (e *Engine) SetFineSteeringRate(rate int32) {
	e.mu.Lock()
	e.steer.SetFineRate(rate)
	e.mu.Unlock()
}

func (e *Engine) AdjustFineSteeringRate(delta int32) {
	e.mu.Lock()
	e.steer.AdjustFineRate(delta)
	e.mu.Unlock()
}

// Set gross steering rate, effective from the next clock read.
func (e *Engine) SetGrossSteeringRate(rate int32) {
	e.mu.Lock()
	e.steer.SetGrossRate(rate)
	e.mu.Unlock()
}

func (e *Engine) AdjustGrossSteeringRate(delta int32) {
	e.mu.Lock()
	e.steer.AdjustGrossRate(delta)
	e.mu.Unlock()
}

// Set logical TOD offset, effective from the next clock read.
func (e *Engine) SetTODOffset(offset int64) {
	e.mu.Lock()
	e.steer.SetOffset(offset)
	e.mu.Unlock()
}

func (e *Engine) AdjustTODOffset(delta int64) {
	e.mu.Lock()
	e.steer.AdjustOffset(delta)
	e.mu.Unlock()
}
